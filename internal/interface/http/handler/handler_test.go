package handler_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/civic-backend/internal/http/middleware"
	"github.com/ignatzorin/civic-backend/internal/identity"
	"github.com/ignatzorin/civic-backend/internal/interface/http/dto"
	"github.com/ignatzorin/civic-backend/internal/interface/http/handler"
	"github.com/ignatzorin/civic-backend/internal/mapcluster"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
	"github.com/ignatzorin/civic-backend/internal/usecase/reward"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router     *gin.Engine
	tokens     *identity.TokenVerifier
	complaints *memComplaints
	rewards    *memRewards
	photos     *memPhotos
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tokens:     identity.NewTokenVerifier("handler-test-secret"),
		complaints: newMemComplaints(),
		rewards:    newMemRewards(),
		photos:     &memPhotos{},
	}

	tx := passthroughTx{}
	ledger := reward.NewLedger(env.rewards, env.rewards, tx)

	complaintHandler := handler.NewComplaintHandler(
		complaint.NewSubmitComplaintUseCase(env.complaints, env.photos),
		complaint.NewGetComplaintUseCase(env.complaints),
		complaint.NewListMyComplaintsUseCase(env.complaints),
		1<<20,
		testMaxPhotoPixels,
		time.Second,
	)
	adminHandler := handler.NewAdminHandler(
		complaint.NewListComplaintsUseCase(env.complaints),
		complaint.NewDashboardStatsUseCase(env.complaints),
		complaint.NewTransitionStatusUseCase(env.complaints, ledger, tx, nil),
		complaint.NewSetUrgencyUseCase(env.complaints),
		complaint.NewSetAdminNotesUseCase(env.complaints),
	)
	rewardHandler := handler.NewRewardHandler(ledger)
	mapHandler := handler.NewMapHandler(complaint.NewMapViewUseCase(env.complaints, mapcluster.GujaratBounds))

	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(env.tokens))
	api.POST("/complaints", complaintHandler.Submit)
	api.GET("/complaints/my", complaintHandler.ListMy)
	api.GET("/complaints/:id", complaintHandler.Get)
	api.GET("/rewards/my", rewardHandler.My)
	api.POST("/rewards/:id/redeem", rewardHandler.Redeem)
	api.GET("/map", mapHandler.Get)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/complaints", adminHandler.List)
	admin.GET("/stats", adminHandler.Stats)
	admin.PUT("/complaints/:id/status", adminHandler.UpdateStatus)
	admin.PUT("/complaints/:id/urgency", adminHandler.SetUrgency)
	admin.PUT("/complaints/:id/notes", adminHandler.SetNotes)

	env.router = r
	return env
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := e.tokens.Issue(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req, token)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Target  string `json:"target"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func submitRequest(t *testing.T, photo []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		part, err := mw.CreateFormFile("photo", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/complaints", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// testMaxPhotoPixels держит предел маленьким, чтобы проверить отказ без больших снимков.
const testMaxPhotoPixels = 1_000_000

func oversizedPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1200, 1000))))
	return buf.Bytes()
}

func validFields() map[string]string {
	return map[string]string{
		"category":    "garbage",
		"description": "Overflowing bin near the market",
		"latitude":    "22.3",
		"longitude":   "72.1",
	}
}

func (e *testEnv) submit(t *testing.T, citizen uuid.UUID, fields map[string]string) dto.ComplaintResponse {
	t.Helper()
	w := e.do(t, submitRequest(t, jpegBytes(t), fields), e.token(t, citizen, ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.ComplaintResponse](t, w).Data
}

func TestSubmitComplaint(t *testing.T) {
	env := newTestEnv(t)
	citizen := uuid.New()

	created := env.submit(t, citizen, validFields())

	assert.Equal(t, citizen, created.CitizenID)
	assert.Equal(t, "pending", created.Status)
	assert.Nil(t, created.Urgency)
	assert.Nil(t, created.ResolvedAt)
	require.NotNil(t, created.LocationAddress)
	assert.Equal(t, "22.300000, 72.100000", *created.LocationAddress)
	require.Len(t, env.photos.keys, 1)
	assert.Equal(t, "https://cdn.example/"+env.photos.keys[0], created.PhotoURL)
}

func TestSubmitComplaint_Rejections(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New(), "")

	t.Run("missing photo", func(t *testing.T) {
		w := env.do(t, submitRequest(t, nil, validFields()), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		w := env.do(t, submitRequest(t, []byte("plain text, not a photo"), validFields()), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode[any](t, w).Error.Code)
	})

	t.Run("photo dimensions over limit", func(t *testing.T) {
		w := env.do(t, submitRequest(t, oversizedPNG(t), validFields()), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode[any](t, w).Error.Code)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		fields := validFields()
		delete(fields, "latitude")
		w := env.do(t, submitRequest(t, jpegBytes(t), fields), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("coordinate out of range", func(t *testing.T) {
		fields := validFields()
		fields["latitude"] = "91"
		w := env.do(t, submitRequest(t, jpegBytes(t), fields), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		fields := validFields()
		fields["category"] = "noise"
		w := env.do(t, submitRequest(t, jpegBytes(t), fields), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		env.photos.fail = true
		defer func() { env.photos.fail = false }()

		w := env.do(t, submitRequest(t, jpegBytes(t), validFields()), token)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "STORAGE_FAILURE", decode[any](t, w).Error.Code)
	})

	assert.Empty(t, env.complaints.byID)
}

func TestGetComplaint_Visibility(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	created := env.submit(t, owner, validFields())
	path := "/api/complaints/" + created.ID.String()

	assert.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, path, env.token(t, owner, ""), nil).Code)
	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodGet, path, env.token(t, uuid.New(), ""), nil).Code)
	assert.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, path, env.token(t, uuid.New(), identity.RoleAdmin), nil).Code)
}

func TestListMyComplaints(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	env.submit(t, owner, validFields())
	env.submit(t, uuid.New(), validFields())

	w := env.doJSON(t, http.MethodGet, "/api/complaints/my", env.token(t, owner, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.ComplaintResponse](t, w).Data, 1)
}

func TestLifecycleAndRewards(t *testing.T) {
	env := newTestEnv(t)
	citizen := uuid.New()
	created := env.submit(t, citizen, validFields())
	adminToken := env.token(t, uuid.New(), identity.RoleAdmin)
	citizenToken := env.token(t, citizen, "")
	statusPath := "/api/admin/complaints/" + created.ID.String() + "/status"

	w := env.doJSON(t, http.MethodPut, statusPath, adminToken, dto.UpdateStatusRequest{Status: "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[dto.TransitionResponse](t, w).Data.Reward)

	w = env.doJSON(t, http.MethodPut, statusPath, adminToken, dto.UpdateStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[dto.TransitionResponse](t, w).Data
	assert.Equal(t, "completed", done.Complaint.Status)
	require.NotNil(t, done.Complaint.ResolvedAt)
	require.NotNil(t, done.Reward)
	assert.Equal(t, 10, done.Reward.PointsEarned)
	assert.Regexp(t, `^GUJ[0-9A-Z]+$`, done.Reward.RedeemCode)

	w = env.doJSON(t, http.MethodPut, statusPath, adminToken, dto.UpdateStatusRequest{Status: "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[any](t, w).Error.Code)

	w = env.doJSON(t, http.MethodGet, "/api/rewards/my", citizenToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[dto.MyRewardsResponse](t, w).Data
	assert.Equal(t, 10, mine.Balance)
	require.Len(t, mine.Entries, 1)

	redeemPath := "/api/rewards/" + mine.Entries[0].ID.String() + "/redeem"
	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodPost, redeemPath, env.token(t, uuid.New(), ""), nil).Code)

	w = env.doJSON(t, http.MethodPost, redeemPath, citizenToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.RewardEntryResponse](t, w).Data.Redeemed)

	w = env.doJSON(t, http.MethodPost, redeemPath, citizenToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_REDEEMED", decode[any](t, w).Error.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(t, http.MethodGet, "/api/admin/stats", env.token(t, uuid.New(), ""), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminUrgencyAndNotes(t *testing.T) {
	env := newTestEnv(t)
	created := env.submit(t, uuid.New(), validFields())
	adminToken := env.token(t, uuid.New(), identity.RoleAdmin)
	base := "/api/admin/complaints/" + created.ID.String()

	w := env.doJSON(t, http.MethodPut, base+"/urgency", adminToken, dto.SetUrgencyRequest{Urgency: "high"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.ComplaintResponse](t, w).Data
	require.NotNil(t, got.Urgency)
	assert.Equal(t, "high", *got.Urgency)

	w = env.doJSON(t, http.MethodPut, base+"/urgency", adminToken, dto.SetUrgencyRequest{Urgency: "low"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "URGENCY_ALREADY_SET", decode[any](t, w).Error.Code)

	w = env.doJSON(t, http.MethodPut, base+"/urgency", adminToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPut, base+"/notes", adminToken, dto.SetAdminNotesRequest{Notes: "crew dispatched"})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[dto.ComplaintResponse](t, w).Data
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "crew dispatched", *got.AdminNotes)

	w = env.doJSON(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[complaint.DashboardStats](t, w).Data
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.HighPriority)
}

func TestAdminList_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, uuid.New(), validFields())
	drainage := validFields()
	drainage["category"] = "drainage"
	drainage["description"] = "Blocked drain"
	env.submit(t, uuid.New(), drainage)
	adminToken := env.token(t, uuid.New(), identity.RoleAdmin)

	w := env.doJSON(t, http.MethodGet, "/api/admin/complaints?category=drainage", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.ComplaintResponse](t, w).Data, 1)

	w = env.doJSON(t, http.MethodGet, "/api/admin/complaints?status=all&search=market", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.ComplaintResponse](t, w).Data, 1)

	w = env.doJSON(t, http.MethodGet, "/api/admin/complaints?status=closed", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMap(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, uuid.New(), validFields())
	near := validFields()
	near["latitude"], near["longitude"] = "22.31", "72.14"
	env.submit(t, uuid.New(), near)
	far := validFields()
	far["latitude"], far["longitude"] = "23.0", "72.6"
	env.submit(t, uuid.New(), far)

	w := env.doJSON(t, http.MethodGet, "/api/map", env.token(t, uuid.New(), ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[dto.MapResponse](t, w).Data

	assert.Equal(t, 3, view.Summary.Total)
	assert.Equal(t, 2, view.Summary.Areas)
	require.Len(t, view.Clusters, 2)
	assert.Equal(t, "23.0_72.6", view.Clusters[0].Key)
	assert.Equal(t, 2, view.Clusters[1].Total)
	assert.Equal(t, "pending", view.Clusters[1].PrimaryStatus)
	assert.GreaterOrEqual(t, view.Clusters[1].Position.X, 10.0)
	assert.LessOrEqual(t, view.Clusters[1].Position.Y, 90.0)

	w = env.doJSON(t, http.MethodGet, "/api/map?status=completed", env.token(t, uuid.New(), ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	filtered := decode[dto.MapResponse](t, w).Data
	assert.Empty(t, filtered.Clusters)
	assert.Equal(t, 3, filtered.Summary.Total)
}
