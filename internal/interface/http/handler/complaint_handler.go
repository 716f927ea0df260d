package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/capture"
	"github.com/ignatzorin/civic-backend/internal/interface/http/dto"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
)

// multipartOverhead: запас на поля формы сверх размера фото.
const multipartOverhead = 1 << 20

type ComplaintHandler struct {
	submitUC       *complaint.SubmitComplaintUseCase
	getUC          *complaint.GetComplaintUseCase
	listMyUC       *complaint.ListMyComplaintsUseCase
	maxUploadBytes int64
	maxPhotoPixels int64
	captureTimeout time.Duration
}

func NewComplaintHandler(
	submitUC *complaint.SubmitComplaintUseCase,
	getUC *complaint.GetComplaintUseCase,
	listMyUC *complaint.ListMyComplaintsUseCase,
	maxUploadBytes int64,
	maxPhotoPixels int64,
	captureTimeout time.Duration,
) *ComplaintHandler {
	return &ComplaintHandler{
		submitUC:       submitUC,
		getUC:          getUC,
		listMyUC:       listMyUC,
		maxUploadBytes: maxUploadBytes,
		maxPhotoPixels: maxPhotoPixels,
		captureTimeout: captureTimeout,
	}
}

// Submit принимает multipart форму: photo, category, description, latitude, longitude.
// Фото проходит через сессию захвата и перекодируется в JPEG.
func (h *ComplaintHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	photo, err := readPhoto(c, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(c.PostForm("latitude")), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(c.PostForm("longitude")), 64)
	if errLat != nil || errLng != nil {
		response.BadRequest(c, "latitude and longitude are required numbers")
		return
	}

	observation, err := h.observe(c, photo, lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.submitUC.Execute(c.Request.Context(), complaint.SubmitComplaintInput{
		CitizenID:   userID,
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Observation: *observation,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToComplaintResponse(created))
}

func (h *ComplaintHandler) observe(c *gin.Context, photo []byte, lat, lng float64) (*capture.Observation, error) {
	ctx := c.Request.Context()
	session := capture.NewSession(
		capture.NewUploadedCamera(photo, h.maxPhotoPixels),
		capture.NewFixedLocator(lat, lng),
		capture.WithTimeout(h.captureTimeout),
	)
	defer session.Close()

	if err := session.Acquire(ctx); err != nil {
		return nil, err
	}
	if _, err := session.Capture(ctx); err != nil {
		return nil, err
	}
	return session.Observation(ctx)
}

func readPhoto(c *gin.Context, limit int64) ([]byte, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		return nil, apperror.ErrNothingCaptured
	}
	if limit > 0 && header.Size > limit {
		return nil, apperror.New(apperror.ErrCodeValidation, "photo is too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "failed to read photo")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "failed to read photo")
	}
	return data, nil
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid complaint id")
		return
	}

	found, err := h.getUC.Execute(c.Request.Context(), complaintID, userID, isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToComplaintResponse(found))
}

func (h *ComplaintHandler) ListMy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	complaints, err := h.listMyUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToComplaintListResponse(complaints))
}
