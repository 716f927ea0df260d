package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/interface/http/dto"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
)

type AdminHandler struct {
	listUC       *complaint.ListComplaintsUseCase
	statsUC      *complaint.DashboardStatsUseCase
	transitionUC *complaint.TransitionStatusUseCase
	urgencyUC    *complaint.SetUrgencyUseCase
	notesUC      *complaint.SetAdminNotesUseCase
}

func NewAdminHandler(
	listUC *complaint.ListComplaintsUseCase,
	statsUC *complaint.DashboardStatsUseCase,
	transitionUC *complaint.TransitionStatusUseCase,
	urgencyUC *complaint.SetUrgencyUseCase,
	notesUC *complaint.SetAdminNotesUseCase,
) *AdminHandler {
	return &AdminHandler{
		listUC:       listUC,
		statsUC:      statsUC,
		transitionUC: transitionUC,
		urgencyUC:    urgencyUC,
		notesUC:      notesUC,
	}
}

// List обслуживает GET /admin/complaints?status=&category=&search=
func (h *AdminHandler) List(c *gin.Context) {
	complaints, err := h.listUC.Execute(c.Request.Context(), complaint.ListComplaintsInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToComplaintListResponse(complaints))
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.statsUC.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid complaint id")
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}

	result, err := h.transitionUC.Execute(c.Request.Context(), complaintID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransitionResponse(result))
}

func (h *AdminHandler) SetUrgency(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid complaint id")
		return
	}

	var req dto.SetUrgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "urgency is required")
		return
	}

	updated, err := h.urgencyUC.Execute(c.Request.Context(), complaintID, req.Urgency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToComplaintResponse(updated))
}

func (h *AdminHandler) SetNotes(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid complaint id")
		return
	}

	var req dto.SetAdminNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	updated, err := h.notesUC.Execute(c.Request.Context(), complaintID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToComplaintResponse(updated))
}
