package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/civic-backend/internal/interface/http/dto"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
)

type MapHandler struct {
	mapUC *complaint.MapViewUseCase
}

func NewMapHandler(mapUC *complaint.MapViewUseCase) *MapHandler {
	return &MapHandler{mapUC: mapUC}
}

// Get обслуживает GET /map?status=
func (h *MapHandler) Get(c *gin.Context) {
	view, err := h.mapUC.Execute(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMapResponse(view))
}
