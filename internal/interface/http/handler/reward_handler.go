package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/interface/http/dto"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/civic-backend/internal/usecase/reward"
)

type RewardHandler struct {
	ledger *reward.Ledger
}

func NewRewardHandler(ledger *reward.Ledger) *RewardHandler {
	return &RewardHandler{ledger: ledger}
}

// My возвращает записи книги наград и текущий баланс гражданина.
func (h *RewardHandler) My(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	entries, err := h.ledger.ListForCitizen(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMyRewardsResponse(balance, entries))
}

func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reward id")
		return
	}

	entry, err := h.ledger.Redeem(c.Request.Context(), entryID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToRewardEntryResponse(entry))
}
