package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
)

type RewardEntryResponse struct {
	ID           uuid.UUID  `json:"id"`
	ComplaintID  *uuid.UUID `json:"complaint_id"`
	PointsEarned int        `json:"points_earned"`
	RedeemCode   string     `json:"redeem_code"`
	Redeemed     bool       `json:"redeemed"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
}

type MyRewardsResponse struct {
	Balance int                   `json:"balance"`
	Entries []RewardEntryResponse `json:"entries"`
}

func ToRewardEntryResponse(e *entity.RewardEntry) RewardEntryResponse {
	return RewardEntryResponse{
		ID:           e.ID,
		ComplaintID:  e.ComplaintID,
		PointsEarned: e.PointsEarned,
		RedeemCode:   e.RedeemCode,
		Redeemed:     e.Redeemed,
		Reason:       e.Reason,
		CreatedAt:    e.CreatedAt,
	}
}

func ToMyRewardsResponse(balance int, entries []*entity.RewardEntry) MyRewardsResponse {
	resp := MyRewardsResponse{
		Balance: balance,
		Entries: make([]RewardEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, ToRewardEntryResponse(e))
	}
	return resp
}
