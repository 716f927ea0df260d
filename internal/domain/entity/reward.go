package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const (
	// ResolutionRewardPoints: начисление за решённую жалобу по текущей политике.
	ResolutionRewardPoints  = 10
	ReasonComplaintResolved = "Complaint Resolved"
)

type RewardEntry struct {
	ID           uuid.UUID
	CitizenID    uuid.UUID
	ComplaintID  *uuid.UUID
	PointsEarned int
	RedeemCode   string
	Redeemed     bool
	Reason       string
	CreatedAt    time.Time
}

func NewRewardEntry(citizenID uuid.UUID, complaintID *uuid.UUID, points int, redeemCode, reason string, now time.Time) (*RewardEntry, error) {
	if citizenID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "citizen id is required")
	}
	if points <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "points must be positive")
	}
	if strings.TrimSpace(redeemCode) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "redeem code is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "reward reason is required")
	}

	return &RewardEntry{
		ID:           uuid.New(),
		CitizenID:    citizenID,
		ComplaintID:  complaintID,
		PointsEarned: points,
		RedeemCode:   redeemCode,
		Reason:       reason,
		CreatedAt:    now,
	}, nil
}

// Redeem отмечает запись погашенной. Обратного перехода нет.
func (e *RewardEntry) Redeem() error {
	if e.Redeemed {
		return apperror.ErrAlreadyRedeemed
	}
	e.Redeemed = true
	return nil
}

func (e *RewardEntry) IsOwnedBy(citizenID uuid.UUID) bool {
	return e.CitizenID == citizenID
}
