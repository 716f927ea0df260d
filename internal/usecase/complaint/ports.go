// Package complaint реализует подачу жалоб, их жизненный цикл и
// административные выборки.
package complaint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const (
	EventStatusChanged = "complaint.status_changed"
	EventRewardIssued  = "reward.issued"
)

// PhotoStorage сохраняет снимок и возвращает его публичный URL.
type PhotoStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// RewardIssuer начисляет награду за решённую жалобу.
type RewardIssuer interface {
	AwardForResolution(ctx context.Context, complaintID, citizenID uuid.UUID) (*entity.RewardEntry, error)
}

// EventPublisher доставляет события гражданину, например через websocket-хаб.
type EventPublisher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

type StatusChangedEvent struct {
	ComplaintID uuid.UUID  `json:"complaint_id"`
	Status      string     `json:"status"`
	StatusLabel string     `json:"status_label"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type RewardIssuedEvent struct {
	EntryID      uuid.UUID `json:"entry_id"`
	ComplaintID  uuid.UUID `json:"complaint_id"`
	PointsEarned int       `json:"points_earned"`
	RedeemCode   string    `json:"redeem_code"`
	Reason       string    `json:"reason"`
}

func storeFailure(err error, message string) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.RecordStoreFailure(err, message)
}
