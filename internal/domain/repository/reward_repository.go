package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
)

type RewardRepository interface {
	Append(ctx context.Context, entry *entity.RewardEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RewardEntry, error)
	ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.RewardEntry, error)
	// MarkRedeemed переводит redeemed в true условным UPDATE;
	// повторное погашение возвращает apperror.ErrAlreadyRedeemed.
	MarkRedeemed(ctx context.Context, id uuid.UUID) error
}

// BalanceRepository хранит reward_points профиля гражданина.
type BalanceRepository interface {
	// IncrementPoints атомарно прибавляет points к балансу на стороне БД.
	IncrementPoints(ctx context.Context, citizenID uuid.UUID, points int) error
	GetPoints(ctx context.Context, citizenID uuid.UUID) (int, error)
}
