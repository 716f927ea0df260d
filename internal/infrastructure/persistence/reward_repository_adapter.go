package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// pqUniqueViolation: SQLSTATE нарушения уникальности.
const pqUniqueViolation = "23505"

const rewardColumns = `id, user_id, complaint_id, points_earned, redeem_code, redeemed, reason, created_at`

type rewardRow struct {
	ID           uuid.UUID     `db:"id"`
	UserID       uuid.UUID     `db:"user_id"`
	ComplaintID  uuid.NullUUID `db:"complaint_id"`
	PointsEarned int           `db:"points_earned"`
	RedeemCode   string        `db:"redeem_code"`
	Redeemed     bool          `db:"redeemed"`
	Reason       string        `db:"reason"`
	CreatedAt    time.Time     `db:"created_at"`
}

func (r rewardRow) toEntity() *entity.RewardEntry {
	e := &entity.RewardEntry{
		ID:           r.ID,
		CitizenID:    r.UserID,
		PointsEarned: r.PointsEarned,
		RedeemCode:   r.RedeemCode,
		Redeemed:     r.Redeemed,
		Reason:       r.Reason,
		CreatedAt:    r.CreatedAt,
	}
	if r.ComplaintID.Valid {
		id := r.ComplaintID.UUID
		e.ComplaintID = &id
	}
	return e
}

type RewardRepositoryAdapter struct {
	db *sqlx.DB
}

func NewRewardRepositoryAdapter(db *sqlx.DB) *RewardRepositoryAdapter {
	return &RewardRepositoryAdapter{db: db}
}

func (r *RewardRepositoryAdapter) Append(ctx context.Context, e *entity.RewardEntry) error {
	query := `
		INSERT INTO reward_points_ledger (` + rewardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var complaintID uuid.NullUUID
	if e.ComplaintID != nil {
		complaintID = uuid.NullUUID{UUID: *e.ComplaintID, Valid: true}
	}

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		e.ID,
		e.CitizenID,
		complaintID,
		e.PointsEarned,
		e.RedeemCode,
		e.Redeemed,
		e.Reason,
		e.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperror.RecordStoreFailure(err, "duplicate reward entry")
		}
		return apperror.RecordStoreFailure(err, "failed to append reward entry")
	}
	return nil
}

func (r *RewardRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.RewardEntry, error) {
	var row rewardRow
	query := `SELECT ` + rewardColumns + ` FROM reward_points_ledger WHERE id = $1`

	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrRewardNotFound
	}
	if err != nil {
		return nil, apperror.RecordStoreFailure(err, "failed to load reward")
	}
	return row.toEntity(), nil
}

func (r *RewardRepositoryAdapter) ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.RewardEntry, error) {
	var rows []rewardRow
	query := `SELECT ` + rewardColumns + ` FROM reward_points_ledger WHERE user_id = $1 ORDER BY created_at DESC`

	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, citizenID); err != nil {
		return nil, apperror.RecordStoreFailure(err, "failed to load rewards")
	}

	entries := make([]*entity.RewardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntity())
	}
	return entries, nil
}

func (r *RewardRepositoryAdapter) MarkRedeemed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE reward_points_ledger SET redeemed = TRUE WHERE id = $1 AND redeemed = FALSE`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to redeem reward")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to check redeem")
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	check := `SELECT EXISTS(SELECT 1 FROM reward_points_ledger WHERE id = $1)`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, check, id); err != nil {
		return apperror.RecordStoreFailure(err, "failed to check reward")
	}
	if !exists {
		return apperror.ErrRewardNotFound
	}
	return apperror.ErrAlreadyRedeemed
}

// BalanceRepositoryAdapter хранит баланс в profiles.reward_points.
type BalanceRepositoryAdapter struct {
	db *sqlx.DB
}

func NewBalanceRepositoryAdapter(db *sqlx.DB) *BalanceRepositoryAdapter {
	return &BalanceRepositoryAdapter{db: db}
}

// IncrementPoints прибавляет очки одним upsert без чтения текущего значения.
func (r *BalanceRepositoryAdapter) IncrementPoints(ctx context.Context, citizenID uuid.UUID, points int) error {
	query := `
		INSERT INTO profiles (user_id, reward_points, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET reward_points = profiles.reward_points + $2, updated_at = NOW()
	`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, citizenID, points); err != nil {
		return apperror.RecordStoreFailure(err, "failed to update reward balance")
	}
	return nil
}

func (r *BalanceRepositoryAdapter) GetPoints(ctx context.Context, citizenID uuid.UUID) (int, error) {
	var points int
	query := `SELECT reward_points FROM profiles WHERE user_id = $1`

	err := sqlx.GetContext(ctx, executor(ctx, r.db), &points, query, citizenID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperror.RecordStoreFailure(err, "failed to load reward balance")
	}
	return points, nil
}
