package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const complaintColumns = `id, user_id, category, description, photo_url, latitude, longitude,
		location_address, status, urgency, admin_notes, resolved_at, created_at, updated_at`

type complaintRow struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	Category        string         `db:"category"`
	Description     sql.NullString `db:"description"`
	PhotoURL        string         `db:"photo_url"`
	Latitude        float64        `db:"latitude"`
	Longitude       float64        `db:"longitude"`
	LocationAddress sql.NullString `db:"location_address"`
	Status          string         `db:"status"`
	Urgency         sql.NullString `db:"urgency"`
	AdminNotes      sql.NullString `db:"admin_notes"`
	ResolvedAt      sql.NullTime   `db:"resolved_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r complaintRow) toEntity() *entity.Complaint {
	c := &entity.Complaint{
		ID:              r.ID,
		CitizenID:       r.UserID,
		Category:        valueobject.Category(r.Category),
		Description:     nullString(r.Description),
		PhotoURL:        r.PhotoURL,
		Location:        valueobject.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		LocationAddress: nullString(r.LocationAddress),
		Status:          valueobject.ComplaintStatus(r.Status),
		AdminNotes:      nullString(r.AdminNotes),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Urgency.Valid {
		level := valueobject.UrgencyLevel(r.Urgency.String)
		c.Urgency = &level
	}
	if r.ResolvedAt.Valid {
		resolvedAt := r.ResolvedAt.Time
		c.ResolvedAt = &resolvedAt
	}
	return c
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

type ComplaintRepositoryAdapter struct {
	db *sqlx.DB
}

func NewComplaintRepositoryAdapter(db *sqlx.DB) *ComplaintRepositoryAdapter {
	return &ComplaintRepositoryAdapter{db: db}
}

func (r *ComplaintRepositoryAdapter) Create(ctx context.Context, c *entity.Complaint) error {
	query := `
		INSERT INTO complaints (` + complaintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		c.ID,
		c.CitizenID,
		string(c.Category),
		c.Description,
		c.PhotoURL,
		c.Location.Latitude,
		c.Location.Longitude,
		c.LocationAddress,
		string(c.Status),
		urgencyValue(c.Urgency),
		c.AdminNotes,
		c.ResolvedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to create complaint")
	}
	return nil
}

func (r *ComplaintRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error) {
	var row complaintRow
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`

	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrComplaintNotFound
	}
	if err != nil {
		return nil, apperror.RecordStoreFailure(err, "failed to load complaint")
	}
	return row.toEntity(), nil
}

func (r *ComplaintRepositoryAdapter) ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE user_id = $1 ORDER BY created_at DESC`
	return r.selectComplaints(ctx, query, citizenID)
}

func (r *ComplaintRepositoryAdapter) List(ctx context.Context, filter repository.ComplaintFilter) ([]*entity.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, string(*filter.Category))
		argNum++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (location_address ILIKE $%d OR description ILIKE $%d OR id::text ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+filter.Search+"%")
	}

	query += " ORDER BY created_at DESC"
	return r.selectComplaints(ctx, query, args...)
}

func (r *ComplaintRepositoryAdapter) selectComplaints(ctx context.Context, query string, args ...interface{}) ([]*entity.Complaint, error) {
	var rows []complaintRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, apperror.RecordStoreFailure(err, "failed to load complaints")
	}

	complaints := make([]*entity.Complaint, 0, len(rows))
	for _, row := range rows {
		complaints = append(complaints, row.toEntity())
	}
	return complaints, nil
}

func (r *ComplaintRepositoryAdapter) UpdateStatus(ctx context.Context, c *entity.Complaint, expected valueobject.ComplaintStatus) error {
	query := `
		UPDATE complaints
		SET status = $2, resolved_at = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		c.ID,
		string(c.Status),
		c.ResolvedAt,
		c.UpdatedAt,
		string(expected),
	)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to update complaint status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to check status update")
	}
	// Статус успел измениться другим администратором.
	if rows == 0 {
		return apperror.ErrInvalidTransition
	}
	return nil
}

func (r *ComplaintRepositoryAdapter) SetUrgency(ctx context.Context, id uuid.UUID, level valueobject.UrgencyLevel, at time.Time) error {
	query := `
		UPDATE complaints
		SET urgency = $2, updated_at = $3
		WHERE id = $1 AND urgency IS NULL
	`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, string(level), at)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to set urgency")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to check urgency update")
	}
	if rows == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.ErrComplaintNotFound
		}
		return apperror.ErrUrgencyAlreadySet
	}
	return nil
}

func (r *ComplaintRepositoryAdapter) UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes *string, at time.Time) error {
	query := `UPDATE complaints SET admin_notes = $2, updated_at = $3 WHERE id = $1`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, notes, at)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to save admin notes")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to check admin notes update")
	}
	if rows == 0 {
		return apperror.ErrComplaintNotFound
	}
	return nil
}

func (r *ComplaintRepositoryAdapter) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query, id); err != nil {
		return false, apperror.RecordStoreFailure(err, "failed to check complaint")
	}
	return exists, nil
}

func urgencyValue(u *valueobject.UrgencyLevel) interface{} {
	if u == nil {
		return nil
	}
	return string(*u)
}
