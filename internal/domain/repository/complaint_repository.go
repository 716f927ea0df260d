package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *entity.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error)
	ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]*entity.Complaint, error)

	// UpdateStatus сохраняет status, updated_at и resolved_at одним условным
	// UPDATE: запись меняется, только если текущий статус равен expected.
	// Если строка не изменилась, возвращается apperror.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, complaint *entity.Complaint, expected valueobject.ComplaintStatus) error
	// SetUrgency выставляет срочность, только если она ещё не задана.
	SetUrgency(ctx context.Context, id uuid.UUID, level valueobject.UrgencyLevel, at time.Time) error
	UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes *string, at time.Time) error
}

type ComplaintFilter struct {
	Status   *valueobject.ComplaintStatus
	Category *valueobject.Category
	Search   string
}
