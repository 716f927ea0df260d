package complaint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
)

type SetUrgencyUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewSetUrgencyUseCase(complaintRepo repository.ComplaintRepository) *SetUrgencyUseCase {
	return &SetUrgencyUseCase{complaintRepo: complaintRepo}
}

// Execute назначает срочность один раз при любом статусе жалобы.
func (uc *SetUrgencyUseCase) Execute(ctx context.Context, complaintID uuid.UUID, level string) (*entity.Complaint, error) {
	urgency, err := valueobject.NewUrgencyLevel(level)
	if err != nil {
		return nil, err
	}

	complaint, err := uc.complaintRepo.FindByID(ctx, complaintID)
	if err != nil {
		return nil, storeFailure(err, "failed to load complaint")
	}
	if err := complaint.SetUrgency(urgency, time.Now().UTC()); err != nil {
		return nil, err
	}

	// Хранилище повторяет проверку условием urgency IS NULL.
	if err := uc.complaintRepo.SetUrgency(ctx, complaint.ID, urgency, complaint.UpdatedAt); err != nil {
		return nil, storeFailure(err, "failed to set urgency")
	}
	return complaint, nil
}

type SetAdminNotesUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewSetAdminNotesUseCase(complaintRepo repository.ComplaintRepository) *SetAdminNotesUseCase {
	return &SetAdminNotesUseCase{complaintRepo: complaintRepo}
}

// Execute перезаписывает заметки администратора. Пустая строка очищает их.
// При одновременной правке побеждает последняя запись.
func (uc *SetAdminNotesUseCase) Execute(ctx context.Context, complaintID uuid.UUID, notes string) (*entity.Complaint, error) {
	complaint, err := uc.complaintRepo.FindByID(ctx, complaintID)
	if err != nil {
		return nil, storeFailure(err, "failed to load complaint")
	}

	complaint.SetAdminNotes(notes, time.Now().UTC())
	if err := uc.complaintRepo.UpdateAdminNotes(ctx, complaint.ID, complaint.AdminNotes, complaint.UpdatedAt); err != nil {
		return nil, storeFailure(err, "failed to save admin notes")
	}
	return complaint, nil
}
