package complaint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/civic-backend/internal/capture"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/logger"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const photoContentType = "image/jpeg"

type SubmitComplaintInput struct {
	CitizenID   uuid.UUID
	Category    string
	Description string
	Observation capture.Observation
}

type SubmitComplaintUseCase struct {
	complaintRepo repository.ComplaintRepository
	photos        PhotoStorage
}

func NewSubmitComplaintUseCase(complaintRepo repository.ComplaintRepository, photos PhotoStorage) *SubmitComplaintUseCase {
	return &SubmitComplaintUseCase{
		complaintRepo: complaintRepo,
		photos:        photos,
	}
}

// Execute проверяет ввод, загружает снимок и только после успешной загрузки
// создаёт жалобу в статусе pending.
func (uc *SubmitComplaintUseCase) Execute(ctx context.Context, input SubmitComplaintInput) (*entity.Complaint, error) {
	if input.CitizenID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	category, err := valueobject.NewCategory(input.Category)
	if err != nil {
		return nil, err
	}
	if err := entity.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	coord, err := valueobject.NewCoordinate(input.Observation.Latitude, input.Observation.Longitude)
	if err != nil {
		return nil, err
	}
	if len(input.Observation.Image) == 0 {
		return nil, apperror.ErrNothingCaptured
	}

	now := time.Now().UTC()
	key := PhotoKey(input.CitizenID, now)
	photoURL, err := uc.photos.Put(ctx, key, input.Observation.Image, photoContentType)
	if err != nil {
		return nil, apperror.StorageFailure(err)
	}

	complaint, err := entity.NewComplaint(entity.NewComplaintParams{
		CitizenID:       input.CitizenID,
		Category:        category,
		Description:     input.Description,
		PhotoURL:        photoURL,
		Location:        coord,
		LocationAddress: input.Observation.AddressLabel,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.complaintRepo.Create(ctx, complaint); err != nil {
		// Снимок уже загружен и остаётся в хранилище без записи.
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"citizen_id": input.CitizenID,
				"photo_key":  key,
				"error":      err.Error(),
			}).Warn("complaint: photo stored but record insert failed")
		}
		return nil, storeFailure(err, "failed to save complaint")
	}

	return complaint, nil
}

// PhotoKey строит ключ объекта вида {citizenId}/{epochMillis}.jpg.
func PhotoKey(citizenID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s/%d.jpg", citizenID, at.UnixMilli())
}
