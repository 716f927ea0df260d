package complaint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/goroutine"
	"github.com/ignatzorin/civic-backend/internal/logger"
)

type TransitionResult struct {
	Complaint *entity.Complaint
	// Reward заполнена только при переходе в completed.
	Reward *entity.RewardEntry
}

type TransitionStatusUseCase struct {
	complaintRepo repository.ComplaintRepository
	rewards       RewardIssuer
	tx            repository.Transactor
	events        EventPublisher
}

func NewTransitionStatusUseCase(complaintRepo repository.ComplaintRepository, rewards RewardIssuer, tx repository.Transactor, events EventPublisher) *TransitionStatusUseCase {
	return &TransitionStatusUseCase{
		complaintRepo: complaintRepo,
		rewards:       rewards,
		tx:            tx,
		events:        events,
	}
}

// Execute переводит жалобу в новый статус. Запись статуса и начисление
// награды выполняются в одной транзакции: если награду выдать не удалось,
// статус не меняется. Условный UPDATE гарантирует не более одной награды
// на жалобу даже при параллельных администраторах.
func (uc *TransitionStatusUseCase) Execute(ctx context.Context, complaintID uuid.UUID, newStatus string) (*TransitionResult, error) {
	target, err := valueobject.NewComplaintStatus(newStatus)
	if err != nil {
		return nil, err
	}

	var result TransitionResult
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		complaint, err := uc.complaintRepo.FindByID(ctx, complaintID)
		if err != nil {
			return storeFailure(err, "failed to load complaint")
		}

		expected := complaint.Status
		if err := complaint.TransitionTo(target, time.Now().UTC()); err != nil {
			return err
		}
		if err := uc.complaintRepo.UpdateStatus(ctx, complaint, expected); err != nil {
			return storeFailure(err, "failed to update complaint status")
		}

		if complaint.IsResolved() {
			entry, err := uc.rewards.AwardForResolution(ctx, complaint.ID, complaint.CitizenID)
			if err != nil {
				return err
			}
			result.Reward = entry
		}

		result.Complaint = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(result)
	return &result, nil
}

// publish уведомляет гражданина после фиксации транзакции; ошибки доставки
// только логируются.
func (uc *TransitionStatusUseCase) publish(result TransitionResult) {
	if uc.events == nil {
		return
	}
	c := result.Complaint
	statusEvent := StatusChangedEvent{
		ComplaintID: c.ID,
		Status:      string(c.Status),
		StatusLabel: c.Status.Label(),
		ResolvedAt:  c.ResolvedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	goroutine.SafeGo(func() {
		uc.send(c.CitizenID, EventStatusChanged, statusEvent)
		if r := result.Reward; r != nil {
			uc.send(c.CitizenID, EventRewardIssued, RewardIssuedEvent{
				EntryID:      r.ID,
				ComplaintID:  c.ID,
				PointsEarned: r.PointsEarned,
				RedeemCode:   r.RedeemCode,
				Reason:       r.Reason,
			})
		}
	})
}

func (uc *TransitionStatusUseCase) send(userID uuid.UUID, event string, data any) {
	if err := uc.events.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"error":   err.Error(),
		}).Warn("complaint: failed to publish event")
	}
}
