package complaint

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

type GetComplaintUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewGetComplaintUseCase(complaintRepo repository.ComplaintRepository) *GetComplaintUseCase {
	return &GetComplaintUseCase{complaintRepo: complaintRepo}
}

// Execute отдаёт жалобу владельцу или администратору. Для остальных
// чужая жалоба неотличима от отсутствующей.
func (uc *GetComplaintUseCase) Execute(ctx context.Context, complaintID, viewerID uuid.UUID, isAdmin bool) (*entity.Complaint, error) {
	complaint, err := uc.complaintRepo.FindByID(ctx, complaintID)
	if err != nil {
		return nil, storeFailure(err, "failed to load complaint")
	}
	if !isAdmin && !complaint.IsOwnedBy(viewerID) {
		return nil, apperror.ErrComplaintNotFound
	}
	return complaint, nil
}

type ListMyComplaintsUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewListMyComplaintsUseCase(complaintRepo repository.ComplaintRepository) *ListMyComplaintsUseCase {
	return &ListMyComplaintsUseCase{complaintRepo: complaintRepo}
}

func (uc *ListMyComplaintsUseCase) Execute(ctx context.Context, citizenID uuid.UUID) ([]*entity.Complaint, error) {
	complaints, err := uc.complaintRepo.ListByCitizen(ctx, citizenID)
	if err != nil {
		return nil, storeFailure(err, "failed to load complaints")
	}
	return complaints, nil
}

type ListComplaintsInput struct {
	Status   string
	Category string
	Search   string
}

type ListComplaintsUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewListComplaintsUseCase(complaintRepo repository.ComplaintRepository) *ListComplaintsUseCase {
	return &ListComplaintsUseCase{complaintRepo: complaintRepo}
}

// Execute возвращает жалобы для панели администратора. Пустой фильтр или
// значение "all" означает отсутствие ограничения.
func (uc *ListComplaintsUseCase) Execute(ctx context.Context, input ListComplaintsInput) ([]*entity.Complaint, error) {
	filter, err := buildFilter(input)
	if err != nil {
		return nil, err
	}
	complaints, err := uc.complaintRepo.List(ctx, filter)
	if err != nil {
		return nil, storeFailure(err, "failed to load complaints")
	}
	return complaints, nil
}

func buildFilter(input ListComplaintsInput) (repository.ComplaintFilter, error) {
	var filter repository.ComplaintFilter
	if s := strings.TrimSpace(input.Status); s != "" && s != "all" {
		status, err := valueobject.NewComplaintStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if c := strings.TrimSpace(input.Category); c != "" && c != "all" {
		category, err := valueobject.NewCategory(c)
		if err != nil {
			return filter, err
		}
		filter.Category = &category
	}
	filter.Search = strings.TrimSpace(input.Search)
	return filter, nil
}

type DashboardStats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
	HighPriority int `json:"high_priority"`
}

type DashboardStatsUseCase struct {
	complaintRepo repository.ComplaintRepository
}

func NewDashboardStatsUseCase(complaintRepo repository.ComplaintRepository) *DashboardStatsUseCase {
	return &DashboardStatsUseCase{complaintRepo: complaintRepo}
}

// Execute считает сводку по всем жалобам. Высокий приоритет означает срочность high
// у ещё не решённой жалобы.
func (uc *DashboardStatsUseCase) Execute(ctx context.Context) (*DashboardStats, error) {
	complaints, err := uc.complaintRepo.List(ctx, repository.ComplaintFilter{})
	if err != nil {
		return nil, storeFailure(err, "failed to load complaints")
	}
	return computeStats(complaints), nil
}

func computeStats(complaints []*entity.Complaint) *DashboardStats {
	stats := &DashboardStats{Total: len(complaints)}
	for _, c := range complaints {
		switch c.Status {
		case valueobject.ComplaintStatusPending:
			stats.Pending++
		case valueobject.ComplaintStatusInProgress:
			stats.InProgress++
		case valueobject.ComplaintStatusCompleted:
			stats.Completed++
		}
		if c.IsHighPriorityOpen() {
			stats.HighPriority++
		}
	}
	return stats
}
