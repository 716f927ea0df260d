package complaint

import (
	"context"
	"strings"

	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/mapcluster"
)

// MapView: кластеры в стабильном порядке и сводка для легенды.
type MapView struct {
	Bounds   mapcluster.Bounds
	Clusters []*mapcluster.Cluster
	Summary  mapcluster.Summary
}

type MapViewUseCase struct {
	complaintRepo repository.ComplaintRepository
	bounds        mapcluster.Bounds
}

func NewMapViewUseCase(complaintRepo repository.ComplaintRepository, bounds mapcluster.Bounds) *MapViewUseCase {
	return &MapViewUseCase{complaintRepo: complaintRepo, bounds: bounds}
}

// Execute пересчитывает кластеры на каждом запросе. Сводка всегда строится
// по всем жалобам, фильтр влияет только на показанные кластеры.
func (uc *MapViewUseCase) Execute(ctx context.Context, status string) (*MapView, error) {
	var filter *valueobject.ComplaintStatus
	if s := strings.TrimSpace(status); s != "" && s != "all" {
		parsed, err := valueobject.NewComplaintStatus(s)
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}

	complaints, err := uc.complaintRepo.List(ctx, repository.ComplaintFilter{})
	if err != nil {
		return nil, storeFailure(err, "failed to load complaints")
	}

	clusters := mapcluster.Aggregate(complaints, filter)
	return &MapView{
		Bounds:   uc.bounds,
		Clusters: mapcluster.Ordered(clusters),
		Summary:  mapcluster.Summarize(complaints, clusters),
	}, nil
}
