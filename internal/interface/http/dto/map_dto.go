package dto

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/mapcluster"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
)

type ClusterResponse struct {
	Key           string                  `json:"key"`
	Latitude      float64                 `json:"latitude"`
	Longitude     float64                 `json:"longitude"`
	Position      mapcluster.Position     `json:"position"`
	Total         int                     `json:"total"`
	PrimaryStatus string                  `json:"primary_status"`
	Label         string                  `json:"label"`
	Counts        mapcluster.StatusCounts `json:"counts"`
	ComplaintIDs  []uuid.UUID             `json:"complaint_ids"`
}

type MapSummaryResponse struct {
	Counts         mapcluster.StatusCounts `json:"counts"`
	Total          int                     `json:"total"`
	Shown          int                     `json:"shown"`
	Areas          int                     `json:"areas"`
	ResolutionRate int                     `json:"resolution_rate"`
}

type MapResponse struct {
	Clusters []ClusterResponse  `json:"clusters"`
	Summary  MapSummaryResponse `json:"summary"`
}

// ToMapResponse переводит кластеры в экранные координаты внутри границ карты.
func ToMapResponse(view *complaint.MapView) MapResponse {
	resp := MapResponse{
		Clusters: make([]ClusterResponse, 0, len(view.Clusters)),
		Summary: MapSummaryResponse{
			Counts:         view.Summary.Counts,
			Total:          view.Summary.Total,
			Shown:          view.Summary.Shown,
			Areas:          view.Summary.Areas,
			ResolutionRate: view.Summary.ResolutionRate,
		},
	}

	for _, c := range view.Clusters {
		primary := c.PrimaryStatus()
		resp.Clusters = append(resp.Clusters, ClusterResponse{
			Key:           c.Key.String(),
			Latitude:      c.Lat,
			Longitude:     c.Lng,
			Position:      view.Bounds.ScreenPosition(c.Lat, c.Lng),
			Total:         c.Total(),
			PrimaryStatus: string(primary),
			Label:         clusterLabel(c.Total(), primary.Label()),
			Counts:        c.Counts,
			ComplaintIDs:  c.MemberIDs(),
		})
	}
	return resp
}

func clusterLabel(total int, status string) string {
	if total == 1 {
		return "1 complaint · " + status
	}
	return fmt.Sprintf("%d complaints · %s", total, status)
}
