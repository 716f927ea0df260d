// Package mapcluster группирует жалобы по ячейкам сетки для отображения на карте.
// Кластеры являются производным представлением: они пересчитываются на каждом чтении
// и никогда не сохраняются.
package mapcluster

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
)

// Key: координата, округлённая до одного знака (~11 км по широте Гуджарата).
type Key struct {
	Lat float64
	Lng float64
}

func (k Key) String() string {
	return fmt.Sprintf("%.1f_%.1f", k.Lat, k.Lng)
}

// KeyFor возвращает ячейку сетки для координаты.
func KeyFor(lat, lng float64) Key {
	return Key{Lat: roundHalfAwayFromZero(lat), Lng: roundHalfAwayFromZero(lng)}
}

// roundHalfAwayFromZero округляет до одного десятичного знака, 22.35 -> 22.4, -22.35 -> -22.4.
// Округление идёт по кратчайшей десятичной записи числа, а не по v*10:
// 22.35*10 в двоичном виде равно 223.49999..., а 22.3499999999 должно дать 22.3.
func roundHalfAwayFromZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(digits, ".")

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return math.Round(v*10) / 10
	}

	tenths := whole * 10
	if len(frac) > 0 {
		tenths += int64(frac[0] - '0')
	}
	if len(frac) > 1 && frac[1] >= '5' {
		tenths++
	}
	if tenths == 0 {
		return 0
	}
	return math.Copysign(float64(tenths)/10, v)
}

type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

func (c *StatusCounts) add(status valueobject.ComplaintStatus) {
	switch status {
	case valueobject.ComplaintStatusPending:
		c.Pending++
	case valueobject.ComplaintStatusInProgress:
		c.InProgress++
	case valueobject.ComplaintStatusCompleted:
		c.Completed++
	}
}

func (c StatusCounts) Total() int {
	return c.Pending + c.InProgress + c.Completed
}

// Cluster собирает жалобы одной ячейки. Lat/Lng берутся у первой попавшей жалобы, это не центроид.
type Cluster struct {
	Key        Key
	Lat        float64
	Lng        float64
	Complaints []*entity.Complaint
	Counts     StatusCounts
}

// PrimaryStatus определяет цвет маркера: pending важнее in_progress, тот важнее completed.
func (c *Cluster) PrimaryStatus() valueobject.ComplaintStatus {
	switch {
	case c.Counts.Pending > 0:
		return valueobject.ComplaintStatusPending
	case c.Counts.InProgress > 0:
		return valueobject.ComplaintStatusInProgress
	default:
		return valueobject.ComplaintStatusCompleted
	}
}

func (c *Cluster) Total() int {
	return len(c.Complaints)
}

// Aggregate группирует жалобы по ячейкам. Если statusFilter задан,
// учитываются только жалобы с этим статусом. Функция чистая и не меняет входные данные.
func Aggregate(complaints []*entity.Complaint, statusFilter *valueobject.ComplaintStatus) map[Key]*Cluster {
	clusters := make(map[Key]*Cluster)
	for _, complaint := range complaints {
		if complaint == nil {
			continue
		}
		if statusFilter != nil && complaint.Status != *statusFilter {
			continue
		}

		key := KeyFor(complaint.Location.Latitude, complaint.Location.Longitude)
		cluster, ok := clusters[key]
		if !ok {
			cluster = &Cluster{
				Key: key,
				Lat: complaint.Location.Latitude,
				Lng: complaint.Location.Longitude,
			}
			clusters[key] = cluster
		}
		cluster.Complaints = append(cluster.Complaints, complaint)
		cluster.Counts.add(complaint.Status)
	}
	return clusters
}

// Ordered возвращает кластеры в стабильном порядке: с севера на юг, затем с запада на восток.
func Ordered(clusters map[Key]*Cluster) []*Cluster {
	out := make([]*Cluster, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Lat != out[j].Key.Lat {
			return out[i].Key.Lat > out[j].Key.Lat
		}
		return out[i].Key.Lng < out[j].Key.Lng
	})
	return out
}

// Summary: сводка для легенды карты.
type Summary struct {
	Counts         StatusCounts
	Total          int
	Shown          int
	Areas          int
	ResolutionRate int
}

// Summarize считает сводку: счётчики и процент решённых считаются по всему набору,
// а Shown и Areas по отфильтрованным кластерам.
func Summarize(all []*entity.Complaint, clusters map[Key]*Cluster) Summary {
	var s Summary
	for _, complaint := range all {
		if complaint == nil {
			continue
		}
		s.Counts.add(complaint.Status)
		s.Total++
	}
	for _, c := range clusters {
		s.Shown += c.Total()
	}
	s.Areas = len(clusters)
	if s.Total > 0 {
		s.ResolutionRate = int(math.Round(float64(s.Counts.Completed) / float64(s.Total) * 100))
	}
	return s
}

// MemberIDs возвращает идентификаторы жалоб кластера в порядке добавления.
func (c *Cluster) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Complaints))
	for _, complaint := range c.Complaints {
		ids = append(ids, complaint.ID)
	}
	return ids
}
