package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// Coordinate: точка WGS84 в градусах.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinate{}, apperror.New(apperror.ErrCodeValidation, "latitude must be within [-90, 90]")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinate{}, apperror.New(apperror.ErrCodeValidation, "longitude must be within [-180, 180]")
	}
	return Coordinate{Latitude: lat, Longitude: lng}, nil
}

// String форматирует координату с точностью 6 знаков: "22.309425, 72.136230".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}
