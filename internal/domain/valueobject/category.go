package valueobject

import "github.com/ignatzorin/civic-backend/internal/pkg/apperror"

type Category string

const (
	CategoryGarbage         Category = "garbage"
	CategoryStreetLight     Category = "street_light"
	CategoryRoadMaintenance Category = "road_maintenance"
	CategoryWaterSupply     Category = "water_supply"
	CategoryDrainage        Category = "drainage"
	CategoryPublicSafety    Category = "public_safety"
)

var Categories = []Category{
	CategoryGarbage,
	CategoryStreetLight,
	CategoryRoadMaintenance,
	CategoryWaterSupply,
	CategoryDrainage,
	CategoryPublicSafety,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryGarbage, CategoryStreetLight, CategoryRoadMaintenance,
		CategoryWaterSupply, CategoryDrainage, CategoryPublicSafety:
		return true
	}
	return false
}

func (c Category) Label() string {
	switch c {
	case CategoryGarbage:
		return "Garbage Related"
	case CategoryStreetLight:
		return "Street Light"
	case CategoryRoadMaintenance:
		return "Road Maintenance"
	case CategoryWaterSupply:
		return "Water Supply"
	case CategoryDrainage:
		return "Drainage"
	case CategoryPublicSafety:
		return "Public Safety"
	}
	return string(c)
}

func NewCategory(category string) (Category, error) {
	c := Category(category)
	if !c.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid complaint category")
	}
	return c, nil
}
