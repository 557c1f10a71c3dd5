package models

import (
	"strings"

	"gorm.io/gorm"
)

type MealPlan string

const (
	MealPlanNone         MealPlan = "none"
	MealPlanBreakfast    MealPlan = "breakfast"
	MealPlanHalfBoard    MealPlan = "half_board"
	MealPlanFullBoard    MealPlan = "full_board"
	MealPlanAllInclusive MealPlan = "all_inclusive"
)

// CatalogOffer is an immutable travel package record. Proposals copy its
// price and meal plan at creation time; later offer edits never flow back.
type CatalogOffer struct {
	gorm.Model
	Title          string   `json:"title"`
	Destination    string   `json:"destination"`
	Country        string   `json:"country"`
	City           string   `json:"city"`
	HotelName      string   `json:"hotel_name"`
	PricePerPerson float64  `json:"price_per_person"`
	Amenities      []string `json:"amenities" gorm:"serializer:json"`
}

// MealPlan derives the plan from amenity tags, first match wins:
// all-inclusive beats full board beats half board beats breakfast.
// Offers without any board-related tag default to breakfast.
func (o *CatalogOffer) MealPlan() MealPlan {
	joined := strings.ToLower(strings.Join(o.Amenities, " "))
	joined = strings.ReplaceAll(joined, "-", " ")
	joined = strings.ReplaceAll(joined, "_", " ")

	switch {
	case strings.Contains(joined, "all inclusive"):
		return MealPlanAllInclusive
	case strings.Contains(joined, "full board"):
		return MealPlanFullBoard
	case strings.Contains(joined, "half board"):
		return MealPlanHalfBoard
	case strings.Contains(joined, "breakfast"):
		return MealPlanBreakfast
	default:
		return MealPlanBreakfast
	}
}
