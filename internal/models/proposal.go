package models

import (
	"time"

	"gorm.io/gorm"
)

// Proposal is one candidate trip in a group's decision round. Price and
// meal plan come from the catalog offer it was seeded from, never from
// user input. VoteCount and WeightedScore are cached aggregates: they are
// recomputed from the full vote set on every vote write, never patched
// incrementally.
type Proposal struct {
	gorm.Model
	GroupID        uint      `json:"group_id" gorm:"index"`
	CatalogOfferID uint      `json:"catalog_offer_id"`
	ProposedByID   uint      `json:"proposed_by_id"`
	Description    string    `json:"description"`
	Destination    string    `json:"destination"`
	HotelName      string    `json:"hotel_name"`
	PricePerPerson float64   `json:"price_per_person"`
	TotalPrice     float64   `json:"total_price"`
	DepartureDate  time.Time `json:"departure_date"`
	ReturnDate     time.Time `json:"return_date"`
	MealPlan       MealPlan  `json:"meal_plan" gorm:"size:16"`
	VoteCount      int       `json:"vote_count"`
	WeightedScore  float64   `json:"weighted_score"`
}

// Recompute refreshes the cached aggregates from the complete current vote
// set. A rank of 1 is worth 3 points, 2 worth 2, 3 worth 1; the weighted
// score is the average, so it lands in [1,3] with votes and 0 without.
func (p *Proposal) Recompute(votes []Vote) {
	p.VoteCount = len(votes)
	if len(votes) == 0 {
		p.WeightedScore = 0
		return
	}
	total := 0
	for _, v := range votes {
		total += 4 - v.Rank
	}
	p.WeightedScore = float64(total) / float64(len(votes))
}
