package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan types stored in travel_plans.plan_type
const (
	PlanTypeTour = "tour" // catalog tour, capacity-bounded, bookable by anyone
	PlanTypeUser = "user" // custom trip built by its owner and collaborators
)

// TravelPlan represents a row in travel_plans: either a catalog tour or a
// user-built custom trip, distinguished by PlanType.
type TravelPlan struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   *string    `json:"description" db:"description"`
	StartDate     *time.Time `json:"start_date" db:"start_date"`
	DurationDays  *int       `json:"duration_days" db:"duration_days"`
	PriceMinor    *int64     `json:"price_minor" db:"price_minor"`
	CurrencyCode  *string    `json:"currency_code" db:"currency_code"`
	Capacity      *int       `json:"capacity" db:"capacity"`
	CoverImageURL *string    `json:"cover_image_url" db:"cover_image_url"`
	OwnerID       *uuid.UUID `json:"owner_id" db:"owner_id"` // nil for catalog tours
	PlanType      string     `json:"plan_type" db:"plan_type"`
	Rating        float64    `json:"rating" db:"rating"`
	RatingCount   int        `json:"rating_count" db:"rating_count"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// TripDestination is a stop on a custom trip
type TripDestination struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TravelPlanID uuid.UUID `json:"travel_plan_id" db:"travel_plan_id"`
	CityName     string    `json:"city_name" db:"city_name"`
	CountryName  string    `json:"country_name" db:"country_name"`
	StopOrder    int       `json:"stop_order" db:"stop_order"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
}
