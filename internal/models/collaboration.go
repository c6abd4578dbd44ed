package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionEditor is the permission level granted to collaborators who
// join through an invitation.
const PermissionEditor = "editor"

// TripCollaborator grants a non-owner edit rights on a custom trip.
// Rows are created by invitation redemption only and removed by trip
// deletion (FK cascade); (trip_id, user_id) is unique.
type TripCollaborator struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TripID          uuid.UUID `json:"trip_id" db:"trip_id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	PermissionLevel string    `json:"permission_level" db:"permission_level"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TripInvitation is a single-use, time-limited collaboration token.
// It is deleted on redemption; expiry is checked at redemption time,
// never swept.
type TripInvitation struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TripID          uuid.UUID `json:"trip_id" db:"trip_id"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id" db:"created_by_user_id"`
	Token           string    `json:"token" db:"token"`
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
}

// Planning phases of a trip, in their usual order. The order is advisory:
// the server records whatever phase the owner sets (a solo trip commonly
// skips voting) and never advances a phase on its own.
const (
	PhasePreferences    = "preferences"
	PhaseShortlisting   = "shortlisting"
	PhaseVoting         = "voting"
	PhaseItinerary      = "itinerary"
	PhaseAccommodations = "accommodations"
	PhaseFlights        = "flights"
	PhaseBooked         = "booked"
)

// PlanningPhases lists every valid phase value.
var PlanningPhases = []string{
	PhasePreferences,
	PhaseShortlisting,
	PhaseVoting,
	PhaseItinerary,
	PhaseAccommodations,
	PhaseFlights,
	PhaseBooked,
}

// ValidPhase reports whether phase is one of the known planning phases.
func ValidPhase(phase string) bool {
	for _, p := range PlanningPhases {
		if p == phase {
			return true
		}
	}
	return false
}

// TripState tracks the current planning phase of a trip, one row per trip.
// Mutated only by the trip owner; collaborators poll it for changes.
type TripState struct {
	TripID        uuid.UUID `json:"trip_id" db:"trip_id"`
	PlanningPhase string    `json:"planning_phase" db:"planning_phase"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
