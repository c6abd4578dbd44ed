package dto

// UpdateTripStateRequest represents the payload to set the planning phase
type UpdateTripStateRequest struct {
	Phase string `json:"phase" validate:"required"`
}

// TripStateResponse represents the planning state of a trip
type TripStateResponse struct {
	TripID        string `json:"trip_id"`
	PlanningPhase string `json:"planning_phase"`
	UpdatedAt     string `json:"updated_at"`
}
