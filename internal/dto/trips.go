package dto

// CreateTripRequest represents the payload to create a custom trip
type CreateTripRequest struct {
	Name         string                  `json:"name" validate:"required"`
	Description  string                  `json:"description"`
	StartDate    string                  `json:"start_date"` // ISO 8601: YYYY-MM-DD
	DurationDays *int                    `json:"duration_days"`
	Destinations []CreateTripDestination `json:"destinations,omitempty"`
}

// CreateTripDestination is one stop supplied at trip creation
type CreateTripDestination struct {
	CityName     string `json:"city_name" validate:"required"`
	CountryName  string `json:"country_name" validate:"required"`
	StopOrder    int    `json:"stop_order"`
	DurationDays int    `json:"duration_days"`
}

// AddDestinationRequest appends a stop to an existing trip
type AddDestinationRequest struct {
	CityName     string `json:"city_name" validate:"required"`
	CountryName  string `json:"country_name" validate:"required"`
	StopOrder    int    `json:"stop_order" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"required"`
}

// AddAccommodationRequest links an accommodation to a trip stop
type AddAccommodationRequest struct {
	DestinationID string   `json:"destination_id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	City          string   `json:"city"`
	Type          string   `json:"type"`
	Rating        *float64 `json:"rating"`
	PriceMinor    int64    `json:"price_minor"`
}

// AddFlightRequest links a flight between two trip stops
type AddFlightRequest struct {
	DepartsFromDestinationID string `json:"departs_from_destination_id" validate:"required"`
	ArrivesAtDestinationID   string `json:"arrives_at_destination_id" validate:"required"`
	Airline                  string `json:"airline"`
	FlightNumber             string `json:"flight_number"`
	PriceMinor               int64  `json:"price_minor"`
}

// UpdateTripRequest represents fields allowed to update a trip
// All fields are optional; only provided ones will be updated
type UpdateTripRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// TripResponse represents a custom trip in responses
type TripResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	StartDate     string  `json:"start_date,omitempty"`
	DurationDays  *int    `json:"duration_days"`
	CoverImageURL *string `json:"cover_image_url"`
	OwnerID       string  `json:"owner_id"`
	PlanType      string  `json:"plan_type"`
	CreatedAt     string  `json:"created_at"`
}

// TripListItem is the minimal list entry for "my trips"
type TripListItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"cover_image_url"`
}

// TripCollaboratorItem is one collaborator in trip detail
type TripCollaboratorItem struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TripDestinationItem is one stop in trip detail
type TripDestinationItem struct {
	ID           string `json:"id"`
	CityName     string `json:"city_name"`
	CountryName  string `json:"country_name"`
	StopOrder    int    `json:"stop_order"`
	DurationDays int    `json:"duration_days"`
}

// TripAccommodationItem is one linked accommodation in trip detail
type TripAccommodationItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	City       string `json:"city"`
	PriceMinor int64  `json:"price_minor"`
}

// TripFlightItem is one linked flight in trip detail
type TripFlightItem struct {
	ID           string `json:"id"`
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
	PriceMinor   int64  `json:"price_minor"`
}

// TripDetailResponse is the full trip view for members
type TripDetailResponse struct {
	Trip           TripResponse            `json:"trip"`
	Destinations   []TripDestinationItem   `json:"destinations"`
	Collaborators  []TripCollaboratorItem  `json:"collaborators"`
	Accommodations []TripAccommodationItem `json:"accommodations"`
	Flights        []TripFlightItem        `json:"flights"`
}
