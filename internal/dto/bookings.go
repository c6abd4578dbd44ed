package dto

// BookTourRequest represents the payload to book a catalog tour
type BookTourRequest struct {
	TourID       string `json:"tour_id" validate:"required,uuid"`
	NumTravelers int    `json:"num_travelers" validate:"required,min=1"`
}

// BookCustomTripRequest represents the payload to book a custom trip
type BookCustomTripRequest struct {
	TripID       string `json:"trip_id" validate:"required,uuid"`
	NumTravelers int    `json:"num_travelers" validate:"required,min=1"`
}

// BookingResponse represents a booking row in API responses
type BookingResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	TourID          string `json:"tour_id,omitempty"`
	TripID          string `json:"trip_id,omitempty"`
	NumTravelers    int    `json:"num_travelers"`
	TotalPriceMinor int64  `json:"total_price_minor"`
	BookingStatus   string `json:"booking_status"`
	BookedAt        string `json:"booked_at"`
}

// MyBookingItem is one entry in the caller's combined booking list,
// joined with summary fields of the booked tour or trip.
type MyBookingItem struct {
	BookingID       string  `json:"booking_id"`
	TourID          string  `json:"tour_id,omitempty"`
	TripID          string  `json:"trip_id,omitempty"`
	TripName        string  `json:"trip_name"`
	PlanType        string  `json:"plan_type"`
	CoverImageURL   *string `json:"cover_image_url"`
	PriceMinor      *int64  `json:"price_minor"`
	CurrencyCode    *string `json:"currency_code"`
	TotalPriceMinor int64   `json:"total_price_minor"`
	BookingStatus   string  `json:"booking_status"`
	BookedAt        string  `json:"booked_at"`
}
