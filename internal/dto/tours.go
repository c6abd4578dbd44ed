package dto

// TourAvailabilityResponse reports remaining bookable seats on a tour
type TourAvailabilityResponse struct {
	TourID         string `json:"tour_id"`
	Capacity       int    `json:"capacity"`
	BookedSpots    int    `json:"booked_spots"`
	RemainingSeats int    `json:"remaining_seats"`
}
