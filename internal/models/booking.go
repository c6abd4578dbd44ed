package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Booking statuses
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking represents a row in tour_bookings or custom_trip_bookings.
// Both tables share the same shape; PlanID is tour_id for tour bookings
// and trip_id for custom trip bookings.
type Booking struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	PlanID          uuid.UUID `json:"plan_id"`
	NumTravelers    int       `json:"num_travelers" db:"num_travelers"`
	TotalPriceMinor int64     `json:"total_price_minor" db:"total_price_minor"`
	BookingStatus   string    `json:"booking_status" db:"booking_status"`
	BookedAt        time.Time `json:"booked_at" db:"booked_at"`
}

// IsCancelled reports whether the booking is in the cancelled state.
// Status casing is not trusted; legacy rows may carry "Cancelled".
func (b Booking) IsCancelled() bool {
	return IsCancelledStatus(b.BookingStatus)
}

// IsCancelledStatus reports whether a raw booking_status value counts as
// cancelled, tolerating legacy casing and variants like "Cancelled".
func IsCancelledStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "cancel")
}
