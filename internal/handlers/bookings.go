package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/models"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// bookingTable describes one of the two booking tables; the schemas are
// identical except for the plan reference column.
type bookingTable struct {
	name    string
	planCol string
}

var (
	tourBookings       = bookingTable{name: "tour_bookings", planCol: "tour_id"}
	customTripBookings = bookingTable{name: "custom_trip_bookings", planCol: "trip_id"}
)

// BookingsHandler manages booking endpoints
type BookingsHandler struct {
	db DB
}

// NewBookingsHandler creates a new BookingsHandler
func NewBookingsHandler(db DB) *BookingsHandler {
	return &BookingsHandler{db: db}
}

// Bookings dispatches /api/bookings/ subpaths
func (h *BookingsHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/bookings/"), "/")
	segs := strings.Split(rest, "/")
	switch {
	case len(segs) == 1 && segs[0] == "tour" && r.Method == http.MethodPost:
		h.BookTour(w, r)
	case len(segs) == 1 && segs[0] == "custom-trip" && r.Method == http.MethodPost:
		h.BookCustomTrip(w, r)
	case len(segs) == 1 && segs[0] == "my-bookings" && r.Method == http.MethodGet:
		h.MyBookings(w, r)
	case len(segs) == 3 && segs[2] == "cancel" && r.Method == http.MethodPatch:
		h.CancelBooking(w, r, segs[0], segs[1])
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// remainingSeats computes how many seats are still bookable on a tour
// from its non-cancelled bookings. It takes no lock itself: the booking
// path calls it inside a transaction that holds the tour row FOR UPDATE,
// which serializes capacity decisions per tour. Never cached; always
// recomputed from the booking rows at decision time.
func remainingSeats(ctx context.Context, q querier, tourID uuid.UUID, capacity int) (int, error) {
	var booked int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(num_travelers), 0)
		   FROM tour_bookings
		  WHERE tour_id = $1
		    AND COALESCE(LOWER(booking_status), '') != $2`, tourID, models.BookingCancelled).Scan(&booked)
	if err != nil {
		return 0, err
	}
	return capacity - booked, nil
}

func scanBooking(row pgx.Row, b *models.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.PlanID, &b.NumTravelers, &b.TotalPriceMinor, &b.BookingStatus, &b.BookedAt)
}

func bookingResponse(b models.Booking, table bookingTable) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID.String(),
		NumTravelers:    b.NumTravelers,
		TotalPriceMinor: b.TotalPriceMinor,
		BookingStatus:   b.BookingStatus,
		BookedAt:        utils.FormatTimestamp(b.BookedAt),
	}
	if table == tourBookings {
		resp.TourID = b.PlanID.String()
	} else {
		resp.TripID = b.PlanID.String()
	}
	return resp
}

// BookTour handles POST /api/bookings/tour
// @Summary Book a catalog tour
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookTourRequest true "Booking payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/bookings/tour [post]
func (h *BookingsHandler) BookTour(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var req dto.BookTourRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	tourID, err := uuid.Parse(req.TourID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A valid tour ID is required")
		return
	}
	if req.NumTravelers < 1 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "You must book for at least one traveler")
		return
	}

	ctx := r.Context()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		h.serverError(w, "book_tour", tourID, err, "An error occurred while booking the tour")
		return
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "book_tour", tourID, err, "An error occurred while booking the tour")
		return
	}

	// Lock the tour row so concurrent bookings against the same tour are
	// totally ordered; the capacity check below is only valid under this
	// lock.
	var (
		priceMinor *int64
		capacity   *int
	)
	err = tx.QueryRow(ctx,
		`SELECT price_minor, capacity FROM travel_plans
		  WHERE id = $1 AND plan_type = 'tour' FOR UPDATE`, tourID).Scan(&priceMinor, &capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "The requested tour does not exist")
		return
	}
	if err != nil {
		h.serverError(w, "book_tour", tourID, err, "An error occurred while booking the tour")
		return
	}

	seatCap := 0
	if capacity != nil {
		seatCap = *capacity
	}
	remaining, err := remainingSeats(ctx, tx, tourID, seatCap)
	if err != nil {
		h.serverError(w, "book_tour", tourID, err, "An error occurred while booking the tour")
		return
	}
	if remaining < req.NumTravelers {
		utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", "Sorry, there are not enough available spots on this tour")
		return
	}

	var unitPrice int64
	if priceMinor != nil {
		unitPrice = *priceMinor
	}
	totalPrice := unitPrice * int64(req.NumTravelers)

	booking, done := h.upsertBooking(ctx, w, tx, tourBookings, tourID, userID, req.NumTravelers, totalPrice,
		"You have already booked this tour", "An error occurred while booking the tour")
	if !done {
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.serverError(w, "book_tour", tourID, err, "An error occurred while booking the tour")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Tour successfully booked!",
		Data:    bookingResponse(booking, tourBookings),
	})
}

// BookCustomTrip handles POST /api/bookings/custom-trip
// @Summary Book a custom trip
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookCustomTripRequest true "Booking payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/bookings/custom-trip [post]
func (h *BookingsHandler) BookCustomTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var req dto.BookCustomTripRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A valid trip ID is required")
		return
	}
	if req.NumTravelers < 1 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "You must book for at least one traveler")
		return
	}

	ctx := r.Context()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		return
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		return
	}

	if _, err := authorizeTripAccess(ctx, tx, tripID, userID); err != nil {
		switch {
		case errors.Is(err, errTripNotFound):
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Custom trip not found")
		case errors.Is(err, errNotTripMember):
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not have permission to book this trip")
		default:
			h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		}
		return
	}

	// Price: linked accommodations are booked once per group, flights once
	// per traveler.
	var accommodationPrice, flightPrice int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(price_minor), 0) FROM travel_plan_accommodations WHERE travel_plan_id = $1`,
		tripID).Scan(&accommodationPrice)
	if err != nil {
		h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		return
	}
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(price_minor), 0) FROM travel_plan_flights WHERE travel_plan_id = $1`,
		tripID).Scan(&flightPrice)
	if err != nil {
		h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		return
	}
	totalPrice := accommodationPrice + flightPrice*int64(req.NumTravelers)

	booking, done := h.upsertBooking(ctx, w, tx, customTripBookings, tripID, userID, req.NumTravelers, totalPrice,
		"You have already booked this trip", "An error occurred while reserving your trip")
	if !done {
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.serverError(w, "book_custom_trip", tripID, err, "An error occurred while reserving your trip")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Your custom trip has been successfully reserved!",
		Data:    bookingResponse(booking, customTripBookings),
	})
}

// upsertBooking performs the idempotent update-or-insert step shared by
// both booking paths: an active booking for (user, plan) is a conflict; a
// cancelled one is reused in place (same row id); otherwise a new
// confirmed row is inserted. A unique-constraint race on the insert is
// reported as the same conflict as the proactive check. Returns done=false
// if a response has already been written.
func (h *BookingsHandler) upsertBooking(ctx context.Context, w http.ResponseWriter, tx pgx.Tx, table bookingTable,
	planID, userID uuid.UUID, numTravelers int, totalPrice int64, conflictMsg, errMsg string) (models.Booking, bool) {

	var (
		existingID     uuid.UUID
		existingStatus string
		booking        models.Booking
	)
	err := tx.QueryRow(ctx,
		`SELECT id, booking_status FROM `+table.name+` WHERE `+table.planCol+` = $1 AND user_id = $2`,
		planID, userID).Scan(&existingID, &existingStatus)

	switch {
	case err == nil && !models.IsCancelledStatus(existingStatus):
		utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", conflictMsg)
		return booking, false

	case err == nil:
		// Re-booking after a cancellation reuses the existing row.
		row := tx.QueryRow(ctx,
			`UPDATE `+table.name+` SET num_travelers = $1, total_price_minor = $2,
			        booking_status = $3, booked_at = NOW()
			  WHERE id = $4
			  RETURNING id, user_id, `+table.planCol+`, num_travelers, total_price_minor, booking_status, booked_at`,
			numTravelers, totalPrice, models.BookingConfirmed, existingID)
		if err := scanBooking(row, &booking); err != nil {
			h.serverError(w, "rebook", planID, err, errMsg)
			return booking, false
		}
		return booking, true

	case errors.Is(err, pgx.ErrNoRows):
		row := tx.QueryRow(ctx,
			`INSERT INTO `+table.name+` (user_id, `+table.planCol+`, num_travelers, total_price_minor, booking_status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, user_id, `+table.planCol+`, num_travelers, total_price_minor, booking_status, booked_at`,
			userID, planID, numTravelers, totalPrice, models.BookingConfirmed)
		if err := scanBooking(row, &booking); err != nil {
			if isUniqueViolation(err) {
				utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", conflictMsg)
				return booking, false
			}
			h.serverError(w, "book", planID, err, errMsg)
			return booking, false
		}
		return booking, true

	default:
		h.serverError(w, "book", planID, err, errMsg)
		return booking, false
	}
}

// MyBookings handles GET /api/bookings/my-bookings
// @Summary List the caller's bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/bookings/my-bookings [get]
func (h *BookingsHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "my_bookings", userID, err, "Failed to retrieve your bookings")
		return
	}

	type datedItem struct {
		item dto.MyBookingItem
		at   time.Time
	}
	var all []datedItem

	for _, table := range []bookingTable{tourBookings, customTripBookings} {
		rows, err := h.db.Query(ctx,
			`SELECT b.id, b.`+table.planCol+`, COALESCE(tp.name, ''), b.booked_at,
			        COALESCE(tp.plan_type, ''), tp.cover_image_url, tp.price_minor, tp.currency_code,
			        b.total_price_minor, b.booking_status
			   FROM `+table.name+` b
			   LEFT JOIN travel_plans tp ON tp.id = b.`+table.planCol+`
			  WHERE b.user_id = $1`, userID)
		if err != nil {
			h.serverError(w, "my_bookings", userID, err, "Failed to retrieve your bookings")
			return
		}
		for rows.Next() {
			var (
				bookingID, planID uuid.UUID
				item              dto.MyBookingItem
				bookedAt          time.Time
			)
			if err := rows.Scan(&bookingID, &planID, &item.TripName, &bookedAt,
				&item.PlanType, &item.CoverImageURL, &item.PriceMinor, &item.CurrencyCode,
				&item.TotalPriceMinor, &item.BookingStatus); err != nil {
				rows.Close()
				h.serverError(w, "my_bookings", userID, err, "Failed to retrieve your bookings")
				return
			}
			item.BookingID = bookingID.String()
			if table == tourBookings {
				item.TourID = planID.String()
			} else {
				item.TripID = planID.String()
			}
			item.BookedAt = utils.FormatTimestamp(bookedAt)
			all = append(all, datedItem{item: item, at: bookedAt})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			h.serverError(w, "my_bookings", userID, err, "Failed to retrieve your bookings")
			return
		}
		rows.Close()
	}

	// Most recent first
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })

	items := make([]dto.MyBookingItem, 0, len(all))
	for _, d := range all {
		items = append(items, d.item)
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Your bookings have been retrieved successfully",
		Data:    items,
	})
}

// CancelBooking handles PATCH /api/bookings/{type}/{id}/cancel
// @Summary Cancel a booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param type path string true "tour or custom"
// @Param id path string true "Booking ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/bookings/{type}/{id}/cancel [patch]
func (h *BookingsHandler) CancelBooking(w http.ResponseWriter, r *http.Request, bookingType, idStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var table bookingTable
	switch bookingType {
	case "tour":
		table = tourBookings
	case "custom":
		table = customTripBookings
	default:
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Invalid booking type")
		return
	}

	bookingID, err := uuid.Parse(idStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Booking ID must be a UUID")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "cancel_booking", bookingID, err, "Failed to cancel booking")
		return
	}

	// Must belong to the caller; absence and foreign ownership both read
	// as not found.
	var booking models.Booking
	row := h.db.QueryRow(ctx,
		`SELECT id, user_id, `+table.planCol+`, num_travelers, total_price_minor, booking_status, booked_at
		   FROM `+table.name+` WHERE id = $1 AND user_id = $2`, bookingID, userID)
	if err := scanBooking(row, &booking); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Booking not found")
			return
		}
		h.serverError(w, "cancel_booking", bookingID, err, "Failed to cancel booking")
		return
	}

	// Cancelling twice is a no-op, not an error.
	if booking.IsCancelled() {
		utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
			Message: "Booking already cancelled",
			Data:    bookingResponse(booking, table),
		})
		return
	}

	row = h.db.QueryRow(ctx,
		`UPDATE `+table.name+` SET booking_status = $1
		  WHERE id = $2
		  RETURNING id, user_id, `+table.planCol+`, num_travelers, total_price_minor, booking_status, booked_at`,
		models.BookingCancelled, bookingID)
	if err := scanBooking(row, &booking); err != nil {
		h.serverError(w, "cancel_booking", bookingID, err, "Failed to cancel booking")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Booking cancelled successfully",
		Data:    bookingResponse(booking, table),
	})
}

// serverError logs an unexpected failure with its operation and subject
// id, and answers with a generic message that leaks no internals.
func (h *BookingsHandler) serverError(w http.ResponseWriter, op string, id uuid.UUID, err error, msg string) {
	logrus.WithFields(logrus.Fields{"op": op, "id": id}).WithError(err).Error("booking operation failed")
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", msg)
}
