package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"TRIPCRAFT_BACK-END/internal/middleware"
	"TRIPCRAFT_BACK-END/internal/models"
)

func newAuthedRequest(t *testing.T, method, path, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.ContextWithPrincipal(req.Context(), middleware.Principal{ID: userID})
	return req.WithContext(ctx)
}

func expectUserLookup(mock pgxmock.PgxPoolIface, userID uuid.UUID) {
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(userID))
}

func bookingRows(id, userID, planID uuid.UUID, travelers int, total int64, status string, at time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "plan_id", "num_travelers", "total_price_minor", "booking_status", "booked_at"}).
		AddRow(id, userID, planID, travelers, total, status, at)
}

func TestBookTourInsufficientCapacity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	price := int64(10000)
	capacity := 2

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"price_minor", "capacity"}).AddRow(&price, &capacity))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(num_travelers\), 0\)`).
		WithArgs(tourID, models.BookingCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(2))
	mock.ExpectRollback()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":1}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookTourComputesTotalPrice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	bookingID := uuid.New()
	price := int64(10000)
	capacity := 2

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"price_minor", "capacity"}).AddRow(&price, &capacity))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(num_travelers\), 0\)`).
		WithArgs(tourID, models.BookingCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery(`SELECT id, booking_status FROM tour_bookings`).
		WithArgs(tourID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO tour_bookings`).
		WithArgs(userID, tourID, 2, int64(20000), models.BookingConfirmed).
		WillReturnRows(bookingRows(bookingID, userID, tourID, 2, 20000, "confirmed", time.Now()))
	mock.ExpectCommit()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":2}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			TotalPriceMinor int64  `json:"total_price_minor"`
			BookingStatus   string `json:"booking_status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalPriceMinor != 20000 {
		t.Fatalf("expected total 20000, got %d", resp.Data.TotalPriceMinor)
	}
	if resp.Data.BookingStatus != "confirmed" {
		t.Fatalf("expected confirmed, got %q", resp.Data.BookingStatus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookTourDuplicateActiveBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	price := int64(10000)
	capacity := 10

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"price_minor", "capacity"}).AddRow(&price, &capacity))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(num_travelers\), 0\)`).
		WithArgs(tourID, models.BookingCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, booking_status FROM tour_bookings`).
		WithArgs(tourID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_status"}).AddRow(uuid.New(), "confirmed"))
	mock.ExpectRollback()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":1}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookTourRebookAfterCancelReusesRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	existingID := uuid.New()
	price := int64(5000)
	capacity := 4

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"price_minor", "capacity"}).AddRow(&price, &capacity))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(num_travelers\), 0\)`).
		WithArgs(tourID, models.BookingCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery(`SELECT id, booking_status FROM tour_bookings`).
		WithArgs(tourID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_status"}).AddRow(existingID, "cancelled"))
	mock.ExpectQuery(`UPDATE tour_bookings SET num_travelers`).
		WithArgs(3, int64(15000), models.BookingConfirmed, existingID).
		WillReturnRows(bookingRows(existingID, userID, tourID, 3, 15000, "confirmed", time.Now()))
	mock.ExpectCommit()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":3}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != existingID.String() {
		t.Fatalf("expected reused row id %s, got %s", existingID, resp.Data.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookTourInsertRaceMapsToConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	price := int64(10000)
	capacity := 10

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"price_minor", "capacity"}).AddRow(&price, &capacity))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(num_travelers\), 0\)`).
		WithArgs(tourID, models.BookingCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery(`SELECT id, booking_status FROM tour_bookings`).
		WithArgs(tourID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO tour_bookings`).
		WithArgs(userID, tourID, 1, int64(10000), models.BookingConfirmed).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":1}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookTourUnknownTour(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()

	mock.ExpectBegin()
	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT price_minor, capacity FROM travel_plans`).
		WithArgs(tourID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/bookings/tour",
		`{"tour_id":"`+tourID.String()+`","num_travelers":1}`, userID)
	rec := httptest.NewRecorder()
	h.BookTour(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tourID := uuid.New()
	bookingID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT id, user_id, tour_id, num_travelers`).
		WithArgs(bookingID, userID).
		WillReturnRows(bookingRows(bookingID, userID, tourID, 2, 20000, "cancelled", time.Now()))

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPatch,
		"/api/bookings/tour/"+bookingID.String()+"/cancel", "", userID)
	rec := httptest.NewRecorder()
	h.CancelBooking(rec, req, "tour", bookingID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "already cancelled") {
		t.Fatalf("expected already-cancelled message, got %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingMarksCancelled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()
	bookingID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT id, user_id, trip_id, num_travelers`).
		WithArgs(bookingID, userID).
		WillReturnRows(bookingRows(bookingID, userID, tripID, 2, 20000, "confirmed", time.Now()))
	mock.ExpectQuery(`UPDATE custom_trip_bookings SET booking_status = \$1`).
		WithArgs(models.BookingCancelled, bookingID).
		WillReturnRows(bookingRows(bookingID, userID, tripID, 2, 20000, "cancelled", time.Now()))

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPatch,
		"/api/bookings/custom/"+bookingID.String()+"/cancel", "", userID)
	rec := httptest.NewRecorder()
	h.CancelBooking(rec, req, "custom", bookingID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingNotOwnedReadsAsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	bookingID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT id, user_id, tour_id, num_travelers`).
		WithArgs(bookingID, userID).
		WillReturnError(pgx.ErrNoRows)

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodPatch,
		"/api/bookings/tour/"+bookingID.String()+"/cancel", "", userID)
	rec := httptest.NewRecorder()
	h.CancelBooking(rec, req, "tour", bookingID.String())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMyBookingsSortedMostRecentFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	cols := []string{"id", "plan_id", "name", "booked_at", "plan_type", "cover_image_url", "price_minor", "currency_code", "total_price_minor", "booking_status"}

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`FROM tour_bookings b`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), uuid.New(), "Old Tour", older, "tour", (*string)(nil), (*int64)(nil), (*string)(nil), int64(1000), "confirmed"))
	mock.ExpectQuery(`FROM custom_trip_bookings b`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), uuid.New(), "New Trip", newer, "user", (*string)(nil), (*int64)(nil), (*string)(nil), int64(2000), "confirmed"))

	h := NewBookingsHandler(mock)
	req := newAuthedRequest(t, http.MethodGet, "/api/bookings/my-bookings", "", userID)
	rec := httptest.NewRecorder()
	h.MyBookings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data []struct {
			TripName string `json:"trip_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(resp.Data))
	}
	if resp.Data[0].TripName != "New Trip" {
		t.Fatalf("expected most recent booking first, got %q", resp.Data[0].TripName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
