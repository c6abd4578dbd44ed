package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func expectTripGuard(mock pgxmock.PgxPoolIface, tripID uuid.UUID, ownerID *uuid.UUID) {
	mock.ExpectQuery(`SELECT id, name, description, start_date`).
		WithArgs(tripID).
		WillReturnRows(travelPlanRows(tripID, "Summer in Rome", ownerID, "user"))
}

func TestAddDestinationAppendsStop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()
	destID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &userID)
	mock.ExpectQuery(`INSERT INTO travel_plan_destinations`).
		WithArgs(tripID, "Florence", "Italy", 2, 3).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(destID))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+tripID.String()+"/destinations",
		`{"city_name":"Florence","country_name":"Italy","stop_order":2,"duration_days":3}`, userID)
	rec := httptest.NewRecorder()
	h.AddDestination(rec, req, tripID.String())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID       string `json:"id"`
			CityName string `json:"city_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != destID.String() || resp.Data.CityName != "Florence" {
		t.Fatalf("unexpected destination: %+v", resp.Data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddDestinationDuplicateOrderConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &userID)
	mock.ExpectQuery(`INSERT INTO travel_plan_destinations`).
		WithArgs(tripID, "Florence", "Italy", 1, 3).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+tripID.String()+"/destinations",
		`{"city_name":"Florence","country_name":"Italy","stop_order":1,"duration_days":3}`, userID)
	rec := httptest.NewRecorder()
	h.AddDestination(rec, req, tripID.String())

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddDestinationRequiresFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+uuid.NewString()+"/destinations",
		`{"city_name":"Florence"}`, uuid.New())
	rec := httptest.NewRecorder()
	h.AddDestination(rec, req, uuid.NewString())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAddAccommodationStoresPrice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()
	destID := uuid.New()
	accommodationID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &userID)
	mock.ExpectQuery(`INSERT INTO travel_plan_accommodations`).
		WithArgs(tripID, destID, "Hotel Roma", "Rome", "hotel", (*float64)(nil), int64(45000)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(accommodationID))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+tripID.String()+"/accommodations",
		`{"destination_id":"`+destID.String()+`","name":"Hotel Roma","city":"Rome","type":"hotel","price_minor":45000}`, userID)
	rec := httptest.NewRecorder()
	h.AddAccommodation(rec, req, tripID.String())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			PriceMinor int64 `json:"price_minor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.PriceMinor != 45000 {
		t.Fatalf("expected price 45000, got %d", resp.Data.PriceMinor)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddAccommodationRequiresName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+uuid.NewString()+"/accommodations",
		`{"destination_id":"`+uuid.NewString()+`","name":"  "}`, uuid.New())
	rec := httptest.NewRecorder()
	h.AddAccommodation(rec, req, uuid.NewString())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAddFlightStrangerForbidden(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	ownerID := uuid.New()
	tripID := uuid.New()
	departs := uuid.New()
	arrives := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &ownerID)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM trip_collaborators`).
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+tripID.String()+"/flights",
		`{"departs_from_destination_id":"`+departs.String()+`","arrives_at_destination_id":"`+arrives.String()+`"}`, userID)
	rec := httptest.NewRecorder()
	h.AddFlight(rec, req, tripID.String())

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddFlightCollaboratorSucceeds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	ownerID := uuid.New()
	tripID := uuid.New()
	departs := uuid.New()
	arrives := uuid.New()
	flightID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &ownerID)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM trip_collaborators`).
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO travel_plan_flights`).
		WithArgs(tripID, departs, arrives, "ITA Airways", "AZ604", int64(12000)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(flightID))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodPost, "/api/trips/"+tripID.String()+"/flights",
		`{"departs_from_destination_id":"`+departs.String()+`","arrives_at_destination_id":"`+arrives.String()+
			`","airline":"ITA Airways","flight_number":"AZ604","price_minor":12000}`, userID)
	rec := httptest.NewRecorder()
	h.AddFlight(rec, req, tripID.String())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveDestinationMissingIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()
	destID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &userID)
	mock.ExpectExec(`DELETE FROM travel_plan_destinations`).
		WithArgs(destID, tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodDelete,
		"/api/trips/"+tripID.String()+"/destinations/"+destID.String(), "", userID)
	rec := httptest.NewRecorder()
	h.RemoveDestination(rec, req, tripID.String(), destID.String())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFlightScopedToTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()
	flightID := uuid.New()

	expectUserLookup(mock, userID)
	expectTripGuard(mock, tripID, &userID)
	mock.ExpectExec(`DELETE FROM travel_plan_flights`).
		WithArgs(flightID, tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	h := NewTripsHandler(mock)
	req := newAuthedRequest(t, http.MethodDelete,
		"/api/trips/"+tripID.String()+"/flights/"+flightID.String(), "", userID)
	rec := httptest.NewRecorder()
	h.RemoveFlight(rec, req, tripID.String(), flightID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
