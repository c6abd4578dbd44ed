package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
)

func TestSetStateRejectsUnknownPhase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	tripID := uuid.New()
	h := NewTripStateHandler(mock)
	req := newAuthedRequest(t, http.MethodPut, "/api/trips/"+tripID.String()+"/state",
		`{"phase":"daydreaming"}`, uuid.New())
	rec := httptest.NewRecorder()
	h.SetState(rec, req, tripID.String())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSetStateRequiresPhase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	tripID := uuid.New()
	h := NewTripStateHandler(mock)
	req := newAuthedRequest(t, http.MethodPut, "/api/trips/"+tripID.String()+"/state",
		`{}`, uuid.New())
	rec := httptest.NewRecorder()
	h.SetState(rec, req, tripID.String())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSetStateCollaboratorForbidden(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	ownerID := uuid.New()
	tripID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT owner_id FROM travel_plans`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(&ownerID))

	h := NewTripStateHandler(mock)
	req := newAuthedRequest(t, http.MethodPut, "/api/trips/"+tripID.String()+"/state",
		`{"phase":"voting"}`, userID)
	rec := httptest.NewRecorder()
	h.SetState(rec, req, tripID.String())

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetStateOwnerCanSkipPhases(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT owner_id FROM travel_plans`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(&userID))
	mock.ExpectQuery(`INSERT INTO trip_states`).
		WithArgs(tripID, "booked").
		WillReturnRows(pgxmock.NewRows([]string{"trip_id", "planning_phase", "updated_at"}).
			AddRow(tripID, "booked", time.Now()))

	h := NewTripStateHandler(mock)
	// Jumping straight from preferences to booked is allowed; ordering is
	// the client's concern.
	req := newAuthedRequest(t, http.MethodPut, "/api/trips/"+tripID.String()+"/state",
		`{"phase":"booked"}`, userID)
	rec := httptest.NewRecorder()
	h.SetState(rec, req, tripID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			PlanningPhase string `json:"planning_phase"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.PlanningPhase != "booked" {
		t.Fatalf("expected booked, got %q", resp.Data.PlanningPhase)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetStateRequiresMembership(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	ownerID := uuid.New()
	tripID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT id, name, description, start_date`).
		WithArgs(tripID).
		WillReturnRows(travelPlanRows(tripID, "Private Trip", &ownerID, "user"))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM trip_collaborators`).
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	h := NewTripStateHandler(mock)
	req := newAuthedRequest(t, http.MethodGet, "/api/trips/"+tripID.String()+"/state", "", userID)
	rec := httptest.NewRecorder()
	h.GetState(rec, req, tripID.String())

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetStateReturnsCurrentPhase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	tripID := uuid.New()

	expectUserLookup(mock, userID)
	mock.ExpectQuery(`SELECT id, name, description, start_date`).
		WithArgs(tripID).
		WillReturnRows(travelPlanRows(tripID, "Shared Trip", &userID, "user"))
	mock.ExpectQuery(`SELECT trip_id, planning_phase, updated_at FROM trip_states`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"trip_id", "planning_phase", "updated_at"}).
			AddRow(tripID, "voting", time.Now()))

	h := NewTripStateHandler(mock)
	req := newAuthedRequest(t, http.MethodGet, "/api/trips/"+tripID.String()+"/state", "", userID)
	rec := httptest.NewRecorder()
	h.GetState(rec, req, tripID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			PlanningPhase string `json:"planning_phase"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.PlanningPhase != "voting" {
		t.Fatalf("expected voting, got %q", resp.Data.PlanningPhase)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
