package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/models"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// TripsHandler manages custom trip endpoints
type TripsHandler struct {
	db DB
}

// NewTripsHandler creates a new TripsHandler
func NewTripsHandler(db DB) *TripsHandler {
	return &TripsHandler{db: db}
}

// Trips dispatches by HTTP method for /api/trips
func (h *TripsHandler) Trips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateTrip(w, r)
	case http.MethodGet:
		h.ListMyTrips(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TripByID dispatches by HTTP method for /api/trips/{trip_id}
func (h *TripsHandler) TripByID(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	switch r.Method {
	case http.MethodGet:
		h.TripDetail(w, r, tripIDStr)
	case http.MethodPut, http.MethodPatch:
		h.UpdateTrip(w, r, tripIDStr)
	case http.MethodDelete:
		h.DeleteTrip(w, r, tripIDStr)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CreateTrip handles POST /api/trips
// @Summary Create a new custom trip
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateTripRequest true "Trip payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips [post]
func (h *TripsHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var req dto.CreateTripRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Trip name is required")
		return
	}

	var startDate *time.Time
	if req.StartDate != "" {
		parsed, err := utils.ParseDate(req.StartDate)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "start_date must be ISO 8601 format (YYYY-MM-DD or RFC3339)")
			return
		}
		startDate = &parsed
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "create_trip", uuid.Nil, err, "Failed to create trip")
		return
	}

	tx, err := h.db.Begin(ctx)
	if err != nil {
		h.serverError(w, "create_trip", userID, err, "Failed to create trip")
		return
	}
	defer tx.Rollback(ctx)

	var (
		tripID    uuid.UUID
		createdAt time.Time
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO travel_plans (name, description, start_date, duration_days, owner_id, plan_type)
		 VALUES ($1, $2, $3, $4, $5, 'user')
		 RETURNING id, created_at`,
		req.Name, req.Description, startDate, req.DurationDays, userID).Scan(&tripID, &createdAt)
	if err != nil {
		h.serverError(w, "create_trip", userID, err, "Failed to create trip")
		return
	}

	// Every trip starts its planning life in the preferences phase.
	_, err = tx.Exec(ctx,
		`INSERT INTO trip_states (trip_id, planning_phase, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (trip_id) DO NOTHING`,
		tripID, models.PhasePreferences)
	if err != nil {
		h.serverError(w, "create_trip", userID, err, "Failed to create trip")
		return
	}

	for _, d := range req.Destinations {
		_, err = tx.Exec(ctx,
			`INSERT INTO travel_plan_destinations (travel_plan_id, city_name, country_name, stop_order, duration_days)
			 VALUES ($1, $2, $3, $4, $5)`,
			tripID, d.CityName, d.CountryName, d.StopOrder, d.DurationDays)
		if err != nil {
			h.serverError(w, "create_trip", userID, err, "Failed to create trip")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.serverError(w, "create_trip", userID, err, "Failed to create trip")
		return
	}

	resp := dto.TripResponse{
		ID:           tripID.String(),
		Name:         req.Name,
		DurationDays: req.DurationDays,
		OwnerID:      userID.String(),
		PlanType:     models.PlanTypeUser,
		CreatedAt:    utils.FormatTimestamp(createdAt),
	}
	if req.Description != "" {
		resp.Description = &req.Description
	}
	if startDate != nil {
		resp.StartDate = utils.FormatDate(*startDate)
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Trip created successfully",
		Data:    resp,
	})
}

// ListMyTrips handles GET /api/trips: trips the caller owns plus trips
// shared with them as a collaborator.
// @Summary List my trips
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips [get]
func (h *TripsHandler) ListMyTrips(w http.ResponseWriter, r *http.Request) {
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
		h.serverError(w, "list_trips", uuid.Nil, err, "Failed to retrieve trips")
		return
	}

	items := make([]dto.TripListItem, 0)
	queries := []string{
		`SELECT id, name, description, cover_image_url
		   FROM travel_plans WHERE owner_id = $1 AND plan_type = 'user'`,
		`SELECT tp.id, tp.name, tp.description, tp.cover_image_url
		   FROM trip_collaborators tc
		   JOIN travel_plans tp ON tc.trip_id = tp.id
		  WHERE tc.user_id = $1 AND tp.plan_type = 'user'`,
	}
	for _, q := range queries {
		rows, err := h.db.Query(ctx, q, userID)
		if err != nil {
			h.serverError(w, "list_trips", userID, err, "Failed to retrieve trips")
			return
		}
		for rows.Next() {
			var id uuid.UUID
			var item dto.TripListItem
			if err := rows.Scan(&id, &item.Name, &item.Description, &item.CoverImageURL); err != nil {
				rows.Close()
				h.serverError(w, "list_trips", userID, err, "Failed to retrieve trips")
				return
			}
			item.ID = id.String()
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			h.serverError(w, "list_trips", userID, err, "Failed to retrieve trips")
			return
		}
		rows.Close()
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Trips retrieved successfully",
		Data:    items,
	})
}

// TripDetail handles GET /api/trips/{trip_id}
// @Summary Get trip detail
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id} [get]
func (h *TripsHandler) TripDetail(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		return
	}

	trip, err := authorizeTripAccess(ctx, h.db, tripID, userID)
	if err != nil {
		switch {
		case errors.Is(err, errTripNotFound):
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		case errors.Is(err, errNotTripMember):
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not have permission for this trip")
		default:
			h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		}
		return
	}

	destinations := make([]dto.TripDestinationItem, 0)
	rows, err := h.db.Query(ctx,
		`SELECT id, city_name, country_name, stop_order, duration_days
		   FROM travel_plan_destinations WHERE travel_plan_id = $1 ORDER BY stop_order ASC`, tripID)
	if err != nil {
		h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		return
	}
	for rows.Next() {
		var id uuid.UUID
		var d dto.TripDestinationItem
		if err := rows.Scan(&id, &d.CityName, &d.CountryName, &d.StopOrder, &d.DurationDays); err != nil {
			rows.Close()
			h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
			return
		}
		d.ID = id.String()
		destinations = append(destinations, d)
	}
	rows.Close()

	collaborators := make([]dto.TripCollaboratorItem, 0)
	rows, err = h.db.Query(ctx,
		`SELECT u.id, u.username, u.first_name, u.last_name
		   FROM trip_collaborators tc
		   JOIN users u ON tc.user_id = u.id
		  WHERE tc.trip_id = $1`, tripID)
	if err != nil {
		h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		return
	}
	for rows.Next() {
		var id uuid.UUID
		var c dto.TripCollaboratorItem
		if err := rows.Scan(&id, &c.Username, &c.FirstName, &c.LastName); err != nil {
			rows.Close()
			h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
			return
		}
		c.UserID = id.String()
		collaborators = append(collaborators, c)
	}
	rows.Close()

	accommodations := make([]dto.TripAccommodationItem, 0)
	rows, err = h.db.Query(ctx,
		`SELECT id, name, COALESCE(city, ''), COALESCE(price_minor, 0)
		   FROM travel_plan_accommodations WHERE travel_plan_id = $1 ORDER BY name ASC`, tripID)
	if err != nil {
		h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		return
	}
	for rows.Next() {
		var id uuid.UUID
		var a dto.TripAccommodationItem
		if err := rows.Scan(&id, &a.Name, &a.City, &a.PriceMinor); err != nil {
			rows.Close()
			h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
			return
		}
		a.ID = id.String()
		accommodations = append(accommodations, a)
	}
	rows.Close()

	flights := make([]dto.TripFlightItem, 0)
	rows, err = h.db.Query(ctx,
		`SELECT id, COALESCE(airline, ''), COALESCE(flight_number, ''), COALESCE(price_minor, 0)
		   FROM travel_plan_flights WHERE travel_plan_id = $1 ORDER BY airline ASC`, tripID)
	if err != nil {
		h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
		return
	}
	for rows.Next() {
		var id uuid.UUID
		var f dto.TripFlightItem
		if err := rows.Scan(&id, &f.Airline, &f.FlightNumber, &f.PriceMinor); err != nil {
			rows.Close()
			h.serverError(w, "trip_detail", tripID, err, "Failed to retrieve trip details")
			return
		}
		f.ID = id.String()
		flights = append(flights, f)
	}
	rows.Close()

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Trip retrieved successfully",
		Data: dto.TripDetailResponse{
			Trip:           tripResponse(trip),
			Destinations:   destinations,
			Collaborators:  collaborators,
			Accommodations: accommodations,
			Flights:        flights,
		},
	})
}

// UpdateTrip handles PUT/PATCH /api/trips/{trip_id}
// @Summary Update a trip
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.UpdateTripRequest true "Update payload"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id} [put]
func (h *TripsHandler) UpdateTrip(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "update_trip", tripID, err, "Failed to update trip")
		return
	}

	trip, err := authorizeTripAccess(ctx, h.db, tripID, userID)
	if err != nil {
		switch {
		case errors.Is(err, errTripNotFound):
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		case errors.Is(err, errNotTripMember):
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not have permission for this trip")
		default:
			h.serverError(w, "update_trip", tripID, err, "Failed to update trip")
		}
		return
	}

	var req dto.UpdateTripRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	name := trip.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Trip name cannot be empty")
			return
		}
	}
	description := trip.Description
	if req.Description != nil {
		description = req.Description
	}

	_, err = h.db.Exec(ctx,
		`UPDATE travel_plans SET name = $1, description = $2 WHERE id = $3`,
		name, description, tripID)
	if err != nil {
		h.serverError(w, "update_trip", tripID, err, "Failed to update trip")
		return
	}

	trip.Name = name
	trip.Description = description
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Trip updated successfully",
		Data:    tripResponse(trip),
	})
}

// DeleteTrip handles DELETE /api/trips/{trip_id}. Owner only; collaborator
// rows, invitations, and state go with the trip via FK cascade.
// @Summary Delete a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id} [delete]
func (h *TripsHandler) DeleteTrip(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete_trip", tripID, err, "Failed to delete trip")
		return
	}

	var ownerID *uuid.UUID
	err = h.db.QueryRow(ctx, `SELECT owner_id FROM travel_plans WHERE id = $1`, tripID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete_trip", tripID, err, "Failed to delete trip")
		return
	}
	if ownerID == nil || *ownerID != userID {
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "Only the trip owner can delete this trip")
		return
	}

	if _, err := h.db.Exec(ctx, `DELETE FROM travel_plans WHERE id = $1`, tripID); err != nil {
		h.serverError(w, "delete_trip", tripID, err, "Failed to delete trip")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Message: "Trip deleted successfully"})
}

func tripResponse(t models.TravelPlan) dto.TripResponse {
	resp := dto.TripResponse{
		ID:            t.ID.String(),
		Name:          t.Name,
		Description:   t.Description,
		DurationDays:  t.DurationDays,
		CoverImageURL: t.CoverImageURL,
		PlanType:      t.PlanType,
		CreatedAt:     utils.FormatTimestamp(t.CreatedAt),
	}
	if t.StartDate != nil {
		resp.StartDate = utils.FormatDate(*t.StartDate)
	}
	if t.OwnerID != nil {
		resp.OwnerID = t.OwnerID.String()
	}
	return resp
}

func (h *TripsHandler) serverError(w http.ResponseWriter, op string, id uuid.UUID, err error, msg string) {
	logrus.WithFields(logrus.Fields{"op": op, "id": id}).WithError(err).Error("trip operation failed")
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", msg)
}
