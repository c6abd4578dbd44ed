package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// Trip sub-resources: destinations, accommodations, and flights attached
// to a custom trip. Any trip member can add or remove them; accommodation
// and flight prices feed the custom trip booking total.

// memberTrip runs the resolve-then-authorize prologue shared by every
// sub-resource operation and writes the error response itself on failure.
func (h *TripsHandler) memberTrip(w http.ResponseWriter, r *http.Request, op, tripIDStr string) (uuid.UUID, bool) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return uuid.Nil, false
	}
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return uuid.Nil, false
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return uuid.Nil, false
	}
	if err != nil {
		h.serverError(w, op, tripID, err, "Failed to update trip")
		return uuid.Nil, false
	}

	if _, err := authorizeTripAccess(ctx, h.db, tripID, userID); err != nil {
		switch {
		case errors.Is(err, errTripNotFound):
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		case errors.Is(err, errNotTripMember):
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not have permission for this trip")
		default:
			h.serverError(w, op, tripID, err, "Failed to update trip")
		}
		return uuid.Nil, false
	}
	return tripID, true
}

// AddDestination handles POST /api/trips/{trip_id}/destinations
// @Summary Add a stop to a trip
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.AddDestinationRequest true "Destination payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/destinations [post]
func (h *TripsHandler) AddDestination(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.AddDestinationRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	req.CityName = strings.TrimSpace(req.CityName)
	req.CountryName = strings.TrimSpace(req.CountryName)
	if req.CityName == "" || req.CountryName == "" || req.StopOrder < 1 || req.DurationDays < 1 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error",
			"city_name, country_name, stop_order and duration_days are required")
		return
	}

	tripID, ok := h.memberTrip(w, r, "add_destination", tripIDStr)
	if !ok {
		return
	}

	var id uuid.UUID
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO travel_plan_destinations (travel_plan_id, city_name, country_name, stop_order, duration_days)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		tripID, req.CityName, req.CountryName, req.StopOrder, req.DurationDays).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", "This trip already has a stop at that position")
			return
		}
		h.serverError(w, "add_destination", tripID, err, "Failed to add destination")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Destination added successfully",
		Data: dto.TripDestinationItem{
			ID:           id.String(),
			CityName:     req.CityName,
			CountryName:  req.CountryName,
			StopOrder:    req.StopOrder,
			DurationDays: req.DurationDays,
		},
	})
}

// RemoveDestination handles DELETE /api/trips/{trip_id}/destinations/{destination_id}
// @Summary Remove a stop from a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param destination_id path string true "Destination ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/destinations/{destination_id} [delete]
func (h *TripsHandler) RemoveDestination(w http.ResponseWriter, r *http.Request, tripIDStr, destIDStr string) {
	h.removeTripItem(w, r, "remove_destination", tripIDStr, destIDStr,
		`DELETE FROM travel_plan_destinations WHERE id = $1 AND travel_plan_id = $2`,
		"Destination not found", "Destination removed successfully")
}

// AddAccommodation handles POST /api/trips/{trip_id}/accommodations
// @Summary Add an accommodation to a trip stop
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.AddAccommodationRequest true "Accommodation payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/accommodations [post]
func (h *TripsHandler) AddAccommodation(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.AddAccommodationRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Accommodation name is required")
		return
	}
	destinationID, err := uuid.Parse(req.DestinationID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A valid destination_id is required")
		return
	}

	tripID, ok := h.memberTrip(w, r, "add_accommodation", tripIDStr)
	if !ok {
		return
	}

	var id uuid.UUID
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO travel_plan_accommodations (travel_plan_id, destination_id, name, city, type, rating, price_minor)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		tripID, destinationID, req.Name, req.City, req.Type, req.Rating, req.PriceMinor).Scan(&id)
	if err != nil {
		h.serverError(w, "add_accommodation", tripID, err, "Failed to add accommodation")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Accommodation added successfully",
		Data: dto.TripAccommodationItem{
			ID:         id.String(),
			Name:       req.Name,
			City:       req.City,
			PriceMinor: req.PriceMinor,
		},
	})
}

// RemoveAccommodation handles DELETE /api/trips/{trip_id}/accommodations/{accommodation_id}
// @Summary Remove an accommodation from a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param accommodation_id path string true "Accommodation ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/accommodations/{accommodation_id} [delete]
func (h *TripsHandler) RemoveAccommodation(w http.ResponseWriter, r *http.Request, tripIDStr, accommodationIDStr string) {
	h.removeTripItem(w, r, "remove_accommodation", tripIDStr, accommodationIDStr,
		`DELETE FROM travel_plan_accommodations WHERE id = $1 AND travel_plan_id = $2`,
		"Accommodation not found", "Accommodation removed successfully")
}

// AddFlight handles POST /api/trips/{trip_id}/flights
// @Summary Add a flight between two trip stops
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.AddFlightRequest true "Flight payload"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/flights [post]
func (h *TripsHandler) AddFlight(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.AddFlightRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	departsFrom, err := uuid.Parse(req.DepartsFromDestinationID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A valid departs_from_destination_id is required")
		return
	}
	arrivesAt, err := uuid.Parse(req.ArrivesAtDestinationID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A valid arrives_at_destination_id is required")
		return
	}

	tripID, ok := h.memberTrip(w, r, "add_flight", tripIDStr)
	if !ok {
		return
	}

	var id uuid.UUID
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO travel_plan_flights (travel_plan_id, departs_from_destination_id, arrives_at_destination_id,
		        airline, flight_number, price_minor)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		tripID, departsFrom, arrivesAt, req.Airline, req.FlightNumber, req.PriceMinor).Scan(&id)
	if err != nil {
		h.serverError(w, "add_flight", tripID, err, "Failed to add flight")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{
		Message: "Flight added successfully",
		Data: dto.TripFlightItem{
			ID:           id.String(),
			Airline:      req.Airline,
			FlightNumber: req.FlightNumber,
			PriceMinor:   req.PriceMinor,
		},
	})
}

// RemoveFlight handles DELETE /api/trips/{trip_id}/flights/{flight_id}
// @Summary Remove a flight from a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param flight_id path string true "Flight ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/flights/{flight_id} [delete]
func (h *TripsHandler) RemoveFlight(w http.ResponseWriter, r *http.Request, tripIDStr, flightIDStr string) {
	h.removeTripItem(w, r, "remove_flight", tripIDStr, flightIDStr,
		`DELETE FROM travel_plan_flights WHERE id = $1 AND travel_plan_id = $2`,
		"Flight not found", "Flight removed successfully")
}

// removeTripItem deletes one sub-resource row scoped to its parent trip.
// The trip id in the WHERE clause keeps a member of one trip from deleting
// rows of another via a guessed item id.
func (h *TripsHandler) removeTripItem(w http.ResponseWriter, r *http.Request, op, tripIDStr, itemIDStr, query, missingMsg, okMsg string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	itemID, err := uuid.Parse(itemIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Item ID must be a UUID")
		return
	}

	tripID, ok := h.memberTrip(w, r, op, tripIDStr)
	if !ok {
		return
	}

	tag, err := h.db.Exec(r.Context(), query, itemID, tripID)
	if err != nil {
		h.serverError(w, op, tripID, err, "Failed to remove item")
		return
	}
	if tag.RowsAffected() == 0 {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", missingMsg)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Message: okMsg})
}
