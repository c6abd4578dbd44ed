package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/models"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// TripStateHandler manages the planning phase of a trip. Collaborators
// poll GetState on an interval and refresh their trip data when the phase
// changes; only the owner writes.
type TripStateHandler struct {
	db DB
}

// NewTripStateHandler creates a new TripStateHandler
func NewTripStateHandler(db DB) *TripStateHandler {
	return &TripStateHandler{db: db}
}

// TripState dispatches GET/PUT for /api/trips/{trip_id}/state
func (h *TripStateHandler) TripState(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	switch r.Method {
	case http.MethodGet:
		h.GetState(w, r, tripIDStr)
	case http.MethodPut:
		h.SetState(w, r, tripIDStr)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GetState handles GET /api/trips/{trip_id}/state
// @Summary Read the planning phase
// @Tags trip-state
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/state [get]
func (h *TripStateHandler) GetState(w http.ResponseWriter, r *http.Request, tripIDStr string) {
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
		h.serverError(w, "get_trip_state", tripID, err, "Failed to get trip state")
		return
	}

	if _, err := authorizeTripAccess(ctx, h.db, tripID, userID); err != nil {
		switch {
		case errors.Is(err, errTripNotFound):
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		case errors.Is(err, errNotTripMember):
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not have permission for this trip")
		default:
			h.serverError(w, "get_trip_state", tripID, err, "Failed to get trip state")
		}
		return
	}

	var state models.TripState
	err = h.db.QueryRow(ctx,
		`SELECT trip_id, planning_phase, updated_at FROM trip_states WHERE trip_id = $1`,
		tripID).Scan(&state.TripID, &state.PlanningPhase, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip state not found")
		return
	}
	if err != nil {
		h.serverError(w, "get_trip_state", tripID, err, "Failed to get trip state")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Trip state retrieved successfully",
		Data:    tripStateResponse(state),
	})
}

// SetState handles PUT /api/trips/{trip_id}/state
// @Summary Set the planning phase
// @Tags trip-state
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.UpdateTripStateRequest true "New phase"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/state [put]
func (h *TripStateHandler) SetState(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return
	}

	var req dto.UpdateTripStateRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	req.Phase = strings.ToLower(strings.TrimSpace(req.Phase))
	if req.Phase == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "A 'phase' is required")
		return
	}
	if !models.ValidPhase(req.Phase) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Unknown planning phase")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "set_trip_state", tripID, err, "Failed to update trip state")
		return
	}

	// Phase transitions are owner-only; phase ordering is deliberately
	// not checked here (a solo trip skips voting, and the client owns the
	// workflow).
	var ownerID *uuid.UUID
	err = h.db.QueryRow(ctx, `SELECT owner_id FROM travel_plans WHERE id = $1`, tripID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		return
	}
	if err != nil {
		h.serverError(w, "set_trip_state", tripID, err, "Failed to update trip state")
		return
	}
	if ownerID == nil || *ownerID != userID {
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "Only the trip owner can change the planning phase")
		return
	}

	var state models.TripState
	err = h.db.QueryRow(ctx,
		`INSERT INTO trip_states (trip_id, planning_phase, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (trip_id) DO UPDATE SET planning_phase = EXCLUDED.planning_phase, updated_at = NOW()
		 RETURNING trip_id, planning_phase, updated_at`,
		tripID, req.Phase).Scan(&state.TripID, &state.PlanningPhase, &state.UpdatedAt)
	if err != nil {
		h.serverError(w, "set_trip_state", tripID, err, "Failed to update trip state")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Trip state updated",
		Data:    tripStateResponse(state),
	})
}

func tripStateResponse(s models.TripState) dto.TripStateResponse {
	return dto.TripStateResponse{
		TripID:        s.TripID.String(),
		PlanningPhase: s.PlanningPhase,
		UpdatedAt:     utils.FormatTimestamp(s.UpdatedAt),
	}
}

func (h *TripStateHandler) serverError(w http.ResponseWriter, op string, id uuid.UUID, err error, msg string) {
	logrus.WithFields(logrus.Fields{"op": op, "trip_id": id}).WithError(err).Error("trip state operation failed")
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", msg)
}
