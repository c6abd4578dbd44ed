package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// ToursHandler serves public tour information
type ToursHandler struct {
	db DB
}

// NewToursHandler creates a new ToursHandler
func NewToursHandler(db DB) *ToursHandler {
	return &ToursHandler{db: db}
}

// Availability handles GET /api/tours/{tour_id}/availability
// @Summary Get remaining seats on a tour
// @Tags tours
// @Produce json
// @Param tour_id path string true "Tour ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tours/{tour_id}/availability [get]
func (h *ToursHandler) Availability(w http.ResponseWriter, r *http.Request, tourIDStr string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tourID, err := uuid.Parse(tourIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid tour id", "tour_id must be UUID")
		return
	}

	ctx := r.Context()
	var capacity *int
	err = h.db.QueryRow(ctx,
		`SELECT capacity FROM travel_plans WHERE id = $1 AND plan_type = 'tour'`,
		tourID).Scan(&capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Tour not found")
		return
	}
	if err != nil {
		h.serverError(w, tourID, err)
		return
	}

	// This read is advisory only. A seat shown here can be gone by the
	// time the booking request arrives; the booking transaction re-checks
	// under the tour row lock.
	seatCap := 0
	if capacity != nil {
		seatCap = *capacity
	}
	remaining, err := remainingSeats(ctx, h.db, tourID, seatCap)
	if err != nil {
		h.serverError(w, tourID, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "Tour availability retrieved successfully",
		Data: dto.TourAvailabilityResponse{
			TourID:         tourID.String(),
			Capacity:       seatCap,
			BookedSpots:    seatCap - remaining,
			RemainingSeats: remaining,
		},
	})
}

func (h *ToursHandler) serverError(w http.ResponseWriter, id uuid.UUID, err error) {
	logrus.WithFields(logrus.Fields{"op": "tour_availability", "tour_id": id}).WithError(err).Error("tour operation failed")
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", "Failed to retrieve tour availability")
}
