package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"TRIPCRAFT_BACK-END/internal/models"
)

// Sentinel results of the trip permission check. The absent and the
// unauthorized case are never conflated: absent maps to 404, present but
// not a member maps to 403.
var (
	errTripNotFound  = errors.New("trip not found")
	errNotTripMember = errors.New("not a trip member")
)

// authorizeTripAccess is the gate in front of every trip-scoped
// operation: the principal must be the trip owner or a collaborator.
// On success the loaded trip is returned so callers don't re-read it.
func authorizeTripAccess(ctx context.Context, q querier, tripID, userID uuid.UUID) (models.TravelPlan, error) {
	var t models.TravelPlan
	err := q.QueryRow(ctx,
		`SELECT id, name, description, start_date, duration_days, price_minor,
		        currency_code, capacity, cover_image_url, owner_id, plan_type, created_at
		   FROM travel_plans WHERE id = $1`, tripID).Scan(
		&t.ID, &t.Name, &t.Description, &t.StartDate, &t.DurationDays, &t.PriceMinor,
		&t.CurrencyCode, &t.Capacity, &t.CoverImageURL, &t.OwnerID, &t.PlanType, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TravelPlan{}, errTripNotFound
	}
	if err != nil {
		return models.TravelPlan{}, err
	}

	if t.OwnerID != nil && *t.OwnerID == userID {
		return t, nil
	}

	var isCollaborator bool
	err = q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trip_collaborators WHERE trip_id = $1 AND user_id = $2)`,
		tripID, userID).Scan(&isCollaborator)
	if err != nil {
		return models.TravelPlan{}, err
	}
	if !isCollaborator {
		return models.TravelPlan{}, errNotTripMember
	}
	return t, nil
}
