package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"TRIPCRAFT_BACK-END/internal/config"
	"TRIPCRAFT_BACK-END/internal/dto"
	"TRIPCRAFT_BACK-END/internal/models"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// InvitationsHandler manages trip collaboration invitations
type InvitationsHandler struct {
	db    DB
	cfg   *config.Config
	email *utils.EmailService
}

// NewInvitationsHandler creates a new InvitationsHandler
func NewInvitationsHandler(db DB, cfg *config.Config, email *utils.EmailService) *InvitationsHandler {
	return &InvitationsHandler{db: db, cfg: cfg, email: email}
}

// CreateInvitation handles POST /api/trips/{trip_id}/invite
// @Summary Create a shareable invitation link
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trip_id path string true "Trip ID"
// @Param payload body dto.CreateInvitationRequest false "Optional delivery email"
// @Success 201 {object} dto.CreateInvitationResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/trips/{trip_id}/invite [post]
func (h *InvitationsHandler) CreateInvitation(w http.ResponseWriter, r *http.Request, tripIDStr string) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid trip id", "trip_id must be UUID")
		return
	}

	// Body is optional; an empty or absent body means link-only.
	var req dto.CreateInvitationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authenticated user not found")
		return
	}
	if err != nil {
		h.serverError(w, "create_invitation", tripID, err, "Failed to create invitation link")
		return
	}

	var (
		ownerID  *uuid.UUID
		tripName string
	)
	err = h.db.QueryRow(ctx, `SELECT owner_id, name FROM travel_plans WHERE id = $1`, tripID).Scan(&ownerID, &tripName)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Trip not found")
		return
	}
	if err != nil {
		h.serverError(w, "create_invitation", tripID, err, "Failed to create invitation link")
		return
	}
	if ownerID == nil || *ownerID != userID {
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "Only the trip owner can create invitation links")
		return
	}

	token, err := newInvitationToken()
	if err != nil {
		h.serverError(w, "create_invitation", tripID, err, "Failed to create invitation link")
		return
	}
	inv := models.TripInvitation{
		TripID:          tripID,
		CreatedByUserID: userID,
		Token:           token,
		ExpiresAt:       time.Now().Add(h.cfg.App.InvitationTTL),
	}

	_, err = h.db.Exec(ctx,
		`INSERT INTO trip_invitations (trip_id, created_by_user_id, token, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		inv.TripID, inv.CreatedByUserID, inv.Token, inv.ExpiresAt)
	if err != nil {
		h.serverError(w, "create_invitation", tripID, err, "Failed to create invitation link")
		return
	}

	shareableLink := fmt.Sprintf("%s/join-trip?token=%s", h.cfg.App.FrontendURL, inv.Token)

	if req.Email != "" && h.email != nil {
		if err := h.email.SendTripInvitation(req.Email, tripName, shareableLink, h.cfg.App.InvitationTTL); err != nil {
			// Delivery is best-effort; the link in the response is the
			// source of truth.
			logrus.WithFields(logrus.Fields{"trip_id": tripID}).WithError(err).Warn("invitation email not sent")
		}
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.CreateInvitationResponse{
		ShareableLink: shareableLink,
		ExpiresAt:     utils.FormatTimestamp(inv.ExpiresAt),
	})
}

// AcceptInvitation handles POST /api/invitations/accept
// @Summary Redeem an invitation token
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AcceptInvitationRequest true "Invitation token"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/invitations/accept [post]
func (h *InvitationsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var req dto.AcceptInvitationRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if req.Token == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "Invitation token is required")
		return
	}

	ctx := r.Context()
	userID, err := resolveUserID(ctx, h.db, principal)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "User account not found. Cannot accept invitation")
		return
	}
	if err != nil {
		h.serverError(w, "accept_invitation", uuid.Nil, err, "Failed to accept invitation")
		return
	}

	// One transaction for lookup, membership insert, and token deletion:
	// a concurrent double-redeem cannot create two collaborator rows, and
	// the (trip_id, user_id) unique constraint is the final backstop.
	tx, err := h.db.Begin(ctx)
	if err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}
	defer tx.Rollback(ctx)

	var inv models.TripInvitation
	err = tx.QueryRow(ctx,
		`SELECT id, trip_id FROM trip_invitations WHERE token = $1 AND expires_at > NOW()`,
		req.Token).Scan(&inv.ID, &inv.TripID)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Invitation not found or has expired")
		return
	}
	if err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}

	var isOwner, isCollaborator bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM travel_plans WHERE id = $1 AND owner_id = $2)`,
		inv.TripID, userID).Scan(&isOwner)
	if err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trip_collaborators WHERE trip_id = $1 AND user_id = $2)`,
		inv.TripID, userID).Scan(&isCollaborator)
	if err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}

	if isOwner || isCollaborator {
		// Treat the token as consumed and send the member back to the
		// trip; this is not an error for the client.
		if _, err := tx.Exec(ctx, `DELETE FROM trip_invitations WHERE id = $1`, inv.ID); err != nil {
			h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
			return
		}
		if err := tx.Commit(ctx); err != nil {
			h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
			Message: "You are already a member of this trip",
			Data:    dto.AcceptInvitationData{TripID: inv.TripID.String()},
		})
		return
	}

	member := models.TripCollaborator{
		TripID:          inv.TripID,
		UserID:          userID,
		PermissionLevel: models.PermissionEditor,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO trip_collaborators (trip_id, user_id, permission_level) VALUES ($1, $2, $3)`,
		member.TripID, member.UserID, member.PermissionLevel)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with our own concurrent redemption.
			utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", "You are already a member of this trip")
			return
		}
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}

	// Single-use: the token dies with its first successful redemption.
	if _, err := tx.Exec(ctx, `DELETE FROM trip_invitations WHERE id = $1`, inv.ID); err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		h.serverError(w, "accept_invitation", userID, err, "Failed to accept invitation")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Message: "You have successfully joined the trip!",
		Data:    dto.AcceptInvitationData{TripID: inv.TripID.String()},
	})
}

// newInvitationToken returns 160 bits of hex-encoded randomness.
func newInvitationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *InvitationsHandler) serverError(w http.ResponseWriter, op string, id uuid.UUID, err error, msg string) {
	logrus.WithFields(logrus.Fields{"op": op, "id": id}).WithError(err).Error("invitation operation failed")
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", msg)
}
