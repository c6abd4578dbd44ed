package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"TRIPCRAFT_BACK-END/internal/middleware"
	"TRIPCRAFT_BACK-END/internal/utils"
)

// currentPrincipal extracts the authenticated principal from the request
// context, writing a 401 response when it is missing.
func currentPrincipal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
	}
	return p, ok
}

// resolveUserID maps a principal to its durable users.id. The identity
// layer may present id, username, or email as the subject; precedence is
// id first, then username, then email. Returns pgx.ErrNoRows when no user
// matches any of them.
func resolveUserID(ctx context.Context, q querier, p middleware.Principal) (uuid.UUID, error) {
	var id uuid.UUID
	if p.ID != uuid.Nil {
		err := q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, p.ID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}
	if p.Username != "" {
		err := q.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, p.Username).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}
	if p.Email != "" {
		err := q.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, p.Email).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}
