package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"TRIPCRAFT_BACK-END/internal/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := GenerateToken(userID, "wanderer", "w@example.com", cfg)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	claims, err := ValidateToken(token, cfg)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if claims.UserID != userID || claims.Username != "wanderer" || claims.Email != "w@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, "wanderer", "w@example.com", testJWTConfig())
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	other := &config.JWTConfig{Secret: "another-secret", AccessTokenTTL: time.Hour}
	if _, err := ValidateToken(token, other); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
}

func TestAuthMiddlewarePassesPrincipal(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := GenerateToken(userID, "wanderer", "w@example.com", cfg)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	var got Principal
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.ID != userID {
		t.Fatalf("expected principal id %s, got %s", userID, got.ID)
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}, testJWTConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed header")
	}, testJWTConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
