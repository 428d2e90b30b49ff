package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/verdantlabs/canopy-backend/pkg/auth"
	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "middleware-test-secret",
	Issuer:            "canopy-test",
	ExpirationMinutes: 15,
}

type stubSessionChecker struct {
	sessions map[string]bool
	err      error
}

func (s *stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.sessions[accessID], nil
}

func mintTestToken(t *testing.T, jti string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "jdoe",
		Role:     enums.UserRoleSalesRep,
		JTI:      jti,
	})
	require.NoError(t, err)
	return token
}

func authedHandler(t *testing.T, checker *stubSessionChecker) (http.Handler, *string) {
	t.Helper()
	var seenRole string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return Auth(testJWTConfig, checker, nil)(inner), &seenRole
}

func TestAuthAllowsValidToken(t *testing.T) {
	checker := &stubSessionChecker{sessions: map[string]bool{"session-1": true}}
	handler, seenRole := authedHandler(t, checker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "session-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, string(enums.UserRoleSalesRep), *seenRole)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler, _ := authedHandler(t, &stubSessionChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler, _ := authedHandler(t, &stubSessionChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A structurally valid JWT whose session was revoked must not pass.
func TestAuthRejectsRevokedSession(t *testing.T) {
	checker := &stubSessionChecker{sessions: map[string]bool{}}
	handler, _ := authedHandler(t, checker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "revoked-session"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(string(enums.UserRoleAdministrator), nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleSalesRep)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleAdministrator)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
