package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/verdantlabs/canopy-backend/pkg/auth"
	"github.com/verdantlabs/canopy-backend/pkg/auth/session"
	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "canopy",
	ExpirationMinutes: 30,
}

func TestServiceLoginSuccess(t *testing.T) {
	password := "rep-secret"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleSalesRep,
		IsActive:     true,
	}

	svc, sessions := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Username: "jdoe",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleSalesRep {
		t.Fatalf("expected sales rep role claim, got %s", claims.Role)
	}
	if claims.Username != "jdoe" {
		t.Fatalf("unexpected username claim %q", claims.Username)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("expected user dto in response")
	}
	if sessions.generated != claims.ID {
		t.Fatalf("session should be keyed by the jti claim")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: mustHashPassword(t, "correct"),
		Role:         enums.UserRoleSalesRep,
		IsActive:     true,
	}
	svc, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: "wrong"})
	assertUnauthorized(t, err)
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "rep-secret"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleSalesRep,
		IsActive:     false,
	}
	svc, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: password})
	assertUnauthorized(t, err)
}

func TestServiceLoginUnknownUser(t *testing.T) {
	svc, _ := buildTestService(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever"})
	assertUnauthorized(t, err)
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	password := "rep-secret"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleAdministrator,
		IsActive:     true,
	}
	svc, sessions := buildTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == login.AccessToken {
		t.Fatal("expected a new access token")
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleAdministrator {
		t.Fatalf("refreshed claims lost identity: %+v", claims)
	}

	// the old refresh token must no longer rotate
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	assertUnauthorized(t, err)
	_ = sessions
}

func TestServiceLogoutRevokes(t *testing.T) {
	password := "rep-secret"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleSalesRep,
		IsActive:     true,
	}
	svc, sessions := buildTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.tokens[claims.ID]; ok {
		t.Fatal("expected session removed on logout")
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubSessionManager) {
	t.Helper()
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
}

func (s stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.user
	return &copied, nil
}

type stubSessionManager struct {
	tokens    map[string]string
	generated string
	counter   int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.counter++
	token := uuid.NewString()
	s.tokens[accessID] = token
	s.generated = accessID
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := uuid.NewString()
	newToken := uuid.NewString()
	s.tokens[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}
