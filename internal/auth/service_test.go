package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/evdms-platform/evdms-backend/pkg/auth"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testCfg() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "evdms",
		ExpirationMinutes: 30,
	}
}

func TestServiceLoginAdmin(t *testing.T) {
	password := "admin-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Ana Admin",
		Role:         string(enums.RoleAdmin),
		IsActive:     true,
	}
	cfg := testCfg()

	svc, sessions, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleAdmin {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	if claims.ID != sessions.lastSessionID {
		t.Fatalf("jti %s does not match created session %s", claims.ID, sessions.lastSessionID)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token to be set")
	}
	if resp.LandingRoute != "/admin/users" {
		t.Fatalf("expected admin landing route, got %s", resp.LandingRoute)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginDealerCarriesDealerID(t *testing.T) {
	password := "dealer-secret"
	dealerID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		Email:        "manager@dealer.example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Mira Manager",
		Role:         string(enums.RoleDealerManager),
		DealerID:     &dealerID,
		IsActive:     true,
	}
	cfg := testCfg()

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.DealerID == nil || *claims.DealerID != dealerID {
		t.Fatal("dealer id missing from claims")
	}
	if resp.LandingRoute != "/dealermanager/dashboard" {
		t.Fatalf("unexpected landing route %s", resp.LandingRoute)
	}
}

func TestServiceLoginRejectsDealerRoleWithoutDealer(t *testing.T) {
	password := "orphan"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "orphan@example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "No Dealer",
		Role:         string(enums.RoleDealerStaff),
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, testCfg())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	assertUnauthorized(t, err)
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPassword(t, "right"),
		FullName:     "User",
		Role:         string(enums.RoleEVMStaff),
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, testCfg())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	assertUnauthorized(t, err)
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Former Employee",
		Role:         string(enums.RoleAdmin),
		IsActive:     false,
	}

	svc, _, err := buildTestService(user, testCfg())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	assertUnauthorized(t, err)
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, _, err := buildTestService(nil, testCfg())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	assertUnauthorized(t, err)
}

func TestServiceLogoutAcceptsExpiredToken(t *testing.T) {
	cfg := testCfg()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleAdmin,
		JTI:    "sid-expired",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	svc, sessions, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.revoked != "sid-expired" {
		t.Fatalf("expected session sid-expired revoked, got %q", sessions.revoked)
	}
}

func TestServiceLogoutRejectsGarbageToken(t *testing.T) {
	svc, sessions, err := buildTestService(nil, testCfg())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	err = svc.Logout(context.Background(), "not-a-token")
	assertUnauthorized(t, err)
	if sessions.revoked != "" {
		t.Fatal("nothing should have been revoked")
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	cfg := testCfg()
	snap := session.Snapshot{
		UserID:   uuid.New(),
		FullName: "Ana Admin",
		Role:     enums.RoleAdmin,
	}
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: snap.UserID,
		Role:   snap.Role,
		JTI:    "sid-old",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	svc, sessions, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	sessions.rotateSnapshot = snap

	resp, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "refresh-token"}, token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.ID != sessions.lastSessionID {
		t.Fatalf("rotated jti mismatch: %s != %s", claims.ID, sessions.lastSessionID)
	}
	if resp.RefreshToken == "" || resp.RefreshToken == "refresh-token" {
		t.Fatalf("expected a fresh refresh token, got %q", resp.RefreshToken)
	}
}

func TestServiceRefreshRejectsInvalidRefreshToken(t *testing.T) {
	cfg := testCfg()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleAdmin,
		JTI:    "sid-1",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	svc, sessions, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	sessions.rotateErr = session.ErrInvalidRefreshToken

	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "forged"}, token)
	assertUnauthorized(t, err)
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

func buildTestService(user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	sessions := &stubSessionManager{refreshToken: "generated-refresh"}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
	})
	return svc, sessions, err
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
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	refreshToken   string
	lastSessionID  string
	revoked        string
	rotateSnapshot session.Snapshot
	rotateErr      error
}

func (s *stubSessionManager) Create(ctx context.Context, snap session.Snapshot) (string, string, error) {
	s.lastSessionID = session.NewSessionID()
	return s.lastSessionID, s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldSessionID, provided string) (string, string, session.Snapshot, error) {
	if s.rotateErr != nil {
		return "", "", session.Snapshot{}, s.rotateErr
	}
	s.lastSessionID = session.NewSessionID()
	return s.lastSessionID, "rotated-refresh", s.rotateSnapshot, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, sessionID string) error {
	s.revoked = sessionID
	return nil
}
