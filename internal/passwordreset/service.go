package passwordreset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/db/models"
	pkgerrors "github.com/evdms-platform/evdms-backend/pkg/errors"
	"github.com/evdms-platform/evdms-backend/pkg/security"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	resetTokenBytes   = 32
	minPasswordLength = 8
)

// ErrInvalidResetToken covers an unknown, expired, or already-used token.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type keyer interface {
	ResetTokenKey(token string) string
	RateLimitKey(scope string) string
}

// Service issues and consumes password-reset tokens. Tokens live only in
// redis as SHA-256 digests with a TTL; the plaintext exists once, in the
// reset email. Consuming a token revokes every session the user holds so a
// stolen credential stops working the moment the password changes.
type Service struct {
	users       userRepository
	sessions    sessionRevoker
	store       tokenStore
	keyer       keyer
	resetCfg    config.ResetConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionRevoker
	Store          tokenStore
	Keyer          keyer
	ResetConfig    config.ResetConfig
	PasswordConfig config.PasswordConfig
}

// NewService validates dependencies and builds the reset service.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Store == nil || params.Keyer == nil {
		return nil, fmt.Errorf("redis store and keyer are required")
	}
	return &Service{
		users:       params.UserRepo,
		sessions:    params.SessionManager,
		store:       params.Store,
		keyer:       params.Keyer,
		resetCfg:    params.ResetConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Request issues a reset token for the email if it belongs to an active user.
// The returned token is empty for unknown or inactive accounts; callers must
// respond identically either way so the endpoint cannot be used to probe for
// registered addresses.
func (s *Service) Request(ctx context.Context, email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	count, err := s.store.IncrWithTTL(ctx, s.keyer.RateLimitKey("reset:"+normalized), s.resetCfg.IssueWindow)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset limiter")
	}
	if count > int64(s.resetCfg.IssuePerEmail) {
		return "", pkgerrors.New(pkgerrors.CodeRateLimit, "too many reset requests")
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	key := s.keyer.ResetTokenKey(digest(token))
	if err := s.store.Set(ctx, key, user.ID.String(), s.resetCfg.TokenTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}
	return token, nil
}

// Confirm consumes the token and replaces the user's password. Every live
// session for the user is revoked afterward.
func (s *Service) Confirm(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, ErrInvalidResetToken.Error())
	}
	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	key := s.keyer.ResetTokenKey(digest(token))
	rawUserID, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, ErrInvalidResetToken.Error())
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reset token")
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		_ = s.store.Del(ctx, key)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, ErrInvalidResetToken.Error())
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.store.Del(ctx, key)
			return pkgerrors.New(pkgerrors.CodeUnauthorized, ErrInvalidResetToken.Error())
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	// Single use: the token dies with the password change.
	if err := s.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reset token")
	}
	if err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions")
	}
	return nil
}

func generateToken() (string, error) {
	bytes := make([]byte, resetTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
