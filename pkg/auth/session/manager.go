package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	redisclient "github.com/evdms-platform/evdms-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	// ErrNoSession is returned when a session id has no live snapshot, either
	// because it expired, was revoked, or never existed.
	ErrNoSession = errors.New("no active session")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Snapshot is the server-side record of an authenticated session. It carries
// everything needed to rebuild the signed-in state without a database read.
type Snapshot struct {
	UserID   uuid.UUID  `json:"user_id"`
	FullName string     `json:"full_name"`
	Role     enums.Role `json:"role"`
	DealerID *uuid.UUID `json:"dealer_id,omitempty"`
}

// Valid reports whether the snapshot identifies a usable session.
func (s Snapshot) Valid() bool {
	return s.UserID != uuid.Nil && s.Role.IsValid()
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Publish(ctx context.Context, channel string, payload any) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
	RefreshKey(sessionID string) string
	UserSessionsKey(userID string) string
}

// Manager owns session snapshots and refresh tokens in Redis and broadcasts
// lifecycle events so sibling instances stay in sync.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// SnapshotReader exposes the read-only surface needed by middleware and the
// bootstrap endpoint.
type SnapshotReader interface {
	Lookup(ctx context.Context, sessionID string) (Snapshot, error)
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Create persists a snapshot under a fresh session id, issues the matching
// refresh token, tracks the session under the user's set, and announces the
// login. Returns the session id and refresh token.
func (m *Manager) Create(ctx context.Context, snap Snapshot) (string, string, error) {
	if !snap.Valid() {
		return "", "", fmt.Errorf("session snapshot is incomplete")
	}

	sessionID := NewSessionID()
	blob, err := json.Marshal(snap)
	if err != nil {
		return "", "", fmt.Errorf("encoding session snapshot: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), string(blob), m.ttl); err != nil {
		return "", "", err
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.keyer.RefreshKey(sessionID), refresh, m.ttl); err != nil {
		return "", "", err
	}

	if err := m.store.SAdd(ctx, m.keyer.UserSessionsKey(snap.UserID.String()), sessionID); err != nil {
		return "", "", err
	}

	m.publish(ctx, Event{
		Kind:      EventLogin,
		SessionID: sessionID,
		UserID:    snap.UserID,
		At:        time.Now().UTC(),
	})

	return sessionID, refresh, nil
}

// Lookup fetches the snapshot for a session id. A missing snapshot yields
// ErrNoSession. A snapshot that no longer parses is deleted and treated the
// same as missing so one corrupt blob cannot wedge a user out permanently.
func (m *Manager) Lookup(ctx context.Context, sessionID string) (Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Snapshot{}, ErrNoSession
	}

	key := m.keyer.SessionKey(sessionID)
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return Snapshot{}, ErrNoSession
		}
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || !snap.Valid() {
		_ = m.store.Del(ctx, key, m.keyer.RefreshKey(sessionID))
		return Snapshot{}, ErrNoSession
	}
	return snap, nil
}

// HasSession reports whether the session id still has a live snapshot.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Rotate validates the provided refresh token, retires the old session id,
// and re-persists the snapshot under a fresh one.
func (m *Manager) Rotate(ctx context.Context, oldSessionID, provided string) (string, string, Snapshot, error) {
	if strings.TrimSpace(oldSessionID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", Snapshot{}, ErrInvalidRefreshToken
	}

	stored, err := m.store.Get(ctx, m.keyer.RefreshKey(oldSessionID))
	if err != nil {
		return "", "", Snapshot{}, wrapNotFound(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", Snapshot{}, ErrInvalidRefreshToken
	}

	snap, err := m.Lookup(ctx, oldSessionID)
	if err != nil {
		return "", "", Snapshot{}, wrapNotFound(err)
	}

	newSessionID := NewSessionID()
	blob, err := json.Marshal(snap)
	if err != nil {
		return "", "", Snapshot{}, fmt.Errorf("encoding session snapshot: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(newSessionID), string(blob), m.ttl); err != nil {
		return "", "", Snapshot{}, err
	}
	newRefresh, err := generateRefreshToken()
	if err != nil {
		return "", "", Snapshot{}, err
	}
	if err := m.store.Set(ctx, m.keyer.RefreshKey(newSessionID), newRefresh, m.ttl); err != nil {
		return "", "", Snapshot{}, err
	}

	userSet := m.keyer.UserSessionsKey(snap.UserID.String())
	if err := m.store.SAdd(ctx, userSet, newSessionID); err != nil {
		return "", "", Snapshot{}, err
	}
	if err := m.store.SRem(ctx, userSet, oldSessionID); err != nil {
		return "", "", Snapshot{}, err
	}
	if err := m.store.Del(ctx, m.keyer.SessionKey(oldSessionID), m.keyer.RefreshKey(oldSessionID)); err != nil {
		return "", "", Snapshot{}, err
	}

	return newSessionID, newRefresh, snap, nil
}

// Revoke deletes the session and announces the logout. Revoking a session
// that is already gone is not an error.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}

	snap, err := m.Lookup(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}

	if err := m.store.Del(ctx, m.keyer.SessionKey(sessionID), m.keyer.RefreshKey(sessionID)); err != nil {
		return err
	}
	if snap.UserID != uuid.Nil {
		if err := m.store.SRem(ctx, m.keyer.UserSessionsKey(snap.UserID.String()), sessionID); err != nil {
			return err
		}
	}

	m.publish(ctx, Event{
		Kind:      EventLogout,
		SessionID: sessionID,
		UserID:    snap.UserID,
		At:        time.Now().UTC(),
	})
	return nil
}

// RevokeAllForUser drops every session tracked for the user. Used after a
// password reset so stolen tokens stop working everywhere at once.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}

	sessionIDs, err := m.store.SMembers(ctx, m.keyer.UserSessionsKey(userID.String()))
	if err != nil {
		return err
	}
	for _, sid := range sessionIDs {
		if err := m.Revoke(ctx, sid); err != nil {
			return err
		}
	}
	return nil
}

// NewSessionID produces the identifier used as both the JWT jti and the
// Redis session key.
func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) publish(ctx context.Context, ev Event) {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return
	}
	_ = m.store.Publish(ctx, redisclient.SessionEventsChannel, payload)
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrNoSession) {
		return ErrInvalidRefreshToken
	}
	return err
}
