package preferences

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// maxListSize caps the UI collections so a misbehaving client cannot grow a
// redis set without bound.
const maxListSize = 200

type store interface {
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

type keyer interface {
	FavoritesKey(userID string) string
	CompareKey(userID string) string
}

// Service owns the per-user favorites and compare lists cached in redis.
// These are UI conveniences: losing them is harmless, leaking them across a
// logout is not, so they are cleared whenever the session ends.
type Service struct {
	store store
	keyer keyer
}

// NewService builds the preferences service on the shared redis client.
func NewService(s store, k keyer) (*Service, error) {
	if s == nil || k == nil {
		return nil, fmt.Errorf("redis store and keyer are required")
	}
	return &Service{store: s, keyer: k}, nil
}

// Favorites returns the user's favorite vehicle ids, sorted for stable output.
func (s *Service) Favorites(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.list(ctx, s.keyer.FavoritesKey(userID.String()))
}

// SetFavorites replaces the favorites list wholesale.
func (s *Service) SetFavorites(ctx context.Context, userID uuid.UUID, vehicleIDs []string) error {
	return s.replace(ctx, s.keyer.FavoritesKey(userID.String()), vehicleIDs)
}

// Compare returns the user's compare list, sorted for stable output.
func (s *Service) Compare(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.list(ctx, s.keyer.CompareKey(userID.String()))
}

// SetCompare replaces the compare list wholesale.
func (s *Service) SetCompare(ctx context.Context, userID uuid.UUID, vehicleIDs []string) error {
	return s.replace(ctx, s.keyer.CompareKey(userID.String()), vehicleIDs)
}

// Clear drops both lists for the user. Called when a logout event is observed
// so a later sign-in starts clean.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Del(ctx,
		s.keyer.FavoritesKey(userID.String()),
		s.keyer.CompareKey(userID.String()),
	)
}

func (s *Service) list(ctx context.Context, key string) ([]string, error) {
	members, err := s.store.SMembers(ctx, key)
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

func (s *Service) replace(ctx context.Context, key string, vehicleIDs []string) error {
	cleaned := make([]any, 0, len(vehicleIDs))
	seen := map[string]bool{}
	for _, id := range vehicleIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		cleaned = append(cleaned, id)
	}
	if len(cleaned) > maxListSize {
		return fmt.Errorf("list exceeds %d entries", maxListSize)
	}

	if err := s.store.Del(ctx, key); err != nil {
		return err
	}
	if len(cleaned) == 0 {
		return nil
	}
	return s.store.SAdd(ctx, key, cleaned...)
}
