package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	redisclient "github.com/evdms-platform/evdms-backend/pkg/redis"
	"github.com/google/uuid"
)

func newTestManager(t *testing.T) (*Manager, *redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	mgr, err := NewManager(client, config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "evdms",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60 * 24,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr, client, mr
}

func testSnapshot() Snapshot {
	return Snapshot{
		UserID:   uuid.New(),
		FullName: "Ana Admin",
		Role:     enums.RoleAdmin,
	}
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewManager(client, config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "evdms",
		ExpirationMinutes:      60,
		RefreshTokenTTLMinutes: 30,
	})
	if err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
}

func TestCreateLookupRoundTrip(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()
	dealerID := uuid.New()
	snap := Snapshot{
		UserID:   uuid.New(),
		FullName: "Mira Manager",
		Role:     enums.RoleDealerManager,
		DealerID: &dealerID,
	}

	sid, refresh, err := mgr.Create(ctx, snap)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sid == "" || refresh == "" {
		t.Fatal("expected session id and refresh token")
	}

	got, err := mgr.Lookup(ctx, sid)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.UserID != snap.UserID || got.Role != snap.Role || got.FullName != snap.FullName {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
	if got.DealerID == nil || *got.DealerID != dealerID {
		t.Fatal("dealer id lost in round trip")
	}

	ok, err := mgr.HasSession(ctx, sid)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected live session")
	}
}

func TestLookupMissingSession(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	if _, err := mgr.Lookup(context.Background(), "ghost"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := mgr.Lookup(context.Background(), ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for empty id, got %v", err)
	}
}

func TestLookupDeletesCorruptSnapshot(t *testing.T) {
	mgr, client, mr := newTestManager(t)
	ctx := context.Background()

	sid := NewSessionID()
	mr.Set(client.SessionKey(sid), "{not json")

	if _, err := mgr.Lookup(ctx, sid); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for corrupt blob, got %v", err)
	}
	if mr.Exists(client.SessionKey(sid)) {
		t.Fatal("corrupt snapshot should have been deleted")
	}
}

func TestRotateIssuesNewSession(t *testing.T) {
	mgr, client, mr := newTestManager(t)
	ctx := context.Background()
	snap := testSnapshot()

	oldSID, oldRefresh, err := mgr.Create(ctx, snap)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newSID, newRefresh, got, err := mgr.Rotate(ctx, oldSID, oldRefresh)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newSID == oldSID {
		t.Fatal("expected a fresh session id")
	}
	if newRefresh == oldRefresh {
		t.Fatal("expected a fresh refresh token")
	}
	if got.UserID != snap.UserID {
		t.Fatalf("snapshot mismatch after rotate: %+v", got)
	}

	if mr.Exists(client.SessionKey(oldSID)) || mr.Exists(client.RefreshKey(oldSID)) {
		t.Fatal("old session should be gone after rotate")
	}
	if _, err := mgr.Lookup(ctx, newSID); err != nil {
		t.Fatalf("lookup new session: %v", err)
	}

	// The retired pair cannot be replayed.
	if _, _, _, err := mgr.Rotate(ctx, oldSID, oldRefresh); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	sid, _, err := mgr.Create(ctx, testSnapshot())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, _, err := mgr.Rotate(ctx, sid, "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeIsIdempotentAndPublishes(t *testing.T) {
	mgr, client, mr := newTestManager(t)
	ctx := context.Background()
	snap := testSnapshot()

	sub, err := client.Subscribe(ctx, redisclient.SessionEventsChannel)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })

	sid, _, err := mgr.Create(ctx, snap)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mgr.Revoke(ctx, sid); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if mr.Exists(client.SessionKey(sid)) || mr.Exists(client.RefreshKey(sid)) {
		t.Fatal("revoked session keys should be gone")
	}

	// Revoking again, or revoking nothing, succeeds quietly.
	if err := mgr.Revoke(ctx, sid); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := mgr.Revoke(ctx, ""); err != nil {
		t.Fatalf("empty revoke: %v", err)
	}

	// Both the login and the logout were announced.
	kinds := map[EventKind]bool{}
	ch := sub.Channel()
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			ev, err := DecodeEvent(msg.Payload)
			if err != nil {
				t.Fatalf("decode event %d: %v", i, err)
			}
			if ev.SessionID != sid {
				t.Fatalf("event %d for wrong session: %s", i, ev.SessionID)
			}
			kinds[ev.Kind] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	if !kinds[EventLogin] || !kinds[EventLogout] {
		t.Fatalf("expected login and logout events, got %v", kinds)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	mgr, client, mr := newTestManager(t)
	ctx := context.Background()
	snap := testSnapshot()

	sid1, _, err := mgr.Create(ctx, snap)
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	sid2, _, err := mgr.Create(ctx, snap)
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}

	if err := mgr.RevokeAllForUser(ctx, snap.UserID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, sid := range []string{sid1, sid2} {
		if mr.Exists(client.SessionKey(sid)) {
			t.Fatalf("session %s should be gone", sid)
		}
	}
}

func TestEventCodecRoundTrip(t *testing.T) {
	ev := Event{
		Kind:      EventLogout,
		SessionID: "sid-1",
		UserID:    uuid.New(),
		At:        time.Now().UTC().Truncate(time.Second),
	}
	payload, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEvent(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != ev.Kind || got.SessionID != ev.SessionID || got.UserID != ev.UserID {
		t.Fatalf("event mismatch: %+v", got)
	}

	if _, err := DecodeEvent("{"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := DecodeEvent(`{"kind":"reboot","session_id":"x"}`); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := EncodeEvent(Event{Kind: EventLogin}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}
