package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind labels a session lifecycle broadcast.
type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
)

// Event is broadcast on the session events channel whenever a session is
// created or revoked. Every gateway instance subscribes and reacts to logout
// events so a revoked session is dropped everywhere, not just on the instance
// that handled the request.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	At        time.Time `json:"at"`
}

// EncodeEvent serializes an event for publishing.
func EncodeEvent(ev Event) (string, error) {
	if ev.Kind != EventLogin && ev.Kind != EventLogout {
		return "", fmt.Errorf("unknown session event kind %q", ev.Kind)
	}
	if strings.TrimSpace(ev.SessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encoding session event: %w", err)
	}
	return string(raw), nil
}

// DecodeEvent parses a payload received from the session events channel.
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decoding session event: %w", err)
	}
	if ev.Kind != EventLogin && ev.Kind != EventLogout {
		return Event{}, fmt.Errorf("unknown session event kind %q", ev.Kind)
	}
	if strings.TrimSpace(ev.SessionID) == "" {
		return Event{}, fmt.Errorf("session event missing session id")
	}
	return ev, nil
}
