package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/evdms-platform/evdms-backend/pkg/enums"
	"github.com/google/uuid"
)

// unverifiedClaims is the loose shape DecodeUnverified parses into. Fields are
// strings so a malformed value degrades that field instead of failing the
// whole decode.
type unverifiedClaims struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	DealerID string `json:"dealer_id"`
	Subject  string `json:"sub"`
	JTI      string `json:"jti"`
}

// DecodeUnverified extracts displayable claims from a JWT WITHOUT verifying
// its signature. It exists for client-side concerns only, e.g. scoping a list
// query by dealer id before the server round-trip; authorization always goes
// through ParseAccessToken.
//
// The function is total: any malformed input (wrong segment count, bad
// base64url, invalid JSON, unknown role) yields an empty Identity whose
// Valid() is false. It never returns an error and never panics, so callers
// treat missing claims as absent permissions rather than trusting a default.
func DecodeUnverified(token string) Identity {
	segments := strings.Split(strings.TrimSpace(token), ".")
	if len(segments) != 3 {
		return Identity{}
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segments[1], "="))
	if err != nil {
		return Identity{}
	}

	var raw unverifiedClaims
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Identity{}
	}

	role, err := enums.ParseRole(raw.Role)
	if err != nil {
		// a token without a usable role carries no permissions
		return Identity{}
	}

	id := raw.UserID
	if id == "" {
		id = raw.Subject
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return Identity{}
	}

	identity := Identity{
		ID:       userID,
		FullName: raw.FullName,
		Role:     role,
	}
	if dealerID, err := uuid.Parse(raw.DealerID); err == nil {
		identity.DealerID = &dealerID
	}
	return identity
}

// SessionIDUnverified pulls the jti out of a JWT without verification. Empty
// string when absent or malformed.
func SessionIDUnverified(token string) string {
	segments := strings.Split(strings.TrimSpace(token), ".")
	if len(segments) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segments[1], "="))
	if err != nil {
		return ""
	}
	var raw unverifiedClaims
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ""
	}
	return raw.JTI
}
