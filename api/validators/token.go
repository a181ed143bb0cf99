package validators

import (
	"errors"
	"net/http"
	"strings"
)

var ErrMissingToken = errors.New("missing auth token")

// BearerToken extracts the raw JWT from the Authorization header, falling
// back to the X-EVDMS-Token header some embedded clients use.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get("X-EVDMS-Token"))
	}
	if raw == "" {
		return "", ErrMissingToken
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", ErrMissingToken
	}
	return raw, nil
}
