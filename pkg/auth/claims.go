package auth

import (
	"github.com/evdms-platform/evdms-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the denormalized user snapshot cached alongside the token so the
// client never has to decode-and-fetch on every render.
type Identity struct {
	ID       uuid.UUID  `json:"id"`
	FullName string     `json:"full_name"`
	Role     enums.Role `json:"role"`
	DealerID *uuid.UUID `json:"dealer_id,omitempty"`
}

// Valid reports whether the identity carries a usable role. An identity
// without one is equivalent to no session at all.
func (i Identity) Valid() bool {
	return i.Role.IsValid()
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	FullName string
	Role     enums.Role
	DealerID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. The jti claim
// doubles as the session id in the session store.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	FullName string     `json:"full_name"`
	Role     enums.Role `json:"role"`
	DealerID *uuid.UUID `json:"dealer_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity projects the claims into the cached user snapshot.
func (c *AccessTokenClaims) Identity() Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{
		ID:       c.UserID,
		FullName: c.FullName,
		Role:     c.Role,
		DealerID: c.DealerID,
	}
}
