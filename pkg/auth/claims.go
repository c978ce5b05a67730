package auth

import (
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Email  string
	Role   enums.Role
	// JTI binds the token to a server-side session. A random id is used when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID int64      `json:"user_id"`
	Email  string     `json:"email,omitempty"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was minted for.
func (c *AccessTokenClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
