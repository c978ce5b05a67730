package identity

import (
	"time"

	"github.com/athengaudio/storefront/pkg/auth"
	"github.com/athengaudio/storefront/pkg/config"
)

// TokenIssuer mints and checks the access tokens bound to sessions.
type TokenIssuer interface {
	Mint(user User, sessionID string) (string, error)
	Valid(token string) bool
}

// JWTIssuer signs HS256 access tokens whose jti is the session id.
type JWTIssuer struct {
	cfg config.JWTConfig
	now func() time.Time
}

// NewJWTIssuer returns an issuer for cfg.
func NewJWTIssuer(cfg config.JWTConfig) *JWTIssuer {
	return &JWTIssuer{cfg: cfg, now: time.Now}
}

func (i *JWTIssuer) Mint(user User, sessionID string) (string, error) {
	return auth.MintAccessToken(i.cfg, i.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    sessionID,
	})
}

func (i *JWTIssuer) Valid(token string) bool {
	if token == "" {
		return false
	}
	_, err := auth.ParseAccessToken(i.cfg, token)
	return err == nil
}
