package middleware

import (
	"context"
	"net/http"

	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/identity"
	pkgAuth "github.com/athengaudio/storefront/pkg/auth"
	"github.com/athengaudio/storefront/pkg/config"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
)

// SessionOpener restores sessions by id.
type SessionOpener interface {
	Open(ctx context.Context, sessionID string) (*identity.Session, error)
}

// Auth validates a bearer token, restores the session named by its jti and
// seeds the request context with it.
func Auth(cfg config.JWTConfig, sessions SessionOpener, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, sessions, logg, true)
}

// OptionalAuth behaves like Auth when credentials are sent and lets anonymous
// requests through untouched.
func OptionalAuth(cfg config.JWTConfig, sessions SessionOpener, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, sessions, logg, false)
}

func authenticate(cfg config.JWTConfig, sessions SessionOpener, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.SessionID() == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			sess, err := sessions.Open(r.Context(), claims.SessionID())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !sess.IsLoggedIn() || sess.Token() != token {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
				return
			}

			ctx := WithSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sess.ID())
				ctx = logg.WithUserID(ctx, formatID(claims.UserID))
				ctx = logg.WithActorRole(ctx, claims.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
