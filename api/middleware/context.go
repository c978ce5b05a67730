package middleware

import (
	"context"
	"strconv"

	"github.com/athengaudio/storefront/internal/identity"
)

type contextKey string

const (
	ctxSession   contextKey = "session"
	ctxCartOwner contextKey = "cart_owner"
)

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *identity.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*identity.Session); ok {
		return v
	}
	return nil
}

// WithSession injects an authenticated session into the context.
func WithSession(ctx context.Context, sess *identity.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}

// UserIDFromContext returns the authenticated user id, or 0 when anonymous.
func UserIDFromContext(ctx context.Context) int64 {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0
	}
	if user := sess.Current(); user != nil {
		return user.ID
	}
	return 0
}

func RoleFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	if user := sess.Current(); user != nil {
		return user.Role.String()
	}
	return ""
}

// CartOwnerFromContext returns the cart owner resolved for the request.
func CartOwnerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartOwner).(string); ok {
		return v
	}
	return ""
}

// WithCartOwner injects the cart owner into the context for downstream handlers.
func WithCartOwner(ctx context.Context, owner string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartOwner, owner)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
