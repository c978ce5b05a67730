package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/identity"
	"github.com/athengaudio/storefront/pkg/auth/session"
	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/security"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func newIdentity(t *testing.T) identity.Service {
	t.Helper()
	sessions, err := session.NewStore(kv.NewMemory())
	require.NoError(t, err)
	provider, err := identity.NewMockProvider(security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1}))
	require.NoError(t, err)
	svc, err := identity.NewService(identity.ServiceParams{
		Store:    sessions,
		Provider: provider,
		Issuer:   identity.NewJWTIssuer(testJWT),
	})
	require.NoError(t, err)
	return svc
}

func login(t *testing.T, svc identity.Service, email, password string) *identity.Session {
	t.Helper()
	sess := svc.NewSession()
	_, err := sess.Login(context.Background(), identity.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return sess
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, newIdentity(t), nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, newIdentity(t), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthAllowsValidTokenAndRejectsAfterLogout(t *testing.T) {
	svc := newIdentity(t)
	sess := login(t, svc, "admin@athengaudio.com", "admin123")
	token := sess.Token()

	var user int64
	var role string
	handler := Auth(testJWT, svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, int64(1), user)
	require.Equal(t, "admin", role)

	sess.Logout(context.Background())
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	var seen bool
	handler := OptionalAuth(testJWT, newIdentity(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context()) == nil
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, seen)
}

func TestRequireAdmin(t *testing.T) {
	svc := newIdentity(t)
	chain := func(token string) int {
		h := Auth(testJWT, svc, nil)(RequireAdmin(nil)(okHandler()))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		return resp.Code
	}

	require.Equal(t, http.StatusForbidden, chain(login(t, svc, "user@example.com", "user123").Token()))
	require.Equal(t, http.StatusOK, chain(login(t, svc, "admin@athengaudio.com", "admin123").Token()))
}

func TestCartOwnerResolution(t *testing.T) {
	svc := newIdentity(t)
	var owner string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = CartOwnerFromContext(r.Context())
	})
	handler := OptionalAuth(testJWT, svc, nil)(CartOwner(nil)(capture))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CartIDHeader, "abc123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, cart.OwnerForGuest("abc123"), owner)
	require.Equal(t, "abc123", resp.Header().Get(CartIDHeader))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, resp.Header().Get(CartIDHeader))
	require.Equal(t, cart.OwnerForGuest(resp.Header().Get(CartIDHeader)), owner)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+login(t, svc, "user@example.com", "user123").Token())
	req.Header.Set(CartIDHeader, "ignored")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, cart.OwnerForUser(2), owner)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set(CartIDHeader, "user:1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, bad)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
