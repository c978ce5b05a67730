package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/identity"
	pkgAuth "github.com/athengaudio/storefront/pkg/auth"
	"github.com/athengaudio/storefront/pkg/config"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
)

type authResponse struct {
	User      *identity.User `json:"user"`
	Token     string         `json:"token"`
	SessionID string         `json:"sessionId"`
}

type registerRequest struct {
	Name            string `json:"name" validate:"max=120"`
	Email           string `json:"email" validate:"omitempty,max=254"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
}

type cartMerger interface {
	Merge(ctx context.Context, from, to string) (*cart.Manager, error)
}

// AuthLogin signs a principal in. A guest cart named by X-Cart-Id is merged
// into the user's cart.
func AuthLogin(svc identity.Service, carts cartMerger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body identity.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := svc.NewSession()
		user, err := sess.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mergeGuestCart(r, carts, user.ID, logg)
		responses.WriteSuccess(w, authResponse{User: user, Token: sess.Token(), SessionID: sess.ID()})
	}
}

// AuthRegister creates an account and signs it in. Field rules are left to
// the identity layer so the first failing rule is reported in a stable order.
func AuthRegister(svc identity.Service, carts cartMerger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := svc.NewSession()
		user, err := sess.Register(r.Context(), identity.RegisterRequest{
			Name:            validators.SanitizeString(body.Name, 120),
			Email:           strings.TrimSpace(body.Email),
			Phone:           validators.SanitizeString(body.Phone, 20),
			Password:        body.Password,
			ConfirmPassword: body.ConfirmPassword,
			AgreeToTerms:    body.AgreeToTerms,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mergeGuestCart(r, carts, user.ID, logg)
		responses.WriteSuccessStatus(w, http.StatusCreated, authResponse{User: user, Token: sess.Token(), SessionID: sess.ID()})
	}
}

// AuthLogout ends the session named by the bearer token. Expired tokens are
// accepted so a stale client can still sign out.
func AuthLogout(cfg config.JWTConfig, svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromAnyToken(r, cfg, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Logout(r.Context())
		responses.WriteNoContent(w)
	}
}

// AuthRefresh mints a new token for the session, even when the presented one
// has expired, as long as it is still the session's current token.
func AuthRefresh(cfg config.JWTConfig, svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromAnyToken(r, cfg, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sess.Current() == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
			return
		}
		token, err := sess.RefreshToken(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, authResponse{User: sess.Current(), Token: token, SessionID: sess.ID()})
	}
}

func sessionFromAnyToken(r *http.Request, cfg config.JWTConfig, svc identity.Service) (*identity.Session, error) {
	token, err := validators.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	sess, err := svc.Open(r.Context(), claims.SessionID())
	if err != nil {
		return nil, err
	}
	if sess.Token() != "" && sess.Token() != token {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token superseded")
	}
	return sess, nil
}

func mergeGuestCart(r *http.Request, carts cartMerger, userID int64, logg *logger.Logger) {
	guestID := strings.TrimSpace(r.Header.Get(middleware.CartIDHeader))
	if carts == nil || guestID == "" {
		return
	}
	if _, err := carts.Merge(r.Context(), cart.OwnerForGuest(guestID), cart.OwnerForUser(userID)); err != nil && logg != nil {
		logg.Error(logg.WithCartOwner(r.Context(), cart.OwnerForGuest(guestID)), "cart.merge_failed", err)
	}
}
