package controllers

import (
	"net/http"

	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/identity"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
)

type meView struct {
	*identity.User
	Initials    string                `json:"initials"`
	Permissions []identity.Permission `json:"permissions"`
}

type wishlistResult struct {
	Changed  bool    `json:"changed"`
	Wishlist []int64 `json:"wishlist"`
}

func currentSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*identity.Session, bool) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil || sess.Current() == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
		return nil, false
	}
	return sess, true
}

func viewMe(sess *identity.Session) meView {
	user := sess.Current()
	return meView{
		User:        user,
		Initials:    sess.Initials(),
		Permissions: identity.PermissionsFor(user.Role),
	}
}

func MeGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, viewMe(sess))
	}
}

func MeUpdate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var body identity.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := sess.UpdateProfile(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewMe(sess))
	}
}

func MeChangePassword(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var body identity.ChangePassword
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.ChangePassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func WishlistGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		list := sess.Wishlist()
		responses.WriteList(w, list, len(list))
	}
}

// WishlistAdd reports changed=false when the product was already listed.
func WishlistAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		changed, err := sess.AddToWishlist(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResult{Changed: changed, Wishlist: sess.Wishlist()})
	}
}

// WishlistRemove reports changed=false when the product was not listed.
func WishlistRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		changed, err := sess.RemoveFromWishlist(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResult{Changed: changed, Wishlist: sess.Wishlist()})
	}
}

func WishlistClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		changed, err := sess.ClearWishlist(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResult{Changed: changed, Wishlist: sess.Wishlist()})
	}
}
