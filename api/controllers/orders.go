package controllers

import (
	"net/http"

	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/orders"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/pagination"
)

// OrderList returns the caller's orders, newest first. ?limit and ?cursor
// page through them.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		params, err := validators.PageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeOrderPage(w, r, logg, items, params)
	}
}

// OrderDetail returns one of the caller's orders.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetForUser(r.Context(), id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func writeOrderPage(w http.ResponseWriter, r *http.Request, logg *logger.Logger, items []orders.Order, params pagination.Params) {
	page, next, err := orders.Page(items, params)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WritePage(w, page, len(page), next)
}
