package controllers

import (
	"context"
	"net/http"

	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/orders"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (*orders.Order, error)
}

type checkoutRequest struct {
	CustomerInfo  orders.CustomerInfo `json:"customerInfo"`
	PaymentMethod string              `json:"paymentMethod"`
}

type checkoutResponse struct {
	Order *orders.Order `json:"order"`
	// CartCleared is false when the order was stored but the cart could not
	// be emptied; the client should clear it again.
	CartCleared bool `json:"cartCleared"`
}

// Checkout turns the caller's cart into an order.
func Checkout(assembler orderPlacer, carts CartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if assembler == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m, err := carts.Get(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := assembler.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			Cart:          m,
			Customer:      body.CustomerInfo,
			PaymentMethod: body.PaymentMethod,
			UserID:        &userID,
		})
		if order == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Order: order, CartCleared: err == nil})
	}
}
