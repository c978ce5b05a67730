package controllers

import (
	"context"
	"net/http"

	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

// CartProvider resolves the cart of an owner.
type CartProvider interface {
	Get(ctx context.Context, owner string) (*cart.Manager, error)
}

type cartView struct {
	Items     []cart.Line     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func viewCart(m *cart.Manager) cartView {
	lines := m.Lines()
	return cartView{Items: lines, Total: cart.Total(lines), ItemCount: cart.ItemCount(lines)}
}

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandlers serves the cart of the owner resolved by the CartOwner
// middleware.
type CartHandlers struct {
	Carts   CartProvider
	Catalog catalog.Service
	Metrics *metrics.Storefront
	Logger  *logger.Logger
}

func (h CartHandlers) cart(w http.ResponseWriter, r *http.Request) (*cart.Manager, bool) {
	m, err := h.Carts.Get(r.Context(), middleware.CartOwnerFromContext(r.Context()))
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return nil, false
	}
	return m, true
}

// respond writes the cart as it stands. A storage failure after a mutation is
// reported even though the in-memory cart already reflects the change.
func (h CartHandlers) respond(w http.ResponseWriter, r *http.Request, m *cart.Manager, op string, err error) {
	h.Metrics.CartMutation(op)
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	responses.WriteSuccess(w, viewCart(m))
}

func (h CartHandlers) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.cart(w, r)
	if !ok {
		return
	}
	responses.WriteSuccess(w, viewCart(m))
}

// AddItem snapshots the current catalog product into the cart. A missing
// quantity counts as 1.
func (h CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	product, err := h.Catalog.Get(r.Context(), body.ProductID)
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	m, ok := h.cart(w, r)
	if !ok {
		return
	}
	h.respond(w, r, m, "add", m.AddToCart(r.Context(), *product, body.Quantity))
}

func (h CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := validators.PathInt64(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	var body updateItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	m, ok := h.cart(w, r)
	if !ok {
		return
	}
	h.respond(w, r, m, "update", m.UpdateQuantity(r.Context(), id, body.Quantity))
}

func (h CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := validators.PathInt64(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	m, ok := h.cart(w, r)
	if !ok {
		return
	}
	h.respond(w, r, m, "remove", m.RemoveFromCart(r.Context(), id))
}

func (h CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	m, ok := h.cart(w, r)
	if !ok {
		return
	}
	h.respond(w, r, m, "clear", m.Clear(r.Context()))
}
