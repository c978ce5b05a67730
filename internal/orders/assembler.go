package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the part of a cart manager checkout needs. Checkout hands the
// lines to place while holding the cart and empties it only when place
// succeeds.
type Cart interface {
	Checkout(ctx context.Context, place func(lines []cart.Line) error) error
}

// PlaceOrderInput is one checkout attempt.
type PlaceOrderInput struct {
	Cart          Cart
	Customer      CustomerInfo
	PaymentMethod string
	UserID        *int64
}

// Assembler turns a cart into a persisted order.
type Assembler struct {
	repo        Repository
	shippingFee decimal.Decimal
	logg        *logger.Logger
	metrics     *metrics.Storefront
	now         func() time.Time
	newID       func() uuid.UUID
}

// NewAssembler builds an assembler charging shippingFee on every order.
func NewAssembler(repo Repository, shippingFee decimal.Decimal, logg *logger.Logger, m *metrics.Storefront) (*Assembler, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if shippingFee.IsNegative() {
		return nil, fmt.Errorf("shipping fee must not be negative")
	}
	return &Assembler{
		repo:        repo,
		shippingFee: shippingFee,
		logg:        logg,
		metrics:     m,
		now:         time.Now,
		newID:       uuid.New,
	}, nil
}

// ShippingFee is the flat fee added to every order.
func (a *Assembler) ShippingFee() decimal.Decimal {
	return a.shippingFee
}

// PlaceOrder validates the checkout, snapshots the cart into a pending order,
// persists it and only then empties the cart. The cart stays locked from
// snapshot to clear, so concurrent mutations land after the order and a
// second checkout sees an empty cart. Nothing changes when any step before
// persistence fails.
//
// When the order is stored but the cart cannot be cleared, the order is
// returned together with the clearing error; the order stands.
func (a *Assembler) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if in.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	if err := Validate(in.Customer); err != nil {
		a.metrics.OrderFailed("invalid_customer")
		return nil, err
	}

	var order *Order
	err := in.Cart.Checkout(ctx, func(lines []cart.Line) error {
		placed, err := a.place(ctx, in, lines)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if order == nil {
		return nil, err
	}

	logCtx := ctx
	if a.logg != nil {
		logCtx = a.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"grand_total": order.GrandTotal.String(),
			"items":       len(order.Items),
		})
		a.logg.Info(logCtx, "order.placed")
	}

	if err != nil {
		if a.logg != nil {
			a.logg.Error(logCtx, "order.cart_clear_failed", err)
		}
		return order, err
	}
	return order, nil
}

// place builds the order from the cart snapshot and stores it.
func (a *Assembler) place(ctx context.Context, in PlaceOrderInput, lines []cart.Line) (*Order, error) {
	if len(lines) == 0 {
		a.metrics.OrderFailed("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	method, err := enums.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		a.metrics.OrderFailed("invalid_payment_method")
		return nil, pkgerrors.Field("paymentMethod", "payment method is not supported")
	}

	total := cart.Total(lines)
	now := a.now().UTC()
	order := &Order{
		ID:            a.newID(),
		UserID:        in.UserID,
		Items:         lines,
		Total:         total,
		ShippingFee:   a.shippingFee,
		GrandTotal:    total.Add(a.shippingFee),
		Customer:      in.Customer.normalized(),
		PaymentMethod: method,
		Status:        enums.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := a.repo.Create(ctx, order); err != nil {
		a.metrics.OrderFailed("persist")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order could not be saved")
	}
	a.metrics.OrderPlaced()
	return order, nil
}
