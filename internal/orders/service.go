package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stats summarizes the store for the admin dashboard.
type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	Revenue       decimal.Decimal `json:"revenue"`
	OutOfStock    int             `json:"outOfStock"`
	Pending       int             `json:"pendingOrders"`
}

// Service exposes order reads for customers and order management for admins.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListForUser(ctx context.Context, userID int64) ([]Order, error)
	ListByStatus(ctx context.Context, status string) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, productCount, outOfStock int) (*Stats, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService constructs an order service instance.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get order")
	}
	return order, nil
}

// GetForUser hides orders of other users behind NOT_FOUND.
func (s *service) GetForUser(ctx context.Context, id uuid.UUID, userID int64) (*Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]Order, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

func (s *service) ListByStatus(ctx context.Context, raw string) ([]Order, error) {
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Field("status", "unknown order status")
	}
	out, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

// UpdateStatus moves an order to a new status. Items and totals never change.
// Completed and cancelled orders are final.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*Order, error) {
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Field("status", "unknown order status")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() && current.Status != status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already "+current.Status.String())
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, s.now().UTC())
	if err != nil {
		return nil, mapRepoError(err, "update order status")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": id.String(),
			"from":     current.Status.String(),
			"to":       status.String(),
		})
		s.logg.Info(logCtx, "order.status_updated")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete order")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", id.String()), "order.deleted")
	}
	return nil
}

// Stats counts orders and sums revenue over completed orders only.
func (s *service) Stats(ctx context.Context, productCount, outOfStock int) (*Stats, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalProducts: productCount,
		TotalOrders:   len(all),
		Revenue:       decimal.Zero,
		OutOfStock:    outOfStock,
	}
	for _, o := range all {
		switch o.Status {
		case enums.OrderStatusCompleted:
			stats.Revenue = stats.Revenue.Add(o.GrandTotal)
		case enums.OrderStatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}

func mapRepoError(err error, action string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
