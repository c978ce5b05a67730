package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/google/uuid"
)

// OrdersKey holds every order as one JSON array, newest first.
const OrdersKey = "orders"

// BlobRepository keeps orders in a single kv document.
type BlobRepository struct {
	mu    sync.Mutex
	store kv.Store
}

// NewBlobRepository builds a repository over the kv store.
func NewBlobRepository(store kv.Store) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) Create(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, append([]Order{*order}, all...))
}

func (r *BlobRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			o := all[i]
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r *BlobRepository) List(ctx context.Context) ([]Order, error) {
	return r.filter(ctx, func(Order) bool { return true })
}

func (r *BlobRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.filter(ctx, func(o Order) bool { return o.UserID != nil && *o.UserID == userID })
}

func (r *BlobRepository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]Order, error) {
	return r.filter(ctx, func(o Order) bool { return o.Status == status })
}

func (r *BlobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			all[i].Status = status
			all[i].UpdatedAt = at
			if err := r.save(ctx, all); err != nil {
				return nil, err
			}
			o := all[i]
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r *BlobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			return r.save(ctx, append(all[:i], all[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *BlobRepository) filter(ctx context.Context, keep func(Order) bool) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(all))
	for _, o := range all {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *BlobRepository) load(ctx context.Context) ([]Order, error) {
	raw, err := r.store.Get(ctx, OrdersKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	var all []Order
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", OrdersKey, err)
	}
	return all, nil
}

func (r *BlobRepository) save(ctx context.Context, all []Order) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, OrdersKey, raw, 0)
}
