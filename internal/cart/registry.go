package cart

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"

	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
)

// DefaultCacheSize bounds how many non-empty carts a registry keeps warm.
const DefaultCacheSize = 1024

// Registry hands out cart managers. The store stays canonical: a cached
// manager is reloaded on every Get, empty carts are never cached, and the
// least recently used cart is dropped once the cache is full.
type Registry struct {
	mu       sync.Mutex
	store    Store
	logg     *logger.Logger
	capacity int
	entries  map[string]*list.Element
	recent   *list.List
}

// NewRegistry builds a registry over the provided store.
func NewRegistry(store Store, logg *logger.Logger) (*Registry, error) {
	return NewRegistryWithCapacity(store, logg, DefaultCacheSize)
}

// NewRegistryWithCapacity is NewRegistry with an explicit cache bound.
func NewRegistryWithCapacity(store Store, logg *logger.Logger, capacity int) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if capacity < 1 {
		return nil, fmt.Errorf("cart cache capacity must be positive")
	}
	return &Registry{
		store:    store,
		logg:     logg,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		recent:   list.New(),
	}, nil
}

// Get returns the owner's cart loaded from the store. A missing or unreadable
// stored cart starts empty. A storage outage is returned unless the cart is
// already cached, in which case the cached lines are served.
func (r *Registry) Get(ctx context.Context, owner string) (*Manager, error) {
	if owner == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	if m := r.cached(owner); m != nil {
		if err := m.reload(ctx); err != nil && r.logg != nil {
			logCtx := r.logg.WithFields(ctx, map[string]any{"cart_owner": owner, "error": err.Error()})
			r.logg.Warn(logCtx, "cart.reload_failed")
		}
		return m, nil
	}

	lines, err := loadLines(ctx, r.store, owner, r.logg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart could not be loaded")
	}
	m := newManager(owner, r.store, r.logg, lines)
	if len(lines) == 0 {
		return m, nil
	}
	kept := r.remember(m)
	if kept != m {
		_ = kept.reload(ctx)
	}
	return kept, nil
}

// Merge moves every line of from into to and empties from. It returns the
// destination cart.
func (r *Registry) Merge(ctx context.Context, from, to string) (*Manager, error) {
	dst, err := r.Get(ctx, to)
	if err != nil {
		return nil, err
	}
	if from == "" || from == to {
		return dst, nil
	}
	src, err := r.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	lines := src.Lines()
	if len(lines) == 0 {
		return dst, nil
	}
	if err := dst.absorb(ctx, lines); err != nil {
		return dst, err
	}
	return dst, src.Clear(ctx)
}

// Len reports how many carts are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recent.Len()
}

func (r *Registry) cached(owner string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.entries[owner]
	if !ok {
		return nil
	}
	r.recent.MoveToFront(el)
	return el.Value.(*Manager)
}

// remember caches m unless another request cached the same owner first, in
// which case that manager wins so both share one lock.
func (r *Registry) remember(m *Manager) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[m.owner]; ok {
		r.recent.MoveToFront(el)
		return el.Value.(*Manager)
	}
	r.entries[m.owner] = r.recent.PushFront(m)
	for r.recent.Len() > r.capacity {
		oldest := r.recent.Back()
		r.recent.Remove(oldest)
		delete(r.entries, oldest.Value.(*Manager).owner)
	}
	return m
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
