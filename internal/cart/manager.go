package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/athengaudio/storefront/internal/catalog"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store is the persistence boundary a cart writes through.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key is the storage key of an owner's cart.
func Key(owner string) string {
	return "cart:" + owner
}

// OwnerForUser is the cart owner of an authenticated user.
func OwnerForUser(userID int64) string {
	return "user:" + itoa(userID)
}

// OwnerForGuest is the cart owner of an anonymous visitor's cart id.
func OwnerForGuest(cartID string) string {
	return "guest:" + strings.TrimSpace(cartID)
}

// Manager owns one cart. Mutations are serialized and each one writes the
// full line sequence to storage before publishing it to subscribers.
//
// The shared store is canonical: every mutation starts from the stored lines.
// When a write fails the mutation is still applied and published, the failure
// is returned, and the unsaved lines stay authoritative until a later write
// succeeds.
//
// Subscribers are called outside the cart lock and may read the cart, but
// must not mutate it from the callback.
type Manager struct {
	mu        sync.Mutex
	publishMu sync.Mutex
	owner     string
	store     Store
	logg      *logger.Logger
	lines     []Line
	unsaved   bool
	stream    *Stream[[]Line]
}

func newManager(owner string, store Store, logg *logger.Logger, lines []Line) *Manager {
	if lines == nil {
		lines = []Line{}
	}
	return &Manager{
		owner:  owner,
		store:  store,
		logg:   logg,
		lines:  lines,
		stream: NewStream(cloneLines(lines)),
	}
}

// Owner returns the owner this cart belongs to.
func (m *Manager) Owner() string {
	return m.owner
}

// AddToCart adds quantity units of product, merging into an existing line.
// Quantities below 1 count as 1.
func (m *Manager) AddToCart(ctx context.Context, product catalog.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	m.mu.Lock()
	m.refresh(ctx)

	for i := range m.lines {
		if m.lines[i].Product.ID == product.ID {
			m.lines[i].Quantity += quantity
			return m.commit(ctx, "add")
		}
	}
	m.lines = append(m.lines, Line{Product: product, Quantity: quantity})
	return m.commit(ctx, "add")
}

// UpdateQuantity sets the quantity of a line, clamped to at least 1. An
// unknown product is ignored without touching storage or subscribers.
func (m *Manager) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	m.mu.Lock()
	m.refresh(ctx)

	for i := range m.lines {
		if m.lines[i].Product.ID == productID {
			m.lines[i].Quantity = quantity
			return m.commit(ctx, "update")
		}
	}
	m.mu.Unlock()
	return nil
}

// RemoveFromCart drops the product's line if present. Storage is written and
// subscribers notified either way.
func (m *Manager) RemoveFromCart(ctx context.Context, productID int64) error {
	m.mu.Lock()
	m.refresh(ctx)

	kept := make([]Line, 0, len(m.lines))
	for _, l := range m.lines {
		if l.Product.ID != productID {
			kept = append(kept, l)
		}
	}
	m.lines = kept
	return m.commit(ctx, "remove")
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.lines = []Line{}
	err := m.commit(ctx, "clear")
	if m.logg != nil {
		m.logg.Info(m.logg.WithCartOwner(ctx, m.owner), "cart.cleared")
	}
	return err
}

// Checkout hands a snapshot of the lines to place while holding the cart, so
// no mutation or second checkout can interleave. The cart is emptied only
// when place succeeds; otherwise place's error is returned and the cart is
// left as it was.
func (m *Manager) Checkout(ctx context.Context, place func(lines []Line) error) error {
	m.mu.Lock()
	m.refresh(ctx)

	if err := place(cloneLines(m.lines)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.lines = []Line{}
	err := m.commit(ctx, "checkout")
	if m.logg != nil {
		m.logg.Info(m.logg.WithCartOwner(ctx, m.owner), "cart.checked_out")
	}
	return err
}

// absorb merges lines into the cart with a single write.
func (m *Manager) absorb(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	m.mu.Lock()
	m.refresh(ctx)

	for _, incoming := range lines {
		merged := false
		for i := range m.lines {
			if m.lines[i].Product.ID == incoming.Product.ID {
				m.lines[i].Quantity += incoming.Quantity
				merged = true
				break
			}
		}
		if !merged {
			m.lines = append(m.lines, incoming)
		}
	}
	return m.commit(ctx, "merge")
}

// Lines returns a copy of the current lines.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.lines)
}

// Total is recomputed from the current lines on every call.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Total(m.lines)
}

// ItemCount is recomputed from the current lines on every call.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ItemCount(m.lines)
}

// Subscribe delivers the current lines immediately and every later change.
func (m *Manager) Subscribe(fn func([]Line)) func() {
	return m.stream.Subscribe(fn)
}

// reload replaces the lines with the stored ones unless this cart holds
// unsaved changes.
func (m *Manager) reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsaved {
		return nil
	}
	lines, err := loadLines(ctx, m.store, m.owner, m.logg)
	if err != nil {
		return err
	}
	m.lines = lines
	return nil
}

// refresh is reload for callers already holding m.mu. A read failure keeps
// the lines in memory; the following write reports the outage.
func (m *Manager) refresh(ctx context.Context) {
	if m.unsaved {
		return
	}
	lines, err := loadLines(ctx, m.store, m.owner, m.logg)
	if err != nil {
		if m.logg != nil {
			logCtx := m.logg.WithFields(ctx, map[string]any{"cart_owner": m.owner, "error": err.Error()})
			m.logg.Warn(logCtx, "cart.reload_failed")
		}
		return
	}
	m.lines = lines
}

// commit persists the current lines, then publishes them. It is called with
// m.mu held and releases it. publishMu is taken before m.mu is released, so
// subscribers observe changes in mutation order without holding the cart.
func (m *Manager) commit(ctx context.Context, op string) error {
	snapshot := cloneLines(m.lines)
	err := m.persist(ctx, snapshot)
	m.unsaved = err != nil

	m.publishMu.Lock()
	m.mu.Unlock()
	m.stream.Publish(snapshot)
	m.publishMu.Unlock()

	if err != nil {
		if m.logg != nil {
			logCtx := m.logg.WithFields(ctx, map[string]any{"cart_owner": m.owner, "op": op, "error": err.Error()})
			m.logg.Warn(logCtx, "cart.persist_failed")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart could not be saved")
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, Key(m.owner), raw, 0)
}

// loadLines reads an owner's stored lines. A missing or corrupt blob is an
// empty cart; lines with a quantity below 1 are dropped.
func loadLines(ctx context.Context, store Store, owner string, logg *logger.Logger) ([]Line, error) {
	raw, err := store.Get(ctx, Key(owner))
	if errors.Is(err, kv.ErrNotFound) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		if logg != nil {
			logg.Warn(logg.WithCartOwner(ctx, owner), "cart.corrupt_blob_discarded")
		}
		return []Line{}, nil
	}
	valid := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity >= 1 {
			valid = append(valid, l)
		}
	}
	return valid, nil
}
