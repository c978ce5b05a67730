package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/athengaudio/storefront/pkg/kv"
)

// ProductsKey holds the whole catalog as one JSON array in the kv store.
const ProductsKey = "products"

// BlobRepository keeps the catalog as a single document, the way the
// browser-only storefront kept it.
type BlobRepository struct {
	mu    sync.Mutex
	store kv.Store
}

// NewBlobRepository builds a repository over the kv store.
func NewBlobRepository(store kv.Store) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *BlobRepository) Get(ctx context.Context, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *BlobRepository) Create(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	var maxID int64
	for _, existing := range products {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	p.ID = maxID + 1
	return r.save(ctx, append(products, *p))
}

func (r *BlobRepository) Update(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = *p
			return r.save(ctx, products)
		}
	}
	return ErrNotFound
}

func (r *BlobRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == id {
			return r.save(ctx, append(products[:i], products[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *BlobRepository) load(ctx context.Context) ([]Product, error) {
	raw, err := r.store.Get(ctx, ProductsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ProductsKey, err)
	}
	return products, nil
}

func (r *BlobRepository) save(ctx context.Context, products []Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, ProductsKey, raw, 0)
}
