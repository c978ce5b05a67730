package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"gopkg.in/yaml.v3"
)

// DefaultRelatedLimit caps related-product listings when the caller passes 0.
const DefaultRelatedLimit = 4

// Service exposes catalog reads and admin maintenance.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, filter Filter) ([]Product, error)
	Brands(ctx context.Context) ([]string, error)
	HeadphoneTypes(ctx context.Context) ([]string, error)
	Related(ctx context.Context, id int64, limit int) ([]Product, error)
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*Product, error)
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context, path string) (int, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get product")
	}
	return product, nil
}

func (s *service) Search(ctx context.Context, filter Filter) ([]Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(products), nil
}

func (s *service) Brands(ctx context.Context) ([]string, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	brands := make([]string, 0, len(products))
	for _, p := range products {
		brands = append(brands, p.Brand)
	}
	return uniqueSorted(brands), nil
}

func (s *service) HeadphoneTypes(ctx context.Context) ([]string, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(products))
	for _, p := range products {
		if p.Category == enums.ProductCategoryHeadphone {
			types = append(types, p.Type)
		}
	}
	return uniqueSorted(types), nil
}

// Related lists other products of the same category, in catalog order.
func (s *service) Related(ctx context.Context, id int64, limit int) ([]Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	related := make([]Product, 0, limit)
	for _, p := range products {
		if p.ID == product.ID || p.Category != product.Category {
			continue
		}
		related = append(related, p)
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	product := input.toProduct(0)
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	s.info(ctx, "catalog.product_created", product.ID)
	return &product, nil
}

func (s *service) Update(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	product := input.toProduct(id)
	if err := s.repo.Update(ctx, &product); err != nil {
		return nil, mapRepoError(err, "update product")
	}
	s.info(ctx, "catalog.product_updated", id)
	return &product, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete product")
	}
	s.info(ctx, "catalog.product_deleted", id)
	return nil
}

// Seed loads a YAML catalog into an empty repository and reports how many
// products were created. A populated repository is left untouched.
func (s *service) Seed(ctx context.Context, path string) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading catalog seed %q: %w", path, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("parsing catalog seed %q: %w", path, err)
	}

	for i, p := range seed.Products {
		if _, err := s.Create(ctx, InputFrom(p)); err != nil {
			return i, fmt.Errorf("seeding product %q: %w", p.Name, err)
		}
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"path": path, "count": len(seed.Products)}), "catalog.seeded")
	}
	return len(seed.Products), nil
}

type seedFile struct {
	Products []Product `yaml:"products"`
}

func (s *service) info(ctx context.Context, msg string, id int64) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id), msg)
}

func mapRepoError(err error, action string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
