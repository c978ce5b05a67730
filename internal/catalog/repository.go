package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/athengaudio/storefront/pkg/db/models"
	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when no product has the id.
var ErrNotFound = errors.New("catalog: product not found")

// Repository persists the product collection.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	// Create assigns p.ID.
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

// GormRepository stores products in the products table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a repository tied to the provided GORM DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		p, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *GormRepository) Get(ctx context.Context, id int64) (*Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := fromModel(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) Create(ctx context.Context, p *Product) error {
	row, err := toModel(*p)
	if err != nil {
		return err
	}
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (r *GormRepository) Update(ctx context.Context, p *Product) error {
	row, err := toModel(*p)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", p.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toModel(p Product) (models.Product, error) {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return models.Product{}, fmt.Errorf("encoding specs: %w", err)
	}
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return models.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Category:      p.Category,
		SubCategory:   p.SubCategory,
		Type:          p.Type,
		Brand:         p.Brand,
		Description:   p.Description,
		Features:      dbtypes.NewJSON(features),
		InStock:       p.InStock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Specs:         dbtypes.NewJSON(json.RawMessage(specs)),
	}, nil
}

func fromModel(row models.Product) (Product, error) {
	var specs Specs
	if len(row.Specs.Data) > 0 {
		if err := json.Unmarshal(row.Specs.Data, &specs); err != nil {
			return Product{}, fmt.Errorf("decoding specs for product %d: %w", row.ID, err)
		}
	}
	features := row.Features.Data
	if features == nil {
		features = []string{}
	}
	return Product{
		ID:            row.ID,
		Name:          row.Name,
		Price:         row.Price,
		OriginalPrice: row.OriginalPrice,
		Image:         row.Image,
		Category:      row.Category,
		SubCategory:   row.SubCategory,
		Type:          row.Type,
		Brand:         row.Brand,
		Description:   row.Description,
		Features:      features,
		InStock:       row.InStock,
		Rating:        row.Rating,
		Reviews:       row.Reviews,
		Specs:         specs,
	}, nil
}
