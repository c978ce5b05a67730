package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/pkg/db/models"
	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when no order has the id.
var ErrNotFound = errors.New("orders: order not found")

// Repository persists orders. Listings are newest first.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GormRepository stores orders in the orders table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a repository tied to the provided GORM DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, order *Order) error {
	row, err := toModel(*order)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *GormRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	var row models.Order
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	order, err := fromModel(row)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepository) List(ctx context.Context) ([]Order, error) {
	return r.find(ctx, r.db.WithContext(ctx))
}

func (r *GormRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *GormRepository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("status = ?", status))
}

func (r *GormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) find(_ context.Context, query *gorm.DB) ([]Order, error) {
	var rows []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		order, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func toModel(o Order) (models.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return models.Order{}, fmt.Errorf("encoding order items: %w", err)
	}
	return models.Order{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         dbtypes.NewJSON(json.RawMessage(items)),
		Total:         o.Total,
		ShippingFee:   o.ShippingFee,
		GrandTotal:    o.GrandTotal,
		FullName:      o.Customer.FullName,
		Email:         o.Customer.Email,
		Phone:         o.Customer.Phone,
		Address:       o.Customer.Address,
		City:          o.Customer.City,
		District:      o.Customer.District,
		Ward:          o.Customer.Ward,
		Note:          o.Customer.Note,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func fromModel(row models.Order) (Order, error) {
	items := []cart.Line{}
	if len(row.Items.Data) > 0 {
		if err := json.Unmarshal(row.Items.Data, &items); err != nil {
			return Order{}, fmt.Errorf("decoding items of order %s: %w", row.ID, err)
		}
	}
	return Order{
		ID:          row.ID,
		UserID:      row.UserID,
		Items:       items,
		Total:       row.Total,
		ShippingFee: row.ShippingFee,
		GrandTotal:  row.GrandTotal,
		Customer: CustomerInfo{
			FullName: row.FullName,
			Email:    row.Email,
			Phone:    row.Phone,
			Address:  row.Address,
			City:     row.City,
			District: row.District,
			Ward:     row.Ward,
			Note:     row.Note,
		},
		PaymentMethod: row.PaymentMethod,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
