package models

import (
	"encoding/json"
	"time"

	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable snapshot of a checkout; only status and updated_at
// change after creation.
type Order struct {
	ID            uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	UserID        *int64                        `gorm:"column:user_id;index"`
	Items         dbtypes.JSON[json.RawMessage] `gorm:"column:items;not null"`
	Total         decimal.Decimal               `gorm:"column:total;type:numeric(14,2);not null"`
	ShippingFee   decimal.Decimal               `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	GrandTotal    decimal.Decimal               `gorm:"column:grand_total;type:numeric(14,2);not null"`
	FullName      string                        `gorm:"column:full_name;not null"`
	Email         string                        `gorm:"column:email;not null"`
	Phone         string                        `gorm:"column:phone;not null"`
	Address       string                        `gorm:"column:address;not null"`
	City          string                        `gorm:"column:city;not null"`
	District      string                        `gorm:"column:district;not null"`
	Ward          string                        `gorm:"column:ward;not null;default:''"`
	Note          string                        `gorm:"column:note;not null;default:''"`
	PaymentMethod enums.PaymentMethod           `gorm:"column:payment_method;not null"`
	Status        enums.OrderStatus             `gorm:"column:status;not null;index"`
	CreatedAt     time.Time                     `gorm:"column:created_at;not null;index"`
	UpdatedAt     time.Time                     `gorm:"column:updated_at;not null"`
}
