package models

import (
	"encoding/json"
	"time"

	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is the persisted catalog entry.
type Product struct {
	ID            int64                         `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string                        `gorm:"column:name;not null"`
	Price         decimal.Decimal               `gorm:"column:price;type:numeric(14,2);not null"`
	OriginalPrice *decimal.Decimal              `gorm:"column:original_price;type:numeric(14,2)"`
	Image         string                        `gorm:"column:image;not null;default:''"`
	Category      enums.ProductCategory         `gorm:"column:category;not null;index"`
	SubCategory   string                        `gorm:"column:sub_category;not null;default:''"`
	Type          string                        `gorm:"column:type;not null;default:''"`
	Brand         string                        `gorm:"column:brand;not null;default:''"`
	Description   string                        `gorm:"column:description;not null;default:''"`
	Features      dbtypes.JSON[[]string]        `gorm:"column:features;not null"`
	InStock       bool                          `gorm:"column:in_stock;not null;default:true"`
	Rating        float64                       `gorm:"column:rating;not null;default:0"`
	Reviews       int                           `gorm:"column:reviews;not null;default:0"`
	Specs         dbtypes.JSON[json.RawMessage] `gorm:"column:specs;not null"`
	CreatedAt     time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
