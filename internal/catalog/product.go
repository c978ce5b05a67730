package catalog

import (
	"math"
	"strings"

	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultImage is served for products stored without an image.
const DefaultImage = "assets/images/default-product.png"

// Product is a sellable catalog entry.
type Product struct {
	ID            int64                 `json:"id" yaml:"id"`
	Name          string                `json:"name" yaml:"name"`
	Price         decimal.Decimal       `json:"price" yaml:"price"`
	OriginalPrice *decimal.Decimal      `json:"originalPrice,omitempty" yaml:"originalPrice,omitempty"`
	Image         string                `json:"image" yaml:"image"`
	Category      enums.ProductCategory `json:"category" yaml:"category"`
	SubCategory   string                `json:"subCategory" yaml:"subCategory"`
	Type          string                `json:"type,omitempty" yaml:"type,omitempty"`
	Brand         string                `json:"brand" yaml:"brand"`
	Description   string                `json:"description" yaml:"description"`
	Features      []string              `json:"features" yaml:"features"`
	InStock       bool                  `json:"inStock" yaml:"inStock"`
	Rating        float64               `json:"rating" yaml:"rating"`
	Reviews       int                   `json:"reviews" yaml:"reviews"`
	Specs         Specs                 `json:"specs" yaml:"specs"`
}

// Specs holds the optional detail attributes shown on a product page.
type Specs struct {
	Colors            []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Weight            string   `json:"weight,omitempty" yaml:"weight,omitempty"`
	BatteryLife       string   `json:"batteryLife,omitempty" yaml:"batteryLife,omitempty"`
	Connectivity      []string `json:"connectivity,omitempty" yaml:"connectivity,omitempty"`
	Warranty          string   `json:"warranty,omitempty" yaml:"warranty,omitempty"`
	Material          string   `json:"material,omitempty" yaml:"material,omitempty"`
	Dimensions        string   `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Impedance         string   `json:"impedance,omitempty" yaml:"impedance,omitempty"`
	FrequencyResponse string   `json:"frequencyResponse,omitempty" yaml:"frequencyResponse,omitempty"`
	DriverSize        string   `json:"driverSize,omitempty" yaml:"driverSize,omitempty"`
	NoiseCancellation *bool    `json:"noiseCancellation,omitempty" yaml:"noiseCancellation,omitempty"`
	WaterResistant    *bool    `json:"waterResistant,omitempty" yaml:"waterResistant,omitempty"`
	ChargingTime      string   `json:"chargingTime,omitempty" yaml:"chargingTime,omitempty"`
	Compatibility     []string `json:"compatibility,omitempty" yaml:"compatibility,omitempty"`
	IncludedItems     []string `json:"includedItems,omitempty" yaml:"includedItems,omitempty"`
	Images            []string `json:"images,omitempty" yaml:"images,omitempty"`
}

// DiscountPercent is the whole-number markdown from the original price, or 0
// when the product is not discounted.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || !p.OriginalPrice.IsPositive() || !p.OriginalPrice.GreaterThan(p.Price) {
		return 0
	}
	off := p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

// HasConnectivity reports whether the product supports any of the requested
// connectivity kinds.
func (p Product) HasConnectivity(kinds []string) bool {
	for _, want := range kinds {
		for _, have := range p.Specs.Connectivity {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// ProductInput is the admin-editable content of a product. The identifier is
// owned by the catalog.
type ProductInput struct {
	Name          string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Image         string
	Category      enums.ProductCategory
	SubCategory   string
	Type          string
	Brand         string
	Description   string
	Features      []string
	InStock       bool
	Rating        float64
	Reviews       int
	Specs         Specs
}

// InputFrom copies the editable fields of p.
func InputFrom(p Product) ProductInput {
	return ProductInput{
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Category:      p.Category,
		SubCategory:   p.SubCategory,
		Type:          p.Type,
		Brand:         p.Brand,
		Description:   p.Description,
		Features:      p.Features,
		InStock:       p.InStock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Specs:         p.Specs,
	}
}

// Validate checks the input against the catalog rules, reporting the first
// failing field.
func (in ProductInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return pkgerrors.Field("name", "name is required")
	case in.Price.IsNegative():
		return pkgerrors.Field("price", "price must not be negative")
	case in.OriginalPrice != nil && in.OriginalPrice.IsNegative():
		return pkgerrors.Field("originalPrice", "original price must not be negative")
	case !in.Category.IsValid():
		return pkgerrors.Field("category", "category must be headphone or speaker")
	case in.Rating < 0 || in.Rating > 5 || math.Mod(in.Rating*2, 1) != 0:
		return pkgerrors.Field("rating", "rating must be between 0 and 5 in steps of 0.5")
	case in.Reviews < 0:
		return pkgerrors.Field("reviews", "reviews must not be negative")
	}
	return nil
}

func (in ProductInput) toProduct(id int64) Product {
	p := Product{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Image:         strings.TrimSpace(in.Image),
		Category:      in.Category,
		SubCategory:   in.SubCategory,
		Type:          in.Type,
		Brand:         strings.TrimSpace(in.Brand),
		Description:   in.Description,
		Features:      in.Features,
		InStock:       in.InStock,
		Rating:        in.Rating,
		Reviews:       in.Reviews,
		Specs:         in.Specs,
	}
	if p.Image == "" {
		p.Image = DefaultImage
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return p
}
