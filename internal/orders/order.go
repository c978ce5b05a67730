package orders

import (
	"regexp"
	"strings"
	"time"

	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(0|\+84)[35789][0-9]{8}$`)
)

// CustomerInfo is the delivery contact captured at checkout.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Note     string `json:"note"`
}

// Order is an immutable snapshot of a cart at checkout. Only Status and
// UpdatedAt change afterwards.
type Order struct {
	ID            uuid.UUID           `json:"id"`
	UserID        *int64              `json:"userId,omitempty"`
	Items         []cart.Line         `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	ShippingFee   decimal.Decimal     `json:"shippingFee"`
	GrandTotal    decimal.Decimal     `json:"grandTotal"`
	Customer      CustomerInfo        `json:"customerInfo"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Status        enums.OrderStatus   `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Validate checks the required contact fields in order, then the email and
// phone formats. The first failure is reported with its field name.
func Validate(info CustomerInfo) error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", info.FullName},
		{"email", info.Email},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"district", info.District},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return pkgerrors.Field(r.field, r.field+" is required")
		}
	}
	if !emailPattern.MatchString(strings.TrimSpace(info.Email)) {
		return pkgerrors.Field("email", "email address is not valid")
	}
	if !phonePattern.MatchString(strings.TrimSpace(info.Phone)) {
		return pkgerrors.Field("phone", "phone number is not valid")
	}
	return nil
}

func (c CustomerInfo) normalized() CustomerInfo {
	return CustomerInfo{
		FullName: strings.TrimSpace(c.FullName),
		Email:    strings.TrimSpace(c.Email),
		Phone:    strings.TrimSpace(c.Phone),
		Address:  strings.TrimSpace(c.Address),
		City:     strings.TrimSpace(c.City),
		District: strings.TrimSpace(c.District),
		Ward:     strings.TrimSpace(c.Ward),
		Note:     strings.TrimSpace(c.Note),
	}
}
