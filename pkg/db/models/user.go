package models

import (
	"time"

	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"github.com/athengaudio/storefront/pkg/enums"
)

// User represents a registered storefront account.
type User struct {
	ID           int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string                `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string                `gorm:"column:password_hash;not null"`
	Name         string                `gorm:"column:name;not null"`
	Phone        string                `gorm:"column:phone;not null;default:''"`
	Address      string                `gorm:"column:address;not null;default:''"`
	Avatar       string                `gorm:"column:avatar;not null;default:''"`
	Role         enums.Role            `gorm:"column:role;not null;default:'user'"`
	Wishlist     dbtypes.JSON[[]int64] `gorm:"column:wishlist;not null"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
