package users

import (
	"strings"

	"github.com/athengaudio/storefront/pkg/db/models"
	dbtypes "github.com/athengaudio/storefront/pkg/db/types"
	"github.com/athengaudio/storefront/pkg/enums"
)

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string
	Avatar       string
	Role         enums.Role
	Wishlist     []int64
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleUser
	}
	wishlist := append([]int64{}, c.Wishlist...)
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Phone:        strings.TrimSpace(c.Phone),
		Address:      strings.TrimSpace(c.Address),
		Avatar:       c.Avatar,
		Role:         role,
		Wishlist:     dbtypes.NewJSON(wishlist),
	}
}
