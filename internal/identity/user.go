package identity

import (
	"strings"
	"time"
	"unicode"

	"github.com/athengaudio/storefront/pkg/enums"
)

// User is the authenticated principal as stored in a session.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Avatar    string     `json:"avatar"`
	Role      enums.Role `json:"role"`
	Wishlist  []int64    `json:"wishlist"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u User) clone() *User {
	u.Wishlist = append([]int64{}, u.Wishlist...)
	return &u
}

func (u User) inWishlist(productID int64) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

// NewUser is the data a provider needs to create an account.
type NewUser struct {
	Email    string
	Name     string
	Phone    string
	Password string
	Role     enums.Role
}

// DefaultAvatar is assigned to accounts created through registration.
const DefaultAvatar = "assets/images/avatar-default.png"

// Permission names an action gated by role.
type Permission string

const (
	PermManageProducts   Permission = "manage_products"
	PermManageUsers      Permission = "manage_users"
	PermViewReports      Permission = "view_reports"
	PermManageOrders     Permission = "manage_orders"
	PermManageCategories Permission = "manage_categories"
	PermViewDashboard    Permission = "view_dashboard"

	PermViewProducts   Permission = "view_products"
	PermPlaceOrders    Permission = "place_orders"
	PermManageWishlist Permission = "manage_wishlist"
	PermViewProfile    Permission = "view_profile"
	PermWriteReviews   Permission = "write_reviews"
)

var rolePermissions = map[enums.Role][]Permission{
	enums.RoleAdmin: {
		PermManageProducts,
		PermManageUsers,
		PermViewReports,
		PermManageOrders,
		PermManageCategories,
		PermViewDashboard,
	},
	enums.RoleUser: {
		PermViewProducts,
		PermPlaceOrders,
		PermManageWishlist,
		PermViewProfile,
		PermWriteReviews,
	},
}

// RoleHasPermission reports whether role grants p. The tables do not overlap:
// admins do not implicitly hold customer permissions.
func RoleHasPermission(role enums.Role, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// Initials returns up to two upper-cased initials of name, or "U" when the
// name is blank.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, part := range strings.Fields(name) {
		r := []rune(part)[0]
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == 2 {
			break
		}
	}
	if count == 0 {
		return "U"
	}
	return b.String()
}

// PermissionsFor lists the permissions role grants.
func PermissionsFor(role enums.Role) []Permission {
	return append([]Permission{}, rolePermissions[role]...)
}
