package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned by Authenticate when the email is
	// unknown or the password does not match.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrEmailTaken is returned by Create when the email is registered.
	ErrEmailTaken = errors.New("identity: email already registered")
	// ErrUnknownUser is returned when a user id has no account.
	ErrUnknownUser = errors.New("identity: unknown user")
)

// Provider authenticates principals and stores their accounts. Sessions
// depend on it instead of matching credentials themselves, so the mock set
// can be swapped for a real backend without touching cart or order logic.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) (*User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, in NewUser) (*User, error)
	// Get returns the stored account, or ErrUnknownUser.
	Get(ctx context.Context, userID int64) (*User, error)
	// Save persists profile fields and the wishlist. Credentials are untouched.
	Save(ctx context.Context, user *User) error
	VerifyPassword(ctx context.Context, userID int64, password string) (bool, error)
	SetPassword(ctx context.Context, userID int64, password string) error
}
