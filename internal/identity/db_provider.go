package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athengaudio/storefront/internal/users"
	"github.com/athengaudio/storefront/pkg/db"
	"github.com/athengaudio/storefront/pkg/db/models"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/athengaudio/storefront/pkg/security"
	"gorm.io/gorm"
)

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error
}

// DBProvider keeps accounts in the users table.
type DBProvider struct {
	users  userRepository
	hasher *security.Hasher
	now    func() time.Time
}

// NewDBProvider builds a provider over the users repository.
func NewDBProvider(repo userRepository, hasher *security.Hasher) (*DBProvider, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &DBProvider{users: repo, hasher: hasher, now: time.Now}, nil
}

func (p *DBProvider) Authenticate(ctx context.Context, email, password string) (*User, error) {
	row, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	match, err := p.hasher.Verify(password, row.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return fromModel(row), nil
}

func (p *DBProvider) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *DBProvider) Create(ctx context.Context, in NewUser) (*User, error) {
	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	row, err := p.users.Create(ctx, users.CreateUserDTO{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Avatar:       DefaultAvatar,
		Role:         in.Role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return fromModel(row), nil
}

func (p *DBProvider) Get(ctx context.Context, userID int64) (*User, error) {
	row, err := p.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	return fromModel(row), nil
}

func (p *DBProvider) Save(ctx context.Context, user *User) error {
	row := toModel(user)
	row.UpdatedAt = p.now().UTC()
	err := p.users.UpdateProfile(ctx, row)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnknownUser
	}
	return err
}

func (p *DBProvider) VerifyPassword(ctx context.Context, userID int64, password string) (bool, error) {
	row, err := p.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrUnknownUser
	}
	if err != nil {
		return false, err
	}
	return p.hasher.Verify(password, row.PasswordHash)
}

func (p *DBProvider) SetPassword(ctx context.Context, userID int64, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return err
	}
	err = p.users.UpdatePasswordHash(ctx, userID, hash, p.now().UTC())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnknownUser
	}
	return err
}

// EnsureAdmin creates an admin account for email unless one exists. It
// reports whether an account was created.
func (p *DBProvider) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	taken, err := p.EmailTaken(ctx, email)
	if err != nil || taken {
		return false, err
	}
	if len(password) < MinPasswordLength {
		return false, fmt.Errorf("admin password must be at least %d characters", MinPasswordLength)
	}
	if _, err := p.Create(ctx, NewUser{Email: email, Name: name, Password: password, Role: enums.RoleAdmin}); err != nil {
		return false, err
	}
	return true, nil
}

func fromModel(row *models.User) *User {
	return &User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		Phone:     row.Phone,
		Address:   row.Address,
		Avatar:    row.Avatar,
		Role:      row.Role,
		Wishlist:  append([]int64{}, row.Wishlist.Data...),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toModel(u *User) *models.User {
	row := &models.User{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Phone:   u.Phone,
		Address: u.Address,
		Avatar:  u.Avatar,
		Role:    u.Role,
	}
	row.Wishlist.Data = append([]int64{}, u.Wishlist...)
	return row
}
