package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/athengaudio/storefront/internal/users"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/athengaudio/storefront/pkg/security"
)

type mockAccount struct {
	user User
	hash string
}

// MockProvider serves a fixed demo credential set plus any accounts
// registered while the process runs. Nothing survives a restart.
type MockProvider struct {
	mu      sync.RWMutex
	hasher  *security.Hasher
	byID    map[int64]*mockAccount
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

type seedAccount struct {
	user     User
	password string
}

func demoAccounts() []seedAccount {
	return []seedAccount{
		{
			password: "admin123",
			user: User{
				ID:        1,
				Email:     "admin@athengaudio.com",
				Name:      "Quản Trị Viên",
				Phone:     "0123456789",
				Address:   "Hà Nội, Việt Nam",
				Avatar:    "assets/images/avatar-admin.png",
				Role:      enums.RoleAdmin,
				Wishlist:  []int64{1, 3, 7},
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			password: "user123",
			user: User{
				ID:        2,
				Email:     "user@example.com",
				Name:      "Nguyễn Văn A",
				Phone:     "0987654321",
				Address:   "TP.HCM, Việt Nam",
				Avatar:    "assets/images/avatar-user.png",
				Role:      enums.RoleUser,
				Wishlist:  []int64{2, 4, 5},
				CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			password: "test123",
			user: User{
				ID:        3,
				Email:     "test@example.com",
				Name:      "Người Dùng Test",
				Phone:     "0912345678",
				Address:   "Đà Nẵng, Việt Nam",
				Avatar:    "assets/images/avatar-user.png",
				Role:      enums.RoleUser,
				Wishlist:  []int64{1, 2, 3},
				CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

// NewMockProvider hashes the demo passwords with hasher.
func NewMockProvider(hasher *security.Hasher) (*MockProvider, error) {
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	p := &MockProvider{
		hasher:  hasher,
		byID:    map[int64]*mockAccount{},
		byEmail: map[string]int64{},
		now:     time.Now,
	}
	for _, seed := range demoAccounts() {
		hash, err := hasher.Hash(seed.password)
		if err != nil {
			return nil, fmt.Errorf("hashing demo password for %s: %w", seed.user.Email, err)
		}
		u := seed.user
		u.UpdatedAt = u.CreatedAt
		p.byID[u.ID] = &mockAccount{user: u, hash: hash}
		p.byEmail[u.Email] = u.ID
		if u.ID > p.nextID {
			p.nextID = u.ID
		}
	}
	return p, nil
}

func (p *MockProvider) Authenticate(_ context.Context, email, password string) (*User, error) {
	p.mu.RLock()
	acct, ok := p.lookup(email)
	var user *User
	var hash string
	if ok {
		user = acct.user.clone()
		hash = acct.hash
	}
	p.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	match, err := p.hasher.Verify(password, hash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (p *MockProvider) EmailTaken(_ context.Context, email string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.lookup(email)
	return ok, nil
}

func (p *MockProvider) Create(_ context.Context, in NewUser) (*User, error) {
	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.lookup(in.Email); ok {
		return nil, ErrEmailTaken
	}
	role := in.Role
	if !role.IsValid() {
		role = enums.RoleUser
	}
	p.nextID++
	now := p.now().UTC()
	u := User{
		ID:        p.nextID,
		Email:     users.NormalizeEmail(in.Email),
		Name:      in.Name,
		Phone:     in.Phone,
		Avatar:    DefaultAvatar,
		Role:      role,
		Wishlist:  []int64{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.byID[u.ID] = &mockAccount{user: u, hash: hash}
	p.byEmail[u.Email] = u.ID
	return u.clone(), nil
}

func (p *MockProvider) Get(_ context.Context, userID int64) (*User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	acct, ok := p.byID[userID]
	if !ok {
		return nil, ErrUnknownUser
	}
	return acct.user.clone(), nil
}

func (p *MockProvider) Save(_ context.Context, user *User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.byID[user.ID]
	if !ok {
		return ErrUnknownUser
	}
	saved := user.clone()
	saved.Email = acct.user.Email
	saved.Role = acct.user.Role
	acct.user = *saved
	return nil
}

func (p *MockProvider) VerifyPassword(_ context.Context, userID int64, password string) (bool, error) {
	p.mu.RLock()
	acct, ok := p.byID[userID]
	var hash string
	if ok {
		hash = acct.hash
	}
	p.mu.RUnlock()
	if !ok {
		return false, ErrUnknownUser
	}
	return p.hasher.Verify(password, hash)
}

func (p *MockProvider) SetPassword(_ context.Context, userID int64, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.byID[userID]
	if !ok {
		return ErrUnknownUser
	}
	acct.hash = hash
	acct.user.UpdatedAt = p.now().UTC()
	return nil
}

func (p *MockProvider) lookup(email string) (*mockAccount, bool) {
	id, ok := p.byEmail[users.NormalizeEmail(email)]
	if !ok {
		return nil, false
	}
	acct, ok := p.byID[id]
	return acct, ok
}
