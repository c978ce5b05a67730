package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/athengaudio/storefront/pkg/auth/session"
	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 6

const invalidCredentialsMessage = "invalid credentials"

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	// RememberMe is accepted for client compatibility; token lifetime is fixed.
	RememberMe bool `json:"rememberMe"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
}

type ProfileUpdate struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Avatar  string `json:"avatar"`
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Session is either anonymous or authenticated as one principal. The user and
// token are persisted together under the session id and are either both
// present or both absent.
type Session struct {
	id       string
	store    *session.Store
	provider Provider
	issuer   TokenIssuer
	logg     *logger.Logger
	metrics  *metrics.Storefront
	now      func() time.Time

	mu    sync.RWMutex
	user  *User
	token string
}

// ID is the storage namespace of the session and the jti of its tokens.
func (s *Session) ID() string {
	return s.id
}

// Login authenticates against the provider and persists the principal with a
// fresh token. A rejection leaves the session as it was.
func (s *Session) Login(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.provider.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.LoginAttempt("rejected")
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "email", strings.TrimSpace(req.Email)), "identity.login_rejected")
			}
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		s.metrics.LoginAttempt("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "authenticate")
	}

	if err := s.establish(ctx, user); err != nil {
		s.metrics.LoginAttempt("error")
		return nil, err
	}
	s.metrics.LoginAttempt("success")
	s.logIdentity(ctx, "identity.login", user)
	return user.clone(), nil
}

// Logout drops the principal. It always succeeds locally; a storage failure
// is logged and the stale keys stop validating once the token expires.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Clear(ctx, s.id); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, s.id), "identity.logout_clear_failed", err)
	}
	if user != nil {
		s.logIdentity(ctx, "identity.logout", user)
	}
}

// Register creates a user account and signs it in. The checks run in a fixed
// order: terms, email availability, confirmation, then length.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if !req.AgreeToTerms {
		return nil, pkgerrors.Field("agreeToTerms", "terms of use must be accepted")
	}
	taken, err := s.provider.EmailTaken(ctx, req.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.Field("confirmPassword", "password confirmation does not match")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, pkgerrors.Field("password", "password must be at least 6 characters")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.Field("email", "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.Field("name", "name is required")
	}

	user, err := s.provider.Create(ctx, NewUser{
		Email:    req.Email,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
		Role:     enums.RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	if err := s.establish(ctx, user); err != nil {
		return nil, err
	}
	s.logIdentity(ctx, "identity.register", user)
	return user.clone(), nil
}

// IsLoggedIn requires a principal and a token that still verifies.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	user, token := s.user, s.token
	s.mu.RUnlock()
	return user != nil && token != "" && s.issuer.Valid(token)
}

func (s *Session) IsAdmin() bool {
	if !s.IsLoggedIn() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == enums.RoleAdmin
}

// Current returns a copy of the principal, or nil when anonymous.
func (s *Session) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	return s.user.clone()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RefreshToken mints a new token for the current principal and session. An
// expired token may be refreshed as long as the principal is still stored.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	user := s.Current()
	if user == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	if err := s.establish(ctx, user); err != nil {
		return "", err
	}
	return s.Token(), nil
}

// UpdateProfile replaces name, phone and address. An empty avatar keeps the
// current one.
func (s *Session) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	if s.Current() == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.Field("name", "name is required")
	}
	updated, _, err := s.updateAccount(ctx, func(user *User) bool {
		user.Name = strings.TrimSpace(in.Name)
		user.Phone = strings.TrimSpace(in.Phone)
		user.Address = strings.TrimSpace(in.Address)
		if strings.TrimSpace(in.Avatar) != "" {
			user.Avatar = strings.TrimSpace(in.Avatar)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword verifies the current password, then the confirmation, the
// length policy and that the new password differs.
func (s *Session) ChangePassword(ctx context.Context, in ChangePassword) error {
	user := s.Current()
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	ok, err := s.provider.VerifyPassword(ctx, user.ID, in.CurrentPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify password")
	}
	if !ok {
		return pkgerrors.Field("currentPassword", "current password is incorrect")
	}
	if in.NewPassword != in.ConfirmPassword {
		return pkgerrors.Field("confirmPassword", "password confirmation does not match")
	}
	if len(in.NewPassword) < MinPasswordLength {
		return pkgerrors.Field("newPassword", "password must be at least 6 characters")
	}
	if in.NewPassword == in.CurrentPassword {
		return pkgerrors.Field("newPassword", "new password must differ from the current one")
	}
	if err := s.provider.SetPassword(ctx, user.ID, in.NewPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set password")
	}
	s.logIdentity(ctx, "identity.password_changed", user)
	return nil
}

// Wishlist returns the principal's wishlist, empty when anonymous.
func (s *Session) Wishlist() []int64 {
	user := s.Current()
	if user == nil {
		return []int64{}
	}
	return user.Wishlist
}

// AddToWishlist reports false without error when anonymous or when the
// product is already listed.
func (s *Session) AddToWishlist(ctx context.Context, productID int64) (bool, error) {
	if s.Current() == nil {
		return false, nil
	}
	_, changed, err := s.updateAccount(ctx, func(user *User) bool {
		if user.inWishlist(productID) {
			return false
		}
		user.Wishlist = append(user.Wishlist, productID)
		return true
	})
	return changed, err
}

// RemoveFromWishlist reports false without error when anonymous or when the
// product is not listed.
func (s *Session) RemoveFromWishlist(ctx context.Context, productID int64) (bool, error) {
	if s.Current() == nil {
		return false, nil
	}
	_, changed, err := s.updateAccount(ctx, func(user *User) bool {
		if !user.inWishlist(productID) {
			return false
		}
		kept := make([]int64, 0, len(user.Wishlist))
		for _, id := range user.Wishlist {
			if id != productID {
				kept = append(kept, id)
			}
		}
		user.Wishlist = kept
		return true
	})
	return changed, err
}

// ClearWishlist reports false only when anonymous.
func (s *Session) ClearWishlist(ctx context.Context) (bool, error) {
	if s.Current() == nil {
		return false, nil
	}
	_, changed, err := s.updateAccount(ctx, func(user *User) bool {
		user.Wishlist = []int64{}
		return true
	})
	return changed, err
}

// HasPermission is false when anonymous.
func (s *Session) HasPermission(p Permission) bool {
	user := s.Current()
	if user == nil {
		return false
	}
	return RoleHasPermission(user.Role, p)
}

// Initials of the principal's name, "U" when unknown.
func (s *Session) Initials() string {
	user := s.Current()
	if user == nil {
		return "U"
	}
	return Initials(user.Name)
}

// establish mints a token for user and stores the pair before adopting it.
func (s *Session) establish(ctx context.Context, user *User) error {
	token, err := s.issuer.Mint(*user, s.id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	user.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session user")
	}
	if err := s.store.Save(ctx, s.id, raw, token); err != nil {
		s.warnPersist(ctx, err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}

	s.mu.Lock()
	s.user = user.clone()
	s.token = token
	s.mu.Unlock()
	return nil
}

// updateAccount applies change to the principal's stored account rather than
// the session copy, so edits made through other sessions of the same user are
// kept. Nothing is written when change reports no modification.
func (s *Session) updateAccount(ctx context.Context, change func(*User) bool) (*User, bool, error) {
	current := s.Current()
	if current == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	user, err := s.provider.Get(ctx, current.ID)
	if errors.Is(err, ErrUnknownUser) {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	if err != nil {
		s.warnPersist(ctx, err)
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if !change(user) {
		return user, false, nil
	}
	if err := s.persistUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user.clone(), true, nil
}

// persistUser writes user to the session store, then through the provider,
// then adopts it. When the provider rejects the write the previous session
// copy is put back. Any failure leaves the in-memory principal untouched.
func (s *Session) persistUser(ctx context.Context, user *User) error {
	user.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session user")
	}
	previous := s.Current()
	if err := s.store.SaveUser(ctx, s.id, raw); err != nil {
		s.warnPersist(ctx, err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	if err := s.provider.Save(ctx, user); err != nil {
		s.warnPersist(ctx, err)
		s.restoreSessionUser(ctx, previous)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save account")
	}

	s.mu.Lock()
	s.user = user.clone()
	s.mu.Unlock()
	return nil
}

func (s *Session) restoreSessionUser(ctx context.Context, previous *User) {
	if previous == nil {
		return
	}
	raw, err := json.Marshal(previous)
	if err != nil {
		return
	}
	if err := s.store.SaveUser(ctx, s.id, raw); err != nil {
		s.warnPersist(ctx, err)
	}
}

func (s *Session) logIdentity(ctx context.Context, msg string, user *User) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithSessionID(ctx, s.id)
	logCtx = s.logg.WithUserID(logCtx, itoa(user.ID))
	logCtx = s.logg.WithActorRole(logCtx, user.Role.String())
	s.logg.Info(logCtx, msg)
}

func (s *Session) warnPersist(ctx context.Context, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithSessionID(ctx, s.id)
	logCtx = s.logg.WithField(logCtx, "error", err.Error())
	s.logg.Warn(logCtx, "identity.persist_failed")
}
