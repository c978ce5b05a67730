package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/athengaudio/storefront/pkg/auth/session"
	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/enums"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

type flakyStore struct {
	*kv.Memory
	fail bool
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.fail {
		return errStoreDown
	}
	return s.Memory.Set(ctx, key, value, ttl)
}

func (s *flakyStore) SetMulti(ctx context.Context, values map[string][]byte) error {
	if s.fail {
		return errStoreDown
	}
	return s.Memory.SetMulti(ctx, values)
}

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "atheng-test", ExpirationMinutes: 15}
}

type fixture struct {
	svc      Service
	store    *flakyStore
	sessions *session.Store
	provider *MockProvider
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := &flakyStore{Memory: kv.NewMemory()}
	sessions, err := session.NewStore(backend)
	require.NoError(t, err)
	provider, err := NewMockProvider(testHasher())
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Store:    sessions,
		Provider: provider,
		Issuer:   NewJWTIssuer(testJWT()),
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: backend, sessions: sessions, provider: provider}
}

func TestAdminLoginScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()
	require.False(t, sess.IsAdmin())

	user, err := sess.Login(ctx, LoginRequest{Email: "admin@athengaudio.com", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, enums.RoleAdmin, user.Role)
	require.True(t, sess.IsLoggedIn())
	require.True(t, sess.IsAdmin())
	require.True(t, sess.HasPermission(PermManageOrders))
	require.False(t, sess.HasPermission(PermPlaceOrders))

	snap, err := f.sessions.Load(ctx, sess.ID())
	require.NoError(t, err)
	require.True(t, snap.Complete())
	require.Equal(t, sess.Token(), snap.Token)

	sess.Logout(ctx)
	require.False(t, sess.IsLoggedIn())
	require.False(t, sess.IsAdmin())
	require.Nil(t, sess.Current())

	snap, err = f.sessions.Load(ctx, sess.ID())
	require.NoError(t, err)
	require.Empty(t, snap.User)
	require.Empty(t, snap.Token)
}

func TestLoginRejectionKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()

	_, err := sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	require.False(t, sess.IsLoggedIn())

	_, err = sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)
	_, err = sess.Login(ctx, LoginRequest{Email: "admin@athengaudio.com", Password: "nope"})
	require.Error(t, err)
	require.Equal(t, "user@example.com", sess.Current().Email)
}

func TestOpenRestoresSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()
	_, err := sess.Login(ctx, LoginRequest{Email: "test@example.com", Password: "test123"})
	require.NoError(t, err)

	reopened, err := f.svc.Open(ctx, sess.ID())
	require.NoError(t, err)
	require.True(t, reopened.IsLoggedIn())
	require.Equal(t, []int64{1, 2, 3}, reopened.Wishlist())

	require.NoError(t, f.store.Del(ctx, session.TokenKey(sess.ID())))
	half, err := f.svc.Open(ctx, sess.ID())
	require.NoError(t, err)
	require.Nil(t, half.Current())

	_, err = f.svc.Open(ctx, " ")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRegisterPolicyOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		req  RegisterRequest
		code pkgerrors.Code
	}{
		{"terms before everything", RegisterRequest{Email: "admin@athengaudio.com", Password: "1", ConfirmPassword: "2"}, pkgerrors.CodeValidation},
		{"taken before mismatch", RegisterRequest{Email: "ADMIN@athengaudio.com", Password: "1", ConfirmPassword: "2", AgreeToTerms: true}, pkgerrors.CodeConflict},
		{"mismatch before length", RegisterRequest{Email: "new@example.com", Password: "1", ConfirmPassword: "2", AgreeToTerms: true}, pkgerrors.CodeValidation},
		{"length", RegisterRequest{Email: "new@example.com", Password: "12345", ConfirmPassword: "12345", AgreeToTerms: true}, pkgerrors.CodeValidation},
	}
	fields := []string{"agreeToTerms", "", "confirmPassword", "password"}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := f.svc.NewSession()
			_, err := sess.Register(ctx, tc.req)
			require.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
			if fields[i] != "" {
				require.Equal(t, map[string]any{"field": fields[i]}, pkgerrors.As(err).Details())
			}
			require.False(t, sess.IsLoggedIn())
		})
	}

	sess := f.svc.NewSession()
	user, err := sess.Register(ctx, RegisterRequest{
		Name:            "Tran Thi B",
		Email:           "b@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		AgreeToTerms:    true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.RoleUser, user.Role)
	require.Equal(t, DefaultAvatar, user.Avatar)
	require.True(t, sess.IsLoggedIn())
	require.False(t, sess.IsAdmin())

	other := f.svc.NewSession()
	_, err = other.Login(ctx, LoginRequest{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestWishlistSoftFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()

	ok, err := sess.AddToWishlist(ctx, 9)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = sess.ClearWishlist(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	ok, err = sess.AddToWishlist(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok, "duplicate add")

	ok, err = sess.AddToWishlist(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{2, 4, 5, 9}, sess.Wishlist())

	ok, err = sess.RemoveFromWishlist(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = sess.RemoveFromWishlist(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{2, 5, 9}, sess.Wishlist())

	reopened, err := f.svc.Open(ctx, sess.ID())
	require.NoError(t, err)
	require.Equal(t, []int64{2, 5, 9}, reopened.Wishlist())

	ok, err = sess.ClearWishlist(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, sess.Wishlist())
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()
	_, err := sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	f.store.fail = true
	ok, err := sess.AddToWishlist(ctx, 99)
	require.False(t, ok)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.Equal(t, []int64{2, 4, 5}, sess.Wishlist())

	_, err = sess.UpdateProfile(ctx, ProfileUpdate{Name: "Changed"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.Equal(t, "Nguyễn Văn A", sess.Current().Name)

	fresh := f.svc.NewSession()
	_, err = fresh.Login(ctx, LoginRequest{Email: "test@example.com", Password: "test123"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.Nil(t, fresh.Current())

	f.store.fail = false
	account, err := f.provider.Get(ctx, sess.Current().ID)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 5}, account.Wishlist, "account untouched when the session write fails")
	require.Equal(t, "Nguyễn Văn A", account.Name)
}

type rejectingProvider struct {
	*MockProvider
}

func (p rejectingProvider) Save(context.Context, *User) error {
	return errStoreDown
}

func TestAccountRejectionRestoresSessionCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, err := NewService(ServiceParams{
		Store:    f.sessions,
		Provider: rejectingProvider{MockProvider: f.provider},
		Issuer:   NewJWTIssuer(testJWT()),
	})
	require.NoError(t, err)

	sess := svc.NewSession()
	_, err = sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	ok, err := sess.AddToWishlist(ctx, 77)
	require.False(t, ok)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.Equal(t, []int64{2, 4, 5}, sess.Wishlist())

	reopened, err := svc.Open(ctx, sess.ID())
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 5}, reopened.Wishlist())

	account, err := f.provider.Get(ctx, sess.Current().ID)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 5}, account.Wishlist)
}

func TestWishlistEditsFromTwoSessionsAreKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := f.svc.NewSession()
	_, err := phone.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)
	laptop := f.svc.NewSession()
	_, err = laptop.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	ok, err := phone.AddToWishlist(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = laptop.AddToWishlist(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{2, 4, 5, 10, 11}, laptop.Wishlist())

	ok, err = laptop.AddToWishlist(ctx, 10)
	require.NoError(t, err)
	require.False(t, ok, "already added from the other session")

	_, err = phone.UpdateProfile(ctx, ProfileUpdate{Name: "Tran Thi B"})
	require.NoError(t, err)

	fresh := f.svc.NewSession()
	user, err := fresh.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 5, 10, 11}, user.Wishlist)
	require.Equal(t, "Tran Thi B", user.Name)
}

func TestProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()

	require.True(t, pkgerrors.HasCode(sess.ChangePassword(ctx, ChangePassword{}), pkgerrors.CodeUnauthorized))

	_, err := sess.Login(ctx, LoginRequest{Email: "test@example.com", Password: "test123"})
	require.NoError(t, err)

	updated, err := sess.UpdateProfile(ctx, ProfileUpdate{Name: "Le Van C", Phone: "0911111111", Address: "Hue"})
	require.NoError(t, err)
	require.Equal(t, "Le Van C", updated.Name)
	require.Equal(t, "assets/images/avatar-user.png", updated.Avatar)
	require.Equal(t, "LV", sess.Initials())

	err = sess.ChangePassword(ctx, ChangePassword{CurrentPassword: "bad", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.Equal(t, map[string]any{"field": "currentPassword"}, pkgerrors.As(err).Details())
	err = sess.ChangePassword(ctx, ChangePassword{CurrentPassword: "test123", NewPassword: "newpass", ConfirmPassword: "other"})
	assert.Equal(t, map[string]any{"field": "confirmPassword"}, pkgerrors.As(err).Details())
	err = sess.ChangePassword(ctx, ChangePassword{CurrentPassword: "test123", NewPassword: "short", ConfirmPassword: "short"})
	assert.Equal(t, map[string]any{"field": "newPassword"}, pkgerrors.As(err).Details())
	err = sess.ChangePassword(ctx, ChangePassword{CurrentPassword: "test123", NewPassword: "test123", ConfirmPassword: "test123"})
	assert.Equal(t, map[string]any{"field": "newPassword"}, pkgerrors.As(err).Details())

	require.NoError(t, sess.ChangePassword(ctx, ChangePassword{CurrentPassword: "test123", NewPassword: "brandnew", ConfirmPassword: "brandnew"}))
	_, err = f.svc.NewSession().Login(ctx, LoginRequest{Email: "test@example.com", Password: "brandnew"})
	require.NoError(t, err)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.svc.NewSession()
	_, err := sess.RefreshToken(ctx)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = sess.Login(ctx, LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)
	token, err := sess.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, token, sess.Token())
	require.True(t, sess.IsLoggedIn())
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "U", Initials("   "))
	assert.Equal(t, "QT", Initials("Quản Trị Viên"))
	assert.Equal(t, "Đ", Initials("đức"))
}

func TestMockProviderConcurrentAuthenticateAndSave(t *testing.T) {
	ctx := context.Background()
	provider, err := NewMockProvider(testHasher())
	require.NoError(t, err)
	account, err := provider.Authenticate(ctx, "test@example.com", "test123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			edit := *account
			edit.Wishlist = []int64{n}
			edit.Name = "Editor"
			assert.NoError(t, provider.Save(ctx, &edit))
		}(int64(i))
		go func() {
			defer wg.Done()
			user, err := provider.Authenticate(ctx, "test@example.com", "test123")
			assert.NoError(t, err)
			assert.NotNil(t, user)
			ok, err := provider.VerifyPassword(ctx, account.ID, "test123")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	final, err := provider.Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "Editor", final.Name)
	require.Len(t, final.Wishlist, 1)
}
