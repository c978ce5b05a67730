package identity

import (
	"context"
	"testing"

	"github.com/athengaudio/storefront/internal/users"
	"github.com/athengaudio/storefront/pkg/db"
	"github.com/athengaudio/storefront/pkg/db/models"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newDBProvider(t *testing.T) *DBProvider {
	t.Helper()
	conn, err := db.Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	p, err := NewDBProvider(users.NewRepository(conn), testHasher())
	require.NoError(t, err)
	return p
}

func TestDBProviderAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newDBProvider(t)

	created, err := p.EnsureAdmin(ctx, "Owner@AthengAudio.com", "supersecret", "Owner")
	require.NoError(t, err)
	require.True(t, created)
	created, err = p.EnsureAdmin(ctx, "owner@athengaudio.com", "supersecret", "Owner")
	require.NoError(t, err)
	require.False(t, created)

	admin, err := p.Authenticate(ctx, "owner@athengaudio.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, enums.RoleAdmin, admin.Role)

	_, err = p.Authenticate(ctx, "owner@athengaudio.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Authenticate(ctx, "ghost@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := p.Create(ctx, NewUser{Email: "c@example.com", Name: "C", Password: "secret1", Role: enums.RoleUser})
	require.NoError(t, err)
	_, err = p.Create(ctx, NewUser{Email: "C@example.com", Name: "C2", Password: "secret1"})
	require.ErrorIs(t, err, ErrEmailTaken)

	user.Wishlist = []int64{5, 6}
	user.Address = "Can Tho"
	require.NoError(t, p.Save(ctx, user))
	again, err := p.Authenticate(ctx, "c@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, again.Wishlist)
	require.Equal(t, "Can Tho", again.Address)

	byID, err := p.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, byID.Wishlist)
	_, err = p.Get(ctx, 9999)
	require.ErrorIs(t, err, ErrUnknownUser)

	require.NoError(t, p.SetPassword(ctx, user.ID, "changed1"))
	ok, err := p.VerifyPassword(ctx, user.ID, "changed1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.VerifyPassword(ctx, 9999, "x")
	require.ErrorIs(t, err, ErrUnknownUser)
	require.ErrorIs(t, p.Save(ctx, &User{ID: 9999}), ErrUnknownUser)
}
