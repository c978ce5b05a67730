package catalog

import (
	"context"
	"testing"

	"github.com/athengaudio/storefront/pkg/db"
	"github.com/athengaudio/storefront/pkg/db/models"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func TestGormRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(openTestDB(t))

	anc := true
	p := &Product{
		Name:          "Sony WH-1000XM5",
		Price:         price(8490000),
		OriginalPrice: pricePtr(9490000),
		Category:      enums.ProductCategoryHeadphone,
		Type:          "over-ear",
		Brand:         "Sony",
		Features:      []string{"ANC", "30h"},
		InStock:       true,
		Rating:        4.5,
		Reviews:       12,
		Specs:         Specs{Connectivity: []string{"wireless"}, NoiseCancellation: &anc},
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.True(t, got.Price.Equal(p.Price))
	require.NotNil(t, got.OriginalPrice)
	require.True(t, got.OriginalPrice.Equal(*p.OriginalPrice))
	require.Equal(t, []string{"ANC", "30h"}, got.Features)
	require.Equal(t, []string{"wireless"}, got.Specs.Connectivity)
	require.NotNil(t, got.Specs.NoiseCancellation)
	require.Equal(t, 11, got.DiscountPercent())

	got.InStock = false
	got.OriginalPrice = nil
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, again.InStock)
	require.Nil(t, again.OriginalPrice)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, p.ID), ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, &Product{ID: 77, Name: "x", Category: enums.ProductCategorySpeaker}), ErrNotFound)
}

func TestServiceOverGormRepository(t *testing.T) {
	svc, err := NewService(NewGormRepository(openTestDB(t)), nil)
	require.NoError(t, err)
	seedProducts(t, svc)

	got, err := svc.Search(context.Background(), Filter{Category: "speaker"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}
