package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thriftline/thriftline/app/repositories"
)

func TestStatsSummary(t *testing.T) {
	db := newTestDB(t)
	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	productSvc := NewProductService(products)
	statsSvc := NewStatsService(users, products)
	ctx := context.Background()

	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")

	cheap := validListing()
	cheap.Price = 100
	pricey := validListing()
	pricey.Price = 250

	first, err := productSvc.Create(ctx, seller.ID, cheap)
	require.NoError(t, err)
	_, err = productSvc.Create(ctx, seller.ID, pricey)
	require.NoError(t, err)

	stats, err := statsSvc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalUsers)
	require.Equal(t, int64(2), stats.TotalProducts)
	require.Equal(t, int64(0), stats.TotalSold)
	require.Equal(t, 0.0, stats.TotalRevenue)

	_, err = productSvc.Buy(ctx, Actor{ID: buyer.ID}, first.ID,
		BuyInput{Name: "Buyer", Phone: "9123456789", Location: "Kochi"})
	require.NoError(t, err)

	stats, err = statsSvc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalSold)
	require.Equal(t, 100.0, stats.TotalRevenue)
}
