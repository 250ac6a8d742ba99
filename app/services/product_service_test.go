package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/pkg/auth"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite lives on a single connection; this also serialises
	// the concurrent-buy test the same way a real pool would.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Admin{}, &models.Product{}))
	return db
}

func newProductService(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewProductService(repositories.NewProductRepository(db)), db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	user := &models.User{Name: "Test User", Email: email, Phone: "9876543210", Password: hash}
	require.NoError(t, db.Create(user).Error)
	return user
}

func validListing() CreateListingInput {
	return CreateListingInput{
		ProductName: "Mountain Bike",
		Description: "Barely used, front suspension.",
		Price:       7500,
		Address:     "42 Lake View",
		Mobile:      "9876543210",
		City:        "Pune",
		Category:    models.CategoryOthers,
		Images:      []string{"/storage/uploads/bike.jpg"},
	}
}

func TestCreateListing(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)
	require.NotZero(t, product.ID)
	require.Equal(t, seller.ID, product.SellerID)
	require.False(t, product.Sold())

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Mountain Bike", got.ProductName)
	require.Equal(t, []string{"/storage/uploads/bike.jpg"}, got.Images)

	// Seller display fields come joined on every read.
	require.Equal(t, seller.Name, got.Seller.Name)
	require.Equal(t, seller.Email, got.Seller.Email)

	all, err := svc.List(ctx, repositories.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, seller.Email, all[0].Seller.Email)
}

func TestCreateListingValidation(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	ctx := context.Background()

	in := validListing()
	in.ProductName = ""
	in.Price = 0
	in.Category = "Vehicles"
	in.Images = nil

	_, err := svc.Create(ctx, seller.ID, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "productName")
	require.Contains(t, verr.Fields, "price")
	require.Contains(t, verr.Fields, "category")
	require.Contains(t, verr.Fields, "images")
}

func TestBuyAtMostOnce(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	rival := seedUser(t, db, "rival@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	in := BuyInput{Name: "First Buyer", Phone: "9123456780", Location: "Mumbai"}
	bought, err := svc.Buy(ctx, Actor{ID: buyer.ID}, product.ID, in)
	require.NoError(t, err)
	require.True(t, bought.Sold())
	require.Equal(t, buyer.ID, *bought.Buyer.BuyerUserID)

	_, err = svc.Buy(ctx, Actor{ID: rival.ID}, product.ID,
		BuyInput{Name: "Second Buyer", Phone: "9123456781", Location: "Delhi"})
	require.ErrorIs(t, err, ErrAlreadySold)

	// The original purchase record must be untouched by the losing attempt.
	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "First Buyer", got.Buyer.Name)
}

func TestBuyConcurrent(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	const buyers = 16
	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Buy(ctx, Actor{ID: uint(100 + i)}, product.ID,
				BuyInput{Name: "Racer", Phone: "9123456789", Location: "Chennai"})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrAlreadySold)
		}
	}
	require.Equal(t, 1, wins)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, got.Sold())
}

func TestBuyMissingListing(t *testing.T) {
	svc, db := newProductService(t)
	buyer := seedUser(t, db, "buyer@example.com")

	_, err := svc.Buy(context.Background(), Actor{ID: buyer.ID}, 999,
		BuyInput{Name: "Ghost", Phone: "9123456789", Location: "Nowhere"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBuyerInfoAccess(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	// Unsold: even the seller gets nothing.
	_, err = svc.BuyerInfo(ctx, Actor{ID: seller.ID}, product.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Buy(ctx, Actor{ID: buyer.ID}, product.ID,
		BuyInput{Name: "The Buyer", Phone: "9123456789", Location: "Goa"})
	require.NoError(t, err)

	info, err := svc.BuyerInfo(ctx, Actor{ID: seller.ID}, product.ID)
	require.NoError(t, err)
	require.Equal(t, "The Buyer", info.Name)
	require.Equal(t, buyer.ID, *info.BuyerUserID)

	_, err = svc.BuyerInfo(ctx, Actor{ID: stranger.ID}, product.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.BuyerInfo(ctx, Actor{ID: stranger.ID, Admin: true}, product.ID)
	require.NoError(t, err)
}

func TestUpdateMergesAbsentFields(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	patch := UpdateListingInput{Price: 6000}
	updated, err := svc.Update(ctx, Actor{ID: seller.ID}, product.ID, patch)
	require.NoError(t, err)
	require.Equal(t, 6000.0, updated.Price)
	require.Equal(t, "Mountain Bike", updated.ProductName)
	require.Equal(t, "Pune", updated.City)
	require.Equal(t, []string{"/storage/uploads/bike.jpg"}, updated.Images)

	// Re-applying the same patch changes nothing.
	again, err := svc.Update(ctx, Actor{ID: seller.ID}, product.ID, patch)
	require.NoError(t, err)
	require.Equal(t, updated.Price, again.Price)
	require.Equal(t, updated.ProductName, again.ProductName)
}

func TestUpdateWithStaleReadKeepsSale(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProductRepository(db)
	svc := NewProductService(repo)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	// Listing copy read before the sale commits.
	stale, err := repo.Find(ctx, product.ID)
	require.NoError(t, err)

	_, err = svc.Buy(ctx, Actor{ID: buyer.ID}, product.ID,
		BuyInput{Name: "Quick Buyer", Phone: "9123456789", Location: "Indore"})
	require.NoError(t, err)

	// Writing the stale copy must touch listing fields only; the purchase
	// record committed in between stays intact.
	stale.Price = 999
	require.NoError(t, repo.Update(ctx, stale))

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, got.Sold())
	require.Equal(t, "Quick Buyer", got.Buyer.Name)
	require.Equal(t, buyer.ID, *got.Buyer.BuyerUserID)
	require.Equal(t, 999.0, got.Price)

	// An edit through the service after the sale keeps it sold too.
	_, err = svc.Update(ctx, Actor{ID: seller.ID}, product.ID, UpdateListingInput{City: "Indore"})
	require.NoError(t, err)
	got, err = svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, got.Sold())

	// And nobody else can ever buy it.
	_, err = svc.Buy(ctx, Actor{ID: seller.ID}, product.ID,
		BuyInput{Name: "Late Buyer", Phone: "9123456780", Location: "Bhopal"})
	require.ErrorIs(t, err, ErrAlreadySold)
}

func TestUpdateAuthorization(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	_, err = svc.Update(ctx, Actor{ID: stranger.ID}, product.ID, UpdateListingInput{Price: 1})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, Actor{ID: stranger.ID, Admin: true}, product.ID,
		UpdateListingInput{City: "Nagpur"})
	require.NoError(t, err)
	require.Equal(t, "Nagpur", updated.City)
	require.Equal(t, seller.ID, updated.SellerID)
}

func TestDeleteAuthorization(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	ctx := context.Background()

	product, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, Actor{ID: stranger.ID}, product.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, Actor{ID: seller.ID}, product.ID))
	require.ErrorIs(t, svc.Delete(ctx, Actor{ID: seller.ID}, product.ID), ErrNotFound)

	other, err := svc.Create(ctx, seller.ID, validListing())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, Actor{ID: stranger.ID, Admin: true}, other.ID))
}

func TestMineAndOrders(t *testing.T) {
	svc, db := newProductService(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	ctx := context.Background()

	first, err := svc.Create(ctx, alice.ID, validListing())
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, validListing())
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, validListing())
	require.NoError(t, err)

	mine, err := svc.Mine(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, p := range mine {
		require.Equal(t, alice.ID, p.SellerID)
	}

	// Bob buys one of Alice's listings; only that one shows in his orders.
	_, err = svc.Buy(ctx, Actor{ID: bob.ID}, first.ID,
		BuyInput{Name: "Bob", Phone: "9000000000", Location: "Surat"})
	require.NoError(t, err)

	orders, err := svc.Orders(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, first.ID, orders[0].ID)

	// Unsold and unrelated listings never appear.
	orders, err = svc.Orders(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestListFilters(t *testing.T) {
	svc, db := newProductService(t)
	seller := seedUser(t, db, "seller@example.com")
	ctx := context.Background()

	bike := validListing()
	_, err := svc.Create(ctx, seller.ID, bike)
	require.NoError(t, err)

	sofa := validListing()
	sofa.ProductName = "Leather Sofa"
	sofa.Category = models.CategoryFurniture
	sofa.City = "Mumbai"
	_, err = svc.Create(ctx, seller.ID, sofa)
	require.NoError(t, err)

	all, err := svc.List(ctx, repositories.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	furniture, err := svc.List(ctx, repositories.ProductFilter{Category: models.CategoryFurniture})
	require.NoError(t, err)
	require.Len(t, furniture, 1)
	require.Equal(t, "Leather Sofa", furniture[0].ProductName)

	pune, err := svc.List(ctx, repositories.ProductFilter{City: "Pune"})
	require.NoError(t, err)
	require.Len(t, pune, 1)

	search, err := svc.List(ctx, repositories.ProductFilter{Search: "Sofa"})
	require.NoError(t, err)
	require.Len(t, search, 1)
}
