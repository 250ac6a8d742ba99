package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thriftline/thriftline/app/controllers"
	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/app/routes"
	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/router"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newAPIServer(t *testing.T) (*httptest.Server, *services.AuthService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Admin{}, &models.Product{}))

	userRepo := repositories.NewUserRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	productRepo := repositories.NewProductRepository(db)

	authSvc := services.NewAuthService(userRepo, adminRepo)
	userSvc := services.NewUserService(userRepo)
	productSvc := services.NewProductService(productRepo)
	statsSvc := services.NewStatsService(userRepo, productRepo)

	r := router.New()
	routes.Register(r, routes.Controllers{
		Auth:    controllers.NewAuthController(authSvc),
		User:    controllers.NewUserController(userSvc),
		Product: controllers.NewProductController(productSvc),
		Admin:   controllers.NewAdminController(authSvc, userSvc, productSvc, statsSvc),
	})

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return srv, authSvc
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res, env
}

func registerUser(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
		"name":     "Test User",
		"email":    email,
		"phone":    "9876543210",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func createListing(t *testing.T, srv *httptest.Server, token string) uint {
	t.Helper()
	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/products", token, map[string]any{
		"productName": "Office Chair",
		"description": "Ergonomic, minor wear.",
		"price":       1800,
		"address":     "5 Park Street",
		"mobile":      "9876543210",
		"city":        "Kolkata",
		"category":    "Furniture",
		"images":      []string{"/storage/uploads/chair.jpg"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var payload struct {
		ID uint `json:"ID"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotZero(t, payload.ID)
	return payload.ID
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	srv, _ := newAPIServer(t)

	sellerToken := registerUser(t, srv, "seller@example.com")
	buyerToken := registerUser(t, srv, "buyer@example.com")

	id := createListing(t, srv, sellerToken)

	// Public browse needs no token.
	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/products", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	require.Equal(t, false, list[0]["sold"])

	// Seller display fields are joined in; credentials are not.
	seller, ok := list[0]["seller"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Test User", seller["name"])
	require.Equal(t, "seller@example.com", seller["email"])
	require.NotContains(t, seller, "password")

	// Creating without a token fails.
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/products", "", map[string]any{})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Buyer purchases the listing and gets the purchase record echoed back.
	url := fmt.Sprintf("%s/api/products/%d/buy", srv.URL, id)
	res, env = doJSON(t, http.MethodPost, url, buyerToken, map[string]any{
		"name":     "Chair Buyer",
		"phone":    "9123456789",
		"location": "Kolkata",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var bought struct {
		Buyer   map[string]any `json:"buyer"`
		Product map[string]any `json:"product"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bought))
	require.Equal(t, "Chair Buyer", bought.Buyer["name"])
	require.NotEmpty(t, bought.Buyer["buyDate"])
	require.Equal(t, true, bought.Product["sold"])

	// A second purchase attempt conflicts.
	res, _ = doJSON(t, http.MethodPost, url, buyerToken, map[string]any{
		"name":     "Late Buyer",
		"phone":    "9123456780",
		"location": "Howrah",
	})
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// Buyer info is seller-only.
	buyerURL := fmt.Sprintf("%s/api/products/%d/buyer", srv.URL, id)
	res, env = doJSON(t, http.MethodGet, buyerURL, sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var info map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &info))
	require.Equal(t, "Chair Buyer", info["name"])

	res, _ = doJSON(t, http.MethodGet, buyerURL, buyerToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	// The buyer sees the listing under my/orders.
	res, env = doJSON(t, http.MethodGet, srv.URL+"/api/products/my/orders", buyerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
}

func TestChangePasswordWrongCurrentOverHTTP(t *testing.T) {
	srv, _ := newAPIServer(t)
	token := registerUser(t, srv, "user@example.com")

	res, _ := doJSON(t, http.MethodPut, srv.URL+"/api/users/change-password", token, map[string]any{
		"currentPassword": "not-the-password",
		"newPassword":     "another-secret",
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminOverlayOverHTTP(t *testing.T) {
	srv, authSvc := newAPIServer(t)

	sellerToken := registerUser(t, srv, "seller@example.com")
	id := createListing(t, srv, sellerToken)

	require.NoError(t, authSvc.EnsureDefaultAdmin(t.Context()))
	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/admin/login", "", map[string]any{
		"email":    config.AdminEmail(),
		"password": config.AdminPassword(),
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))

	// User tokens are rejected on admin routes.
	res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/admin/stats", sellerToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, env = doJSON(t, http.MethodGet, srv.URL+"/api/admin/stats", payload.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var stats map[string]float64
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Equal(t, 1.0, stats["totalUsers"])
	require.Equal(t, 1.0, stats["totalProducts"])
	require.Equal(t, 0.0, stats["totalSold"])

	// Admin can delete any listing without owning it.
	res, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/admin/products/%d", srv.URL, id), payload.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", srv.URL, id), "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	// Admin publishes a listing on the seller's behalf.
	res, env = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", payload.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	sellerID := users[0]["ID"].(float64)

	res, env = doJSON(t, http.MethodPost, srv.URL+"/api/admin/products", payload.Token, map[string]any{
		"productName": "Bookshelf",
		"price":       900,
		"address":     "5 Park Street",
		"mobile":      "9876543210",
		"city":        "Kolkata",
		"category":    "Furniture",
		"images":      []string{"/storage/uploads/shelf.jpg"},
		"sellerId":    sellerID,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, sellerID, created["sellerId"])
}
