// Package server boots and runs the HTTP marketplace server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thriftline/thriftline/app/controllers"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/app/routes"
	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/config"
	_ "github.com/thriftline/thriftline/database/migrations"
	"github.com/thriftline/thriftline/pkg/cache"
	"github.com/thriftline/thriftline/pkg/database"
	"github.com/thriftline/thriftline/pkg/logger"
	"github.com/thriftline/thriftline/pkg/metrics"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/migration"
	"github.com/thriftline/thriftline/pkg/reqid"
	"github.com/thriftline/thriftline/pkg/router"
	"github.com/thriftline/thriftline/pkg/storage"
)

// Run boots every subsystem, mounts the API, and serves until SIGINT or
// SIGTERM.
func Run() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closeLogs := logger.Boot()
	defer closeLogs()

	if err := database.Connect(); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, falling back to in-process rate limiting", "error", err)
	}
	storage.Connect()

	if err := migration.New(database.DB).Run(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userRepo := repositories.NewUserRepository(database.DB)
	adminRepo := repositories.NewAdminRepository(database.DB)
	productRepo := repositories.NewProductRepository(database.DB)

	authSvc := services.NewAuthService(userRepo, adminRepo)
	userSvc := services.NewUserService(userRepo)
	productSvc := services.NewProductService(productRepo)
	statsSvc := services.NewStatsService(userRepo, productRepo)

	if err := authSvc.EnsureDefaultAdmin(context.Background()); err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}

	r := NewRouter(routes.Controllers{
		Auth:    controllers.NewAuthController(authSvc),
		User:    controllers.NewUserController(userSvc),
		Product: controllers.NewProductController(productSvc),
		Admin:   controllers.NewAdminController(authSvc, userSvc, productSvc, statsSvc),
	})

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// NewRouter builds the router with the full middleware chain and every
// route mounted. Split out from Run so the CLI can print the routing table
// without booting the server.
func NewRouter(c routes.Controllers) *router.Router {
	r := router.New()

	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(120, time.Minute),
	)

	routes.Register(r, c)

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Mount("/storage/", http.StripPrefix("/storage/",
		http.FileServer(http.Dir(storage.LocalRoot()))))

	return r
}
