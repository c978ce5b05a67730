package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/athengaudio/storefront/api"
	"github.com/athengaudio/storefront/api/controllers"
	"github.com/athengaudio/storefront/api/routes"
	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/internal/identity"
	"github.com/athengaudio/storefront/internal/orders"
	"github.com/athengaudio/storefront/internal/users"
	"github.com/athengaudio/storefront/pkg/auth/session"
	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/db"
	"github.com/athengaudio/storefront/pkg/instance"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
	"github.com/athengaudio/storefront/pkg/migrate"
	"github.com/athengaudio/storefront/pkg/redis"
	"github.com/athengaudio/storefront/pkg/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"database": dbClient}

	var store kv.Store = kv.NewMemory()
	if cfg.Storage.UsesRedis() {
		redisClient, err := redis.New(ctx, cfg.Redis, cfg.Storage.KeyPrefix, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store = kv.NewRedis(redisClient)
	}
	pingers["kv"] = store

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefront(registry)

	var (
		productRepo catalog.Repository
		orderRepo   orders.Repository
	)
	if cfg.Storage.CollectionsInKV() {
		productRepo = catalog.NewBlobRepository(store)
		orderRepo = orders.NewBlobRepository(store)
	} else {
		productRepo = catalog.NewGormRepository(dbClient.DB())
		orderRepo = orders.NewGormRepository(dbClient.DB())
	}

	catalogService, err := catalog.NewService(productRepo, logg)
	requireResource(ctx, logg, "catalog service", err)
	if cfg.Catalog.SeedFile != "" {
		if _, err := catalogService.Seed(ctx, cfg.Catalog.SeedFile); err != nil {
			logg.Error(ctx, "failed to seed catalog", err)
			os.Exit(1)
		}
	}

	ordersService, err := orders.NewService(orderRepo, logg)
	requireResource(ctx, logg, "orders service", err)

	fee, err := cfg.Checkout.Fee()
	requireResource(ctx, logg, "shipping fee", err)
	assembler, err := orders.NewAssembler(orderRepo, fee, logg, storefrontMetrics)
	requireResource(ctx, logg, "order assembler", err)

	carts, err := cart.NewRegistry(store, logg)
	requireResource(ctx, logg, "cart registry", err)

	provider, err := identityProvider(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "identity provider", err)

	sessions, err := session.NewStore(store)
	requireResource(ctx, logg, "session store", err)

	identityService, err := identity.NewService(identity.ServiceParams{
		Store:    sessions,
		Provider: provider,
		Issuer:   identity.NewJWTIssuer(cfg.JWT),
		Logger:   logg,
		Metrics:  storefrontMetrics,
	})
	requireResource(ctx, logg, "identity service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"storage":     cfg.Storage.Backend,
		"collections": cfg.Storage.Collections,
		"identity":    cfg.Identity.Provider,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		Metrics:  storefrontMetrics,
		Gatherer: registry,
		Store:    store,
		Pingers:  pingers,
		Identity: identityService,
		Catalog:  catalogService,
		Carts:    carts,
		Checkout: assembler,
		Orders:   ordersService,
	}))

	if err := api.Serve(ctx, server, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func identityProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (identity.Provider, error) {
	hasher := security.NewHasher(cfg.Password)
	if !cfg.Identity.UsesDB() {
		if cfg.App.IsProd() {
			logg.Warn(ctx, "demo identity provider enabled in production")
		}
		return identity.NewMockProvider(hasher)
	}

	provider, err := identity.NewDBProvider(users.NewRepository(dbClient.DB()), hasher)
	if err != nil {
		return nil, err
	}
	if cfg.Identity.AdminEmail == "" {
		return provider, nil
	}
	created, err := provider.EnsureAdmin(ctx, cfg.Identity.AdminEmail, cfg.Identity.AdminPassword, cfg.Identity.AdminName)
	if err != nil {
		return nil, fmt.Errorf("ensuring admin %s: %w", config.EnvIdentityAdminEmail, err)
	}
	if created {
		logg.Info(logg.WithField(ctx, "email", cfg.Identity.AdminEmail), "identity.admin_created")
	}
	return provider, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
