package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shopvista/storefront/api/routes"
	"github.com/shopvista/storefront/internal/cart"
	"github.com/shopvista/storefront/internal/catalog"
	"github.com/shopvista/storefront/internal/identity"
	"github.com/shopvista/storefront/internal/notifications"
	"github.com/shopvista/storefront/internal/orders"
	"github.com/shopvista/storefront/pkg/config"
	"github.com/shopvista/storefront/pkg/localstore"
	"github.com/shopvista/storefront/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := localstore.Open(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing local store", err)
		}
	}()

	catalogClient, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog client", err)
		os.Exit(1)
	}

	inbox, err := notifications.NewService(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogClient, inbox)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(store, catalogClient, inbox)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(cartService, catalogClient, inbox)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	session, err := identity.NewSession(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create session", err)
		os.Exit(1)
	}
	session.Subscribe(func(email string) {
		ctx := logg.WithField(context.Background(), "identity", email)
		if email == "" {
			logg.Info(ctx, "session.signed_out")
			return
		}
		logg.Info(ctx, "session.signed_in")
	})

	identityService, err := identity.NewService(store, session, inbox, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			store,
			catalogClient,
			registry,
			session,
			catalogService,
			cartService,
			ordersService,
			inbox,
			identityService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
