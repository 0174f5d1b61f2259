package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/cart"
	"github.com/vikenamera/CraftVersee/internal/catalog"
	"github.com/vikenamera/CraftVersee/internal/content"
	"github.com/vikenamera/CraftVersee/internal/handlers"
	custommw "github.com/vikenamera/CraftVersee/internal/middleware"
	"github.com/vikenamera/CraftVersee/internal/platform/config"
	"github.com/vikenamera/CraftVersee/internal/platform/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("market").With(zap.String("env", cfg.Environment))
	ctx = observability.WithLogger(ctx, logger)

	cat, err := catalog.LoadFile(cfg.Catalog.File)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("file", cfg.Catalog.File), zap.Error(err))
	}
	engine := catalog.NewEngine(
		catalog.WithCurrencyUnit(cfg.Catalog.CurrencyUnit),
		catalog.WithDefaultRange(cfg.Catalog.DefaultMin, cfg.Catalog.DefaultMax),
	)

	terms, err := content.LoadTerms(cfg.Content.TermsFile)
	if err != nil {
		logger.Fatal("failed to load terms", zap.String("file", cfg.Content.TermsFile), zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to initialise key-value store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("key-value store close error", zap.Error(err))
		}
	}()

	carts, err := cart.NewService(cart.ServiceDeps{
		Store:     store,
		Logger:    logger.Named("cart"),
		CacheSize: cfg.Session.CacheSize,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	sessions := custommw.NewSessions(custommw.SessionOptions{
		SigningKey: cfg.Session.SigningKey,
		Secure:     cfg.Session.Secure,
		MaxAge:     cfg.Session.MaxAge,
		Logger:     logger.Named("session"),
	})

	storefront := handlers.NewStorefrontHandlers(handlers.StorefrontDeps{
		Catalog: cat,
		Engine:  engine,
		Carts:   carts,
	})

	router := handlers.NewRouter(
		handlers.WithMiddlewares(handlers.StandardMiddlewares(logger, sessions)...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithReadinessCheck("kv", handlers.StoreCheck(store)),
		)),
		handlers.WithRoutes(
			storefront.Routes,
			handlers.NewCartHandlers(cat, carts).Routes,
			handlers.NewGiftBoxHandlers(engine.Unit(), time.Now).Routes,
			handlers.NewTermsHandlers(terms).Routes,
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("market listening",
			zap.String("store_backend", cfg.Store.Backend),
			zap.Int("cards", len(cat.Cards)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
