package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/api"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/config"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/persistence"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/persistence/postgres"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest/handlers"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest/middleware"
	"github.com/mtandao-labs/hotspotpay/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting hotspotpay service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()

	doc, err := api.Load(ctx)
	if err != nil {
		logger.Error("failed to load API document", "error", err)
		os.Exit(1)
	}
	openapiJSON, err := doc.MarshalJSON()
	if err != nil {
		logger.Error("failed to render API document", "error", err)
		os.Exit(1)
	}

	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	attemptRepo := postgres.NewAttemptRepository(db.Pool)

	stkClient := daraja.NewClient(cfg.Daraja)

	accountReference := cfg.Daraja.AccountReference
	if accountReference == "" {
		accountReference = cfg.Daraja.ShortCode
	}

	initiateService := services.NewInitiateService(attemptRepo, stkClient, accountReference, logger)
	callbackService := services.NewCallbackService(attemptRepo, logger)
	entitlementService := services.NewEntitlementService(attemptRepo, logger)
	queryService := services.NewQueryService(attemptRepo)

	em := rest.NewErrorMapper(cfg.Primary.Env, logger)

	h := handlers.NewHandlers(
		initiateService,
		callbackService,
		entitlementService,
		queryService,
		db,
		em,
		logger,
		openapiJSON,
	)

	router := http.Handler(h.Routes())

	handler := middleware.Recovery(logger, em)(router)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Metrics()(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Worker.Enabled {
		reconciler := worker.NewReconciler(
			attemptRepo,
			stkClient,
			callbackService,
			cfg.Worker.Interval,
			cfg.Worker.MinAge,
			cfg.Worker.BatchSize,
			logger,
		)
		go reconciler.Start(workerCtx)
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// confirmations accepted before the listener closed still need to land
	callbackService.Drain()

	logger.Info("server exited")
}
