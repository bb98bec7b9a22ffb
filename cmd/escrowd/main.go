package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rdlucca/escrowd/internal/config"
	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/engine"
	"github.com/rdlucca/escrowd/internal/handler"
	"github.com/rdlucca/escrowd/internal/journal"
	"github.com/rdlucca/escrowd/internal/ledger"
	"github.com/rdlucca/escrowd/internal/service"
	"github.com/rdlucca/escrowd/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Intent journal: durable when a path is configured, in-memory otherwise.
	var jrnl *journal.Journal
	if cfg.JournalPath != "" {
		jrnl, err = journal.Open(cfg.JournalPath)
	} else {
		jrnl, err = journal.OpenMem()
	}
	if err != nil {
		logger.Error("failed to open intent journal", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jrnl.Close()

	// Stores and ledgers.
	listingStore := store.NewListingStore()
	dealStore := store.NewDealStore()
	webhookStore := store.NewWebhookStore()
	owners := ledger.NewInMemoryOwnership()
	payments := ledger.NewInMemoryPayments(domain.Account(cfg.CustodyAccount))

	// Services (webhook first — the engine dispatches events through it).
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout, logger)

	// Engine.
	exchange := engine.NewExchange(listingStore, dealStore, jrnl, owners, payments, webhookSvc, logger, engine.Config{
		FeePercent: cfg.FeePercent,
		Custodian:  domain.Account(cfg.CustodyAccount),
		FeePool:    domain.Account(cfg.FeePoolAccount),
	})
	marketSvc := service.NewMarketService(exchange, listingStore, dealStore)

	// Router.
	router := handler.NewRouter(marketSvc, webhookSvc, owners, payments, logger)

	// Start the intent replayer with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	replayer := engine.NewReplayer(cfg.ReplayInterval, jrnl, owners, payments, domain.Account(cfg.CustodyAccount), logger)
	replayer.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the replayer).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
