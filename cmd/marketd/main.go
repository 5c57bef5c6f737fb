package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TYDev01/009-MarketPlace/internal/bank"
	"github.com/TYDev01/009-MarketPlace/internal/config"
	"github.com/TYDev01/009-MarketPlace/internal/database"
	"github.com/TYDev01/009-MarketPlace/internal/journal"
	"github.com/TYDev01/009-MarketPlace/internal/marketplace"
	"github.com/TYDev01/009-MarketPlace/internal/model"
	"github.com/TYDev01/009-MarketPlace/internal/server"
	"github.com/TYDev01/009-MarketPlace/internal/stream"
	"github.com/TYDev01/009-MarketPlace/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/marketd.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting marketd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Native currency ledger, seeded from genesis accounts
	ledger := bank.NewLedger()
	for _, acct := range cfg.Genesis {
		ledger.Deposit(model.Principal(acct.Principal), acct.Balance)
	}
	logger.Info("currency ledger seeded", "accounts", len(cfg.Genesis))

	// Event feed: every marketplace mutation fans out to the journal and
	// to connected stream clients.
	feed := stream.NewFeed()
	defer feed.Close()

	market := marketplace.New(ledger, feed, logger)

	if cfg.Journal.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := journal.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to prepare journal schema", "error", err)
			os.Exit(1)
		}

		writer := journal.NewWriter(
			journal.Config{
				BatchSize:     cfg.Journal.BatchSize,
				FlushInterval: cfg.Journal.FlushInterval,
			},
			feed.Subscribe(cfg.Journal.BufferSize),
			pool,
			logger,
		)
		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			writer.Stop(stopCtx)
		}()
	}

	hub := stream.NewHub(feed, cfg.Stream.ClientBufferSize, logger)
	srv := server.New(market, ledger, hub, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening",
			"addr", cfg.Server.Addr,
			"instance_id", cfg.Instance.ID,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("marketd exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("marketd stopped")
}
