package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hasnin090/iq-sub001/internal/amqp"
	"github.com/hasnin090/iq-sub001/internal/config"
	applog "github.com/hasnin090/iq-sub001/internal/log"
	"github.com/hasnin090/iq-sub001/internal/mirror"
	"github.com/hasnin090/iq-sub001/internal/mirror/google"
	"github.com/hasnin090/iq-sub001/internal/mirror/memory"
	"github.com/hasnin090/iq-sub001/internal/storage"
	"github.com/hasnin090/iq-sub001/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := applog.DefaultConfig()
	cfg.Component = applog.ComponentWorker
	logger := applog.New(cfg)
	applog.SetDefault(logger)

	logger.Info("Starting ledger-worker")

	conf := config.Load()
	if err := conf.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(conf.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "path", conf.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	var entryMirror mirror.EntryMirror
	switch conf.MirrorBackend {
	case "sheets":
		client, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", "error", err)
			os.Exit(1)
		}
		entryMirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", conf.GoogleSpreadsheetID)
	case "memory":
		entryMirror = memory.New()
		logger.Info("In-memory mirror initialized")
	default:
		logger.Info("Mirroring disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if entryMirror == nil {
		logger.Info("Nothing to do without a mirror, waiting for shutdown signal")
		<-ctx.Done()
		return
	}

	amqpClient, err := amqp.NewClient(conf.AMQPURL, conf.AMQPExchange, conf.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(store, entryMirror, conf.MirrorBatchSize)

	// Drain the backlog before consuming live messages.
	logger.Info("Performing startup mirror check...")
	if err := mirrorWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup mirror check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeEntryPosted(gctx, func(msg *amqp.EntryPostedMessage) error {
			return mirrorWorker.HandleEntryPosted(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(conf.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := mirrorWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic mirror scan failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
