package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"movie-notifier/config"
	"movie-notifier/scraper/movies"
	"movie-notifier/services"
	"movie-notifier/storage"
	"movie-notifier/telegram"
	"movie-notifier/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("=== Movie Notifier starting ===")

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		logger.Error("Failed to load source catalog: %v", err)
		os.Exit(1)
	}

	logger.Info("Config — sources: %d | ledger: %s | interval: %s | startup delay: %s",
		len(sources), cfg.LedgerBackend, cfg.PollInterval, cfg.StartupDelay)

	ledger, err := openLedger(cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger: %v", err)
		os.Exit(1)
	}
	defer ledger.Close()

	var notifyLog *storage.NotifyLog
	if cfg.NotifyLogPath != "" {
		notifyLog, err = storage.NewNotifyLog(cfg.NotifyLogPath)
		if err != nil {
			logger.Error("Failed to open notification audit log: %v", err)
			os.Exit(1)
		}
		defer notifyLog.Close()
	}

	client := telegram.NewClient(cfg.BotToken, logger)
	fetcher := movies.NewFetcher(cfg.FetchTimeout, cfg.RateLimitMs, logger)

	poller := services.NewPoller(services.PollerConfig{
		Sources:    sources,
		Fetcher:    fetcher,
		Parser:     movies.NewListingParser(logger),
		Enricher:   movies.NewEnricher(fetcher, logger),
		Formatter:  services.NewFormatter(logger),
		Ledger:     ledger,
		Dispatcher: client,
		NotifyLog:  notifyLog,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("Failed to create scheduler: %v", err)
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.PollInterval),
		gocron.NewTask(func() {
			poller.RunAll(ctx, cfg.ChatID)
		}),
		gocron.WithName("check-new-movies"),
		gocron.WithStartAt(gocron.WithStartDateTime(time.Now().Add(cfg.StartupDelay))),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to schedule poll job: %v", err)
		os.Exit(1)
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn("Scheduler shutdown: %v", err)
		}
	}()

	bot := telegram.NewBot(client, poller, sources, logger)
	logger.Info("Bot is running...")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot loop terminated: %v", err)
		os.Exit(1)
	}

	logger.Info("Shutting down.")
}

// openLedger selects the dedup backend from configuration: the
// networked PostgreSQL store or the embedded SQLite file.
func openLedger(cfg *config.Config, logger *utils.Logger) (storage.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		return storage.NewPostgresLedger(cfg.DSN(), logger)
	case config.BackendSQLite:
		return storage.NewSQLiteLedger(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}
