package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/vms-release-bot/internal/compose"
	"github.com/yourorg/vms-release-bot/internal/config"
	"github.com/yourorg/vms-release-bot/internal/db"
	"github.com/yourorg/vms-release-bot/internal/logging"
	"github.com/yourorg/vms-release-bot/internal/metrics"
	"github.com/yourorg/vms-release-bot/internal/releases"
	"github.com/yourorg/vms-release-bot/internal/scheduler"
	"github.com/yourorg/vms-release-bot/internal/telegram"
	"github.com/yourorg/vms-release-bot/internal/watcher"
)

const usage = `Usage:
  bot [run]                          run the release notifier
  bot list [-released] [-type T] P   print the release feed of product P`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Env, cfg.LogLevel)

	// Create context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	args := os.Args[1:]
	command := "run"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "run":
		err = run(ctx, logger, cfg)
	case "list":
		err = list(ctx, logger, cfg, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func newFeedClient(logger *slog.Logger, cfg *config.Config) *releases.Client {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return releases.New(httpClient, releases.WithBaseURL(cfg.FeedBaseURL), releases.WithLogger(logger))
}

// list fetches a single feed and prints it
func list(ctx context.Context, logger *slog.Logger, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	releasedOnly := fs.Bool("released", false, "only show published releases")
	publicationType := fs.String("type", "", "only show this publication type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New(usage)
	}

	rs, err := newFeedClient(logger, cfg).GetReleases(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	if *releasedOnly {
		rs = releases.Released(rs)
	}
	if *publicationType != "" {
		var filtered []releases.Release
		for _, r := range rs {
			if r.PublicationType == *publicationType {
				filtered = append(filtered, r)
			}
		}
		rs = filtered
	}

	fmt.Print(compose.BuildTable(rs, compose.Options{TimeZone: cfg.TimeZone}))
	if latest, ok := releases.Latest(rs, *publicationType); ok {
		fmt.Printf("\nLatest released: %s (%s)\n", latest.Version, latest.PublicationType)
	}
	return nil
}

// run starts the long-running notifier
func run(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("Starting VMS release bot")

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store := db.NewStore(database)
	seedStore(ctx, logger, store, cfg)

	feed := newFeedClient(logger, cfg)

	sender, err := telegram.NewSender(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create Telegram sender: %w", err)
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, logger, cfg.MetricsAddr, m)
	}

	w := watcher.New(logger, store, feed, sender, m, watcher.Options{
		PublicationTypes: cfg.PublicationTypes,
		TimeZone:         cfg.TimeZone,
	})
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	releaseScheduler := scheduler.New(logger, interval, w.Job)
	releaseScheduler.Start(ctx)

	// Bot commands are only served to allowed users
	if len(cfg.AllowedUserIDs) > 0 {
		bot, err := telegram.NewBot(cfg.TelegramToken, telegram.NewStoreAdapter(store), releaseScheduler, feed, cfg.AllowedUserIDs, cfg.TimeZone, logger)
		if err != nil {
			logger.Error("Failed to create bot", "error", err)
		} else {
			logger.Info("Bot commands enabled", "allowed_users", cfg.AllowedUserIDs)
			go bot.StartPolling(ctx)
		}
	}

	logger.Info("Bot started successfully",
		"interval", interval,
		"products", cfg.Products,
		"commands_enabled", len(cfg.AllowedUserIDs) > 0)

	<-ctx.Done()
	logger.Info("Shutting down...")

	releaseScheduler.Stop()
	logger.Info("Bot stopped")
	return nil
}

// seedStore adds the configured products and default chat
func seedStore(ctx context.Context, logger *slog.Logger, store *db.Store, cfg *config.Config) {
	for _, product := range cfg.Products {
		if err := store.AddProduct(ctx, product); err != nil {
			logger.Warn("Failed to add product from environment", "product", product, "error", err)
		}
	}

	if cfg.DefaultChatID != 0 {
		if err := store.AddChat(ctx, cfg.DefaultChatID, "Default Chat"); err != nil {
			logger.Warn("Failed to add default chat", "chat_id", cfg.DefaultChatID, "error", err)
		}
	}
}

func serveMetrics(ctx context.Context, logger *slog.Logger, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", "error", err)
	}
}
