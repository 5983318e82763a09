package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sitescripts/internal/config"
	"sitescripts/internal/digest"
	"sitescripts/internal/fetcher"
	"sitescripts/internal/mailer"
	"sitescripts/internal/model"
	"sitescripts/internal/scheduler"
	"sitescripts/internal/secret"
	"sitescripts/internal/storage"
	"sitescripts/internal/subscriptions"
)

const usage = "Usage: maildigests all|day|week <0-6>\n       maildigests schedule"

func main() {
	daemon := len(os.Args) > 1 && os.Args[1] == "schedule"

	var args config.Args
	if !daemon {
		var err error
		args, err = config.ParseArgs(os.Args[1:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
			os.Exit(1)
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := cfg.RequireDigest(); err != nil {
		log.Error("check config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("initialize", "error", err)
		os.Exit(1)
	}
	defer a.close()

	if daemon {
		log.Info("starting digest scheduler", "hour", cfg.Reports.ScheduleHour)
		scheduler.New(a.run, cfg.Reports.ScheduleHour, log).Run(ctx)
		log.Info("digest scheduler stopped")
		return
	}

	if err := a.run(ctx, args.Interval, args.Weekday); err != nil {
		log.Error("digest run failed", "error", err)
		a.close()
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	pipeline *digest.Pipeline
	fallback *model.DefaultRecipient
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	if cfg.Database.Driver == "sqlite" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory %s: %w", dir, err)
			}
		}
	}

	renderer, err := mailer.NewRenderer()
	if err != nil {
		return nil, err
	}
	transport, err := mailer.NewTransport(ctx, cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}

	signer := secret.New(cfg.Reports.Secret)
	pipeline := digest.NewPipeline(
		digest.NewScanner(store, signer, cfg.Reports.URLRoot, log),
		digest.NewDispatcher(mailer.New(renderer, transport), signer, cfg.Reports.URLRoot, log),
		log,
	)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		fetcher:  fetcher.New(http.DefaultClient),
		pipeline: pipeline,
		fallback: &model.DefaultRecipient{
			URL:         digest.FallbackURL,
			DisplayName: cfg.Reports.DefaultSubscription,
			Address:     cfg.Reports.DefaultRecipient,
		},
	}, nil
}

// run executes one digest run. The registry is reloaded every time.
func (a *app) run(ctx context.Context, interval model.Interval, weekday int) error {
	subs, err := subscriptions.Load(ctx, a.cfg.Reports.SubscriptionsFile, a.fetcher, a.log)
	if err != nil {
		return err
	}

	r := digest.NewRun(interval, weekday, time.Now().UTC(),
		subscriptions.Select(subs, interval, weekday), a.fallback)

	_, err = a.pipeline.Run(ctx, r)
	return err
}

func (a *app) close() {
	_ = a.store.Close()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
