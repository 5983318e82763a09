package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"sitescripts/internal/authkeys"
	"sitescripts/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := cfg.RequireHgAuth(); err != nil {
		log.Error("check config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := generate(ctx, cfg.HgAuth, log); err != nil {
		log.Error("generate authorized keys", "error", err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, cfg config.HgAuth, log *slog.Logger) error {
	data, err := authkeys.Archive(ctx, cfg.Repository)
	if err != nil {
		return err
	}

	reg, err := authkeys.Parse(bytes.NewReader(data), log)
	if err != nil {
		return err
	}

	if err := writeFile(cfg.File, reg); err != nil {
		return err
	}

	log.Info("authorized keys written", "file", cfg.File, "users", len(reg.Users))
	return nil
}

// writeFile replaces path atomically so sshd never reads a partial file.
func writeFile(path string, reg *authkeys.Registry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := reg.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
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
