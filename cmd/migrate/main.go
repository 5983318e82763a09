package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"sitescripts/internal/config"
	"sitescripts/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	dsn := flag.String("db", cfg.Database.DSN, "report store path (DATABASE_DSN)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	if cfg.Database.Driver != "sqlite" {
		log.Error("schema of the postgres report store is managed by the report site", "driver", cfg.Database.Driver)
		os.Exit(1)
	}

	if err := migrate(*dsn, flag.Arg(0)); err != nil {
		log.Error("migrate report store", "db", *dsn, "error", err)
		os.Exit(1)
	}
	log.Info("report store migrated", "db", *dsn, "command", flag.Arg(0))
}

func migrate(dsn, command string) error {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	return migrations.Apply(db, command)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, c := range migrations.Commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.Name, c.Help)
	}
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
