// Package migrations embeds the report store schema and applies it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Dialect is the goose dialect of the embedded migrations.
const Dialect = "sqlite3"

// ErrUnknownCommand is returned by Apply for unsupported commands.
var ErrUnknownCommand = errors.New("unknown migrate command")

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Command is one schema operation offered by cmd/migrate.
type Command struct {
	Name string
	Help string
	run  func(db *sql.DB, dir string) error
}

// Commands lists the supported schema operations in help order.
var Commands = []Command{
	{Name: "up", Help: "apply every pending migration", run: func(db *sql.DB, dir string) error { return goose.Up(db, dir) }},
	{Name: "up-one", Help: "apply the next pending migration", run: func(db *sql.DB, dir string) error { return goose.UpByOne(db, dir) }},
	{Name: "down", Help: "roll back the latest migration", run: func(db *sql.DB, dir string) error { return goose.Down(db, dir) }},
	{Name: "status", Help: "list applied and pending migrations", run: func(db *sql.DB, dir string) error { return goose.Status(db, dir) }},
	{Name: "version", Help: "print the current schema version", run: func(db *sql.DB, dir string) error { return goose.Version(db, dir) }},
	{Name: "reset", Help: "roll back every migration", run: func(db *sql.DB, dir string) error { return goose.Reset(db, dir) }},
}

// Run applies all pending migrations to the report store quietly.
func Run(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	if err := Apply(db, "up"); err != nil {
		return fmt.Errorf("apply reports schema: %w", err)
	}
	return nil
}

// Apply runs the named command against db.
func Apply(db *sql.DB, name string) error {
	var cmd *Command
	for i := range Commands {
		if Commands[i].Name == name {
			cmd = &Commands[i]
			break
		}
	}
	if cmd == nil {
		return fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}

	goose.SetBaseFS(FS)
	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := cmd.run(db, "."); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
