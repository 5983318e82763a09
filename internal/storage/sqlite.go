package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"sitescripts/internal/model"
	"sitescripts/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveReport inserts or replaces a report. A zero CreatedAt is set to now.
func (s *SQLite) SaveReport(ctx context.Context, r *model.StoredReport) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (guid, dump, ctime) VALUES (?, ?, ?)`,
		r.GUID, r.Dump, r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReportsSince returns reports created at or after since, oldest first.
func (s *SQLite) ListReportsSince(ctx context.Context, since time.Time) ([]model.StoredReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid, dump, ctime FROM reports WHERE ctime >= ? ORDER BY ctime, guid`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []model.StoredReport
	for rows.Next() {
		var r model.StoredReport
		var created string
		if err := rows.Scan(&r.GUID, &r.Dump, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
