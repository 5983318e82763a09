package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver registration.

	"sitescripts/internal/model"
)

// Postgres implements Storage on the production reports database.
// The schema is owned by the report site and is not migrated here.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to the database at dsn.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresFromDB(db), nil
}

// NewPostgresFromDB wraps an existing connection pool.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// SaveReport upserts a report. A zero CreatedAt is set to now.
func (p *Postgres) SaveReport(ctx context.Context, r *model.StoredReport) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO reports (guid, dump, ctime) VALUES ($1, $2, $3)
		 ON CONFLICT (guid) DO UPDATE SET dump = EXCLUDED.dump, ctime = EXCLUDED.ctime`,
		r.GUID, r.Dump, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReportsSince returns reports created at or after since, oldest first.
func (p *Postgres) ListReportsSince(ctx context.Context, since time.Time) ([]model.StoredReport, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT guid, dump, ctime FROM reports WHERE ctime >= $1 ORDER BY ctime, guid`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []model.StoredReport
	for rows.Next() {
		var r model.StoredReport
		if err := rows.Scan(&r.GUID, &r.Dump, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
