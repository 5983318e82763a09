// Package storage defines the report store interface and its implementations.
package storage

import (
	"context"
	"fmt"
	"time"

	"sitescripts/internal/model"
)

// Storage is the interface for report persistence.
type Storage interface {
	SaveReport(ctx context.Context, r *model.StoredReport) error
	ListReportsSince(ctx context.Context, since time.Time) ([]model.StoredReport, error)

	Close() error
}

// Open returns the store selected by driver: "sqlite" or "postgres".
func Open(driver, dsn string) (Storage, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(dsn)
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
