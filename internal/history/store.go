// Package history persists published reviews so operators can audit what the
// reviewer decided and when. Implementations exist for SQLite (default) and
// MySQL.
package history

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Store is the review-history storage interface.
type Store interface {
	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	// Record persists one published review and returns its row ID.
	Record(ctx context.Context, rec models.ReviewRecord) (int64, error)

	// List returns the most recent reviews, newest first. repository filters
	// by repository key when non-empty; limit <= 0 means a default of 50.
	List(ctx context.Context, repository string, limit int) ([]models.ReviewRecord, error)

	// LastForPR returns the most recent review of one pull request, or nil
	// when it was never reviewed.
	LastForPR(ctx context.Context, repository string, pullRequest int) (*models.ReviewRecord, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error

	// Driver returns the backend name: "sqlite" or "mysql".
	Driver() string
}

const defaultListLimit = 50

// New returns a Store implementation matching cfg.Driver.
// SQLite is the default when driver is empty.
func New(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported history driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}
