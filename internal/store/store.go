// Package store provides persistence for the completion ledger.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/shsh-quiz/internal/domain"
)

// Supported ledger drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Repository defines the interface for persisting completion records.
type Repository interface {
	// RecordCompletion stores c unless a record for the same course and lab
	// exists already. The first completion wins.
	RecordCompletion(ctx context.Context, c *domain.Completion) error

	// GetCompletion returns the record for a lab, or nil if there is none.
	GetCompletion(ctx context.Context, courseID, labID string) (*domain.Completion, error)

	// ListCompletions returns all records ordered by completion time.
	ListCompletions(ctx context.Context) ([]*domain.Completion, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Options configures Open.
type Options struct {
	Driver string
	// Path is the SQLite database file.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxRetries and RetryBaseDelay control retries on SQLITE_BUSY.
	// Zero values use the defaults.
	MaxRetries     int
	RetryBaseDelay time.Duration
}

func (o Options) retry() retryPolicy {
	p := defaultRetryPolicy
	if o.MaxRetries > 0 {
		p.maxRetries = o.MaxRetries
	}
	if o.RetryBaseDelay > 0 {
		p.baseDelay = o.RetryBaseDelay
	}
	return p
}

// Open returns the repository for opts.Driver, or nil for DriverNone.
func Open(opts Options) (Repository, error) {
	var (
		s   *SQLStore
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		s, err = NewSQLite(opts.Path)
	case DriverPostgres:
		s, err = NewPostgres(opts.DSN)
	case DriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ledger driver: %s", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	s.retry = opts.retry()
	return s, nil
}
