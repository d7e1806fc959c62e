package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/shsh-quiz/internal/domain"
	"github.com/ashureev/shsh-quiz/internal/shared"
	_ "modernc.org/sqlite"
)

type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

var defaultRetryPolicy = retryPolicy{maxRetries: 3, baseDelay: 50 * time.Millisecond}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS completions (
		course_id TEXT NOT NULL,
		lab_id TEXT NOT NULL,
		client_id TEXT NOT NULL DEFAULT '',
		marker TEXT NOT NULL,
		completed_at BIGINT NOT NULL,
		PRIMARY KEY (course_id, lab_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_completed_at ON completions(completed_at)`,
}

// SQLStore implements Repository on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
	retry  retryPolicy
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, DriverSQLite)
}

func newSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, retry: defaultRetryPolicy}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordCompletion inserts c if no record exists for its lab.
// Retries with exponential backoff on SQLITE_BUSY.
func (s *SQLStore) RecordCompletion(ctx context.Context, c *domain.Completion) error {
	query := s.rebind(`
		INSERT INTO completions (course_id, lab_id, client_id, marker, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (course_id, lab_id) DO NOTHING`)

	var err error
	for i := 0; i < s.retry.maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, query,
			c.CourseID, c.LabID, c.ClientID, c.Marker, c.CompletedAt.Unix(),
		)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == s.retry.maxRetries-1 {
			break
		}
		delay := s.retry.baseDelay * time.Duration(1<<i) // exponential backoff
		slog.Debug("RecordCompletion failed with SQLITE_BUSY, retrying",
			"course", c.CourseID,
			"lab", c.LabID,
			"attempt", i+1,
			"delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("record completion: %w", ctx.Err())
		}
	}
	return fmt.Errorf("record completion: %w", err)
}

// GetCompletion retrieves the record for a lab.
func (s *SQLStore) GetCompletion(ctx context.Context, courseID, labID string) (*domain.Completion, error) {
	query := s.rebind(`
		SELECT course_id, lab_id, client_id, marker, completed_at
		FROM completions WHERE course_id = ? AND lab_id = ?`)

	c, err := scanCompletion(s.db.QueryRowContext(ctx, query, courseID, labID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan completion row: %w", err)
	}
	return c, nil
}

// ListCompletions returns every record, oldest first.
func (s *SQLStore) ListCompletions(ctx context.Context) ([]*domain.Completion, error) {
	query := `
		SELECT course_id, lab_id, client_id, marker, completed_at
		FROM completions ORDER BY completed_at, course_id, lab_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close completion rows", "error", closeErr)
		}
	}()

	var out []*domain.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompletion(row rowScanner) (*domain.Completion, error) {
	var c domain.Completion
	var completedAt int64
	if err := row.Scan(&c.CourseID, &c.LabID, &c.ClientID, &c.Marker, &completedAt); err != nil {
		return nil, err
	}
	c.CompletedAt = time.Unix(completedAt, 0)
	return &c, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
