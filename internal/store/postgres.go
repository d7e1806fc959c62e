package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

// NewPostgres creates a PostgreSQL-backed repository using the pgx driver.
func NewPostgres(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN cannot be empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, DriverPostgres)
}
