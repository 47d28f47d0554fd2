package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrUnavailable is returned when a connection could not be acquired
// from the pool within the configured timeout. It is reported to
// callers as a generic server fault, never queued indefinitely.
var ErrUnavailable = errors.New("store unavailable")

type DB struct {
	*sql.DB
	acquireTimeout time.Duration
}

// New opens a Postgres connection pool. maxConns caps concurrent
// connections; acquireTimeout bounds how long a single operation may
// wait for a connection (and for the query itself).
func New(host, port, user, password, dbname string, maxConns int, acquireTimeout time.Duration) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(30 * time.Second)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, acquireTimeout: acquireTimeout}, nil
}

// opContext derives a per-operation context carrying the acquisition
// deadline. database/sql waits for a free pool connection until the
// context expires, so the deadline doubles as the pool acquire timeout.
func (db *DB) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.acquireTimeout)
}

// mapError converts pool-exhaustion timeouts to ErrUnavailable and
// passes everything else through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// MigrateUsers creates the identity service schema if it is missing.
// Proper migration tooling is out of scope; bootstrap mirrors the
// deployment model of one schema per service.
func (db *DB) MigrateUsers() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrateTasks creates the task service schema if it is missing.
func (db *DB) MigrateTasks() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(50) DEFAULT 'pending',
		user_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
