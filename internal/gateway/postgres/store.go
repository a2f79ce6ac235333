// Package postgres implements the remote ledger contract on PostgreSQL.
// It is the reference system of record the client core syncs against.
// Deliberately, no call spans more than one SQL statement per row: the
// client must survive the same lack of multi-row atomicity it would face
// against a hosted backend.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

const defaultSessionTTL = 24 * time.Hour

// Store implements gateway.RemoteLedger backed by PostgreSQL, with
// bcrypt-hashed credentials and a JWT-based session.
type Store struct {
	db         *sql.DB
	log        *slog.Logger
	secret     []byte
	sessionTTL time.Duration

	mu           sync.Mutex
	sessionToken string
}

// New constructs a Store. secret signs session tokens; sessionTTL of 0
// falls back to 24h.
func New(db *sql.DB, log *slog.Logger, secret []byte, sessionTTL time.Duration) *Store {
	if log == nil {
		log = slog.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	return &Store{
		db:         db,
		log:        log,
		secret:     secret,
		sessionTTL: sessionTTL,
	}
}

// HealthCheck pings the underlying database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.db == nil {
		return sql.ErrConnDone
	}
	return s.db.PingContext(ctx)
}
