// Package store provides storage backends for funnelbot.
//
// Sessions are persisted as JSON state blobs keyed by session ID; payment
// and meeting records are insert-only rows. SQLite is the default backend,
// Postgres is selected by DSN, and the in-memory store backs tests.
package store

import (
	"strings"

	"github.com/funnelbot/funnelbot/internal/models"
)

// Store defines the persistence operations funnelbot needs.
type Store interface {
	// SaveSession inserts or replaces a session snapshot.
	SaveSession(session models.Session) error

	// GetSession returns the session with the given ID, or nil when absent.
	GetSession(sessionID string) (*models.Session, error)

	// DeleteSession removes a session. Deleting an absent session is not an
	// error.
	DeleteSession(sessionID string) error

	// AddPaymentRecord appends a payment record. Records are never updated
	// or deleted.
	AddPaymentRecord(record models.PaymentRecord) error

	// AddMeetingRecord appends a meeting record. Records are never updated
	// or deleted.
	AddMeetingRecord(record models.MeetingRecord) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for persistent stores.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// postgres:// URL or key=value string for Postgres.
	DSN string
}

// Option defines a configuration option for a store.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else, which is treated as a file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
