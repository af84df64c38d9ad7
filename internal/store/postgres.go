// This file implements the Postgres-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/funnelbot/funnelbot/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions and records in PostgreSQL, for
// deployments where multiple hosts share one database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store from a postgres:// URL or
// key=value DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresStore failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("PostgresStore ready")
	return &PostgresStore{db: db}, nil
}

// SaveSession inserts or replaces a session snapshot.
func (s *PostgresStore) SaveSession(session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		session.ID, string(data), session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given ID, or nil when absent.
func (s *PostgresStore) GetSession(sessionID string) (*models.Session, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = $1`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session.
func (s *PostgresStore) DeleteSession(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AddPaymentRecord appends a payment record.
func (s *PostgresStore) AddPaymentRecord(record models.PaymentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO payment_records (name, package, payment_method, amount, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		record.Name, record.Package, record.PaymentMethod, record.Amount, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

// AddMeetingRecord appends a meeting record.
func (s *PostgresStore) AddMeetingRecord(record models.MeetingRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO meeting_records (name, brand, meeting_date, meeting_time, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		record.Name, record.Brand, record.Date, record.Time, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meeting record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
