package funnel

import (
	"context"
	"log/slog"
	"time"

	"github.com/funnelbot/funnelbot/internal/models"
	"github.com/funnelbot/funnelbot/internal/store"
)

// SessionManager defines the interface for session state persistence. The
// engine owns exactly one session per call; the manager only moves sessions
// in and out of the store.
type SessionManager interface {
	// CreateSession persists a newly started session.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by ID; returns
	// models.ErrSessionNotFound when it does not exist.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// SaveSession persists the session's current state.
	SaveSession(ctx context.Context, session *models.Session) error

	// DeleteSession removes a session at end of life.
	DeleteSession(ctx context.Context, sessionID string) error
}

// StoreSessionManager implements SessionManager using a Store backend.
type StoreSessionManager struct {
	store store.Store
}

// NewStoreSessionManager creates a SessionManager backed by a Store.
func NewStoreSessionManager(st store.Store) *StoreSessionManager {
	slog.Debug("Creating StoreSessionManager")
	return &StoreSessionManager{store: st}
}

// CreateSession persists a new session, stamping creation time.
func (m *StoreSessionManager) CreateSession(ctx context.Context, session *models.Session) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := m.store.SaveSession(*session); err != nil {
		slog.Error("SessionManager.CreateSession: save failed", "error", err, "sessionID", session.ID)
		return err
	}
	slog.Debug("SessionManager.CreateSession: session created", "sessionID", session.ID, "variant", session.Variant)
	return nil
}

// GetSession retrieves a session by ID.
func (m *StoreSessionManager) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := m.store.GetSession(sessionID)
	if err != nil {
		slog.Error("SessionManager.GetSession: lookup failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	if session == nil {
		slog.Debug("SessionManager.GetSession: not found", "sessionID", sessionID)
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// SaveSession persists the session's current state, stamping update time.
func (m *StoreSessionManager) SaveSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now()
	if err := m.store.SaveSession(*session); err != nil {
		slog.Error("SessionManager.SaveSession: save failed", "error", err, "sessionID", session.ID)
		return err
	}
	return nil
}

// DeleteSession removes a session.
func (m *StoreSessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := m.store.DeleteSession(sessionID); err != nil {
		slog.Error("SessionManager.DeleteSession: delete failed", "error", err, "sessionID", sessionID)
		return err
	}
	slog.Info("SessionManager.DeleteSession: session deleted", "sessionID", sessionID)
	return nil
}
