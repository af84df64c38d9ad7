package store

import (
	"sync"

	"github.com/funnelbot/funnelbot/internal/models"
)

// InMemoryStore is a map-backed store used in tests and as a throwaway
// backend. It is safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	payments []models.PaymentRecord
	meetings []models.MeetingRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

// SaveSession inserts or replaces a session snapshot.
func (s *InMemoryStore) SaveSession(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// GetSession returns the session with the given ID, or nil when absent.
func (s *InMemoryStore) GetSession(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// DeleteSession removes a session.
func (s *InMemoryStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// AddPaymentRecord appends a payment record.
func (s *InMemoryStore) AddPaymentRecord(record models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, record)
	return nil
}

// AddMeetingRecord appends a meeting record.
func (s *InMemoryStore) AddMeetingRecord(record models.MeetingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append(s.meetings, record)
	return nil
}

// PaymentRecords returns a copy of the appended payment records, for tests.
func (s *InMemoryStore) PaymentRecords() []models.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PaymentRecord, len(s.payments))
	copy(out, s.payments)
	return out
}

// MeetingRecords returns a copy of the appended meeting records, for tests.
func (s *InMemoryStore) MeetingRecords() []models.MeetingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MeetingRecord, len(s.meetings))
	copy(out, s.meetings)
	return out
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
