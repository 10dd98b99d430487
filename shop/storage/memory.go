package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	sessions  map[int64]Session
	customers map[int64]string
}

// NewMemory returns a process-local Store for development and tests.
func NewMemory() Store {
	return &memoryStore{
		sessions:  make(map[int64]Session),
		customers: make(map[int64]string),
	}
}

func (m *memoryStore) GetState(ctx context.Context, chatID int64) (State, bool, error) {
	s, ok, err := m.GetSession(ctx, chatID)
	return s.State, ok, err
}

func (m *memoryStore) SetState(_ context.Context, chatID int64, state State) error {
	if !state.Valid() {
		return ValidateSession(Session{State: state})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[chatID]
	s.State = state
	m.sessions[chatID] = s
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, chatID int64) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	if !ok || !s.State.Valid() {
		return Session{}, false, nil
	}
	return s, true, nil
}

func (m *memoryStore) SetSession(_ context.Context, chatID int64, s Session) error {
	if err := ValidateSession(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
	return nil
}

func (m *memoryStore) GetCustomerID(_ context.Context, userID int64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.customers[userID]
	return id, ok, nil
}

func (m *memoryStore) SetCustomerID(_ context.Context, userID int64, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[userID]; !ok {
		m.customers[userID] = customerID
	}
	return nil
}

func (m *memoryStore) Close() error { return nil }
