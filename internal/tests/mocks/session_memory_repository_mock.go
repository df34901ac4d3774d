package mocks

import (
	"context"
	"sync"

	"quickedit/internal/models"
)

// SessionMemoryRepositoryMock keeps records in memory unless a func field
// overrides the behaviour.
type SessionMemoryRepositoryMock struct {
	GetFunc          func(ctx context.Context, sessionID string) (*models.SessionMemory, error)
	UpsertFunc       func(ctx context.Context, memory *models.SessionMemory) error
	DeleteFunc       func(ctx context.Context, sessionID string) error
	ListSessionsFunc func(ctx context.Context) ([]string, error)

	mu      sync.Mutex
	records map[string]models.SessionMemory
}

func (m *SessionMemoryRepositoryMock) Get(ctx context.Context, sessionID string) (*models.SessionMemory, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *SessionMemoryRepositoryMock) Upsert(ctx context.Context, memory *models.SessionMemory) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, memory)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]models.SessionMemory)
	}
	m.records[memory.SessionID] = *memory
	return nil
}

func (m *SessionMemoryRepositoryMock) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	return nil
}

func (m *SessionMemoryRepositoryMock) ListSessions(ctx context.Context) ([]string, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	return ids, nil
}
