package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quickedit/internal/models"
	"quickedit/internal/repositories"
)

// DefaultMaxRecentChanges caps the rolling recent-changes log.
const DefaultMaxRecentChanges = 20

// MemoryService reads and appends to the per-session edit memory.
type MemoryService interface {
	Load(ctx context.Context, sessionID string) (*models.MemorySnapshot, error)
	// Record appends changes to the session's log, evicting the oldest
	// entries beyond the cap, and returns the stored snapshot.
	Record(ctx context.Context, sessionID string, changes []models.RecentChange) (*models.MemorySnapshot, error)
	Save(ctx context.Context, sessionID string, snapshot *models.MemorySnapshot) error
	Clear(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

type memoryService struct {
	repo      repositories.SessionMemoryRepository
	maxRecent int
	now       func() time.Time
}

func NewMemoryService(repo repositories.SessionMemoryRepository, maxRecent int) MemoryService {
	if maxRecent <= 0 {
		maxRecent = DefaultMaxRecentChanges
	}
	return &memoryService{repo: repo, maxRecent: maxRecent, now: time.Now}
}

func (s *memoryService) Load(ctx context.Context, sessionID string) (*models.MemorySnapshot, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	record, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session memory %s: %w", sessionID, err)
	}
	if record == nil {
		return &models.MemorySnapshot{}, nil
	}
	return decodeMemory(record)
}

func (s *memoryService) Record(ctx context.Context, sessionID string, changes []models.RecentChange) (*models.MemorySnapshot, error) {
	snapshot, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, ch := range changes {
		if ch.Timestamp.IsZero() {
			ch.Timestamp = now
		}
		snapshot.RecentChanges = append(snapshot.RecentChanges, ch)
	}
	if over := len(snapshot.RecentChanges) - s.maxRecent; over > 0 {
		snapshot.RecentChanges = append([]models.RecentChange(nil), snapshot.RecentChanges[over:]...)
	}
	if err := s.Save(ctx, sessionID, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *memoryService) Save(ctx context.Context, sessionID string, snapshot *models.MemorySnapshot) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	record, err := encodeMemory(sessionID, snapshot)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("save session memory %s: %w", sessionID, err)
	}
	return nil
}

func (s *memoryService) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("clear session memory %s: %w", sessionID, err)
	}
	return nil
}

func (s *memoryService) Sessions(ctx context.Context) ([]string, error) {
	return s.repo.ListSessions(ctx)
}

func decodeMemory(record *models.SessionMemory) (*models.MemorySnapshot, error) {
	snapshot := &models.MemorySnapshot{ArchitectureNotes: record.ArchitectureNotes}
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"recent changes", record.RecentChangesJSON, &snapshot.RecentChanges},
		{"known issues", record.KnownIssuesJSON, &snapshot.KnownIssues},
		{"preferences", record.PreferencesJSON, &snapshot.Preferences},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s for session %s: %w", f.name, record.SessionID, err)
		}
	}
	return snapshot, nil
}

func encodeMemory(sessionID string, snapshot *models.MemorySnapshot) (*models.SessionMemory, error) {
	if snapshot == nil {
		snapshot = &models.MemorySnapshot{}
	}
	record := &models.SessionMemory{SessionID: sessionID, ArchitectureNotes: snapshot.ArchitectureNotes}
	var err error
	if record.RecentChangesJSON, err = marshalField(snapshot.RecentChanges); err != nil {
		return nil, err
	}
	if record.KnownIssuesJSON, err = marshalField(snapshot.KnownIssues); err != nil {
		return nil, err
	}
	if record.PreferencesJSON, err = marshalField(snapshot.Preferences); err != nil {
		return nil, err
	}
	return record, nil
}

func marshalField(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode session memory: %w", err)
	}
	if string(b) == "null" {
		return "", nil
	}
	return string(b), nil
}
