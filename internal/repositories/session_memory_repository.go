package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quickedit/internal/models"
)

type SessionMemoryRepository interface {
	// Get returns nil, nil when the session has no memory yet.
	Get(ctx context.Context, sessionID string) (*models.SessionMemory, error)
	Upsert(ctx context.Context, memory *models.SessionMemory) error
	Delete(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]string, error)
}

type sessionMemoryRepository struct {
	db *gorm.DB
}

func NewSessionMemoryRepository(db *gorm.DB) SessionMemoryRepository {
	return &sessionMemoryRepository{db: db}
}

func (r *sessionMemoryRepository) Get(ctx context.Context, sessionID string) (*models.SessionMemory, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	var memory models.SessionMemory
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&memory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &memory, nil
}

// Upsert replaces the stored memory for the session. Concurrent writers for
// one session resolve as last write wins.
func (r *sessionMemoryRepository) Upsert(ctx context.Context, memory *models.SessionMemory) error {
	if memory == nil || memory.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"architecture_notes",
			"recent_changes_json",
			"known_issues_json",
			"preferences_json",
			"updated_at",
		}),
	}).Create(memory).Error
}

func (r *sessionMemoryRepository) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.SessionMemory{}).Error
}

func (r *sessionMemoryRepository) ListSessions(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.SessionMemory{}).Order("updated_at desc").Pluck("session_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
