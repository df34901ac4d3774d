package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quickedit/internal/database"
	"quickedit/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log, _ := test.NewNullLogger()
	db, err := database.Init(database.Config{Path: filepath.Join(t.TempDir(), "test.db"), Log: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestSessionMemoryRepository_GetMissing(t *testing.T) {
	repo := NewSessionMemoryRepository(openTestDB(t))
	got, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestSessionMemoryRepository_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionMemoryRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &models.SessionMemory{SessionID: "s1", RecentChangesJSON: `[{"file":"a.css"}]`}))
	require.NoError(t, repo.Upsert(ctx, &models.SessionMemory{SessionID: "s1", RecentChangesJSON: `[{"file":"b.css"}]`, ArchitectureNotes: "vite"}))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `[{"file":"b.css"}]`, got.RecentChangesJSON)
	assert.Equal(t, "vite", got.ArchitectureNotes)

	ids, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestSessionMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionMemoryRepository(openTestDB(t))
	require.NoError(t, repo.Upsert(ctx, &models.SessionMemory{SessionID: "s1"}))
	require.NoError(t, repo.Delete(ctx, "s1"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
