package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/models"
	"quickedit/internal/tests/mocks"
)

func TestMemoryService_LoadEmpty(t *testing.T) {
	svc := NewMemoryService(&mocks.SessionMemoryRepositoryMock{}, 0)
	snap, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	_, err = svc.Load(context.Background(), "  ")
	assert.Error(t, err)
}

func TestMemoryService_RecordEvictsOldest(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService(&mocks.SessionMemoryRepositoryMock{}, 3)

	for i := 0; i < 5; i++ {
		_, err := svc.Record(ctx, "s1", []models.RecentChange{{File: fmt.Sprintf("f%d.css", i), Description: "edit"}})
		require.NoError(t, err)
	}

	snap, err := svc.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, snap.RecentChanges, 3)
	assert.Equal(t, "f2.css", snap.RecentChanges[0].File)
	assert.Equal(t, "f4.css", snap.RecentChanges[2].File)
	assert.False(t, snap.RecentChanges[2].Timestamp.IsZero())
}

func TestMemoryService_RecordKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService(&mocks.SessionMemoryRepositoryMock{}, 10)
	require.NoError(t, svc.Save(ctx, "s1", &models.MemorySnapshot{
		ArchitectureNotes: "vite + react",
		KnownIssues:       []string{"header overlaps on mobile"},
		Preferences:       map[string]string{"language": "pt"},
	}))

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap, err := svc.Record(ctx, "s1", []models.RecentChange{{File: "a.css", Timestamp: stamp}})
	require.NoError(t, err)
	assert.Equal(t, "vite + react", snap.ArchitectureNotes)
	assert.Equal(t, []string{"header overlaps on mobile"}, snap.KnownIssues)
	assert.Equal(t, "pt", snap.Preferences["language"])
	assert.True(t, stamp.Equal(snap.RecentChanges[0].Timestamp))
}

func TestMemoryService_CorruptRecord(t *testing.T) {
	repo := &mocks.SessionMemoryRepositoryMock{
		GetFunc: func(context.Context, string) (*models.SessionMemory, error) {
			return &models.SessionMemory{SessionID: "s1", RecentChangesJSON: "{not json"}, nil
		},
	}
	_, err := NewMemoryService(repo, 5).Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryService_UpsertFailure(t *testing.T) {
	repo := &mocks.SessionMemoryRepositoryMock{
		UpsertFunc: func(context.Context, *models.SessionMemory) error { return errors.New("disk full") },
	}
	_, err := NewMemoryService(repo, 5).Record(context.Background(), "s1", []models.RecentChange{{File: "a.css"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestMemoryService_Clear(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService(&mocks.SessionMemoryRepositoryMock{}, 5)
	_, err := svc.Record(ctx, "s1", []models.RecentChange{{File: "a.css"}})
	require.NoError(t, err)

	sessions, err := svc.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, sessions)

	require.NoError(t, svc.Clear(ctx, "s1"))
	snap, err := svc.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}
