package processed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/features/processed"
)

func TestPurge_UsesRetentionWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()

	old := uuid.New()
	edge := uuid.New()
	fresh := uuid.New()
	store.MarkProcessedAt(old, now.Add(-8*24*time.Hour))
	store.MarkProcessedAt(edge, now.Add(-7*24*time.Hour))
	store.MarkProcessedAt(fresh, now.Add(-time.Hour))

	svc := processed.NewService(store, 7*24*time.Hour).WithClock(func() time.Time { return now })
	require.NoError(t, svc.Purge(context.Background()))

	ctx := context.Background()
	gone, _ := store.IsProcessed(ctx, old)
	kept, _ := store.IsProcessed(ctx, edge)
	recent, _ := store.IsProcessed(ctx, fresh)
	assert.False(t, gone)
	assert.True(t, kept, "граница окна не удаляется")
	assert.True(t, recent)
}

func TestPurgeOlderThan(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	for i := 1; i <= 5; i++ {
		store.MarkProcessedAt(uuid.New(), now.Add(-time.Duration(i)*time.Hour))
	}

	svc := processed.NewService(store, 0)
	deleted, err := svc.PurgeOlderThan(context.Background(), now.Add(-150*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 2, store.ProcessedCount())

	// Повторный запуск ничего не удаляет
	deleted, err = svc.PurgeOlderThan(context.Background(), now.Add(-150*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
