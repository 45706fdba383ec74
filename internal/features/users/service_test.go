package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

type failingResetter struct{ err error }

func (f failingResetter) ResetDailyEarned(context.Context) (int64, error) { return 0, f.err }

func TestResetDailyEarned(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(1, 30, 25)
	store.PutUser(2, 5, 0)
	store.PutUser(3, 1, 200)

	svc := users.NewService(store, time.UTC)
	require.NoError(t, svc.ResetDailyEarned(context.Background()))

	for _, id := range []int64{1, 2, 3} {
		u, ok := store.User(id)
		require.True(t, ok)
		assert.Zero(t, u.ReputationEarnedToday, "user %d", id)
	}

	// Репутация не меняется
	u, _ := store.User(1)
	assert.Equal(t, 30, u.Reputation)
}

func TestResetDailyEarned_Idempotent(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(1, 30, 25)
	svc := users.NewService(store, time.UTC)

	require.NoError(t, svc.ResetDailyEarned(context.Background()))
	require.NoError(t, svc.ResetDailyEarned(context.Background()))

	affected, err := store.ResetDailyEarned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestResetDailyEarned_Error(t *testing.T) {
	boom := errors.New("нет соединения")
	svc := users.NewService(failingResetter{err: boom}, time.UTC)

	err := svc.ResetDailyEarned(context.Background())
	require.ErrorIs(t, err, boom)
}
