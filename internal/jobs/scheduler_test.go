package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/features/processed"
	"serotonyl.ru/reputation-engine/internal/features/users"
	"serotonyl.ru/reputation-engine/internal/jobs"
)

type failing struct{ calls int }

func (f *failing) ResetDailyEarned(context.Context) error {
	f.calls++
	return errors.New("нет соединения")
}

func (f *failing) Purge(context.Context) error {
	f.calls++
	return errors.New("нет соединения")
}

func TestScheduler_RunJobs(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)
	store := memory.NewStore()
	store.PutUser(1, 40, 35)
	old := uuid.New()
	store.MarkProcessedAt(old, now.Add(-10*24*time.Hour))
	store.MarkProcessedAt(uuid.New(), now.Add(-time.Hour))

	s := jobs.NewScheduler(
		users.NewService(store, time.UTC),
		processed.NewService(store, 7*24*time.Hour).WithClock(func() time.Time { return now }),
		jobs.Specs{},
		time.UTC,
	)

	s.RunDailyReset(context.Background())
	s.RunPurge(context.Background())

	u, _ := store.User(1)
	assert.Zero(t, u.ReputationEarnedToday)
	assert.Equal(t, 40, u.Reputation)
	assert.Equal(t, 1, store.ProcessedCount())
}

func TestScheduler_JobErrorsDoNotPanic(t *testing.T) {
	f := &failing{}
	s := jobs.NewScheduler(f, f, jobs.Specs{}, nil)

	assert.NotPanics(t, func() {
		s.RunDailyReset(context.Background())
		s.RunPurge(context.Background())
	})
	assert.Equal(t, 2, f.calls)
}

func TestScheduler_StartRegistersJobs(t *testing.T) {
	f := &failing{}
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.UTC
	}
	s := jobs.NewScheduler(f, f, jobs.Specs{}, loc)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Equal(t, 2, s.Entries())
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	f := &failing{}
	s := jobs.NewScheduler(f, f, jobs.Specs{DailyReset: "каждую полночь"}, time.UTC)

	require.Error(t, s.Start(context.Background()))
}
