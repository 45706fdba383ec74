package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/cache"
	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
)

// countingReader считает обращения к хранилищу.
type countingReader struct {
	records.Reader
	byIDs, byRules int
}

func (r *countingReader) ByIDs(ctx context.Context, ids []int64) ([]*records.Record, error) {
	r.byIDs++
	return r.Reader.ByIDs(ctx, ids)
}

func (r *countingReader) ByRuleIDs(ctx context.Context, ruleIDs []int64) (map[int64][]*records.Record, error) {
	r.byRules++
	return r.Reader.ByRuleIDs(ctx, ruleIDs)
}

func seed(t *testing.T, store *memory.Store, recs ...records.Record) []*records.Record {
	t.Helper()
	out := make([]*records.Record, 0, len(recs))
	err := store.InTx(context.Background(), func(ctx context.Context, tx reputation.Tx) error {
		for i := range recs {
			rec := recs[i]
			rec.EventID = uuid.New()
			if err := tx.CreateRecord(ctx, &rec); err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func newService(store *memory.Store) (*records.Service, *countingReader) {
	reader := &countingReader{Reader: store}
	return records.NewService(reader, cache.New(time.Minute, time.Minute), time.Minute), reader
}

func TestService_ByIDsCaches(t *testing.T) {
	store := memory.NewStore()
	recs := seed(t, store,
		records.Record{UserID: 1, RuleID: 10, EntityID: 100, Change: 10},
		records.Record{UserID: 1, RuleID: 11, EntityID: 101, Change: -2},
	)
	svc, reader := newService(store)

	got, err := svc.ByIDs(context.Background(), []int64{recs[0].ID, recs[1].ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ByIDs(context.Background(), []int64{recs[1].ID, recs[0].ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, reader.byIDs)
}

func TestService_ByRuleIDs(t *testing.T) {
	store := memory.NewStore()
	recs := seed(t, store,
		records.Record{UserID: 1, RuleID: 10, EntityID: 100, Change: 10},
		records.Record{UserID: 2, RuleID: 10, EntityID: 101, Change: 10},
		records.Record{UserID: 1, RuleID: 11, EntityID: 102, Change: -2},
	)
	svc, reader := newService(store)

	groups, err := svc.ByRuleIDs(context.Background(), []int64{10, 11, 12})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Len(t, groups[10], 2)
	assert.Len(t, groups[11], 1)
	assert.Empty(t, groups[12])

	// Второй вызов целиком из кэша, включая пустую группу
	_, err = svc.ByRuleIDs(context.Background(), []int64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, 1, reader.byRules)

	// Члены групп закэшированы при загрузке групп
	_, err = svc.ByIDs(context.Background(), []int64{recs[0].ID, recs[2].ID})
	require.NoError(t, err)
	assert.Zero(t, reader.byIDs)
}

func TestService_ForgetAfterDisable(t *testing.T) {
	store := memory.NewStore()
	recs := seed(t, store, records.Record{UserID: 1, RuleID: 10, EntityID: 100, Change: 10})
	svc, _ := newService(store)

	got, err := svc.ByRuleIDs(context.Background(), []int64{10})
	require.NoError(t, err)
	require.Len(t, got[10], 1)

	var disabled *records.Record
	err = store.InTx(context.Background(), func(ctx context.Context, tx reputation.Tx) error {
		var err error
		disabled, err = tx.DisableLatestRecord(ctx, 1, 100, 10)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, recs[0].ID, disabled.ID)

	svc.Forget(disabled)

	got, err = svc.ByRuleIDs(context.Background(), []int64{10})
	require.NoError(t, err)
	assert.Empty(t, got[10])

	byID, err := svc.ByIDs(context.Background(), []int64{disabled.ID})
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestService_History(t *testing.T) {
	store := memory.NewStore()
	var seeded []records.Record
	for i := 0; i < 25; i++ {
		seeded = append(seeded, records.Record{UserID: 1, RuleID: 10, EntityID: int64(i), Change: 1})
	}
	seeded = append(seeded, records.Record{UserID: 2, RuleID: 10, EntityID: 99, Change: 1})
	seed(t, store, seeded...)
	svc, _ := newService(store)

	got, err := svc.History(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 20)
	assert.Equal(t, int64(24), got[0].EntityID, "новые записи первыми")

	got, err = svc.History(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
