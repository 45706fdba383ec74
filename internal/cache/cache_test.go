package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/cache"
)

type item struct {
	ID   int64
	Name string
}

func itemKey(id int64) string { return fmt.Sprintf("item:%d", id) }
func itemID(i item) int64     { return i.ID }

// fakeDB — источник данных с подсчётом запрошенных id.
type fakeDB struct {
	items   map[int64]item
	calls   int
	fetched []int64
}

func (f *fakeDB) fetch(_ context.Context, ids []int64) ([]item, error) {
	f.calls++
	f.fetched = append(f.fetched, ids...)
	var out []item
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func names(items []item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	sort.Strings(out)
	return out
}

func TestGetByIDs_PartialHitFetchesOnlyMisses(t *testing.T) {
	ctx := context.Background()
	c := cache.New(time.Minute, time.Minute)
	db := &fakeDB{items: map[int64]item{1: {1, "a"}, 2: {2, "b"}, 3: {3, "c"}}}

	c.Set(itemKey(1), item{1, "a"}, time.Minute)

	got, err := cache.GetByIDsOrFetchAndCache(ctx, c, itemKey, []int64{1, 2, 3}, itemID, db.fetch, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, names(got))
	assert.Equal(t, 1, db.calls)
	assert.ElementsMatch(t, []int64{2, 3}, db.fetched)

	// Второй вызов целиком из кэша
	got, err = cache.GetByIDsOrFetchAndCache(ctx, c, itemKey, []int64{3, 2, 1}, itemID, db.fetch, time.Minute)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, db.calls)
}

func TestGetByIDs_DuplicatesAndMissingIDs(t *testing.T) {
	ctx := context.Background()
	c := cache.New(time.Minute, time.Minute)
	db := &fakeDB{items: map[int64]item{1: {1, "a"}}}

	got, err := cache.GetByIDsOrFetchAndCache(ctx, c, itemKey, []int64{1, 1, 42}, itemID, db.fetch, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, names(got))
	assert.ElementsMatch(t, []int64{1, 42}, db.fetched)
}

func TestGetByIDs_IgnoresUnrequestedRows(t *testing.T) {
	ctx := context.Background()
	c := cache.New(time.Minute, time.Minute)
	fetch := func(_ context.Context, _ []int64) ([]item, error) {
		return []item{{1, "a"}, {1, "a-dup"}, {7, "extra"}}, nil
	}

	got, err := cache.GetByIDsOrFetchAndCache(ctx, c, itemKey, []int64{1}, itemID, fetch, time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)

	_, cached := c.Get(itemKey(7))
	assert.False(t, cached)
}

func TestGetByIDs_FetchError(t *testing.T) {
	c := cache.New(time.Minute, time.Minute)
	boom := errors.New("db down")
	fetch := func(_ context.Context, _ []int64) ([]item, error) { return nil, boom }

	_, err := cache.GetByIDsOrFetchAndCache(context.Background(), c, itemKey, []int64{1}, itemID, fetch, time.Minute)
	assert.ErrorIs(t, err, boom)
}

func groupKey(id int64) string { return fmt.Sprintf("group:%d", id) }

func parseGroup(v any) ([]int64, bool) {
	ids, ok := v.([]int64)
	return ids, ok
}

func TestGetGrouped_CachesGroupsIncludingEmpty(t *testing.T) {
	ctx := context.Background()
	c := cache.New(time.Minute, time.Minute)
	calls := 0
	var requested []int64
	fetch := func(_ context.Context, outer []int64) (map[int64][]int64, error) {
		calls++
		requested = append(requested, outer...)
		return map[int64][]int64{10: {100, 101}}, nil
	}

	c.Set(groupKey(30), []int64{300}, time.Minute)

	groups, err := cache.GetGroupedByOuterIDOrFetchAndCache(ctx, c, []int64{10, 20, 30, 10}, groupKey, parseGroup, fetch, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []int64{100, 101}, groups[10])
	assert.Empty(t, groups[20])
	assert.Contains(t, groups, int64(20))
	assert.Equal(t, []int64{300}, groups[30])
	assert.Equal(t, 1, calls)
	assert.ElementsMatch(t, []int64{10, 20}, requested)

	// Пустая группа тоже закэширована — повторного запроса нет
	groups, err = cache.GetGroupedByOuterIDOrFetchAndCache(ctx, c, []int64{20}, groupKey, parseGroup, fetch, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, groups[20])
	assert.Equal(t, 1, calls)
}

func TestGetGrouped_UnparsableCacheEntryRefetches(t *testing.T) {
	ctx := context.Background()
	c := cache.New(time.Minute, time.Minute)
	c.Set(groupKey(1), "garbage", time.Minute)

	fetch := func(_ context.Context, outer []int64) (map[int64][]int64, error) {
		return map[int64][]int64{1: {5}}, nil
	}

	groups, err := cache.GetGroupedByOuterIDOrFetchAndCache(ctx, c, []int64{1}, groupKey, parseGroup, fetch, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, groups[1])
}
