package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/transport"
)

func TestMemory_FetchRespectsLimit(t *testing.T) {
	q := transport.NewMemory(3)
	for _, b := range []string{"a", "b", "c"} {
		q.Publish([]byte(b))
	}

	got, err := q.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", string(got[0].Body()))
	assert.Equal(t, 1, got[0].Attempt())

	pending, _, _ := q.Stats()
	assert.Equal(t, 1, pending)
}

func TestMemory_NackThenDeadLetter(t *testing.T) {
	q := transport.NewMemory(2)
	q.Publish([]byte("x"))
	ctx := context.Background()
	cause := errors.New("сбой")

	d, err := q.Fetch(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, d[0].Nack(ctx, cause))

	d, err = q.Fetch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, 2, d[0].Attempt())
	require.NoError(t, d[0].Nack(ctx, cause))

	pending, acked, dead := q.Stats()
	assert.Equal(t, 0, pending)
	assert.Equal(t, 0, acked)
	assert.Equal(t, 1, dead)
}
