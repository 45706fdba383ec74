package pgqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	q := New(nil, Options{})
	assert.Equal(t, 30*time.Second, q.opts.Lease)
	assert.Equal(t, 10, q.opts.MaxAttempts)
	assert.Equal(t, time.Second, q.opts.RetryDelay)
	assert.Equal(t, 5*time.Minute, q.opts.MaxRetryDelay)
}

func TestOptions_RetryDelayIsLinearAndCapped(t *testing.T) {
	o := Options{RetryDelay: 10 * time.Second, MaxRetryDelay: time.Minute}

	assert.Equal(t, 10*time.Second, o.retryDelay(1))
	assert.Equal(t, 30*time.Second, o.retryDelay(3))
	assert.Equal(t, time.Minute, o.retryDelay(6))
	assert.Equal(t, time.Minute, o.retryDelay(100))
}
