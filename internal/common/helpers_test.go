package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/reputation-engine/internal/common"
)

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		delta int
		want  string
	}{
		{10, "+10 очков"},
		{-2, "-2 очка"},
		{1, "+1 очко"},
		{11, "+11 очков"},
		{21, "+21 очко"},
		{-15, "-15 очков"},
		{0, "+0 очков"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, common.FormatDelta(tt.delta))
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	// 22:30 UTC — это уже следующий день по Москве
	ts := time.Date(2026, time.March, 10, 22, 30, 0, 0, time.UTC)

	got := common.StartOfDay(ts, loc)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, loc), got)
}

func TestRetentionThreshold(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	got := common.RetentionThreshold(now, 7*24*time.Hour)
	assert.Equal(t, time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC), got)
}
