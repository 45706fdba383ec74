package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/rules"
)

func TestDefaultRegistry_Resolve(t *testing.T) {
	reg := rules.DefaultRegistry()

	tests := []struct {
		eventType string
		want      int
	}{
		{"entity-accepted", 15},
		{"entity-upvoted", 10},
		{"entity-downvoted", -2},
		{"entity-deleted", -2},
		{"vote-removed", -1},
		{"acceptance-revoked", 2},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			s, err := reg.Resolve(tt.eventType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Change())
		})
	}
}

func TestResolve_UnknownEventType(t *testing.T) {
	reg := rules.DefaultRegistry()

	_, err := reg.Resolve("entity-starred")
	assert.ErrorIs(t, err, common.ErrUnknownEventType)

	_, err = reg.Resolve("")
	assert.ErrorIs(t, err, common.ErrUnknownEventType)
}

func TestResolve_KnownTypeWithoutStrategy(t *testing.T) {
	reg, err := rules.NewRegistry(rules.Strategy{Type: rules.EventEntityUpvoted, Delta: 10})
	require.NoError(t, err)

	_, err = reg.Resolve("entity-accepted")
	assert.ErrorIs(t, err, common.ErrUnknownEventType)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := rules.NewRegistry(
		rules.Strategy{Type: rules.EventEntityUpvoted, Delta: 10},
		rules.Strategy{Type: rules.EventEntityUpvoted, Delta: 5},
	)
	assert.ErrorIs(t, err, common.ErrDuplicateStrategy)
}

func TestNewRegistry_RejectsZeroDelta(t *testing.T) {
	_, err := rules.NewRegistry(rules.Strategy{Type: rules.EventEntityUpvoted, Delta: 0})
	assert.ErrorIs(t, err, common.ErrCannotIncreaseOrDecreaseNegativeReputation)
}

func TestStrategies_Sorted(t *testing.T) {
	all := rules.DefaultRegistry().Strategies()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Less(t, string(all[i-1].Type), string(all[i].Type))
	}
}

func TestParseRegistry_OverridesDefaults(t *testing.T) {
	data := []byte(`
rules:
  - event_type: entity-upvoted
    change: 5
  - event_type: entity-downvoted
    change: -1
`)
	reg, err := rules.ParseRegistry(data)
	require.NoError(t, err)

	up, err := reg.Resolve("entity-upvoted")
	require.NoError(t, err)
	assert.Equal(t, 5, up.Change())

	down, err := reg.Resolve("entity-downvoted")
	require.NoError(t, err)
	assert.Equal(t, -1, down.Change())

	// Не указанные в файле типы — из встроенной таблицы
	accepted, err := reg.Resolve("entity-accepted")
	require.NoError(t, err)
	assert.Equal(t, 15, accepted.Change())
}

func TestParseRegistry_FailsFast(t *testing.T) {
	tests := map[string]string{
		"unknown type": "rules:\n  - event_type: entity-starred\n    change: 3\n",
		"zero change":  "rules:\n  - event_type: entity-upvoted\n    change: 0\n",
		"duplicate":    "rules:\n  - event_type: vote-removed\n    change: -1\n  - event_type: vote-removed\n    change: -3\n",
		"bad yaml":     "rules: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := rules.ParseRegistry([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - event_type: entity-accepted\n    change: 20\n"), 0o600))

	reg, err := rules.LoadRegistryFile(path)
	require.NoError(t, err)
	s, err := reg.Resolve("entity-accepted")
	require.NoError(t, err)
	assert.Equal(t, 20, s.Change())

	def, err := rules.LoadRegistryFile("")
	require.NoError(t, err)
	s, err = def.Resolve("entity-accepted")
	require.NoError(t, err)
	assert.Equal(t, 15, s.Change())

	_, err = rules.LoadRegistryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
