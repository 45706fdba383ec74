package reputation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/features/rules"
)

func engineFixture(rep, earned int) (*memory.Store, *rules.Rule) {
	store := memory.NewStore()
	rule := store.PutRule(rules.Rule{
		EventType:  rules.EventEntityUpvoted,
		EntityType: entityType,
		Target:     reputation.DefaultTarget,
		Change:     10,
	})
	store.PutUser(userID, rep, earned)
	return store, &rule
}

func change(rule *rules.Rule, delta int) reputation.Change {
	return reputation.Change{UserID: userID, Delta: delta, Rule: rule, EntityID: entityID, EventID: uuid.New()}
}

func TestEngine_ApplyDelta(t *testing.T) {
	tests := []struct {
		name               string
		rep, earned, delta int
		wantRep, wantEarn  int
		wantErr            error
	}{
		{name: "increase", rep: 1, earned: 0, delta: 10, wantRep: 11, wantEarn: 10},
		{name: "increase up to cap", rep: 5, earned: 40, delta: 10, wantRep: 15, wantEarn: 50},
		{name: "increase over cap", rep: 5, earned: 41, delta: 10, wantRep: 5, wantEarn: 41, wantErr: common.ErrDailyReputationLimitExceeded},
		{name: "decrease keeps earned", rep: 10, earned: 7, delta: -2, wantRep: 8, wantEarn: 7},
		{name: "decrease to floor", rep: 3, earned: 0, delta: -2, wantRep: 1, wantEarn: 0},
		{name: "decrease below floor", rep: 2, earned: 0, delta: -2, wantRep: 2, wantEarn: 0, wantErr: common.ErrReputationMinimumReached},
		{name: "zero", rep: 5, earned: 5, delta: 0, wantRep: 5, wantEarn: 5, wantErr: common.ErrCannotIncreaseOrDecreaseNegativeReputation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, rule := engineFixture(tt.rep, tt.earned)
			engine := reputation.NewEngine(50)

			res, err := engine.Apply(context.Background(), store, change(rule, tt.delta))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.Records())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRep, res.State.Reputation)
				assert.Equal(t, tt.wantEarn, res.State.ReputationEarnedToday)
				require.NotNil(t, res.Record)
				assert.Equal(t, tt.delta, res.Record.Change)
				assert.Equal(t, rule.ID, res.Record.RuleID)
			}

			u, ok := store.User(userID)
			require.True(t, ok)
			assert.Equal(t, tt.wantRep, u.Reputation)
			assert.Equal(t, tt.wantEarn, u.ReputationEarnedToday)
		})
	}
}

func TestEngine_ApplyMissingUser(t *testing.T) {
	store, rule := engineFixture(1, 0)
	ch := change(rule, 10)
	ch.UserID = 1000

	_, err := reputation.NewEngine(50).Apply(context.Background(), store, ch)
	require.ErrorIs(t, err, common.ErrUserNotFound)
	assert.True(t, reputation.IsRejection(err))
}

func TestEngine_ApplyRequiresRule(t *testing.T) {
	store, _ := engineFixture(1, 0)

	_, err := reputation.NewEngine(50).Apply(context.Background(), store, change(nil, 10))
	require.ErrorIs(t, err, common.ErrRuleNotFound)
	assert.Empty(t, store.Records())
}

func TestEngine_ApplyDoesNotMarkEvent(t *testing.T) {
	store, rule := engineFixture(1, 0)

	_, err := reputation.NewEngine(50).Apply(context.Background(), store, change(rule, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, store.ProcessedCount())
}
