// Package reputation — engine.go применяет дельту к репутации пользователя.
package reputation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/rules"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

// Change — одно изменение репутации.
type Change struct {
	UserID   int64
	Delta    int
	Rule     *rules.Rule
	EntityID int64
	EventID  uuid.UUID
}

// Result — итог применения изменения.
type Result struct {
	State  users.State
	Record *records.Record
}

// Engine проверяет границы и записывает изменение репутации.
// Состояния не хранит: всё берётся из транзакции.
type Engine struct {
	maxDaily int
}

// NewEngine создаёт движок с дневным лимитом начисления.
func NewEngine(maxDaily int) *Engine {
	return &Engine{maxDaily: maxDaily}
}

// MaxDaily возвращает дневной лимит начисления.
func (e *Engine) MaxDaily() int {
	return e.maxDaily
}

// ApplyDelta применяет изменение внутри переданной транзакции.
//
// Все проверки выполняются до любой записи. При отказе ничего не меняется:
//   - delta == 0 → ErrCannotIncreaseOrDecreaseNegativeReputation
//   - delta > 0 и earnedToday + delta > maxDaily → ErrDailyReputationLimitExceeded
//   - delta < 0 и reputation + delta < 1 → ErrReputationMinimumReached
//
// Отрицательная дельта не уменьшает earnedToday.
func (e *Engine) ApplyDelta(ctx context.Context, tx Tx, ch Change) (Result, error) {
	if ch.Delta == 0 {
		return Result{}, common.ErrCannotIncreaseOrDecreaseNegativeReputation
	}
	if ch.Rule == nil {
		return Result{}, fmt.Errorf("%w: правило не передано", common.ErrRuleNotFound)
	}

	u, err := tx.LockUser(ctx, ch.UserID)
	if err != nil {
		return Result{}, err
	}

	reputation := u.Reputation + ch.Delta
	earned := u.ReputationEarnedToday
	if ch.Delta > 0 {
		if earned+ch.Delta > e.maxDaily {
			return Result{}, fmt.Errorf("%w: заработано %d, лимит %d, дельта %s",
				common.ErrDailyReputationLimitExceeded, earned, e.maxDaily, common.FormatDelta(ch.Delta))
		}
		earned += ch.Delta
	} else if reputation < users.MinReputation {
		return Result{}, fmt.Errorf("%w: репутация %d, дельта %s",
			common.ErrReputationMinimumReached, u.Reputation, common.FormatDelta(ch.Delta))
	}

	if err := tx.SaveReputation(ctx, ch.UserID, reputation, earned); err != nil {
		return Result{}, err
	}

	rec := &records.Record{
		UserID:   ch.UserID,
		RuleID:   ch.Rule.ID,
		EntityID: ch.EntityID,
		EventID:  ch.EventID,
		Change:   ch.Delta,
	}
	if err := tx.CreateRecord(ctx, rec); err != nil {
		return Result{}, err
	}

	return Result{
		State:  users.State{UserID: ch.UserID, Reputation: reputation, ReputationEarnedToday: earned},
		Record: rec,
	}, nil
}

// Apply применяет изменение в собственной транзакции.
// Любая ошибка, включая бизнес-отказ, откатывает транзакцию.
// Идемпотентность здесь не обеспечивается: для событий используйте Consumer.
func (e *Engine) Apply(ctx context.Context, store Store, ch Change) (Result, error) {
	var res Result
	err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		res, err = e.ApplyDelta(ctx, tx, ch)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	log.WithFields(log.Fields{
		"user_id":    ch.UserID,
		"delta":      ch.Delta,
		"reputation": res.State.Reputation,
	}).Info("Репутация изменена")
	return res, nil
}
