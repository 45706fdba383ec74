// Package reputation — consumer.go обрабатывает входящие события ровно один раз.
package reputation

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/rules"
)

// DefaultTarget — на кого направлено правило по умолчанию.
const DefaultTarget = "author"

// Consumer превращает событие в изменение репутации.
//
// Маркер обработки, изменение пользователя и запись журнала пишутся
// в одной транзакции. Бизнес-отказ фиксирует только маркер.
// Сбой инфраструктуры откатывает всё, и событие остаётся непомеченным:
// повторная доставка выполнит всю последовательность заново.
type Consumer struct {
	store            Store
	engine           *Engine
	registry         *rules.Registry
	target           string
	disableCancelled bool
	now              common.Clock
	afterApply       []func(Outcome)
}

// Option настраивает Consumer.
type Option func(*Consumer)

// WithTarget задаёт reputation_target, по которому ищется правило.
func WithTarget(target string) Option {
	return func(c *Consumer) {
		if target != "" {
			c.target = target
		}
	}
}

// WithDisableCancelled включает отключение записи отменённого события.
func WithDisableCancelled(enabled bool) Option {
	return func(c *Consumer) { c.disableCancelled = enabled }
}

// WithClock подменяет часы (для тестов).
func WithClock(now common.Clock) Option {
	return func(c *Consumer) { c.now = now }
}

// WithAfterApply добавляет обработчик, вызываемый после коммита применённого события.
func WithAfterApply(fn func(Outcome)) Option {
	return func(c *Consumer) { c.afterApply = append(c.afterApply, fn) }
}

// NewConsumer создаёт потребителя событий.
func NewConsumer(store Store, engine *Engine, registry *rules.Registry, opts ...Option) *Consumer {
	c := &Consumer{
		store:    store,
		engine:   engine,
		registry: registry,
		target:   DefaultTarget,
		now:      common.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplyEvent обрабатывает одно событие.
//
// Ошибка возвращается только при сбое инфраструктуры: сообщение нужно
// доставить повторно. Skipped и Rejected — конечные исходы, сообщение
// можно подтверждать.
func (c *Consumer) ApplyEvent(ctx context.Context, ev Event) (Outcome, error) {
	logger := log.WithFields(log.Fields{
		"event_id":   ev.EventID,
		"event_type": ev.EventType,
		"user_id":    ev.UserID,
	})

	if err := ev.Validate(); err != nil {
		// Без eventId пометить нечего: просто отказываем
		logger.WithError(err).Warn("Некорректное событие отклонено")
		return Outcome{EventID: ev.EventID, Status: StatusRejected, Reason: err}, nil
	}

	processed, err := c.store.IsProcessed(ctx, ev.EventID)
	if err != nil {
		return Outcome{}, fmt.Errorf("ошибка проверки маркера события %s: %w", ev.EventID, err)
	}
	if processed {
		logger.Info("Событие уже обработано, пропуск")
		return Outcome{EventID: ev.EventID, Status: StatusSkipped}, nil
	}

	delta, rejectErr := c.resolveDelta(ev)

	out := Outcome{EventID: ev.EventID, Delta: delta}
	err = c.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		claimed, err := tx.MarkProcessed(ctx, ev.EventID, c.now())
		if err != nil {
			return err
		}
		if !claimed {
			out.Status = StatusSkipped
			return nil
		}
		if rejectErr != nil {
			out.Status, out.Reason = StatusRejected, rejectErr
			return nil
		}

		rule, err := tx.FindRule(ctx, c.ref(rules.EventType(ev.EventType), ev.EntityType))
		if err != nil {
			return c.rejectOr(&out, err)
		}

		res, err := c.engine.ApplyDelta(ctx, tx, Change{
			UserID:   ev.UserID,
			Delta:    delta,
			Rule:     rule,
			EntityID: ev.EntityID,
			EventID:  ev.EventID,
		})
		if err != nil {
			return c.rejectOr(&out, err)
		}
		out.Status, out.State, out.Record = StatusApplied, res.State, res.Record

		if cancels, ok := ev.Cancels(); ok && c.disableCancelled {
			disabled, err := c.disableCancelledRecord(ctx, tx, ev, rules.EventType(cancels))
			if err != nil {
				return err
			}
			out.Disabled = disabled
		}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("ошибка обработки события %s: %w", ev.EventID, err)
	}

	switch out.Status {
	case StatusSkipped:
		logger.Info("Событие обработано параллельно, пропуск")
	case StatusRejected:
		logger.WithError(out.Reason).Warn("Событие отклонено")
	case StatusApplied:
		logger.WithFields(log.Fields{
			"delta":      out.Delta,
			"reputation": out.State.Reputation,
			"earned":     out.State.ReputationEarnedToday,
		}).Infof("Репутация изменена: %s", common.FormatDelta(out.Delta))
		for _, fn := range c.afterApply {
			fn(out)
		}
	}
	return out, nil
}

// resolveDelta считает итоговую дельту: d_B - d_A для отменяющего события.
// Ошибка — бизнес-отказ, её фиксирует маркер.
func (c *Consumer) resolveDelta(ev Event) (int, error) {
	primary, err := c.registry.Resolve(ev.EventType)
	if err != nil {
		return 0, err
	}
	delta := primary.Change()

	if cancels, ok := ev.Cancels(); ok {
		cancelled, err := c.registry.Resolve(cancels)
		if err != nil {
			return 0, fmt.Errorf("отменяемое событие: %w", err)
		}
		delta -= cancelled.Change()
	}

	if delta == 0 {
		return 0, common.ErrCannotIncreaseOrDecreaseNegativeReputation
	}
	return delta, nil
}

// rejectOr записывает бизнес-отказ в исход (транзакция коммитится с маркером)
// или возвращает ошибку инфраструктуры (транзакция откатывается).
func (c *Consumer) rejectOr(out *Outcome, err error) error {
	if IsRejection(err) {
		out.Status, out.Reason = StatusRejected, err
		return nil
	}
	return err
}

// disableCancelledRecord отключает последнюю запись отменённого правила.
// Отсутствие правила или записи не мешает применению события.
func (c *Consumer) disableCancelledRecord(ctx context.Context, tx Tx, ev Event, cancels rules.EventType) (*records.Record, error) {
	logger := log.WithFields(log.Fields{
		"event_id": ev.EventID,
		"cancels":  cancels,
	})

	rule, err := tx.FindRule(ctx, c.ref(cancels, ev.EntityType))
	if errors.Is(err, common.ErrRuleNotFound) {
		logger.Debug("Правило отменяемого события не найдено, запись не отключается")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec, err := tx.DisableLatestRecord(ctx, ev.UserID, ev.EntityID, rule.ID)
	if errors.Is(err, common.ErrRecordNotFound) {
		logger.Debug("Запись отменяемого события не найдена")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Consumer) ref(t rules.EventType, entityType string) rules.RuleRef {
	return rules.RuleRef{EventType: t, EntityType: entityType, Target: c.target}
}
