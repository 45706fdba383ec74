// Package rules — registry.go сопоставляет тип события с изменением репутации.
package rules

import (
	"fmt"
	"sort"

	"serotonyl.ru/reputation-engine/internal/common"
)

// Strategy — изменение репутации для одного типа события.
type Strategy struct {
	Type  EventType
	Delta int
}

// Change возвращает знаковое изменение репутации.
func (s Strategy) Change() int {
	return s.Delta
}

// defaultChanges — встроенная таблица: одна запись на тип события.
var defaultChanges = map[EventType]int{
	EventEntityAccepted:    15,
	EventEntityUpvoted:     10,
	EventEntityDownvoted:   -2,
	EventEntityDeleted:     -2,
	EventVoteRemoved:       -1,
	EventAcceptanceRevoked: 2,
}

// Registry хранит стратегии по типам событий. После создания не изменяется,
// поэтому безопасен для конкурентного чтения.
type Registry struct {
	strategies map[EventType]Strategy
}

// NewRegistry собирает реестр. Повторная регистрация типа — ошибка.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[EventType]Strategy, len(strategies))}
	for _, s := range strategies {
		if _, ok := knownEventTypes[s.Type]; !ok {
			return nil, fmt.Errorf("%w: %q", common.ErrUnknownEventType, s.Type)
		}
		if s.Delta == 0 {
			return nil, fmt.Errorf("стратегия %q: %w", s.Type, common.ErrCannotIncreaseOrDecreaseNegativeReputation)
		}
		if _, dup := r.strategies[s.Type]; dup {
			return nil, fmt.Errorf("%w: %q", common.ErrDuplicateStrategy, s.Type)
		}
		r.strategies[s.Type] = s
	}
	return r, nil
}

// DefaultRegistry возвращает реестр со встроенной таблицей.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultStrategies(nil)...)
	if err != nil {
		// Встроенная таблица некорректна — это ошибка сборки
		panic(err)
	}
	return r
}

// defaultStrategies возвращает встроенные стратегии с учётом переопределений.
func defaultStrategies(overrides map[EventType]int) []Strategy {
	out := make([]Strategy, 0, len(defaultChanges))
	for t, delta := range defaultChanges {
		if v, ok := overrides[t]; ok {
			delta = v
		}
		out = append(out, Strategy{Type: t, Delta: delta})
	}
	return out
}

// Resolve находит стратегию по строковому типу события.
// Неизвестный тип или тип без стратегии — ErrUnknownEventType, никогда не ноль.
func (r *Registry) Resolve(eventType string) (Strategy, error) {
	t, err := ParseEventType(eventType)
	if err != nil {
		return Strategy{}, err
	}
	s, ok := r.strategies[t]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: нет стратегии для %q", common.ErrUnknownEventType, eventType)
	}
	return s, nil
}

// Strategies возвращает все стратегии, отсортированные по типу.
func (r *Registry) Strategies() []Strategy {
	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
