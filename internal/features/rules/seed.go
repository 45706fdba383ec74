// Package rules — seed.go заполняет reputation_rules по реестру.
package rules

import (
	"context"
	"fmt"
)

// Store — административный доступ к таблице правил.
// Реализуют Repository и memory.Store.Rules().
type Store interface {
	List(ctx context.Context) ([]*Rule, error)
	Upsert(ctx context.Context, rule *Rule) error
}

// groups — классификация правил по типу события.
var groups = map[EventType]string{
	EventEntityAccepted:    "acceptance",
	EventAcceptanceRevoked: "acceptance",
	EventEntityUpvoted:     "vote",
	EventEntityDownvoted:   "vote",
	EventVoteRemoved:       "vote",
	EventEntityDeleted:     "moderation",
}

// Seed создаёт (или обновляет) правило для каждой стратегии реестра
// и каждого типа сущности. Повторный запуск безопасен.
func Seed(ctx context.Context, store Store, reg *Registry, entityTypes []string, target string) ([]*Rule, error) {
	if len(entityTypes) == 0 {
		return nil, fmt.Errorf("не указаны типы сущностей")
	}
	if target == "" {
		return nil, fmt.Errorf("не указана цель правил")
	}

	var out []*Rule
	for _, entityType := range entityTypes {
		for _, s := range reg.Strategies() {
			rule := &Rule{
				EventType:  s.Type,
				EntityType: entityType,
				Target:     target,
				Change:     s.Change(),
			}
			if g, ok := groups[s.Type]; ok {
				rule.Group = &g
			}
			if err := store.Upsert(ctx, rule); err != nil {
				return nil, err
			}
			out = append(out, rule)
		}
	}
	return out, nil
}
