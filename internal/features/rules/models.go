// Package rules реализует реестр правил репутации.
// models.go описывает типы событий и строки таблицы reputation_rules.
package rules

import (
	"fmt"

	"serotonyl.ru/reputation-engine/internal/common"
)

// EventType — тип доменного события, влияющего на репутацию.
type EventType string

// Известные типы событий
const (
	EventEntityAccepted    EventType = "entity-accepted"    // Ответ принят
	EventEntityUpvoted     EventType = "entity-upvoted"     // Голос «за»
	EventEntityDownvoted   EventType = "entity-downvoted"   // Голос «против»
	EventEntityDeleted     EventType = "entity-deleted"     // Сущность удалена
	EventVoteRemoved       EventType = "vote-removed"       // Голос отозван
	EventAcceptanceRevoked EventType = "acceptance-revoked" // Принятие отменено
)

var knownEventTypes = map[EventType]struct{}{
	EventEntityAccepted:    {},
	EventEntityUpvoted:     {},
	EventEntityDownvoted:   {},
	EventEntityDeleted:     {},
	EventVoteRemoved:       {},
	EventAcceptanceRevoked: {},
}

// ParseEventType превращает строку из сообщения в EventType.
// Неизвестная строка — ErrUnknownEventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if _, ok := knownEventTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownEventType, s)
	}
	return t, nil
}

// RuleRef указывает на правило по уникальной тройке.
type RuleRef struct {
	EventType  EventType
	EntityType string
	Target     string
}

func (r RuleRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.EventType, r.EntityType, r.Target)
}

// Rule — строка таблицы reputation_rules.
// Правила администрируются вне движка, здесь они только читаются.
type Rule struct {
	ID         int64     `db:"id"`
	EventType  EventType `db:"event_type"`
	EntityType string    `db:"entity_type"`
	Target     string    `db:"reputation_target"`
	Group      *string   `db:"rule_group"` // Классификация (может отсутствовать)
	Change     int       `db:"reputation_change"`
}

// Ref возвращает ссылку на правило.
func (r *Rule) Ref() RuleRef {
	return RuleRef{EventType: r.EventType, EntityType: r.EntityType, Target: r.Target}
}
