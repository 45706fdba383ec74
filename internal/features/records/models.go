// Package records ведёт журнал изменений репутации.
// models.go описывает запись журнала.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Record — одно применённое изменение репутации.
// Записи не удаляются физически; Enabled=false скрывает запись из чтения,
// но оставляет её для аудита.
type Record struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`            // Чья репутация изменилась
	RuleID    int64     `db:"reputation_rule_id"` // Какое правило сработало
	EntityID  int64     `db:"entity_id"`          // Вопрос, ответ и т.п.
	EventID   uuid.UUID `db:"event_id"`           // Событие-источник
	Change    int       `db:"reputation_change"`  // Фактически применённая дельта
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
}
