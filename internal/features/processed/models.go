// Package processed реализует журнал идемпотентности: какие события уже
// изменили репутацию. Таблица processed_events — единственный источник правды.
package processed

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRetention — сколько хранить маркеры обработки.
// Транспорт не передоставляет события старше этого окна.
const DefaultRetention = 7 * 24 * time.Hour

// Event — маркер обработанного события.
type Event struct {
	EventID     uuid.UUID `db:"event_id"`
	ProcessedAt time.Time `db:"processed_at"`
}
