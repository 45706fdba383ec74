// Package processed — repository.go выполняет операции с таблицей processed_events.
package processed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/reputation-engine/internal/db"
)

// Repository работает с таблицей processed_events.
type Repository struct {
	db db.Querier
}

// NewRepository создаёт репозиторий маркеров.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// IsProcessed проверяет, было ли событие уже обработано.
func (r *Repository) IsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки маркера (event_id=%s): %w", eventID, err)
	}
	return exists, nil
}

// MarkProcessed записывает маркер. ON CONFLICT DO NOTHING — повторная вставка не ошибка.
// Возвращает true, если маркер вставлен именно этим вызовом.
//
// Внутри транзакции конкурентная вставка того же event_id ждёт коммита первой,
// после чего получает false.
func (r *Repository) MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, eventID, at)
	if err != nil {
		return false, fmt.Errorf("ошибка записи маркера (event_id=%s): %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// PurgeOlderThan удаляет маркеры с processed_at < threshold.
func (r *Repository) PurgeOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	query := `DELETE FROM processed_events WHERE processed_at < $1`
	tag, err := r.db.Exec(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки маркеров: %w", err)
	}
	return tag.RowsAffected(), nil
}
