// Package users — repository.go выполняет операции с таблицей users.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/db"
)

// Repository работает с репутационными колонками таблицы users.
type Repository struct {
	db db.Querier
}

// NewRepository создаёт репозиторий пользователей.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// GetByID возвращает репутацию пользователя без блокировки.
func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	return r.get(ctx, `
		SELECT id, reputation, reputation_earned_today, updated_at
		FROM users WHERE id = $1
	`, userID)
}

// LockByID читает пользователя с блокировкой строки (FOR UPDATE).
// Вызывать только внутри транзакции: конкурентные изменения того же
// пользователя ждут её завершения, поэтому обновления не теряются.
func (r *Repository) LockByID(ctx context.Context, userID int64) (*User, error) {
	return r.get(ctx, `
		SELECT id, reputation, reputation_earned_today, updated_at
		FROM users WHERE id = $1
		FOR UPDATE
	`, userID)
}

func (r *Repository) get(ctx context.Context, query string, userID int64) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Reputation, &u.ReputationEarnedToday, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w (user_id=%d)", common.ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (user_id=%d): %w", userID, err)
	}
	return &u, nil
}

// SaveReputation записывает новые значения репутации.
// Проверки границ делает движок; CHECK-ограничения таблицы — страховка.
func (r *Repository) SaveReputation(ctx context.Context, userID int64, reputation, earnedToday int) error {
	query := `
		UPDATE users
		SET reputation = $2, reputation_earned_today = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, reputation, earnedToday)
	if err != nil {
		return fmt.Errorf("ошибка обновления репутации (user_id=%d): %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w (user_id=%d)", common.ErrUserNotFound, userID)
	}
	return nil
}

// ResetDailyEarned обнуляет reputation_earned_today у всех пользователей.
// Один UPDATE: каждая строка обновляется атомарно, повторный запуск безвреден.
func (r *Repository) ResetDailyEarned(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET reputation_earned_today = 0, updated_at = NOW()
		WHERE reputation_earned_today <> 0
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса дневного заработка: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ensure создаёт пользователя с минимальной репутацией, если его нет.
// Нужна только для локальной разработки: в проде строки создаёт подсистема профилей.
func (r *Repository) Ensure(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (id, reputation, reputation_earned_today)
		VALUES ($1, $2, 0)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID, MinReputation); err != nil {
		return fmt.Errorf("ошибка создания пользователя (user_id=%d): %w", userID, err)
	}
	return nil
}
