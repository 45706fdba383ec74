// Package records — repository.go выполняет операции с таблицей reputation_records.
// Каждый запрос на чтение явно фильтрует enabled = TRUE.
package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/db"
)

const recordColumns = `id, user_id, reputation_rule_id, entity_id, event_id, reputation_change, enabled, created_at`

// Repository работает с таблицей reputation_records.
type Repository struct {
	db db.Querier
}

// NewRepository создаёт репозиторий журнала.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// Create добавляет запись и заполняет ID и CreatedAt.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO reputation_records (user_id, reputation_rule_id, entity_id, event_id, reputation_change, enabled)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.UserID, rec.RuleID, rec.EntityID, rec.EventID, rec.Change,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал репутации: %w", err)
	}
	rec.Enabled = true
	return nil
}

// Disable скрывает запись, не удаляя её.
func (r *Repository) Disable(ctx context.Context, id int64) error {
	query := `UPDATE reputation_records SET enabled = FALSE WHERE id = $1 AND enabled = TRUE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка отключения записи %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w (id=%d)", common.ErrRecordNotFound, id)
	}
	return nil
}

// DisableLatest отключает последнюю включённую запись правила для пользователя и сущности.
// Используется при отмене события. Возвращает отключённую запись.
func (r *Repository) DisableLatest(ctx context.Context, userID, entityID, ruleID int64) (*Record, error) {
	query := `
		UPDATE reputation_records SET enabled = FALSE
		WHERE id = (
			SELECT id FROM reputation_records
			WHERE user_id = $1 AND entity_id = $2 AND reputation_rule_id = $3 AND enabled = TRUE
			ORDER BY created_at DESC, id DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING ` + recordColumns
	rec, err := scanRecord(r.db.QueryRow(ctx, query, userID, entityID, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w (user_id=%d, entity_id=%d, rule_id=%d)", common.ErrRecordNotFound, userID, entityID, ruleID)
		}
		return nil, fmt.Errorf("ошибка отключения записи: %w", err)
	}
	return rec, nil
}

// ByIDs возвращает включённые записи по id.
func (r *Repository) ByIDs(ctx context.Context, ids []int64) ([]*Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + recordColumns + ` FROM reputation_records WHERE id = ANY($1) AND enabled = TRUE`
	return r.queryRecords(ctx, query, ids)
}

// ByRuleIDs возвращает включённые записи, сгруппированные по правилу.
func (r *Repository) ByRuleIDs(ctx context.Context, ruleIDs []int64) (map[int64][]*Record, error) {
	if len(ruleIDs) == 0 {
		return map[int64][]*Record{}, nil
	}
	query := `
		SELECT ` + recordColumns + `
		FROM reputation_records
		WHERE reputation_rule_id = ANY($1) AND enabled = TRUE
		ORDER BY created_at DESC, id DESC
	`
	recs, err := r.queryRecords(ctx, query, ruleIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]*Record, len(ruleIDs))
	for _, rec := range recs {
		out[rec.RuleID] = append(out[rec.RuleID], rec)
	}
	return out, nil
}

// ByUser возвращает последние N включённых записей пользователя.
func (r *Repository) ByUser(ctx context.Context, userID int64, limit int) ([]*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM reputation_records
		WHERE user_id = $1 AND enabled = TRUE
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryRecords(ctx, query, userID, limit)
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса журнала: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.RuleID, &rec.EntityID, &rec.EventID,
		&rec.Change, &rec.Enabled, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
