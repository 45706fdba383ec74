// Package rules — repository.go выполняет операции с таблицей reputation_rules.
package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/db"
)

// Repository работает с таблицей reputation_rules.
type Repository struct {
	db db.Querier
}

// NewRepository создаёт репозиторий правил.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// FindByRef возвращает правило по тройке (событие, сущность, цель).
// Нет строки — ErrRuleNotFound.
func (r *Repository) FindByRef(ctx context.Context, ref RuleRef) (*Rule, error) {
	query := `
		SELECT id, event_type, entity_type, reputation_target, rule_group, reputation_change
		FROM reputation_rules
		WHERE event_type = $1 AND entity_type = $2 AND reputation_target = $3
	`
	var rule Rule
	err := r.db.QueryRow(ctx, query, string(ref.EventType), ref.EntityType, ref.Target).Scan(
		&rule.ID, &rule.EventType, &rule.EntityType, &rule.Target, &rule.Group, &rule.Change,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, ref)
		}
		return nil, fmt.Errorf("ошибка чтения правила %s: %w", ref, err)
	}
	return &rule, nil
}

// List возвращает все правила.
func (r *Repository) List(ctx context.Context) ([]*Rule, error) {
	query := `
		SELECT id, event_type, entity_type, reputation_target, rule_group, reputation_change
		FROM reputation_rules
		ORDER BY event_type, entity_type, reputation_target
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения правил: %w", err)
	}
	defer rows.Close()

	var out []*Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(
			&rule.ID, &rule.EventType, &rule.EntityType, &rule.Target, &rule.Group, &rule.Change,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования правила: %w", err)
		}
		out = append(out, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения правил: %w", err)
	}
	return out, nil
}

// Upsert создаёт правило или обновляет его изменение и группу.
// Используется только административной командой `rules seed`.
func (r *Repository) Upsert(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO reputation_rules (event_type, entity_type, reputation_target, rule_group, reputation_change)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_type, entity_type, reputation_target) DO UPDATE
		SET rule_group = EXCLUDED.rule_group,
		    reputation_change = EXCLUDED.reputation_change
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		string(rule.EventType), rule.EntityType, rule.Target, rule.Group, rule.Change,
	).Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения правила %s: %w", rule.Ref(), err)
	}
	return nil
}
