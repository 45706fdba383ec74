// Package postgres — store.go связывает репозитории с транзакцией pgx.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/reputation-engine/internal/features/processed"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/features/rules"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

// Store — транзакционное хранилище движка поверх пула.
type Store struct {
	pool      *pgxpool.Pool
	processed *processed.Repository
}

// NewStore создаёт хранилище.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, processed: processed.NewRepository(pool)}
}

// IsProcessed проверяет маркер вне транзакции.
func (s *Store) IsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return s.processed.IsProcessed(ctx, eventID)
}

// InTx открывает транзакцию READ COMMITTED. Гонки на одном пользователе
// снимает FOR UPDATE в LockUser, гонки дубликатов — уникальный ключ маркера.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx reputation.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(pgTx pgx.Tx) error {
		return fn(ctx, newTx(pgTx))
	})
}

// tx — репозитории, привязанные к одной транзакции.
type tx struct {
	processed *processed.Repository
	rules     *rules.Repository
	users     *users.Repository
	records   *records.Repository
}

func newTx(pgTx pgx.Tx) *tx {
	return &tx{
		processed: processed.NewRepository(pgTx),
		rules:     rules.NewRepository(pgTx),
		users:     users.NewRepository(pgTx),
		records:   records.NewRepository(pgTx),
	}
}

func (t *tx) MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) (bool, error) {
	return t.processed.MarkProcessed(ctx, eventID, at)
}

func (t *tx) FindRule(ctx context.Context, ref rules.RuleRef) (*rules.Rule, error) {
	return t.rules.FindByRef(ctx, ref)
}

func (t *tx) LockUser(ctx context.Context, userID int64) (*users.User, error) {
	return t.users.LockByID(ctx, userID)
}

func (t *tx) SaveReputation(ctx context.Context, userID int64, reputation, earnedToday int) error {
	return t.users.SaveReputation(ctx, userID, reputation, earnedToday)
}

func (t *tx) CreateRecord(ctx context.Context, rec *records.Record) error {
	return t.records.Create(ctx, rec)
}

func (t *tx) DisableLatestRecord(ctx context.Context, userID, entityID, ruleID int64) (*records.Record, error) {
	return t.records.DisableLatest(ctx, userID, entityID, ruleID)
}
