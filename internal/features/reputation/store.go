package reputation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/rules"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

// Tx — операции, выполняемые внутри одной транзакции.
// Маркер обработки, изменение пользователя и запись журнала
// фиксируются вместе или не фиксируются вовсе.
type Tx interface {
	// MarkProcessed вставляет маркер; false — событие уже помечено кем-то другим.
	MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) (bool, error)
	FindRule(ctx context.Context, ref rules.RuleRef) (*rules.Rule, error)
	// LockUser читает пользователя с блокировкой до конца транзакции.
	LockUser(ctx context.Context, userID int64) (*users.User, error)
	SaveReputation(ctx context.Context, userID int64, reputation, earnedToday int) error
	CreateRecord(ctx context.Context, rec *records.Record) error
	DisableLatestRecord(ctx context.Context, userID, entityID, ruleID int64) (*records.Record, error)
}

// Store — транзакционная граница хранилища.
type Store interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error)
	// InTx выполняет fn в транзакции: nil — коммит, ошибка — откат.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
