package reputation

import (
	"errors"

	"github.com/google/uuid"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

// Status — итог обработки события. Все три состояния конечные.
type Status string

const (
	StatusApplied  Status = "applied"  // Репутация изменена
	StatusSkipped  Status = "skipped"  // Событие уже обработано
	StatusRejected Status = "rejected" // Бизнес-отказ, событие помечено обработанным
)

// Outcome — результат ApplyEvent.
type Outcome struct {
	EventID  uuid.UUID
	Status   Status
	Reason   error           // Причина отказа (только для StatusRejected)
	Delta    int             // Итоговая дельта с учётом отмены
	State    users.State     // Состояние после применения
	Record   *records.Record // Созданная запись журнала
	Disabled *records.Record // Отключённая запись отменённого события
}

// rejections — ошибки, которые являются окончательным ответом на сообщение.
// Повтор дал бы тот же отказ, поэтому событие помечается обработанным.
var rejections = []error{
	common.ErrUnknownEventType,
	common.ErrCannotIncreaseOrDecreaseNegativeReputation,
	common.ErrDailyReputationLimitExceeded,
	common.ErrReputationMinimumReached,
	common.ErrRuleNotFound,
	common.ErrUserNotFound,
	common.ErrMalformedEvent,
}

// IsRejection сообщает, является ли ошибка бизнес-отказом (а не сбоем инфраструктуры).
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
