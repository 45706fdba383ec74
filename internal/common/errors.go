// Package common — errors.go определяет ошибки предметной области,
// которые используются во всех модулях движка репутации.
// Эти ошибки позволяют вызывающим адаптерам различать причины отказа
// и переводить их в свои коды ошибок.
package common

import "errors"

// Ошибки правил
var (
	// ErrUnknownEventType — тип события не распознан или для него нет стратегии
	ErrUnknownEventType = errors.New("неизвестный тип события")
	// ErrDuplicateStrategy — стратегия для типа события зарегистрирована дважды
	ErrDuplicateStrategy = errors.New("стратегия для типа события уже зарегистрирована")
	// ErrRuleNotFound — в reputation_rules нет правила для события и сущности
	ErrRuleNotFound = errors.New("правило репутации не найдено")
)

// Ошибки изменения репутации
var (
	// ErrDailyReputationLimitExceeded — превышен дневной лимит начисления
	ErrDailyReputationLimitExceeded = errors.New("превышен дневной лимит репутации")
	// ErrReputationMinimumReached — репутация опустилась бы ниже минимума
	ErrReputationMinimumReached = errors.New("достигнут минимум репутации")
	// ErrCannotIncreaseOrDecreaseNegativeReputation — нулевое изменение репутации
	ErrCannotIncreaseOrDecreaseNegativeReputation = errors.New("изменение репутации не может быть нулевым")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки журнала
var (
	// ErrRecordNotFound — запись репутации не найдена (или уже отключена)
	ErrRecordNotFound = errors.New("запись репутации не найдена")
)

// Ошибки транспорта
var (
	// ErrMalformedEvent — сообщение не разбирается в событие
	ErrMalformedEvent = errors.New("некорректное сообщение события")
)
