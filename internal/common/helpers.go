// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: ошибки предметной области, работа со временем, форматирование изменений.
package common

import "time"

// Clock возвращает текущее время. Подменяется в тестах.
type Clock func() time.Time

// SystemClock — настоящие часы в UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// StartOfDay возвращает полночь того же дня в указанном часовом поясе.
// Используется для вывода границы «сегодня» в логах ежедневного сброса.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// RetentionThreshold возвращает момент, старше которого маркеры обработки можно удалять.
//
// Пример:
//
//	RetentionThreshold(now, 7*24*time.Hour) → now - 7 дней
func RetentionThreshold(now time.Time, retention time.Duration) time.Time {
	return now.Add(-retention)
}
