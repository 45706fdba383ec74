// Package common — pluralize.go содержит функции для правильного склонения
// русских числительных в выводе CLI.
package common

import "fmt"

// PluralizePoints возвращает правильную форму слова «очко» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "очко" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "очка" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "очков" (0, 5-20, 25-30, 100, ...)
func PluralizePoints(n int) string {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "очко"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "очка"
	}
	return "очков"
}

// FormatDelta создаёт строку вида "+10 очков" или "-2 очка".
// Знак «+» добавляется автоматически.
//
// Примеры:
//
//	FormatDelta(10) → "+10 очков"
//	FormatDelta(-2) → "-2 очка"
//	FormatDelta(1)  → "+1 очко"
func FormatDelta(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d %s", delta, PluralizePoints(delta))
	}
	return fmt.Sprintf("%d %s", delta, PluralizePoints(delta))
}
