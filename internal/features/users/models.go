// Package users работает с репутационной частью пользователя.
// Сами пользователи принадлежат подсистеме профилей; здесь меняются
// только reputation и reputation_earned_today.
// models.go описывает состояние репутации.
package users

import "time"

// MinReputation — нижняя граница репутации, ниже опускаться нельзя.
const MinReputation = 1

// User — репутационное состояние пользователя.
type User struct {
	ID                    int64     `db:"id"`
	Reputation            int       `db:"reputation"`              // Всегда >= 1
	ReputationEarnedToday int       `db:"reputation_earned_today"` // 0..MaxDailyReputation
	UpdatedAt             time.Time `db:"updated_at"`
}

// State — снимок значений после изменения.
type State struct {
	UserID                int64
	Reputation            int
	ReputationEarnedToday int
}

// State возвращает снимок значений пользователя.
func (u *User) State() State {
	return State{UserID: u.ID, Reputation: u.Reputation, ReputationEarnedToday: u.ReputationEarnedToday}
}
