// Package users — service.go содержит ежедневный сброс заработанной репутации.
package users

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/common"
)

// DailyResetter обнуляет дневной заработок. Реализуют Repository и memory.Store.
type DailyResetter interface {
	ResetDailyEarned(ctx context.Context) (int64, error)
}

// Service управляет ежедневным сбросом.
type Service struct {
	repo DailyResetter
	loc  *time.Location
	now  common.Clock
}

// NewService создаёт сервис сброса. loc — часовой пояс, в котором считаются сутки.
func NewService(repo DailyResetter, loc *time.Location) *Service {
	return &Service{repo: repo, loc: loc, now: common.SystemClock}
}

// WithClock подменяет часы (для тестов).
func (s *Service) WithClock(now common.Clock) *Service {
	s.now = now
	return s
}

// ResetDailyEarned обнуляет reputation_earned_today у всех пользователей.
// Запускается кроном раз в сутки. Репутацию не трогает.
func (s *Service) ResetDailyEarned(ctx context.Context) error {
	day := common.StartOfDay(s.now(), s.loc)
	log.WithField("day", day.Format("2006-01-02")).Info("Запуск ежедневного сброса заработанной репутации")

	affected, err := s.repo.ResetDailyEarned(ctx)
	if err != nil {
		return fmt.Errorf("ошибка ежедневного сброса: %w", err)
	}

	log.WithFields(log.Fields{
		"day":   day.Format("2006-01-02"),
		"users": affected,
	}).Info("Ежедневный сброс завершён")
	return nil
}
