// Package processed — service.go содержит периодическую очистку журнала.
package processed

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/common"
)

// Purger удаляет старые маркеры. Реализуют Repository и memory.Store.
type Purger interface {
	PurgeOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

// Service управляет очисткой журнала идемпотентности.
type Service struct {
	repo      Purger
	retention time.Duration
	now       common.Clock
}

// NewService создаёт сервис очистки. retention <= 0 — DefaultRetention.
func NewService(repo Purger, retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{repo: repo, retention: retention, now: common.SystemClock}
}

// WithClock подменяет часы (для тестов).
func (s *Service) WithClock(now common.Clock) *Service {
	s.now = now
	return s
}

// Purge удаляет маркеры старше окна хранения.
func (s *Service) Purge(ctx context.Context) error {
	_, err := s.PurgeOlderThan(ctx, common.RetentionThreshold(s.now(), s.retention))
	return err
}

// PurgeOlderThan удаляет маркеры старше threshold.
func (s *Service) PurgeOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	deleted, err := s.repo.PurgeOlderThan(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала идемпотентности: %w", err)
	}

	log.WithFields(log.Fields{
		"threshold": threshold.Format(time.RFC3339),
		"deleted":   deleted,
	}).Info("Журнал идемпотентности очищен")
	return deleted, nil
}
