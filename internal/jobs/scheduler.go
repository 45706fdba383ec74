// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный сброс заработанной
// репутации и очистка журнала идемпотентности.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DailyResetter — ежедневный сброс. Реализует users.Service.
type DailyResetter interface {
	ResetDailyEarned(ctx context.Context) error
}

// Purger — очистка маркеров обработки. Реализует processed.Service.
type Purger interface {
	Purge(ctx context.Context) error
}

// Specs — расписания задач в формате cron.
type Specs struct {
	DailyReset string
	Purge      string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron   *cron.Cron
	loc    *time.Location
	specs  Specs
	reset  DailyResetter
	purger Purger
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(reset DailyResetter, purger Purger, specs Specs, loc *time.Location) *Scheduler {
	if loc == nil {
		log.Warn("Часовой пояс не задан, используем UTC")
		loc = time.UTC
	}
	if specs.DailyReset == "" {
		specs.DailyReset = "0 0 * * *"
	}
	if specs.Purge == "" {
		specs.Purge = "30 0 * * *"
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		loc:    loc,
		specs:  specs,
		reset:  reset,
		purger: purger,
	}
}

// Start регистрирует задачи и запускает планировщик.
// Ошибка задачи логируется и не останавливает расписание.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.specs.DailyReset, func() { s.RunDailyReset(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание сброса %q: %w", s.specs.DailyReset, err)
	}
	if _, err := s.cron.AddFunc(s.specs.Purge, func() { s.RunPurge(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание очистки %q: %w", s.specs.Purge, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"timezone":    s.loc.String(),
		"daily_reset": s.specs.DailyReset,
		"purge":       s.specs.Purge,
	}).Info("Планировщик задач запущен")
	return nil
}

// RunDailyReset выполняет ежедневный сброс один раз.
func (s *Scheduler) RunDailyReset(ctx context.Context) {
	log.Info("[CRON] Ежедневный сброс заработанной репутации")
	if err := s.reset.ResetDailyEarned(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса")
	}
}

// RunPurge выполняет очистку журнала идемпотентности один раз.
func (s *Scheduler) RunPurge(ctx context.Context) {
	log.Info("[CRON] Очистка журнала идемпотентности")
	if err := s.purger.Purge(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка очистки")
	}
}

// Entries возвращает число зарегистрированных задач.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
