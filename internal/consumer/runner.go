// Package consumer читает сообщения из транспорта и передаёт их движку репутации.
// runner.go — цикл опроса с ограничением параллелизма.
package consumer

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/consumer/middleware"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/transport"
)

// Applier применяет одно событие. Реализует reputation.Consumer.
type Applier interface {
	ApplyEvent(ctx context.Context, ev reputation.Event) (reputation.Outcome, error)
}

// Options — параметры цикла.
type Options struct {
	BatchSize    int
	PollInterval time.Duration
	MaxInflight  int
}

// Runner опрашивает источник и обрабатывает сообщения параллельно.
type Runner struct {
	source  transport.Source
	applier Applier
	batch   int
	poll    time.Duration

	// ограничитель параллелизма обработки сообщений
	inflight chan struct{}
	wg       sync.WaitGroup
}

// NewRunner создаёт цикл обработки.
func NewRunner(source transport.Source, applier Applier, opts Options) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = 16
	}
	return &Runner{
		source:   source,
		applier:  applier,
		batch:    opts.BatchSize,
		poll:     opts.PollInterval,
		inflight: make(chan struct{}, opts.MaxInflight),
	}
}

// Run крутит цикл до отмены ctx. Перед выходом дожидается сообщений в работе:
// они дорабатываются без отмены, чтобы подтверждение не потерялось после коммита.
func (r *Runner) Run(ctx context.Context) {
	log.WithFields(log.Fields{
		"batch":        r.batch,
		"max_inflight": cap(r.inflight),
		"poll":         r.poll,
	}).Info("Потребитель событий запущен")

	work := context.WithoutCancel(ctx)
	defer func() {
		r.wg.Wait()
		log.Info("Потребитель событий остановлен")
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		deliveries, err := r.source.Fetch(ctx, r.batch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("Ошибка получения сообщений")
		}
		if len(deliveries) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.poll):
			}
			continue
		}

		for _, d := range deliveries {
			// лимит параллелизма
			r.inflight <- struct{}{}
			r.wg.Add(1)
			go func(d transport.Delivery) {
				defer r.wg.Done()
				defer func() { <-r.inflight }()
				r.Handle(work, d)
			}(d)
		}
	}
}

// Handle обрабатывает одно сообщение:
//   - некорректное сообщение уходит в dead-letter;
//   - любой исход (Applied, Skipped, Rejected) подтверждается;
//   - ошибка инфраструктуры или паника возвращает сообщение в очередь.
func (r *Runner) Handle(ctx context.Context, d transport.Delivery) {
	defer middleware.RecoverFromPanic(func(err error) {
		r.nack(ctx, d, err)
	})
	middleware.LogDelivery(d)

	ev, err := reputation.DecodeEvent(d.Body())
	if err != nil {
		log.WithError(err).Warn("Некорректное сообщение отложено в dead-letter")
		if err := d.DeadLetter(ctx, err); err != nil {
			log.WithError(err).Error("Ошибка переноса сообщения в dead-letter")
		}
		return
	}

	out, err := r.applier.ApplyEvent(ctx, ev)
	if err != nil {
		log.WithFields(log.Fields{
			"event_id": ev.EventID,
			"attempt":  d.Attempt(),
		}).WithError(err).Error("Ошибка обработки события, будет повтор")
		r.nack(ctx, d, err)
		return
	}

	if err := d.Ack(ctx); err != nil {
		// Событие уже помечено: повторная доставка завершится Skipped
		log.WithFields(log.Fields{
			"event_id": ev.EventID,
			"outcome":  out.Status,
		}).WithError(err).Error("Ошибка подтверждения сообщения")
	}
}

func (r *Runner) nack(ctx context.Context, d transport.Delivery, cause error) {
	if err := d.Nack(ctx, cause); err != nil {
		log.WithError(err).Error("Ошибка возврата сообщения в очередь")
	}
}
