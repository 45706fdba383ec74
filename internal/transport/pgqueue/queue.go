// Package pgqueue — очередь входящих событий на таблице event_inbox.
//
// Fetch захватывает строки через FOR UPDATE SKIP LOCKED и сдвигает
// available_at на время аренды. Если процесс упал, аренда истекает
// и строка доставляется снова. Ack удаляет строку после коммита
// единицы работы; Nack откладывает повтор или переводит строку в dead.
package pgqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/transport"
)

// Options — параметры очереди.
type Options struct {
	Lease         time.Duration // Сколько сообщение невидимо после Fetch
	MaxAttempts   int           // После стольких доставок сообщение уходит в dead
	RetryDelay    time.Duration // Шаг линейной задержки повтора
	MaxRetryDelay time.Duration
}

// Queue — очередь на PostgreSQL.
type Queue struct {
	pool *pgxpool.Pool
	opts Options
	now  common.Clock
}

// New создаёт очередь. Нулевые параметры заменяются значениями по умолчанию.
func New(pool *pgxpool.Pool, opts Options) *Queue {
	if opts.Lease <= 0 {
		opts.Lease = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = 5 * time.Minute
	}
	return &Queue{pool: pool, opts: opts, now: common.SystemClock}
}

// retryDelay — линейная задержка перед доставкой номер attempt+1.
func (o Options) retryDelay(attempt int) time.Duration {
	d := o.RetryDelay * time.Duration(attempt)
	if d > o.MaxRetryDelay {
		return o.MaxRetryDelay
	}
	return d
}

// Publish кладёт событие в очередь.
func (q *Queue) Publish(ctx context.Context, ev reputation.Event) (int64, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации события: %w", err)
	}
	return q.PublishRaw(ctx, &ev.EventID, body)
}

// PublishRaw кладёт сырое сообщение. eventID сохраняется только для поиска оператором.
func (q *Queue) PublishRaw(ctx context.Context, eventID *uuid.UUID, body []byte) (int64, error) {
	var id int64
	err := q.pool.QueryRow(ctx,
		`INSERT INTO event_inbox (event_id, payload, available_at) VALUES ($1, $2, $3) RETURNING id`,
		eventID, body, q.now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи в event_inbox: %w", err)
	}
	return id, nil
}

// Fetch захватывает до limit доступных сообщений.
func (q *Queue) Fetch(ctx context.Context, limit int) ([]transport.Delivery, error) {
	now := q.now()
	query := `
		WITH picked AS (
			SELECT id FROM event_inbox
			WHERE NOT dead AND available_at <= $1
			ORDER BY available_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE event_inbox i
		SET attempts = i.attempts + 1, available_at = $3
		FROM picked
		WHERE i.id = picked.id
		RETURNING i.id, i.payload, i.attempts
	`
	rows, err := q.pool.Query(ctx, query, now, limit, now.Add(q.opts.Lease))
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки из event_inbox: %w", err)
	}
	defer rows.Close()

	var out []transport.Delivery
	for rows.Next() {
		d := &delivery{q: q}
		if err := rows.Scan(&d.id, &d.body, &d.attempt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сообщения: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения event_inbox: %w", err)
	}
	return out, nil
}

// Stats возвращает число живых и отложенных (dead) сообщений.
func (q *Queue) Stats(ctx context.Context) (pending, dead int64, err error) {
	err = q.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE NOT dead), COUNT(*) FILTER (WHERE dead)
		FROM event_inbox
	`).Scan(&pending, &dead)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка подсчёта event_inbox: %w", err)
	}
	return pending, dead, nil
}

type delivery struct {
	q       *Queue
	id      int64
	body    []byte
	attempt int
}

func (d *delivery) Body() []byte { return d.body }
func (d *delivery) Attempt() int { return d.attempt }

func (d *delivery) Ack(ctx context.Context) error {
	if _, err := d.q.pool.Exec(ctx, `DELETE FROM event_inbox WHERE id = $1`, d.id); err != nil {
		return fmt.Errorf("ошибка подтверждения сообщения %d: %w", d.id, err)
	}
	return nil
}

func (d *delivery) Nack(ctx context.Context, cause error) error {
	dead := d.attempt >= d.q.opts.MaxAttempts
	next := d.q.now().Add(d.q.opts.retryDelay(d.attempt))
	if err := d.update(ctx, next, cause, dead); err != nil {
		return err
	}
	if dead {
		log.WithFields(log.Fields{
			"inbox_id": d.id,
			"attempts": d.attempt,
		}).WithError(cause).Error("Сообщение исчерпало попытки и отложено в dead-letter")
	}
	return nil
}

func (d *delivery) DeadLetter(ctx context.Context, cause error) error {
	return d.update(ctx, d.q.now(), cause, true)
}

func (d *delivery) update(ctx context.Context, availableAt time.Time, cause error, dead bool) error {
	var lastErr *string
	if cause != nil {
		s := cause.Error()
		lastErr = &s
	}
	_, err := d.q.pool.Exec(ctx,
		`UPDATE event_inbox SET available_at = $2, last_error = $3, dead = $4 WHERE id = $1`,
		d.id, availableAt, lastErr, dead,
	)
	if err != nil {
		return fmt.Errorf("ошибка возврата сообщения %d: %w", d.id, err)
	}
	return nil
}
