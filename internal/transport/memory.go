package transport

import (
	"context"
	"sync"
)

// Memory — очередь в памяти процесса (локальный запуск и тесты).
type Memory struct {
	mu          sync.Mutex
	pending     []*memoryDelivery
	acked       [][]byte
	dead        [][]byte
	maxAttempts int
}

// NewMemory создаёт очередь. После maxAttempts неудачных доставок сообщение уходит в dead-letter.
func NewMemory(maxAttempts int) *Memory {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Memory{maxAttempts: maxAttempts}
}

// Publish кладёт сообщение в конец очереди.
func (m *Memory) Publish(body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, &memoryDelivery{m: m, body: body})
}

// Fetch забирает до limit сообщений.
func (m *Memory) Fetch(_ context.Context, limit int) ([]Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.pending) {
		limit = len(m.pending)
	}
	out := make([]Delivery, 0, limit)
	for _, d := range m.pending[:limit] {
		d.attempt++
		out = append(out, d)
	}
	m.pending = m.pending[limit:]
	return out, nil
}

// Stats возвращает число ожидающих, подтверждённых и отложенных сообщений.
func (m *Memory) Stats() (pending, acked, dead int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending), len(m.acked), len(m.dead)
}

type memoryDelivery struct {
	m       *Memory
	body    []byte
	attempt int
}

func (d *memoryDelivery) Body() []byte { return d.body }
func (d *memoryDelivery) Attempt() int { return d.attempt }

func (d *memoryDelivery) Ack(context.Context) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	d.m.acked = append(d.m.acked, d.body)
	return nil
}

func (d *memoryDelivery) Nack(context.Context, error) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if d.attempt >= d.m.maxAttempts {
		d.m.dead = append(d.m.dead, d.body)
		return nil
	}
	d.m.pending = append(d.m.pending, d)
	return nil
}

func (d *memoryDelivery) DeadLetter(context.Context, error) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	d.m.dead = append(d.m.dead, d.body)
	return nil
}
