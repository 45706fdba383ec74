// Package transport описывает доставку входящих сообщений.
// Доставка «хотя бы один раз»: сообщение подтверждается только после
// коммита единицы работы, иначе транспорт доставит его снова.
package transport

import "context"

// Delivery — одно доставленное сообщение.
type Delivery interface {
	Body() []byte
	// Attempt — номер доставки, начиная с 1.
	Attempt() int
	// Ack удаляет сообщение из очереди.
	Ack(ctx context.Context) error
	// Nack возвращает сообщение для повторной доставки (или в dead-letter по лимиту попыток).
	Nack(ctx context.Context, cause error) error
	// DeadLetter откладывает сообщение для разбора оператором без повторов.
	DeadLetter(ctx context.Context, cause error) error
}

// Source выдаёт пачки сообщений.
type Source interface {
	Fetch(ctx context.Context, limit int) ([]Delivery, error)
}
