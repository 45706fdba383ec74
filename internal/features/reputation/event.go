// Package reputation — движок обработки событий репутации.
//
// Потребитель получает доменные события (голоса, принятия, удаления),
// гарантирует, что каждое событие меняет репутацию не более одного раза
// при доставке «хотя бы один раз», превращает событие в знаковую дельту
// через реестр правил и применяет её с соблюдением минимума и дневного лимита,
// записывая изменение в журнал в той же транзакции.
//
// event.go описывает входящее сообщение.
package reputation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"serotonyl.ru/reputation-engine/internal/common"
)

// Event — входящее сообщение транспорта. Как доменная сущность не хранится.
type Event struct {
	EventID      uuid.UUID `json:"eventId"`
	EventType    string    `json:"eventType"`
	UserID       int64     `json:"userId"` // Чья репутация меняется
	EntityID     int64     `json:"entityId"`
	EntityType   string    `json:"entityType"`
	CancelsEvent *string   `json:"cancelsEvent"` // Тип ранее применённого события, которое отменяется
}

// Cancels возвращает отменяемый тип события, если он указан.
func (e Event) Cancels() (string, bool) {
	if e.CancelsEvent == nil || *e.CancelsEvent == "" {
		return "", false
	}
	return *e.CancelsEvent, true
}

// Validate проверяет обязательные поля.
// Тип события здесь не проверяется: это делает реестр правил.
func (e Event) Validate() error {
	switch {
	case e.EventID == uuid.Nil:
		return fmt.Errorf("%w: пустой eventId", common.ErrMalformedEvent)
	case e.UserID <= 0:
		return fmt.Errorf("%w: некорректный userId %d", common.ErrMalformedEvent, e.UserID)
	case e.EntityType == "":
		return fmt.Errorf("%w: пустой entityType", common.ErrMalformedEvent)
	}
	return nil
}

// DecodeEvent разбирает JSON-сообщение и проверяет его.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", common.ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
