package middleware

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/transport"
)

// LogDelivery логирует входящее сообщение.
// Записывает: номер попытки и тело (первые 200 байт).
func LogDelivery(d transport.Delivery) {
	body := string(d.Body())
	if len(body) > 200 {
		body = body[:200] + "..."
	}

	log.WithFields(log.Fields{
		"attempt": d.Attempt(),
		"body":    body,
	}).Debug("Входящее сообщение")
}
