// Package middleware содержит обёртки обработки доставки:
// восстановление после паники и логирование.
package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic вызывается через defer. Паника логируется со стеком
// и передаётся в onPanic, чтобы вызывающий вернул сообщение в очередь.
func RecoverFromPanic(onPanic func(err error)) {
	if r := recover(); r != nil {
		err := fmt.Errorf("паника: %v", r)
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
		if onPanic != nil {
			onPanic(err)
		}
	}
}
