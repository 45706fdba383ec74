// Package main — точка входа сервиса репутации.
// Настраивает логирование и передаёт управление дереву команд.
package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/cli"
)

func main() {
	// Настраиваем логирование
	setupLogging()

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Fatal("Команда завершилась с ошибкой")
	}
}

// setupLogging настраивает формат логов.
// Уровень потом берётся из APP_LOG_LEVEL при загрузке конфигурации.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
