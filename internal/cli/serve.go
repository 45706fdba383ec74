package cli

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewServeCommand создаёт команду serve: потребитель очереди и планировщик.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Обрабатывать события из очереди и запускать плановые задачи",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rootOpts)
		},
	}
}

func serve(parent context.Context, opts *RootOptions) error {
	log.Info("=== Сервис репутации запускается ===")

	// Отмена по SIGINT/SIGTERM (Ctrl+C, docker stop)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer application.Close()

	// Запускаем планировщик задач (cron)
	if err := application.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer application.Scheduler.Stop()

	log.WithFields(log.Fields{
		"store":     opts.Store,
		"max_daily": application.Engine.MaxDaily(),
	}).Info("=== Сервис репутации готов к работе ===")

	// Run возвращается после отмены ctx и завершения сообщений в работе
	application.Runner.Run(ctx)

	log.Info("=== Сервис репутации остановлен ===")
	return nil
}
