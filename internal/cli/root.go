// Package cli — дерево команд reputationd.
package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/reputation-engine/internal/app"
	"serotonyl.ru/reputation-engine/internal/config"
)

// RootOptions — глобальные флаги всех команд.
type RootOptions struct {
	Store  string // postgres | memory
	Format string // text | json
}

// ValidFormats — допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создаёт корневую команду reputationd.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reputationd",
		Short: "Сервис репутации пользователей",
		Long: `Сервис репутации пользователей.

Читает доменные события (голоса, принятия, удаления) из очереди event_inbox
и применяет их к репутации ровно один раз с дневным лимитом и нижней границей.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("неизвестный формат %q: допустимо %v", opts.Format, ValidFormats)
			}
			if opts.Store != app.StorePostgres && opts.Store != app.StoreMemory {
				return fmt.Errorf("неизвестное хранилище %q: допустимо %s или %s", opts.Store, app.StorePostgres, app.StoreMemory)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Store, "store", app.StorePostgres, "хранилище (postgres|memory)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "формат вывода (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewResetDailyCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig читает конфигурацию и выставляет уровень логирования из неё.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	return cfg, nil
}

// openApp загружает конфигурацию и собирает приложение в выбранном режиме.
func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, opts.Store)
}
