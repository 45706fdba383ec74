package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/reputation-engine/internal/app"
	"serotonyl.ru/reputation-engine/internal/db/postgres"
)

// NewMigrateCommand создаёт команду migrate: применить встроенные миграции.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Применить миграции схемы PostgreSQL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Store != app.StorePostgres {
				return fmt.Errorf("migrate работает только с --store=%s", app.StorePostgres)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg)
			if err != nil {
				return fmt.Errorf("ошибка подключения к БД: %w", err)
			}
			defer pool.Close()

			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("ошибка миграций: %w", err)
			}
			log.Info("Миграции применены")
			return nil
		},
	}
}
