package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"serotonyl.ru/reputation-engine/internal/common"
)

// NewResetDailyCommand создаёт команду reset-daily: ручной запуск ежедневного сброса.
func NewResetDailyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset-daily",
		Short:         "Обнулить дневной заработок репутации у всех пользователей",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Users.ResetDailyEarned(ctx)
		},
	}
}

// PurgeOptions — флаги команды purge.
type PurgeOptions struct {
	*RootOptions
	OlderThan time.Duration
}

// NewPurgeCommand создаёт команду purge: очистка журнала идемпотентности.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Удалить маркеры обработанных событий старше окна хранения",
		Long: `Удалить маркеры обработанных событий старше окна хранения.

Без --older-than берётся PROCESSED_EVENTS_RETENTION. Окно не может быть
короче TRANSPORT_MAX_REDELIVERY_WINDOW: иначе повторная доставка пройдёт
проверку идемпотентности.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return purge(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", 0, "окно хранения (по умолчанию PROCESSED_EVENTS_RETENTION)")

	return cmd
}

func purge(cmd *cobra.Command, opts *PurgeOptions) error {
	ctx := cmd.Context()
	application, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer application.Close()

	cfg := application.Config
	retention := opts.OlderThan
	if retention == 0 {
		retention = cfg.ProcessedEventsRetention
	}
	if retention < cfg.TransportMaxRedeliveryWindow {
		return fmt.Errorf("--older-than %s меньше окна повторной доставки %s", retention, cfg.TransportMaxRedeliveryWindow)
	}

	deleted, err := application.Processed.PurgeOlderThan(ctx, common.RetentionThreshold(time.Now(), retention))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "удалено маркеров: %d\n", deleted)
	return err
}
