package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"serotonyl.ru/reputation-engine/internal/app"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
)

// ApplyOptions — флаги команды apply.
type ApplyOptions struct {
	*RootOptions
	File       string
	Enqueue    bool
	EnsureUser bool
}

// NewApplyCommand создаёт команду apply: одно событие из stdin или файла.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Применить одно событие",
		Long: `Применить одно событие в формате JSON.

Событие читается из --file или из stdin. С --enqueue событие кладётся
в event_inbox и будет обработано командой serve.

Пример:
  echo '{"eventId":"…","eventType":"entity-upvoted","userId":7,"entityId":42,"entityType":"answer"}' \
    | reputationd apply --store=memory --ensure-user`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyEvent(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "файл с событием (по умолчанию stdin)")
	cmd.Flags().BoolVar(&opts.Enqueue, "enqueue", false, "положить событие в очередь вместо применения")
	cmd.Flags().BoolVar(&opts.EnsureUser, "ensure-user", false, "создать пользователя с минимальной репутацией, если его нет")

	return cmd
}

func applyEvent(cmd *cobra.Command, opts *ApplyOptions) error {
	if opts.Enqueue && opts.Store == app.StoreMemory {
		return fmt.Errorf("--enqueue требует --store=%s: очередь в памяти не переживёт процесс", app.StorePostgres)
	}

	data, err := readInput(cmd, opts.File)
	if err != nil {
		return err
	}
	ev, err := reputation.DecodeEvent(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	application, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer application.Close()

	if opts.EnsureUser {
		if err := application.EnsureUser(ctx, ev.UserID); err != nil {
			return err
		}
	}

	if opts.Enqueue {
		if err := application.Publish(ctx, ev); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "событие %s поставлено в очередь\n", ev.EventID)
		return err
	}

	out, err := application.Consumer.ApplyEvent(ctx, ev)
	if err != nil {
		return err
	}
	return writeOutcome(cmd.OutOrStdout(), opts.Format, out)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	return data, nil
}
