package cli

import (
	"github.com/spf13/cobra"
)

// NewRulesCommand создаёт группу команд администрирования reputation_rules.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Администрирование правил репутации",
	}
	cmd.AddCommand(newRulesListCommand(rootOpts))
	cmd.AddCommand(newRulesSeedCommand(rootOpts))
	return cmd
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Показать правила",
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

			list, err := application.Rules.List(ctx)
			if err != nil {
				return err
			}
			return writeRules(cmd.OutOrStdout(), rootOpts.Format, list)
		},
	}
}

// RulesSeedOptions — флаги команды rules seed.
type RulesSeedOptions struct {
	*RootOptions
	EntityTypes []string
}

func newRulesSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesSeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Создать правила по реестру для каждого типа сущности",
		Long: `Создать правила по реестру для каждого типа сущности.

Повторный запуск обновляет изменение и группу существующих правил.
Без --entity-types берётся REPUTATION_ENTITY_TYPES.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := openApp(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			defer application.Close()

			entityTypes := opts.EntityTypes
			if len(entityTypes) == 0 {
				entityTypes = application.Config.ReputationEntityTypes
			}
			seeded, err := application.SeedRules(ctx, entityTypes)
			if err != nil {
				return err
			}
			return writeRules(cmd.OutOrStdout(), opts.Format, seeded)
		},
	}

	cmd.Flags().StringSliceVar(&opts.EntityTypes, "entity-types", nil, "типы сущностей через запятую")

	return cmd
}
