package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"remindbot/internal/app"
	"remindbot/internal/config"
	"remindbot/internal/reminder"
)

const version = "0.1.0"

const defaultConfigPath = "./config.yaml"

// NewRoot builds the command tree. Running the root without a subcommand starts the bot.
func NewRoot() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "remindbot",
		Short:         "Telegram bot for medicine and water reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "path to config (json or yaml)")

	root.AddCommand(newRunCommand(&cfgPath))
	root.AddCommand(newCheckConfigCommand(&cfgPath))
	root.AddCommand(newWaterCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newRunCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Telegram and serve reminders until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(*cfgPath)
		},
	}
}

func runBot(cfgPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSIGINT
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	if err := a.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newCheckConfigCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config file and environment overrides without connecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.NewConfigManager(*cfgPath).Parse()
			if err != nil {
				return err
			}
			cmd.Printf("config OK: %s\n", *cfgPath)
			cmd.Printf("timezone: %s\n", cfg.Timezone())
			if config.RequireToken(cfg) != nil {
				cmd.Printf("token: missing (set %s)\n", config.EnvToken)
			} else {
				cmd.Println("token: set")
			}
			return nil
		},
	}
}

func newWaterCommand() *cobra.Command {
	var (
		heightCm      float64
		weightLb      float64
		glassLiters   float64
		activeMinutes int
	)
	cmd := &cobra.Command{
		Use:   "water",
		Short: "Print the daily water plan for a body weight",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := reminder.PlanWater(heightCm, weightLb, glassLiters, activeMinutes)
			if err != nil {
				return err
			}
			cmd.Println(plan.String())
			return nil
		},
	}
	cmd.Flags().Float64Var(&weightLb, "weight-lb", 0, "body weight in pounds")
	cmd.Flags().Float64Var(&heightCm, "height-cm", 0, "height in centimetres (informational)")
	cmd.Flags().Float64Var(&glassLiters, "glass", reminder.DefaultGlass, "glass size in liters")
	cmd.Flags().IntVar(&activeMinutes, "active-minutes", reminder.DefaultActiveMinutes, "minutes in the waking day")
	_ = cmd.MarkFlagRequired("weight-lb")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
