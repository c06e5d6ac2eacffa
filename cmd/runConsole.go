package cmd

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"testvault/internal/bootstrap"
	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
	"testvault/internal/usecase/runconsole"
)

var (
	consoleRunID   string
	consoleRefresh time.Duration
)

var runConsoleCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a test run from the terminal",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if consoleRunID == "" {
			return fmt.Errorf("--run is required")
		}
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		model := runconsole.NewModel(ctx, svc.Registry, svc.Runs, runconsole.Options{
			RunID:           consoleRunID,
			RefreshInterval: consoleRefresh,
		})
		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
			return errs.Wrap(err, "run console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(runConsoleCmd)
	runConsoleCmd.Flags().StringVar(&consoleRunID, "run", "", "test run id")
	runConsoleCmd.Flags().DurationVar(&consoleRefresh, "refresh", 30*time.Second, "refresh interval")
}
