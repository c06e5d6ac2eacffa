package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"testvault/internal/bootstrap"
	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
	"testvault/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo suites and test cases from a TOML fixture",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		suites, cases, err := seed.Apply(ctx, svc.Registry, seedFile)
		if err != nil {
			return errs.Wrap(err, "apply fixtures")
		}

		logging.Info(ctx, "fixtures applied", slog.Int("suites", suites), slog.Int("cases", cases))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "seeded %d suites, %d test cases\n", suites, cases); err != nil {
			return errs.Wrap(err, "write seed output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.toml", "fixture file")
}
