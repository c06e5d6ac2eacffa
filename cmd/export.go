package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"testvault/internal/bootstrap"
	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
)

var exportOutputFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all collections as a snapshot",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		data, err := svc.Snapshot.ExportAll(ctx)
		if err != nil {
			return errs.Wrap(err, "export snapshot")
		}

		if exportOutputFile == "" || exportOutputFile == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return errs.Wrap(err, "write snapshot")
		}

		if err := os.WriteFile(exportOutputFile, data, 0o644); err != nil {
			return errs.Wrap(err, "write snapshot file")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "snapshot written: %s\n", exportOutputFile); err != nil {
			return errs.Wrap(err, "write export output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutputFile, "output", "o", "", "output file (default stdout)")
}
