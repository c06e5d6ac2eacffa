package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"testvault/internal/bootstrap"
	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
)

var importCmd = &cobra.Command{
	Use:   "import <snapshot-file>",
	Short: "Import a snapshot, overwriting the collections it carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		return withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			if err := app.InitSchema(ctx); err != nil {
				return errs.Wrap(err, "initialize schema")
			}

			var data []byte
			var err error
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return errs.Wrap(err, "read snapshot")
			}

			if err := svc.Snapshot.ImportAll(ctx, data); err != nil {
				return errs.Wrap(err, "import snapshot")
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "snapshot imported"); err != nil {
				return errs.Wrap(err, "write import output")
			}
			return nil
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
