package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"testvault/internal/bootstrap"
	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
	"testvault/internal/usecase/insights"
)

var reportDays int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print dashboard and windowed report metrics",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		dashboard, err := svc.Insights.Dashboard(ctx)
		if err != nil {
			return errs.Wrap(err, "compute dashboard metrics")
		}
		report, err := svc.Insights.Report(ctx, insights.TrailingWindow(reportDays, time.Now().UTC()))
		if err != nil {
			return errs.Wrap(err, "compute report metrics")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "test cases: %d\n", dashboard.TotalTestCases)
		for status, n := range dashboard.ByStatus {
			fmt.Fprintf(out, "  status %-10s %d\n", status, n)
		}
		for priority, n := range dashboard.ByPriority {
			fmt.Fprintf(out, "  priority %-8s %d\n", priority, n)
		}
		fmt.Fprintf(out, "executions (all time): %d  pass %.1f%%  fail %.1f%%  skip %.1f%%  blocked %.1f%%\n",
			dashboard.Execution.TotalExecutions,
			dashboard.Execution.PassRate,
			dashboard.Execution.FailRate,
			dashboard.Execution.SkipRate,
			dashboard.Execution.BlockRate,
		)
		fmt.Fprintf(out, "executions (last %d days): %d  pass %.1f%%  fail %.1f%%\n",
			reportDays,
			report.Execution.TotalExecutions,
			report.Execution.PassRate,
			report.Execution.FailRate,
		)
		fmt.Fprintln(out, "trend (oldest first):")
		for _, bucket := range report.Trend {
			fmt.Fprintf(out, "  %s  pass %-3d fail %-3d skipped %d\n", bucket.Date, bucket.Pass, bucket.Fail, bucket.Skipped)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportDays, "days", 7, "trailing window in days (7, 30 or 90)")
}
