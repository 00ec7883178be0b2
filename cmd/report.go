// cmd/report.go
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/observability"
	"github.com/2300033498-rgb/LoginTesting/internal/results"
	"github.com/2300033498-rgb/LoginTesting/internal/store"
)

type runReport struct {
	Summary *results.Summary `json:"summary"`
	Records []results.Record `json:"records"`
}

func newReportCmd() *cobra.Command {
	var (
		runID  string
		asJSON bool
	)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the stored results of a previous run",
		Long:  `Loads the scenario results recorded for a run ID from the results database and prints a summary followed by one line per scenario.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("a run-id must be provided")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres.url is not configured (hint: set LOGINTEST_POSTGRES_URL)")
			}

			pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			storeService, err := store.New(ctx, pool, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize store service: %w", err)
			}

			records, err := storeService.GetRecordsByRunID(ctx, runID)
			if err != nil {
				logger.Error("Failed to load results", zap.Error(err), zap.String("run_id", runID))
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no results recorded for run %s", runID)
			}

			return writeReport(cmd.OutOrStdout(), buildReport(runID, records), asJSON)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The ID of the run to report on (required)")
	reportCmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = reportCmd.MarkFlagRequired("run-id")

	return reportCmd
}

func buildReport(runID string, records []results.Record) runReport {
	started := records[0].StartedAt
	for _, r := range records {
		if r.StartedAt.Before(started) {
			started = r.StartedAt
		}
	}
	summary := results.Summarize(runID, started, records)
	// The run finished when its last scenario did, not when the report was printed.
	finished := started
	for _, r := range records {
		if end := r.StartedAt.Add(r.Duration); end.After(finished) {
			finished = end
		}
	}
	summary.FinishedAt = finished
	summary.Duration = finished.Sub(started)
	return runReport{Summary: summary, Records: records}
}

func writeReport(w io.Writer, rep runReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "Run %s: %s\n\n", rep.Summary.RunID, rep.Summary.String())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tSCENARIO\tBROWSER\tDURATION\tDETAIL")
	for _, r := range rep.Records {
		detail := r.Error
		if r.Screenshot != "" {
			detail += " [" + r.Screenshot + "]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Status, r.Scenario, r.Browser, r.Duration.Round(time.Millisecond), detail)
	}
	return tw.Flush()
}
