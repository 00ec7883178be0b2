// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/observability"
	"github.com/2300033498-rgb/LoginTesting/internal/results"
)

// reportFiles maps godog formatter names onto the file each one writes under report.dir.
// Formatters without an entry write to the console.
var reportFiles = map[string]string{
	"cucumber": "cucumber.json",
	"junit":    "junit.xml",
	"events":   "events.ndjson",
}

func newRunCmd() *cobra.Command {
	var (
		runID       string
		serveDemo   bool
		concurrency int
	)

	runCmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the login feature scenarios against a browser",
		Long: `Runs every scenario in the given feature files (default: report.features) with a fresh
browser session per scenario. Failed scenarios get a screenshot attached to the reports.
The command exits non-zero when any scenario fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()

			if len(args) > 0 {
				cfg.Report.Features = args
			}
			if runID == "" {
				runID = uuid.NewString()
			}

			components, err := NewComponentFactory(logger).Create(ctx, cfg, RunOptions{RunID: runID, ServeDemo: serveDemo})
			if err != nil {
				return err
			}
			defer components.Shutdown()

			summary, err := runSuite(ctx, components, concurrency, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			if !summary.OK() {
				return errScenariosFailed
			}
			return nil
		},
	}

	flags := runCmd.Flags()
	flags.String("browser", "chrome", "Browser family: chrome, firefox or edge")
	flags.Bool("headless", false, "Run the browser without a visible window")
	flags.String("tags", "", "Only run scenarios matching this tag expression (e.g. \"@smoke && ~@slow\")")
	flags.StringVar(&runID, "run-id", "", "Identifier for this run (default: random UUID)")
	flags.BoolVar(&serveDemo, "serve-demo", false, "Start the bundled demo login app before running")
	flags.IntVar(&concurrency, "concurrency", 1, "Number of scenarios to run in parallel, each with its own browser")

	_ = viper.BindPFlag("browser.family", flags.Lookup("browser"))
	_ = viper.BindPFlag("browser.headless", flags.Lookup("headless"))
	_ = viper.BindPFlag("report.tags", flags.Lookup("tags"))

	return runCmd
}

// runSuite executes the configured features and finalizes the results.
func runSuite(ctx context.Context, c *Components, concurrency int, console io.Writer) (*results.Summary, error) {
	cfg := c.Config
	logger := c.logger

	if err := os.MkdirAll(cfg.Report.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	opts := godog.Options{
		Format:      formatSpec(cfg.Report.Dir, cfg.Report.Formats),
		Output:      console,
		Paths:       cfg.Report.Features,
		Tags:        cfg.Report.Tags,
		Concurrency: concurrency,
		Strict:      true,
	}

	logger.Info("Starting scenario run",
		zap.String("run_id", c.Collector.RunID()),
		zap.String("browser", cfg.Browser.Family),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Strings("features", cfg.Report.Features),
		zap.String("tags", cfg.Report.Tags))

	suite := godog.TestSuite{
		Name:                "login",
		ScenarioInitializer: c.ScenarioInitializer(),
		Options:             &opts,
	}
	status := suite.Run()
	if status == 2 {
		return nil, fmt.Errorf("invalid suite options (format %q, paths %v)", opts.Format, opts.Paths)
	}

	summary, err := results.Finalize(ctx, c.Collector, cfg.Report.Dir, c.Store)
	if err != nil {
		logger.Warn("Failed to finalize results", zap.Error(err))
	}
	// godog counts failures the collector cannot see, such as undefined steps in strict mode.
	if status != 0 && summary.OK() {
		summary.Failed++
	}
	return summary, nil
}

// formatSpec renders report formats as godog's "name:path" list.
func formatSpec(dir string, formats []string) string {
	specs := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if file, ok := reportFiles[f]; ok {
			specs = append(specs, f+":"+filepath.Join(dir, file))
			continue
		}
		specs = append(specs, f)
	}
	if len(specs) == 0 {
		return "pretty"
	}
	return strings.Join(specs, ",")
}
