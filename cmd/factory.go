// File: cmd/factory.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/demoapp"
	"github.com/2300033498-rgb/LoginTesting/internal/lifecycle"
	"github.com/2300033498-rgb/LoginTesting/internal/network"
	"github.com/2300033498-rgb/LoginTesting/internal/results"
	"github.com/2300033498-rgb/LoginTesting/internal/steps"
	"github.com/2300033498-rgb/LoginTesting/internal/store"
)

const probeInterval = 250 * time.Millisecond

// Components holds everything a suite run needs besides the per-scenario browser.
type Components struct {
	Config    *config.Config
	Collector *results.Collector
	Store     results.Store
	DBPool    *pgxpool.Pool
	Probe     *network.Client

	// launchers override how browsers start. Tests inject fakes here.
	launchers []browser.ManagerOption

	demoCancel context.CancelFunc
	demoWG     *sync.WaitGroup
	logger     *zap.Logger
}

// RunOptions are the per-invocation settings that do not live in configuration.
type RunOptions struct {
	RunID     string
	ServeDemo bool
	Launchers []browser.ManagerOption
}

// Shutdown releases the components in reverse order of creation.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning components shutdown sequence.")

	if c.demoCancel != nil {
		c.demoCancel()
		c.demoWG.Wait()
		logger.Debug("Demo app stopped.")
	}
	if c.Probe != nil {
		c.Probe.CloseIdleConnections()
	}
	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}
	logger.Debug("All run components shut down.")
}

// ScenarioInitializer wires one scenario: a fresh browser manager, the lifecycle hooks
// and the step handlers. godog calls it once per scenario, so nothing here is shared
// between concurrently running scenarios except the collector.
func (c *Components) ScenarioInitializer() func(*godog.ScenarioContext) {
	cfg := c.Config
	return func(sc *godog.ScenarioContext) {
		manager := browser.NewManager(c.logger, cfg.Browser, c.launchers...)

		opts := []lifecycle.Option{lifecycle.WithRecorder(c.Collector)}
		if cfg.Report.Screenshots {
			opts = append(opts,
				lifecycle.WithSink(lifecycle.FileSink{Dir: filepath.Join(cfg.Report.Dir, "screenshots")}),
				lifecycle.WithPageSource())
		}
		// Order matters: the lifecycle Before hook acquires the session the steps bind to.
		lifecycle.New(c.logger, manager, opts...).Register(sc)
		steps.New(c.logger, manager, cfg.Target, cfg.UI).Register(sc)
	}
}

// ComponentFactory creates the components for a run.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, opts RunOptions) (*Components, error)
}

type concreteFactory struct {
	logger *zap.Logger
}

// NewComponentFactory creates the production factory.
func NewComponentFactory(logger *zap.Logger) ComponentFactory {
	return &concreteFactory{logger: logger}
}

// Create initializes the run components. On error, anything created so far is shut down.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, opts RunOptions) (*Components, error) {
	logger := f.logger
	components := &Components{
		Config:    cfg,
		Collector: results.NewCollector(opts.RunID),
		launchers: opts.Launchers,
		logger:    logger,
	}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Bundled demo app, when asked to serve it in-process.
	if opts.ServeDemo {
		server, err := demoapp.New(logger, cfg.DemoApp)
		if err != nil {
			initializationErr = fmt.Errorf("failed to create demo app: %w", err)
			return nil, initializationErr
		}
		demoCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		components.demoCancel = cancel
		components.demoWG = &sync.WaitGroup{}
		components.demoWG.Add(1)
		go func() {
			defer components.demoWG.Done()
			if err := server.ListenAndServe(demoCtx); err != nil {
				logger.Error("Demo app stopped with error", zap.Error(err))
			}
		}()
	}

	// 2. Readiness probe against the application under test.
	probeCfg := network.NewDefaultClientConfig()
	probeCfg.Logger = logger.Named("probe")
	components.Probe = network.NewClient(probeCfg)
	if cfg.Target.WaitReachable > 0 {
		for _, url := range readinessURLs(cfg.Target) {
			if err := components.Probe.WaitReachable(ctx, url, cfg.Target.WaitReachable, probeInterval); err != nil {
				initializationErr = fmt.Errorf("application under test is not reachable: %w", err)
				return nil, initializationErr
			}
			logger.Info("Application under test is reachable", zap.String("url", url))
		}
	}

	// 3. Optional results history.
	if cfg.Postgres.URL == "" {
		logger.Debug("No postgres.url configured, results are kept on disk only.")
		return components, nil
	}
	dbPool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		initializationErr = fmt.Errorf("failed to create database connection pool: %w", err)
		return nil, initializationErr
	}
	components.DBPool = dbPool

	dbStore, err := store.New(ctx, dbPool, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize database store: %w", err)
		return nil, initializationErr
	}
	if err := dbStore.EnsureSchema(ctx); err != nil {
		initializationErr = fmt.Errorf("failed to prepare results schema: %w", err)
		return nil, initializationErr
	}
	components.Store = dbStore
	logger.Debug("Results store initialized.")

	return components, nil
}

var errScenariosFailed = errors.New("one or more scenarios failed")

// readinessURLs lists what must answer before a run: the login page and, when an API
// is configured, its health endpoint.
func readinessURLs(target config.TargetConfig) []string {
	urls := []string{target.BaseURL}
	if api := strings.TrimRight(target.APIURL, "/"); api != "" {
		urls = append(urls, api+"/health")
	}
	return urls
}
