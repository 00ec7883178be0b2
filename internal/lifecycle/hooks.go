// Package lifecycle wraps every scenario with session acquisition, failure capture and
// guaranteed teardown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/observability"
	"github.com/2300033498-rgb/LoginTesting/internal/results"
)

// State of the per-worker scenario machine.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

const (
	screenshotMediaType = "image/png"
	captureTimeout      = 10 * time.Second
)

// SessionManager owns the browser session for one worker. *browser.Manager satisfies it.
type SessionManager interface {
	Acquire(ctx context.Context) (*browser.Session, error)
	Current() (*browser.Session, error)
	Release(ctx context.Context) error
}

// Recorder receives one record per finished scenario. *results.Collector satisfies it.
type Recorder interface {
	Add(r results.Record)
}

// ScenarioContext is the subset of *godog.ScenarioContext the hooks register into.
type ScenarioContext interface {
	Before(h godog.BeforeScenarioHook)
	After(h godog.AfterScenarioHook)
}

// Attacher adds an artifact to the scenario's report record.
type Attacher func(ctx context.Context, a Artifact) context.Context

// GodogAttach embeds the artifact into godog's report formatters.
func GodogAttach(ctx context.Context, a Artifact) context.Context {
	return godog.Attach(ctx, godog.Attachment{Body: a.Body, FileName: a.FileName(), MediaType: a.MediaType})
}

// Hooks drives the Idle -> Running -> Idle machine for one worker.
type Hooks struct {
	logger   *zap.Logger
	manager  SessionManager
	sink     ArtifactSink
	recorder Recorder
	attach   Attacher
	source   bool

	mu      sync.Mutex
	state   State
	started time.Time
	scLog   *zap.Logger
}

type Option func(*Hooks)

// WithSink persists failure screenshots in addition to attaching them.
func WithSink(s ArtifactSink) Option { return func(h *Hooks) { h.sink = s } }

// WithRecorder reports every finished scenario to r.
func WithRecorder(r Recorder) Option { return func(h *Hooks) { h.recorder = r } }

// WithPageSource also captures the page HTML of failed scenarios.
func WithPageSource() Option { return func(h *Hooks) { h.source = true } }

// WithAttacher replaces godog attachment, mainly for tests.
func WithAttacher(a Attacher) Option { return func(h *Hooks) { h.attach = a } }

func New(logger *zap.Logger, manager SessionManager, opts ...Option) *Hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hooks{
		logger:  logger.Named("lifecycle"),
		manager: manager,
		attach:  GodogAttach,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current machine state.
func (h *Hooks) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Register installs Before and After on sc. Register the hooks before any step
// handlers so the session exists when they bind to it.
func (h *Hooks) Register(sc ScenarioContext) {
	sc.Before(h.Before)
	sc.After(h.After)
}

// Before moves to Running and acquires the session.
func (h *Hooks) Before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	scLog := observability.ForScenario(h.logger, sc.Id, sc.Name)

	h.mu.Lock()
	h.state = Running
	h.started = time.Now()
	h.scLog = scLog
	h.mu.Unlock()

	scLog.Info("Scenario started", zap.String("feature", sc.Uri))
	if _, err := h.manager.Acquire(ctx); err != nil {
		scLog.Error("Failed to acquire browser session", zap.Error(err))
		return ctx, fmt.Errorf("acquire browser session: %w", err)
	}
	return ctx, nil
}

// After captures a screenshot when the scenario failed, then releases the session and
// returns to Idle. The scenario error is passed through unchanged.
func (h *Hooks) After(ctx context.Context, sc *godog.Scenario, scenarioErr error) (context.Context, error) {
	h.mu.Lock()
	started, scLog := h.started, h.scLog
	h.mu.Unlock()
	if scLog == nil {
		scLog = observability.ForScenario(h.logger, sc.Id, sc.Name)
	}

	record := results.Record{
		ScenarioID: sc.Id,
		Scenario:   sc.Name,
		Feature:    sc.Uri,
		Status:     statusOf(scenarioErr),
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if scenarioErr != nil {
		record.Error = scenarioErr.Error()
	}

	if s, err := h.manager.Current(); err == nil {
		record.Browser = string(s.Family())
		if scenarioErr != nil {
			ctx, record.Screenshot = h.capture(ctx, s, sc.Name, scLog)
			if h.source {
				ctx = h.snapshot(ctx, s, sc.Name, scLog)
			}
		}
	}

	releaseErr := h.teardown(ctx)

	if h.recorder != nil {
		h.recorder.Add(record)
	}
	if scenarioErr != nil {
		scLog.Warn("Scenario failed", zap.Error(scenarioErr), zap.Duration("duration", record.Duration))
		return ctx, scenarioErr
	}
	scLog.Info("Scenario passed", zap.Duration("duration", record.Duration))
	return ctx, releaseErr
}

// capture takes a screenshot from the live session and attaches it. Failures are
// logged and never replace the scenario error.
func (h *Hooks) capture(ctx context.Context, s *browser.Session, scenario string, scLog *zap.Logger) (context.Context, string) {
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	body, err := s.Screenshot(captureCtx)
	if err != nil {
		scLog.Warn("Failed to capture screenshot", zap.Error(err))
		return ctx, ""
	}

	a := Artifact{Scenario: scenario, MediaType: screenshotMediaType, Body: body, CapturedAt: time.Now()}
	if h.sink != nil {
		path, err := h.sink.Save(captureCtx, a)
		if err != nil {
			scLog.Warn("Failed to save screenshot", zap.Error(err))
		} else {
			a.Path = path
		}
	}
	scLog.Info("Screenshot captured for failed scenario", zap.Int("bytes", len(body)), zap.String("path", a.Path))
	return h.attach(ctx, a), a.Path
}

// teardown releases the session and returns to Idle. It runs on every exit path.
func (h *Hooks) teardown(ctx context.Context) error {
	defer func() {
		h.mu.Lock()
		h.state = Idle
		h.scLog = nil
		h.mu.Unlock()
	}()
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()
	if err := h.manager.Release(releaseCtx); err != nil {
		h.logger.Warn("Failed to release browser session", zap.Error(err))
		return err
	}
	return nil
}

// Run executes body between Before and After. After runs exactly once even when body
// panics; the panic is reported as the scenario error.
func (h *Hooks) Run(ctx context.Context, sc *godog.Scenario, body func(ctx context.Context) error) (err error) {
	ctx, err = h.Before(ctx, sc)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scenario %q panicked: %v", sc.Name, r)
		}
		_, err = h.After(ctx, sc, err)
	}()
	if err != nil {
		return err
	}
	return body(ctx)
}

func statusOf(err error) results.Status {
	switch {
	case err == nil:
		return results.StatusPassed
	case errors.Is(err, godog.ErrPending), errors.Is(err, godog.ErrUndefined):
		return results.StatusSkipped
	default:
		return results.StatusFailed
	}
}
