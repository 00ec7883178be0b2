package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// Family names a browser the manager can launch.
type Family string

const (
	FamilyChrome  Family = "chrome"
	FamilyFirefox Family = "firefox"
	FamilyEdge    Family = "edge"
)

// ParseFamily normalizes a family name from flags or configuration.
func ParseFamily(name string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FamilyChrome, FamilyFirefox, FamilyEdge:
		return f, nil
	case "":
		return FamilyChrome, nil
	}
	return "", &ConfigError{Field: "browser.family", Value: name, Err: ErrUnsupportedBrowser}
}

// Launcher starts a driver for one family.
type Launcher func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error)

// SessionInfo describes a live session.
type SessionInfo struct {
	ID              string
	Family          Family
	Headless        bool
	ElementTimeout  time.Duration
	PageLoadTimeout time.Duration
	StartedAt       time.Time
}

// Session is one live browser plus the waiter bound to it.
type Session struct {
	Driver
	waiter *Waiter
	info   SessionInfo
}

// NewSession wraps an already started driver. Manager.Acquire is the usual entry point.
func NewSession(d Driver, info SessionInfo, poll time.Duration, logger *zap.Logger) *Session {
	return &Session{
		Driver: d,
		waiter: NewWaiter(d, info.ElementTimeout, poll, logger),
		info:   info,
	}
}

func (s *Session) ID() string            { return s.info.ID }
func (s *Session) Info() SessionInfo     { return s.info }
func (s *Session) Waiter() *Waiter       { return s.waiter }
func (s *Session) Family() Family        { return s.info.Family }
func (s *Session) Uptime() time.Duration { return time.Since(s.info.StartedAt) }

// Manager owns at most one session. It is not shared across workers: each test unit
// constructs its own.
type Manager struct {
	logger    *zap.Logger
	cfg       config.BrowserConfig
	launchers map[Family]Launcher

	mu      sync.Mutex
	current *Session
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLauncher overrides how a family is started. Tests use it to inject fakes.
func WithLauncher(f Family, l Launcher) ManagerOption {
	return func(m *Manager) { m.launchers[f] = l }
}

// NewManager creates a manager for cfg. No browser is started until Acquire.
func NewManager(logger *zap.Logger, cfg config.BrowserConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		launchers: map[Family]Launcher{
			FamilyChrome:  launchChrome,
			FamilyEdge:    launchEdge,
			FamilyFirefox: launchFirefox,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the browser configuration sessions are created with.
func (m *Manager) Config() config.BrowserConfig { return m.cfg }

// Acquire returns the live session, starting one if none exists.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	family, err := ParseFamily(m.cfg.Family)
	if err != nil {
		return nil, err
	}
	if m.cfg.PageLoadTimeout <= m.cfg.ElementTimeout {
		return nil, &ConfigError{
			Field: "browser.page_load_timeout",
			Value: m.cfg.PageLoadTimeout.String(),
			Err:   fmt.Errorf("must exceed element timeout %s", m.cfg.ElementTimeout),
		}
	}
	launch, ok := m.launchers[family]
	if !ok {
		return nil, &ConfigError{Field: "browser.family", Value: string(family), Err: ErrUnsupportedBrowser}
	}

	info := SessionInfo{
		ID:              uuid.New().String(),
		Family:          family,
		Headless:        m.cfg.Headless,
		ElementTimeout:  m.cfg.ElementTimeout,
		PageLoadTimeout: m.cfg.PageLoadTimeout,
		StartedAt:       time.Now(),
	}
	logger := m.logger.With(zap.String("session_id", info.ID), zap.String("family", string(family)))

	d, err := launch(ctx, m.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", family, err)
	}

	m.current = NewSession(d, info, m.cfg.PollInterval, logger)
	logger.Info("Browser session started", zap.Bool("headless", info.Headless))
	return m.current, nil
}

// Current returns the live session or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Release quits the live session. It is a no-op when there is none. The session is
// forgotten even if Quit fails, so the next Acquire always starts fresh.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s == nil {
		return nil
	}
	logger := m.logger.With(zap.String("session_id", s.ID()))
	if err := s.Quit(ctx); err != nil {
		logger.Warn("Error while quitting browser session", zap.Error(err))
		return fmt.Errorf("release session %s: %w", s.ID(), err)
	}
	logger.Info("Browser session released", zap.Duration("uptime", s.Uptime()))
	return nil
}
