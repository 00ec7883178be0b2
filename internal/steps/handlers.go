// Package steps binds Gherkin step phrases for the login feature to page object calls
// and assertions.
package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/pages"
)

// ScenarioContext is the subset of *godog.ScenarioContext the handlers register into.
type ScenarioContext interface {
	Before(h godog.BeforeScenarioHook)
	After(h godog.AfterScenarioHook)
	Step(expr interface{}, stepFunc interface{})
}

// SessionSource hands out the session the lifecycle acquired. *browser.Manager satisfies it.
type SessionSource interface {
	Current() (*browser.Session, error)
}

// ScenarioState is the per-scenario scratch space written by steps. It is reset at the
// start of every scenario and never shared.
type ScenarioState struct {
	Username  string
	Password  string
	LastError string

	SubmittedAt      time.Time
	FeedbackAfter    time.Duration
	FeedbackTimedOut bool
	SawLoading    bool
	SubmitLabel   string
}

// AssertionError reports an observed state that did not match the expectation.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

func failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// Handlers translates steps into page object calls for one scenario at a time.
type Handlers struct {
	logger   *zap.Logger
	sessions SessionSource
	target   config.TargetConfig
	debounce time.Duration

	state *ScenarioState
	login *pages.LoginPage
	dash  *pages.DashboardPage
}

// New returns handlers that look up the live session through sessions at scenario start.
func New(logger *zap.Logger, sessions SessionSource, target config.TargetConfig, ui config.UIConfig) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		logger:   logger.Named("steps"),
		sessions: sessions,
		target:   target,
		debounce: ui.Debounce,
		state:    &ScenarioState{},
	}
}

// State exposes the current scenario state.
func (h *Handlers) State() *ScenarioState { return h.state }

// Begin resets the scenario state and binds fresh page objects to the live session.
func (h *Handlers) Begin() error {
	s, err := h.sessions.Current()
	if err != nil {
		return fmt.Errorf("steps need a live browser session: %w", err)
	}
	h.state = &ScenarioState{}
	h.login = pages.NewLoginPage(s, h.target.BaseURL, h.logger)
	h.dash = pages.NewDashboardPage(s, h.logger)
	return nil
}

// Register wires every step phrase into sc. Hooks registered earlier on sc (the
// lifecycle) run first, so the session exists by the time Begin looks for it.
func (h *Handlers) Register(sc ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, h.Begin()
	})

	// Given
	sc.Step(`^the user is on the login page$`, h.userIsOnLoginPage)
	sc.Step(`^the user has valid credentials$`, h.userHasValidCredentials)

	// When
	sc.Step(`^the user enters username "([^"]*)"$`, h.userEntersUsername)
	sc.Step(`^the user enters password "([^"]*)"$`, h.userEntersPassword)
	sc.Step(`^the user enters valid credentials$`, h.userEntersValidCredentials)
	sc.Step(`^the user enters a username with (\d+) characters$`, h.userEntersUsernameOfLength)
	sc.Step(`^the user enters a password with (\d+) characters$`, h.userEntersPasswordOfLength)
	sc.Step(`^the user leaves the (username|password) field empty$`, h.userLeavesFieldEmpty)
	sc.Step(`^the user leaves both fields empty$`, h.userLeavesBothFieldsEmpty)
	sc.Step(`^the user moves focus away from (username|password) field$`, h.userMovesFocusAway)
	sc.Step(`^the user clicks the login button$`, h.userClicksLogin)
	sc.Step(`^the user attempts to click the login button$`, h.userAttemptsToClickLogin)
	sc.Step(`^the user logs in with username "([^"]*)" and password "([^"]*)"$`, h.userLogsInWith)
	sc.Step(`^the user logs out$`, h.userLogsOut)

	// Then
	sc.Step(`^the user should be redirected to the dashboard$`, h.userIsRedirectedToDashboard)
	sc.Step(`^the welcome message should display "([^"]*)"$`, h.welcomeMessageDisplays)
	sc.Step(`^a success message should be displayed$`, h.successMessageDisplayed)
	sc.Step(`^a logout button should be visible$`, h.logoutButtonVisible)
	sc.Step(`^(?:an|the) error message should (?:be displayed|be visible|appear with animation)$`, h.errorMessageDisplayed)
	sc.Step(`^the error message should contain "([^"]*)"$`, h.errorMessageContains)
	sc.Step(`^the error message should be cleared$`, h.errorMessageCleared)
	sc.Step(`^the error should be announced to assistive technology$`, h.errorAnnounced)
	sc.Step(`^the user should remain on the login page$`, h.userRemainsOnLoginPage)
	sc.Step(`^the login page should not be visible$`, h.loginPageNotVisible)
	sc.Step(`^the login button should (?:be disabled|have reduced opacity)$`, h.loginButtonDisabled)
	sc.Step(`^the login button should (?:be enabled|be clickable)$`, h.loginButtonEnabled)
	sc.Step(`^a validation error should be displayed for (username|password) field$`, h.validationErrorDisplayed)
	sc.Step(`^the (username|password) validation error should contain "([^"]*)"$`, h.validationErrorContains)
	sc.Step(`^the (username|password) field should be marked invalid$`, h.fieldMarkedInvalid)
	sc.Step(`^a loading indicator should be displayed$`, h.loadingIndicatorDisplayed)
	sc.Step(`^the login button should show "([^"]*)" text$`, h.loginButtonShowsText)
	sc.Step(`^the login card should shake$`, h.loginCardShakes)
	sc.Step(`^the (username|password) field should have a label$`, h.fieldHasLabel)
	sc.Step(`^the login button should have accessible text$`, h.loginButtonHasAccessibleText)
	sc.Step(`^the (username field|password field|login button) should have aria-label attribute$`, h.hasAriaLabel)
	sc.Step(`^the (username|password) field should have placeholder "([^"]*)"$`, h.fieldHasPlaceholder)
	sc.Step(`^the username field should display a user icon$`, h.usernameIconDisplayed)
	sc.Step(`^the password field should display a lock icon$`, h.passwordIconDisplayed)
	sc.Step(`^the password field should not display plain text$`, h.passwordNotPlainText)
	sc.Step(`^the password field type should be "([^"]*)"$`, h.passwordFieldTypeIs)
	sc.Step(`^the login should complete within (\d+) seconds?$`, h.loginCompletesWithin)
}

// settle waits up to the UI debounce for cond. Validation renders after a client-side
// debounce that no DOM event signals, so a miss here is not an error.
func (h *Handlers) settle(ctx context.Context, loc browser.Locator) {
	if h.debounce <= 0 {
		return
	}
	if _, err := h.login.WaitVisible(ctx, loc, h.debounce); err != nil {
		h.logger.Debug("UI did not settle within debounce", zap.Stringer("locator", loc), zap.Duration("debounce", h.debounce))
	}
}

func (h *Handlers) feedbackTimeout() time.Duration {
	return h.login.Session().Info().PageLoadTimeout
}
