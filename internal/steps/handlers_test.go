package steps

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/browser/browsertest"
	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/demoapp"
	"github.com/2300033498-rgb/LoginTesting/internal/pages/pagestest"
)

type staticSessions struct {
	s   *browser.Session
	err error
}

func (s staticSessions) Current() (*browser.Session, error) { return s.s, s.err }

type recordingContext struct {
	before []godog.BeforeScenarioHook
	after  []godog.AfterScenarioHook
	exprs  []string
}

func (r *recordingContext) Before(h godog.BeforeScenarioHook) { r.before = append(r.before, h) }
func (r *recordingContext) After(h godog.AfterScenarioHook)   { r.after = append(r.after, h) }
func (r *recordingContext) Step(expr interface{}, _ interface{}) {
	r.exprs = append(r.exprs, expr.(string))
}

type harness struct {
	h   *Handlers
	f   *browsertest.FakeDriver
	app *pagestest.App
}

func newHarness(t *testing.T) harness {
	t.Helper()
	return newHarnessWith(t, pagestest.Options{})
}

func newHarnessWith(t *testing.T, opts pagestest.Options) harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := browsertest.New()
	app := pagestest.Install(f, opts)
	s := browsertest.NewSession(f, 500*time.Millisecond, logger)
	t.Cleanup(func() { _ = s.Quit(context.Background()) })

	target := config.TargetConfig{BaseURL: app.BaseURL(), Username: "validUser", Password: "ValidPass123"}
	h := New(logger, staticSessions{s: s}, target, config.UIConfig{Debounce: 200 * time.Millisecond})
	require.NoError(t, h.Begin())
	return harness{h: h, f: f, app: app}
}

func run(t *testing.T, steps ...func(context.Context) error) {
	t.Helper()
	ctx := context.Background()
	for i, step := range steps {
		require.NoError(t, step(ctx), "step %d", i)
	}
}

func TestRegisterCoversPhrases(t *testing.T) {
	rc := &recordingContext{}
	New(nil, staticSessions{}, config.TargetConfig{}, config.UIConfig{}).Register(rc)

	require.Len(t, rc.before, 1)
	assert.Empty(t, rc.after)

	patterns := make([]*regexp.Regexp, len(rc.exprs))
	for i, e := range rc.exprs {
		patterns[i] = regexp.MustCompile(e)
	}

	phrases := []string{
		"the user is on the login page",
		"the user has valid credentials",
		`the user enters username "validUser"`,
		`the user enters password "ValidPass123"`,
		"the user enters valid credentials",
		"the user enters a username with 256 characters",
		"the user enters a password with 5 characters",
		"the user leaves the username field empty",
		"the user leaves the password field empty",
		"the user leaves both fields empty",
		"the user moves focus away from username field",
		"the user moves focus away from password field",
		"the user clicks the login button",
		"the user attempts to click the login button",
		`the user logs in with username "admin" and password "admin123"`,
		"the user logs out",
		"the user should be redirected to the dashboard",
		`the welcome message should display "Welcome back, admin!"`,
		"a success message should be displayed",
		"a logout button should be visible",
		"an error message should be displayed",
		"the error message should be visible",
		"an error message should appear with animation",
		`the error message should contain "Invalid username or password"`,
		"the error message should be cleared",
		"the error should be announced to assistive technology",
		"the user should remain on the login page",
		"the login page should not be visible",
		"the login button should be disabled",
		"the login button should have reduced opacity",
		"the login button should be enabled",
		"the login button should be clickable",
		"a validation error should be displayed for username field",
		"a validation error should be displayed for password field",
		`the password validation error should contain "at least 6"`,
		"the username field should be marked invalid",
		"a loading indicator should be displayed",
		`the login button should show "Logging in..." text`,
		"the login card should shake",
		"the username field should have a label",
		"the password field should have a label",
		"the login button should have accessible text",
		"the username field should have aria-label attribute",
		"the password field should have aria-label attribute",
		"the login button should have aria-label attribute",
		`the username field should have placeholder "Enter username or email"`,
		`the password field should have placeholder "Enter your password"`,
		"the username field should display a user icon",
		"the password field should display a lock icon",
		"the password field should not display plain text",
		`the password field type should be "password"`,
		"the login should complete within 5 seconds",
		"the login should complete within 1 second",
	}
	for _, phrase := range phrases {
		matches := 0
		for _, p := range patterns {
			if p.MatchString(phrase) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "phrase %q", phrase)
	}
}

func TestBeginWithoutSession(t *testing.T) {
	h := New(zaptest.NewLogger(t), staticSessions{err: browser.ErrNoSession}, config.TargetConfig{}, config.UIConfig{})
	err := h.Begin()
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrNoSession)
}

func TestBeginResetsState(t *testing.T) {
	hs := newHarness(t)
	hs.h.State().LastError = "left over"
	require.NoError(t, hs.h.Begin())
	assert.Empty(t, hs.h.State().LastError)
}

func TestSuccessfulLogin(t *testing.T) {
	hs := newHarness(t)
	h := hs.h
	ctx := context.Background()

	run(t,
		h.userIsOnLoginPage,
		h.userEntersValidCredentials,
		h.loginButtonEnabled,
		h.userClicksLogin,
		h.userIsRedirectedToDashboard,
		h.logoutButtonVisible,
		h.successMessageDisplayed,
		h.loginPageNotVisible,
	)
	require.NoError(t, h.welcomeMessageDisplays(ctx, "Welcome back, validUser!"))
	require.NoError(t, h.loginCompletesWithin(ctx, 5))
	require.NoError(t, h.loadingIndicatorDisplayed(ctx))
	require.NoError(t, h.loginButtonShowsText(ctx, "Logging in..."))

	run(t, h.userLogsOut, h.userRemainsOnLoginPage)
	assert.Empty(t, hs.app.SignedIn())
}

func TestEmptyUsername(t *testing.T) {
	h := newHarness(t).h
	ctx := context.Background()

	run(t, h.userIsOnLoginPage)
	require.NoError(t, h.userLeavesFieldEmpty(ctx, "username"))
	require.NoError(t, h.userEntersPassword(ctx, "anything1"))
	run(t, h.userAttemptsToClickLogin, h.userRemainsOnLoginPage, h.loginButtonDisabled)

	require.NoError(t, h.validationErrorDisplayed(ctx, "username"))
	require.NoError(t, h.validationErrorContains(ctx, "username", demoapp.MsgUsernameRequired))
	require.NoError(t, h.fieldMarkedInvalid(ctx, "username"))
	assert.False(t, h.dash.IsOnDashboard(ctx))
}

func TestBothFieldsEmpty(t *testing.T) {
	hs := newHarness(t)
	h := hs.h
	ctx := context.Background()

	run(t,
		h.userIsOnLoginPage,
		h.userLeavesBothFieldsEmpty,
		h.loginButtonDisabled,
		h.userAttemptsToClickLogin,
		h.userRemainsOnLoginPage,
	)
	require.NoError(t, h.validationErrorDisplayed(ctx, "username"))
	require.NoError(t, h.validationErrorDisplayed(ctx, "password"))
	assert.Zero(t, hs.app.Submits())
}

func TestInvalidCredentials(t *testing.T) {
	h := newHarness(t).h
	ctx := context.Background()

	run(t, h.userIsOnLoginPage)
	require.NoError(t, h.userLogsInWith(ctx, "admin", "wrongpass"))
	run(t,
		h.errorMessageDisplayed,
		h.errorAnnounced,
		h.loginCardShakes,
		h.userRemainsOnLoginPage,
	)
	require.NoError(t, h.errorMessageContains(ctx, demoapp.MsgInvalidCredential))
	assert.Equal(t, demoapp.MsgInvalidCredential, h.State().LastError)

	err := h.errorMessageContains(ctx, "something else")
	var assertion *AssertionError
	require.ErrorAs(t, err, &assertion)
	assert.Contains(t, assertion.Message, "something else")

	require.NoError(t, h.userEntersPassword(ctx, "admin123"))
	require.NoError(t, h.errorMessageCleared(ctx))
}

func TestFieldLengthValidation(t *testing.T) {
	h := newHarness(t).h
	ctx := context.Background()

	run(t, h.userIsOnLoginPage)
	require.NoError(t, h.userEntersPasswordOfLength(ctx, 5))
	require.NoError(t, h.userMovesFocusAway(ctx, "password"))
	require.NoError(t, h.validationErrorContains(ctx, "password", "at least 6"))
	require.NoError(t, h.loginButtonDisabled(ctx))

	require.NoError(t, h.userEntersUsernameOfLength(ctx, 256))
	require.NoError(t, h.userMovesFocusAway(ctx, "username"))
	require.NoError(t, h.validationErrorDisplayed(ctx, "username"))
}

func TestAccessibilitySteps(t *testing.T) {
	h := newHarness(t).h
	ctx := context.Background()

	run(t,
		h.userIsOnLoginPage,
		h.loginButtonHasAccessibleText,
		h.usernameIconDisplayed,
		h.passwordIconDisplayed,
		h.passwordNotPlainText,
	)
	for _, field := range []string{"username", "password"} {
		require.NoError(t, h.fieldHasLabel(ctx, field))
	}
	for _, target := range []string{"username field", "password field", "login button"} {
		require.NoError(t, h.hasAriaLabel(ctx, target))
	}
	require.NoError(t, h.fieldHasPlaceholder(ctx, "username", "Enter username or email"))
	require.NoError(t, h.fieldHasPlaceholder(ctx, "password", "Enter your password"))
	require.NoError(t, h.passwordFieldTypeIs(ctx, "password"))

	err := h.passwordFieldTypeIs(ctx, "text")
	var assertion *AssertionError
	assert.True(t, errors.As(err, &assertion))
}

func TestFailedAssertions(t *testing.T) {
	h := newHarness(t).h
	ctx := context.Background()

	run(t, h.userIsOnLoginPage)

	var assertion *AssertionError
	assert.ErrorAs(t, h.loginButtonEnabled(ctx), &assertion)
	assert.ErrorAs(t, h.errorMessageDisplayed(ctx), &assertion)
	assert.ErrorAs(t, h.loginPageNotVisible(ctx), &assertion)
	assert.ErrorAs(t, h.loadingIndicatorDisplayed(ctx), &assertion)
	assert.ErrorAs(t, h.loginCompletesWithin(ctx, 1), &assertion, "nothing was submitted")
}

func TestLoginWithoutOutcomeMissesDeadline(t *testing.T) {
	// Authentication outlasts the 1s page-load timeout of the test session.
	hs := newHarnessWith(t, pagestest.Options{AuthDelay: 10 * time.Second})
	h := hs.h
	ctx := context.Background()

	run(t, h.userIsOnLoginPage)
	require.NoError(t, h.userLogsInWith(ctx, "validUser", "ValidPass123"))
	assert.True(t, h.State().FeedbackTimedOut)
	assert.Empty(t, hs.app.SignedIn())

	var assertion *AssertionError
	require.ErrorAs(t, h.loginCompletesWithin(ctx, 5), &assertion)
	assert.Contains(t, assertion.Message, "no outcome")
}
