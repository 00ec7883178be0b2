package pages_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/browser/browsertest"
	"github.com/2300033498-rgb/LoginTesting/internal/demoapp"
	"github.com/2300033498-rgb/LoginTesting/internal/pages"
	"github.com/2300033498-rgb/LoginTesting/internal/pages/pagestest"
)

const feedbackTimeout = 2 * time.Second

type fixture struct {
	f     *browsertest.FakeDriver
	app   *pagestest.App
	login *pages.LoginPage
	dash  *pages.DashboardPage
}

func setup(t *testing.T) fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := browsertest.New()
	app := pagestest.Install(f, pagestest.Options{})
	s := browsertest.NewSession(f, 500*time.Millisecond, logger)
	t.Cleanup(func() { _ = s.Quit(context.Background()) })
	return fixture{
		f:     f,
		app:   app,
		login: pages.NewLoginPage(s, app.BaseURL(), logger),
		dash:  pages.NewDashboardPage(s, logger),
	}
}

func (fx fixture) open(t *testing.T) context.Context {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fx.login.Open(ctx))
	require.True(t, fx.login.IsOnLoginPage(ctx))
	return ctx
}

func TestLoginSucceeds(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.NoError(t, fx.login.Login(ctx, "validUser", "ValidPass123"))
	_, err := fx.login.WaitForFeedback(ctx, feedbackTimeout)
	require.NoError(t, err)
	require.NoError(t, fx.dash.WaitUntilLoaded(ctx, feedbackTimeout))

	assert.True(t, fx.dash.IsOnDashboard(ctx))
	assert.True(t, fx.dash.IsSuccessMessageDisplayed(ctx))
	assert.True(t, fx.dash.IsLogoutVisible(ctx))
	assert.True(t, fx.dash.WelcomeContains(ctx, "validUser"))
	text, err := fx.dash.WelcomeText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome back, validUser!", text)
	assert.False(t, fx.login.IsOnLoginPage(ctx))
	assert.Equal(t, "validUser", fx.app.SignedIn())

	url, err := fx.login.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, pages.DashboardPath)
}

func TestEmptyUsernameShowsValidation(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.NoError(t, fx.login.ClearUsername(ctx))
	require.NoError(t, fx.login.BlurUsername(ctx))
	require.NoError(t, fx.login.EnterPassword(ctx, "anything1"))
	require.NoError(t, fx.login.WaitForFieldValidation(ctx, feedbackTimeout))

	require.NoError(t, fx.login.AttemptClickLogin(ctx))

	assert.True(t, fx.login.IsUsernameErrorDisplayed(ctx))
	msg, err := fx.login.UsernameErrorText(ctx)
	require.NoError(t, err)
	assert.Equal(t, demoapp.MsgUsernameRequired, msg)
	assert.True(t, fx.login.IsMarkedInvalid(ctx, pages.UsernameField))
	assert.True(t, fx.login.IsLoginButtonDisabled(ctx))
	assert.False(t, fx.dash.IsOnDashboard(ctx))
	assert.Zero(t, fx.app.Submits())
}

func TestPasswordIsMasked(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	typ, err := fx.login.PasswordFieldType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "password", typ)

	require.NoError(t, fx.login.EnterPassword(ctx, "ValidPass123"))
	typ, err = fx.login.PasswordFieldType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "password", typ)
}

func TestAttemptClickOnDisabledButtonIsNoop(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.True(t, fx.login.IsLoginButtonDisabled(ctx))
	before, err := fx.login.CurrentURL(ctx)
	require.NoError(t, err)

	assert.NoError(t, fx.login.AttemptClickLogin(ctx))

	after, err := fx.login.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, fx.login.IsLoginButtonDisabled(ctx))
	assert.False(t, fx.login.IsLoginButtonEnabled(ctx))
	assert.Zero(t, fx.app.Submits())
}

func TestTypeReplacesPreviousValue(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.NoError(t, fx.login.EnterUsername(ctx, "first"))
	require.NoError(t, fx.login.EnterUsername(ctx, "second"))

	v, err := fx.login.FieldValue(ctx, pages.UsernameField)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestInvalidCredentials(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.NoError(t, fx.login.Login(ctx, "admin", "wrongpass"))
	assert.True(t, fx.login.IsLoadingIndicatorDisplayed(ctx))
	label, err := fx.login.LoginButtonText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Logging in...", label)

	took, err := fx.login.WaitForFeedback(ctx, feedbackTimeout)
	require.NoError(t, err)
	assert.Less(t, took, feedbackTimeout)

	assert.True(t, fx.login.IsGeneralErrorDisplayed(ctx))
	assert.True(t, fx.login.IsErrorAnnounced(ctx))
	assert.True(t, fx.login.HasShakeAnimation(ctx))
	msg, err := fx.login.GeneralErrorText(ctx)
	require.NoError(t, err)
	assert.Equal(t, demoapp.MsgInvalidCredential, msg)
	assert.True(t, fx.login.IsOnLoginPage(ctx))
	assert.False(t, fx.login.IsLoadingIndicatorDisplayed(ctx))

	// Editing a field clears the banner.
	require.NoError(t, fx.login.EnterPassword(ctx, "admin123"))
	assert.False(t, fx.login.IsGeneralErrorDisplayed(ctx))
}

func TestAccessibilityAttributes(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	assert.True(t, fx.login.HasUsernameLabel(ctx))
	assert.True(t, fx.login.HasPasswordLabel(ctx))
	assert.True(t, fx.login.IsUsernameIconDisplayed(ctx))
	assert.True(t, fx.login.IsPasswordIconDisplayed(ctx))
	assert.True(t, fx.login.HasAriaLabel(ctx, pages.UsernameField))
	assert.True(t, fx.login.HasAriaLabel(ctx, pages.PasswordField))
	assert.True(t, fx.login.HasAriaLabel(ctx, pages.LoginButton))
	assert.False(t, fx.login.IsMarkedInvalid(ctx, pages.UsernameField))

	placeholder, err := fx.login.UsernamePlaceholder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Enter username or email", placeholder)
	placeholder, err = fx.login.PasswordPlaceholder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Enter your password", placeholder)

	label, err := fx.login.LoginButtonText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sign In", label)
	assert.False(t, fx.login.IsLoadingIndicatorDisplayed(ctx))
	assert.False(t, fx.login.IsGeneralErrorDisplayed(ctx))
	assert.False(t, fx.login.IsErrorAnnounced(ctx))
}

func TestQueriesOnAbsentElements(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	// Nothing has been rendered yet.
	assert.False(t, fx.login.IsOnLoginPage(ctx))
	assert.False(t, fx.login.IsGeneralErrorDisplayed(ctx))
	assert.False(t, fx.login.IsLoginButtonDisabled(ctx))
	assert.False(t, fx.login.IsLoginButtonEnabled(ctx))
	assert.False(t, fx.login.HasAriaLabel(ctx, pages.LoginButton))
	assert.False(t, fx.login.HasShakeAnimation(ctx))
	assert.False(t, fx.dash.IsOnDashboard(ctx))
	assert.False(t, fx.dash.WelcomeContains(ctx, "Welcome"))
}

func TestActionsOnAbsentElements(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	err := fx.login.AttemptClickLogin(ctx)
	assert.ErrorIs(t, err, browser.ErrNoSuchElement)

	start := time.Now()
	err = fx.login.ClickLogin(ctx)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
}

func TestLogout(t *testing.T) {
	fx := setup(t)
	ctx := fx.open(t)

	require.NoError(t, fx.login.Login(ctx, "admin", "admin123"))
	require.NoError(t, fx.dash.WaitUntilLoaded(ctx, feedbackTimeout))
	require.NoError(t, fx.dash.Logout(ctx))

	assert.True(t, fx.login.IsOnLoginPage(ctx))
	assert.Empty(t, fx.app.SignedIn())
}

func TestDashboardRequiresLogin(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	require.NoError(t, fx.login.Navigate(ctx, fx.app.BaseURL()+pages.DashboardPath, pages.UsernameField))
	assert.True(t, fx.login.IsOnLoginPage(ctx))
	assert.False(t, fx.dash.IsOnDashboard(ctx))
}

func TestRepeatChar(t *testing.T) {
	assert.Len(t, pages.RepeatChar(256), 256)
	assert.Empty(t, pages.RepeatChar(0))
	assert.Empty(t, pages.RepeatChar(-3))
}
