package steps

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/pages"
)

func fieldLocators(name string) (field, errRegion, label browser.Locator) {
	if name == "password" {
		return pages.PasswordField, pages.PasswordError, pages.PasswordLabel
	}
	return pages.UsernameField, pages.UsernameError, pages.UsernameLabel
}

// Given

func (h *Handlers) userIsOnLoginPage(ctx context.Context) error {
	if err := h.login.Open(ctx); err != nil {
		return err
	}
	if !h.login.IsOnLoginPage(ctx) {
		return failf("User should be on login page")
	}
	h.logger.Info("Navigated to login page", zap.String("url", h.target.BaseURL))
	return nil
}

func (h *Handlers) userHasValidCredentials(context.Context) error {
	h.state.Username = h.target.Username
	h.state.Password = h.target.Password
	return nil
}

// When

func (h *Handlers) userEntersUsername(ctx context.Context, v string) error {
	if err := h.login.EnterUsername(ctx, v); err != nil {
		return err
	}
	h.state.Username = v
	h.logger.Info("Entered username", zap.String("username", v))
	return nil
}

func (h *Handlers) userEntersPassword(ctx context.Context, v string) error {
	if err := h.login.EnterPassword(ctx, v); err != nil {
		return err
	}
	h.state.Password = v
	h.logger.Info("Entered password", zap.Int("length", len(v)))
	return nil
}

func (h *Handlers) userEntersValidCredentials(ctx context.Context) error {
	if err := h.userEntersUsername(ctx, h.target.Username); err != nil {
		return err
	}
	return h.userEntersPassword(ctx, h.target.Password)
}

func (h *Handlers) userEntersUsernameOfLength(ctx context.Context, n int) error {
	return h.userEntersUsername(ctx, pages.RepeatChar(n))
}

func (h *Handlers) userEntersPasswordOfLength(ctx context.Context, n int) error {
	return h.userEntersPassword(ctx, pages.RepeatChar(n))
}

func (h *Handlers) userLeavesFieldEmpty(ctx context.Context, name string) error {
	field, errRegion, _ := fieldLocators(name)
	if err := h.login.Clear(ctx, field); err != nil {
		return err
	}
	if err := h.login.Blur(ctx, field); err != nil {
		return err
	}
	if name == "password" {
		h.state.Password = ""
	} else {
		h.state.Username = ""
	}
	h.settle(ctx, errRegion)
	h.logger.Info("Left field empty", zap.String("field", name))
	return nil
}

func (h *Handlers) userLeavesBothFieldsEmpty(ctx context.Context) error {
	if err := h.userLeavesFieldEmpty(ctx, "username"); err != nil {
		return err
	}
	return h.userLeavesFieldEmpty(ctx, "password")
}

func (h *Handlers) userMovesFocusAway(ctx context.Context, name string) error {
	field, errRegion, _ := fieldLocators(name)
	if err := h.login.Blur(ctx, field); err != nil {
		return err
	}
	h.settle(ctx, errRegion)
	h.logger.Info("Moved focus away", zap.String("field", name))
	return nil
}

// userClicksLogin submits and waits for the outcome to render. Transient submit state
// (spinner, button label) is sampled right after the click, since it is gone by the
// time the outcome arrives.
func (h *Handlers) userClicksLogin(ctx context.Context) error {
	if err := h.login.ClickLogin(ctx); err != nil {
		return err
	}
	h.state.SubmittedAt = time.Now()
	h.state.SawLoading = h.login.IsLoadingIndicatorDisplayed(ctx)
	if el, ok := h.login.Session().Waiter().Lookup(ctx, pages.LoginButton); ok {
		h.state.SubmitLabel = strings.TrimSpace(el.Text)
	}
	h.logger.Info("Clicked login button")

	took, err := h.login.WaitForFeedback(ctx, h.feedbackTimeout())
	switch {
	case err == nil:
		h.state.FeedbackAfter = took
		h.state.FeedbackTimedOut = false
	case errors.Is(err, browser.ErrTimeout):
		// Later Then steps report what is actually on screen.
		h.state.FeedbackAfter = took
		h.state.FeedbackTimedOut = true
		h.logger.Warn("No visible outcome after submit", zap.Duration("waited", took))
	default:
		return err
	}
	return nil
}

func (h *Handlers) userAttemptsToClickLogin(ctx context.Context) error {
	if err := h.login.AttemptClickLogin(ctx); err != nil {
		return err
	}
	h.logger.Info("Attempted to click login button")
	return nil
}

func (h *Handlers) userLogsInWith(ctx context.Context, username, password string) error {
	if err := h.userEntersUsername(ctx, username); err != nil {
		return err
	}
	if err := h.userEntersPassword(ctx, password); err != nil {
		return err
	}
	return h.userClicksLogin(ctx)
}

func (h *Handlers) userLogsOut(ctx context.Context) error {
	if err := h.dash.Logout(ctx); err != nil {
		return err
	}
	h.logger.Info("Logged out")
	return nil
}

// Then

func (h *Handlers) userIsRedirectedToDashboard(ctx context.Context) error {
	if err := h.dash.WaitUntilLoaded(ctx, h.feedbackTimeout()); err != nil {
		return failf("User should be on dashboard: %v", err)
	}
	if !h.dash.IsOnDashboard(ctx) {
		return failf("User should be on dashboard")
	}
	return nil
}

func (h *Handlers) welcomeMessageDisplays(ctx context.Context, want string) error {
	if !h.dash.WelcomeContains(ctx, want) {
		got, _ := h.dash.WelcomeText(ctx)
		return failf("Welcome message should contain %q, got %q", want, got)
	}
	return nil
}

func (h *Handlers) successMessageDisplayed(ctx context.Context) error {
	if !h.dash.IsSuccessMessageDisplayed(ctx) {
		return failf("Success message should be displayed")
	}
	return nil
}

func (h *Handlers) logoutButtonVisible(ctx context.Context) error {
	if !h.dash.IsLogoutVisible(ctx) {
		return failf("Logout button should be visible")
	}
	return nil
}

func (h *Handlers) errorMessageDisplayed(ctx context.Context) error {
	if !h.login.IsGeneralErrorDisplayed(ctx) {
		return failf("Error message should be displayed")
	}
	return nil
}

func (h *Handlers) errorMessageContains(ctx context.Context, want string) error {
	got, err := h.login.GeneralErrorText(ctx)
	if err != nil {
		return failf("Error message should contain %q but none was shown: %v", want, err)
	}
	h.state.LastError = got
	if !strings.Contains(got, want) {
		return failf("Error message should contain %q, got %q", want, got)
	}
	return nil
}

func (h *Handlers) errorMessageCleared(ctx context.Context) error {
	if err := h.login.WaitGone(ctx, pages.GeneralError, 0); err != nil {
		return failf("Error message should be cleared")
	}
	return nil
}

func (h *Handlers) errorAnnounced(ctx context.Context) error {
	if !h.login.IsErrorAnnounced(ctx) {
		return failf(`Error message should be visible with role="alert"`)
	}
	return nil
}

func (h *Handlers) userRemainsOnLoginPage(ctx context.Context) error {
	if !h.login.IsOnLoginPage(ctx) {
		return failf("User should remain on login page")
	}
	return nil
}

func (h *Handlers) loginPageNotVisible(ctx context.Context) error {
	if h.login.IsOnLoginPage(ctx) {
		return failf("Login page should not be visible")
	}
	return nil
}

func (h *Handlers) loginButtonDisabled(ctx context.Context) error {
	if !h.login.IsLoginButtonDisabled(ctx) {
		return failf("Login button should be disabled")
	}
	return nil
}

func (h *Handlers) loginButtonEnabled(ctx context.Context) error {
	if !h.login.IsLoginButtonEnabled(ctx) {
		return failf("Login button should be enabled")
	}
	return nil
}

func (h *Handlers) validationErrorDisplayed(ctx context.Context, name string) error {
	_, errRegion, _ := fieldLocators(name)
	if !h.login.IsDisplayed(ctx, errRegion) {
		return failf("Validation error should be displayed for %s field", name)
	}
	return nil
}

func (h *Handlers) validationErrorContains(ctx context.Context, name, want string) error {
	_, errRegion, _ := fieldLocators(name)
	got, err := h.login.Text(ctx, errRegion)
	if err != nil {
		return failf("Validation error for %s field should contain %q but none was shown: %v", name, want, err)
	}
	if !strings.Contains(got, want) {
		return failf("Validation error for %s field should contain %q, got %q", name, want, got)
	}
	return nil
}

func (h *Handlers) fieldMarkedInvalid(ctx context.Context, name string) error {
	field, _, _ := fieldLocators(name)
	if !h.login.IsMarkedInvalid(ctx, field) {
		return failf(`The %s field should have aria-invalid="true"`, name)
	}
	return nil
}

func (h *Handlers) loadingIndicatorDisplayed(ctx context.Context) error {
	if !h.state.SawLoading && !h.login.IsLoadingIndicatorDisplayed(ctx) {
		return failf("Loading indicator should be displayed")
	}
	return nil
}

func (h *Handlers) loginButtonShowsText(ctx context.Context, want string) error {
	if strings.Contains(h.state.SubmitLabel, want) {
		return nil
	}
	got, err := h.login.LoginButtonText(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(got, want) {
		return failf("Button should show %q text, got %q", want, got)
	}
	return nil
}

func (h *Handlers) loginCardShakes(ctx context.Context) error {
	if !h.login.HasShakeAnimation(ctx) {
		return failf("Login card should have shake animation")
	}
	return nil
}

func (h *Handlers) fieldHasLabel(ctx context.Context, name string) error {
	_, _, label := fieldLocators(name)
	if !h.login.IsDisplayed(ctx, label) {
		return failf("The %s field should have a label", name)
	}
	return nil
}

func (h *Handlers) loginButtonHasAccessibleText(ctx context.Context) error {
	text, err := h.login.LoginButtonText(ctx)
	if err != nil {
		return err
	}
	if text == "" {
		return failf("Login button should have accessible text")
	}
	return nil
}

func (h *Handlers) hasAriaLabel(ctx context.Context, target string) error {
	loc := pages.LoginButton
	switch target {
	case "username field":
		loc = pages.UsernameField
	case "password field":
		loc = pages.PasswordField
	}
	if !h.login.HasAriaLabel(ctx, loc) {
		return failf("The %s should have an aria-label", target)
	}
	return nil
}

func (h *Handlers) fieldHasPlaceholder(ctx context.Context, name, want string) error {
	field, _, _ := fieldLocators(name)
	got, err := h.login.Attribute(ctx, field, "placeholder")
	if err != nil {
		return err
	}
	if got != want {
		return failf("The %s placeholder should be %q, got %q", name, want, got)
	}
	return nil
}

func (h *Handlers) usernameIconDisplayed(ctx context.Context) error {
	if !h.login.IsUsernameIconDisplayed(ctx) {
		return failf("Username icon should be displayed")
	}
	return nil
}

func (h *Handlers) passwordIconDisplayed(ctx context.Context) error {
	if !h.login.IsPasswordIconDisplayed(ctx) {
		return failf("Password icon should be displayed")
	}
	return nil
}

func (h *Handlers) passwordNotPlainText(ctx context.Context) error {
	typ, err := h.login.PasswordFieldType(ctx)
	if err != nil {
		return err
	}
	if typ != "password" {
		return failf(`Password field should be masked (type="password"), got type=%q`, typ)
	}
	return nil
}

func (h *Handlers) passwordFieldTypeIs(ctx context.Context, want string) error {
	typ, err := h.login.PasswordFieldType(ctx)
	if err != nil {
		return err
	}
	if typ != want {
		return failf("Password field type should be %q, got %q", want, typ)
	}
	return nil
}

func (h *Handlers) loginCompletesWithin(_ context.Context, seconds int) error {
	if h.state.SubmittedAt.IsZero() {
		return failf("No login was submitted in this scenario")
	}
	limit := time.Duration(seconds) * time.Second
	if h.state.FeedbackTimedOut {
		return failf("Login should complete within %s, no outcome after %s", limit, h.state.FeedbackAfter.Round(time.Millisecond))
	}
	if h.state.FeedbackAfter > limit {
		return failf("Login should complete within %s, took %s", limit, h.state.FeedbackAfter.Round(time.Millisecond))
	}
	return nil
}
