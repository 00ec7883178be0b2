package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
)

// Login screen locators.
var (
	UsernameField  = browser.ByID("username")
	PasswordField  = browser.ByID("password")
	LoginButton    = browser.ByID("login-button")
	GeneralError   = browser.ByID("error-message")
	UsernameError  = browser.ByID("username-error")
	PasswordError  = browser.ByID("password-error")
	LoginCard      = browser.ByClass("card-gradient")
	UsernameLabel  = browser.ByXPath("//label[@for='username']")
	PasswordLabel  = browser.ByXPath("//label[@for='password']")
	UsernameIcon   = browser.ByXPath("//input[@id='username']/preceding-sibling::div//*[name()='svg']")
	PasswordIcon   = browser.ByXPath("//input[@id='password']/preceding-sibling::div//*[name()='svg']")
	LoadingSpinner = browser.ByXPath("//button[@id='login-button']//*[name()='svg' and contains(@class, 'animate-spin')]")
)

// ShakeClass is applied to the login card for a short time after a rejected submit.
const ShakeClass = "error-shake"

// DashboardPath is the location a successful login lands on.
const DashboardPath = "/dashboard"

// LoginPage drives the login screen.
type LoginPage struct {
	*Page
	baseURL string
}

func NewLoginPage(s *browser.Session, baseURL string, logger *zap.Logger) *LoginPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginPage{
		Page:    NewPage(s, logger.Named("login_page")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Open navigates to the login screen and waits for the form.
func (l *LoginPage) Open(ctx context.Context) error {
	return l.Navigate(ctx, l.baseURL, UsernameField)
}

// IsOnLoginPage reports whether the login card and both inputs are visible.
func (l *LoginPage) IsOnLoginPage(ctx context.Context) bool {
	return l.IsDisplayed(ctx, LoginCard) &&
		l.IsDisplayed(ctx, UsernameField) &&
		l.IsDisplayed(ctx, PasswordField)
}

func (l *LoginPage) EnterUsername(ctx context.Context, v string) error {
	return l.Type(ctx, UsernameField, v)
}

func (l *LoginPage) EnterPassword(ctx context.Context, v string) error {
	return l.Type(ctx, PasswordField, v)
}

func (l *LoginPage) ClearUsername(ctx context.Context) error { return l.Clear(ctx, UsernameField) }
func (l *LoginPage) ClearPassword(ctx context.Context) error { return l.Clear(ctx, PasswordField) }
func (l *LoginPage) BlurUsername(ctx context.Context) error  { return l.Blur(ctx, UsernameField) }
func (l *LoginPage) BlurPassword(ctx context.Context) error  { return l.Blur(ctx, PasswordField) }

// ClickLogin waits for the submit button to become clickable and clicks it.
func (l *LoginPage) ClickLogin(ctx context.Context) error {
	return l.Click(ctx, LoginButton)
}

// AttemptClickLogin clicks the submit button once, tolerating a disabled button.
func (l *LoginPage) AttemptClickLogin(ctx context.Context) error {
	return l.AttemptClick(ctx, LoginButton)
}

// Login types both credentials and submits. A failing step leaves the form as far as
// it got.
func (l *LoginPage) Login(ctx context.Context, username, password string) error {
	if err := l.EnterUsername(ctx, username); err != nil {
		return err
	}
	if err := l.EnterPassword(ctx, password); err != nil {
		return err
	}
	return l.ClickLogin(ctx)
}

// FeedbackCondition holds once a submit has produced a visible outcome: the dashboard
// location or any error region.
func FeedbackCondition() browser.Condition {
	return browser.AnyOf(
		browser.URLContains(DashboardPath),
		browser.Visible(GeneralError),
		browser.Visible(UsernameError),
		browser.Visible(PasswordError),
	)
}

// WaitForFeedback blocks until the submit outcome is rendered and returns how long it took.
func (l *LoginPage) WaitForFeedback(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	_, err := l.waiter().Await(ctx, FeedbackCondition(), timeout)
	return time.Since(start), err
}

// WaitForFieldValidation waits until either field shows a validation message.
func (l *LoginPage) WaitForFieldValidation(ctx context.Context, timeout time.Duration) error {
	_, err := l.waiter().Await(ctx, browser.AnyOf(browser.Visible(UsernameError), browser.Visible(PasswordError)), timeout)
	return err
}

func (l *LoginPage) IsLoginButtonEnabled(ctx context.Context) bool  { return l.IsEnabled(ctx, LoginButton) }
func (l *LoginPage) IsLoginButtonDisabled(ctx context.Context) bool { return l.IsDisabled(ctx, LoginButton) }

func (l *LoginPage) IsGeneralErrorDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, GeneralError)
}

func (l *LoginPage) GeneralErrorText(ctx context.Context) (string, error) {
	return l.Text(ctx, GeneralError)
}

func (l *LoginPage) IsUsernameErrorDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, UsernameError)
}

func (l *LoginPage) UsernameErrorText(ctx context.Context) (string, error) {
	return l.Text(ctx, UsernameError)
}

func (l *LoginPage) IsPasswordErrorDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, PasswordError)
}

func (l *LoginPage) PasswordErrorText(ctx context.Context) (string, error) {
	return l.Text(ctx, PasswordError)
}

func (l *LoginPage) IsLoadingIndicatorDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, LoadingSpinner)
}

// LoginButtonText returns the trimmed label of the submit button.
func (l *LoginPage) LoginButtonText(ctx context.Context) (string, error) {
	text, err := l.Text(ctx, LoginButton)
	return strings.TrimSpace(text), err
}

func (l *LoginPage) HasUsernameLabel(ctx context.Context) bool { return l.IsDisplayed(ctx, UsernameLabel) }
func (l *LoginPage) HasPasswordLabel(ctx context.Context) bool { return l.IsDisplayed(ctx, PasswordLabel) }

func (l *LoginPage) UsernamePlaceholder(ctx context.Context) (string, error) {
	return l.Attribute(ctx, UsernameField, "placeholder")
}

func (l *LoginPage) PasswordPlaceholder(ctx context.Context) (string, error) {
	return l.Attribute(ctx, PasswordField, "placeholder")
}

// PasswordFieldType returns the input type of the password field, "password" when masked.
func (l *LoginPage) PasswordFieldType(ctx context.Context) (string, error) {
	return l.Attribute(ctx, PasswordField, "type")
}

// HasAriaLabel reports whether loc carries a non-empty aria-label.
func (l *LoginPage) HasAriaLabel(ctx context.Context, loc browser.Locator) bool {
	el, ok := l.waiter().Lookup(ctx, loc)
	if !ok {
		return false
	}
	v, _ := el.Attribute("aria-label")
	return strings.TrimSpace(v) != ""
}

// IsMarkedInvalid reports whether loc has aria-invalid="true".
func (l *LoginPage) IsMarkedInvalid(ctx context.Context, loc browser.Locator) bool {
	el, ok := l.waiter().Lookup(ctx, loc)
	if !ok {
		return false
	}
	v, _ := el.Attribute("aria-invalid")
	return v == "true"
}

// IsErrorAnnounced reports whether the general error region is visible and exposed to
// assistive technology as an alert.
func (l *LoginPage) IsErrorAnnounced(ctx context.Context) bool {
	el, ok := l.waiter().Lookup(ctx, GeneralError)
	if !ok || !el.Displayed {
		return false
	}
	role, _ := el.Attribute("role")
	return role == "alert"
}

func (l *LoginPage) IsUsernameIconDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, UsernameIcon)
}

func (l *LoginPage) IsPasswordIconDisplayed(ctx context.Context) bool {
	return l.IsDisplayed(ctx, PasswordIcon)
}

func (l *LoginPage) HasShakeAnimation(ctx context.Context) bool {
	return l.HasClass(ctx, LoginCard, ShakeClass)
}

// FieldValue returns the current value of an input.
func (l *LoginPage) FieldValue(ctx context.Context, loc browser.Locator) (string, error) {
	return l.Value(ctx, loc)
}

// RepeatChar builds an input of exactly n characters.
func RepeatChar(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("a", n)
}

func (l *LoginPage) String() string { return fmt.Sprintf("LoginPage(%s)", l.baseURL) }
