package pages

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
)

// Dashboard locators.
var (
	WelcomeMessage = browser.ByID("welcome-message")
	LogoutButton   = browser.ByID("logout-button")
	SuccessMessage = browser.ByXPath("//div[contains(@class, 'bg-green-50')]")
)

// DashboardPage reads the post-login screen.
type DashboardPage struct {
	*Page
}

func NewDashboardPage(s *browser.Session, logger *zap.Logger) *DashboardPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardPage{Page: NewPage(s, logger.Named("dashboard_page"))}
}

// IsOnDashboard reports whether the welcome banner and logout control are both visible.
func (d *DashboardPage) IsOnDashboard(ctx context.Context) bool {
	return d.IsDisplayed(ctx, WelcomeMessage) && d.IsDisplayed(ctx, LogoutButton)
}

// WaitUntilLoaded waits for the welcome banner and logout control, bounded by timeout each.
func (d *DashboardPage) WaitUntilLoaded(ctx context.Context, timeout time.Duration) error {
	if _, err := d.WaitVisible(ctx, WelcomeMessage, timeout); err != nil {
		return err
	}
	_, err := d.WaitVisible(ctx, LogoutButton, timeout)
	return err
}

func (d *DashboardPage) WelcomeText(ctx context.Context) (string, error) {
	text, err := d.Text(ctx, WelcomeMessage)
	return strings.TrimSpace(text), err
}

// WelcomeContains reports whether the welcome banner contains want. A missing banner
// yields false.
func (d *DashboardPage) WelcomeContains(ctx context.Context, want string) bool {
	el, ok := d.waiter().Lookup(ctx, WelcomeMessage)
	return ok && el.Displayed && strings.Contains(el.Text, want)
}

func (d *DashboardPage) IsLogoutVisible(ctx context.Context) bool {
	return d.IsDisplayed(ctx, LogoutButton)
}

func (d *DashboardPage) IsSuccessMessageDisplayed(ctx context.Context) bool {
	return d.IsDisplayed(ctx, SuccessMessage)
}

// Logout clicks the logout control and waits for the dashboard to go away.
func (d *DashboardPage) Logout(ctx context.Context) error {
	if err := d.Click(ctx, LogoutButton); err != nil {
		return err
	}
	return d.WaitGone(ctx, WelcomeMessage, 0)
}
