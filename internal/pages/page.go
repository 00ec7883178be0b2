// Package pages holds the page objects for the login workflow. Every read and action
// goes through the session's Waiter; page objects keep no state besides the session.
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
)

// Page is the helper concrete pages are composed from.
type Page struct {
	session *browser.Session
	logger  *zap.Logger
}

// NewPage binds the helper to a live session.
func NewPage(s *browser.Session, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{session: s, logger: logger}
}

func (p *Page) Session() *browser.Session { return p.session }

func (p *Page) waiter() *browser.Waiter { return p.session.Waiter() }

// Navigate loads url and waits until ready is visible, bounded by the page-load timeout.
func (p *Page) Navigate(ctx context.Context, url string, ready browser.Locator) error {
	if err := p.session.Navigate(ctx, url); err != nil {
		return err
	}
	if _, err := p.waiter().Await(ctx, browser.Visible(ready), p.session.Info().PageLoadTimeout); err != nil {
		return fmt.Errorf("page %s did not become ready: %w", url, err)
	}
	return nil
}

// CurrentURL returns the browser location.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	return p.session.CurrentURL(ctx)
}

// IsDisplayed reports whether loc is currently visible. Absence is a valid answer.
func (p *Page) IsDisplayed(ctx context.Context, loc browser.Locator) bool {
	return p.waiter().IsSatisfied(ctx, browser.Visible(loc))
}

// IsPresent reports whether loc is attached to the DOM, visible or not.
func (p *Page) IsPresent(ctx context.Context, loc browser.Locator) bool {
	return p.waiter().IsSatisfied(ctx, browser.Present(loc))
}

// IsEnabled reports whether loc exists and is enabled.
func (p *Page) IsEnabled(ctx context.Context, loc browser.Locator) bool {
	el, ok := p.waiter().Lookup(ctx, loc)
	return ok && el.Enabled
}

// IsDisabled reports whether loc exists and is disabled. An absent element is neither.
func (p *Page) IsDisabled(ctx context.Context, loc browser.Locator) bool {
	el, ok := p.waiter().Lookup(ctx, loc)
	return ok && !el.Enabled
}

// HasClass reports whether loc exists and carries class.
func (p *Page) HasClass(ctx context.Context, loc browser.Locator, class string) bool {
	el, ok := p.waiter().Lookup(ctx, loc)
	return ok && el.HasClass(class)
}

// Text waits for loc to be visible and returns its rendered text.
func (p *Page) Text(ctx context.Context, loc browser.Locator) (string, error) {
	el, err := p.waiter().Await(ctx, browser.Visible(loc), 0)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

// Value waits for loc to be present and returns its form value.
func (p *Page) Value(ctx context.Context, loc browser.Locator) (string, error) {
	el, err := p.waiter().Await(ctx, browser.Present(loc), 0)
	if err != nil {
		return "", err
	}
	return el.Value, nil
}

// Attribute waits for loc to be present and returns the named attribute, or "" when unset.
func (p *Page) Attribute(ctx context.Context, loc browser.Locator, name string) (string, error) {
	el, err := p.waiter().Await(ctx, browser.Present(loc), 0)
	if err != nil {
		return "", err
	}
	v, _ := el.Attribute(name)
	return v, nil
}

// Click waits for loc to be clickable and clicks it.
func (p *Page) Click(ctx context.Context, loc browser.Locator) error {
	if _, err := p.waiter().Await(ctx, browser.Clickable(loc), 0); err != nil {
		return err
	}
	p.logger.Debug("Click", zap.Stringer("locator", loc))
	return p.session.Click(ctx, loc)
}

// AttemptClick clicks loc once without waiting. A hidden or disabled target is an
// expected outcome and yields nil; every other failure, including a missing element,
// is returned.
func (p *Page) AttemptClick(ctx context.Context, loc browser.Locator) error {
	err := p.session.Click(ctx, loc)
	if errors.Is(err, browser.ErrNotInteractable) {
		p.logger.Debug("Click ignored, target not interactable", zap.Stringer("locator", loc))
		return nil
	}
	return err
}

// Type waits for loc to be visible, clears it and types text. Calling it twice leaves
// only the second value.
func (p *Page) Type(ctx context.Context, loc browser.Locator, text string) error {
	if _, err := p.waiter().Await(ctx, browser.Visible(loc), 0); err != nil {
		return err
	}
	if err := p.session.Clear(ctx, loc); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return p.session.SendKeys(ctx, loc, text)
}

// Clear waits for loc to be visible and empties it.
func (p *Page) Clear(ctx context.Context, loc browser.Locator) error {
	if _, err := p.waiter().Await(ctx, browser.Visible(loc), 0); err != nil {
		return err
	}
	return p.session.Clear(ctx, loc)
}

// Blur moves focus off loc by tabbing out of it.
func (p *Page) Blur(ctx context.Context, loc browser.Locator) error {
	if _, err := p.waiter().Await(ctx, browser.Visible(loc), 0); err != nil {
		return err
	}
	return p.session.SendKeys(ctx, loc, browser.KeyTab)
}

// ScrollIntoView waits for loc to be present and scrolls it to the viewport centre.
func (p *Page) ScrollIntoView(ctx context.Context, loc browser.Locator) error {
	if _, err := p.waiter().Await(ctx, browser.Present(loc), 0); err != nil {
		return err
	}
	return p.session.ScrollIntoView(ctx, loc)
}

// WaitVisible waits for loc to be visible. A non-positive timeout uses the session default.
func (p *Page) WaitVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return p.waiter().Await(ctx, browser.Visible(loc), timeout)
}

// WaitGone waits for loc to be absent or hidden.
func (p *Page) WaitGone(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	_, err := p.waiter().Await(ctx, browser.Invisible(loc), timeout)
	return err
}
