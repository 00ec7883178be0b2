package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// webDriver drives a browser through a W3C WebDriver endpoint (geckodriver or a selenium server).
type webDriver struct {
	wd     selenium.WebDriver
	logger *zap.Logger
}

var _ Driver = (*webDriver)(nil)

// launchFirefox opens a Firefox session on cfg.WebDriverURL.
func launchFirefox(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.WebDriverURL == "" {
		return nil, &ConfigError{Field: "browser.webdriver_url", Value: "", Err: errors.New("firefox requires a webdriver endpoint")}
	}

	args := append([]string{}, cfg.Args...)
	if cfg.Headless {
		args = append(args, "-headless")
	}
	caps := selenium.Capabilities{"browserName": "firefox"}
	caps.AddFirefox(firefox.Capabilities{
		Args: args,
		Prefs: map[string]interface{}{
			"dom.disable_open_during_load":      false,
			"layers.acceleration.disabled":      true,
			"xpinstall.enabled":                 false,
			"extensions.autoDisableScopes":      15,
			"browser.shell.checkDefaultBrowser": false,
		},
	})

	wd, err := selenium.NewRemote(caps, cfg.WebDriverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open webdriver session at %s: %w", cfg.WebDriverURL, err)
	}

	// Implicit waits would double up with the Waiter's polling, so lookups stay single-shot.
	setup := []func() error{
		func() error { return wd.SetImplicitWaitTimeout(0) },
		func() error { return wd.SetPageLoadTimeout(cfg.PageLoadTimeout) },
	}
	if cfg.Headless {
		setup = append(setup, func() error { return wd.ResizeWindow("", cfg.WindowWidth, cfg.WindowHeight) })
	} else {
		setup = append(setup, func() error { return wd.MaximizeWindow("") })
	}
	for _, step := range setup {
		if err := step(); err != nil {
			_ = wd.Quit()
			return nil, fmt.Errorf("failed to configure webdriver session: %w", err)
		}
	}

	return &webDriver{wd: wd, logger: logger.Named("webdriver")}, nil
}

func seleniumBy(loc Locator) (string, string) {
	switch loc.Strategy {
	case StrategyID:
		return selenium.ByID, loc.Value
	case StrategyClass:
		return selenium.ByClassName, loc.Value
	case StrategyName:
		return selenium.ByName, loc.Value
	case StrategyXPath:
		return selenium.ByXPATH, loc.Value
	default:
		return selenium.ByCSSSelector, loc.Value
	}
}

// translateError maps W3C error codes onto the harness sentinels.
func translateError(err error) error {
	var se *selenium.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Err {
	case "no such element", "stale element reference":
		return fmt.Errorf("%w: %s", ErrNoSuchElement, se.Message)
	case "element not interactable", "element click intercepted", "invalid element state":
		return fmt.Errorf("%w: %s", ErrNotInteractable, se.Message)
	}
	return err
}

func (d *webDriver) exec(ctx context.Context, script string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.wd.ExecuteScript("return "+script, nil)
}

func (d *webDriver) script(ctx context.Context, op string, loc Locator, js string) (scriptResult, error) {
	raw, err := d.exec(ctx, js)
	if err != nil {
		return scriptResult{}, elementErr(op, loc, translateError(err))
	}
	res, err := decodeScriptResult(raw)
	if err != nil {
		return res, elementErr(op, loc, err)
	}
	if !res.Found {
		return res, elementErr(op, loc, ErrNoSuchElement)
	}
	return res, nil
}

func (d *webDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Debug("Navigating", zap.String("url", url))
	if err := d.wd.Get(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *webDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.wd.CurrentURL()
}

func (d *webDriver) Find(ctx context.Context, loc Locator) (Element, error) {
	res, err := d.script(ctx, "find", loc, snapshotScript(loc))
	if err != nil {
		return Element{}, err
	}
	return res.element(loc), nil
}

func (d *webDriver) element(ctx context.Context, op string, loc Locator) (selenium.WebElement, error) {
	res, err := d.script(ctx, op, loc, snapshotScript(loc))
	if err != nil {
		return nil, err
	}
	if !res.Displayed || !res.Enabled {
		return nil, elementErr(op, loc, ErrNotInteractable)
	}
	by, value := seleniumBy(loc)
	el, err := d.wd.FindElement(by, value)
	if err != nil {
		return nil, elementErr(op, loc, translateError(err))
	}
	return el, nil
}

func (d *webDriver) Click(ctx context.Context, loc Locator) error {
	el, err := d.element(ctx, "click", loc)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return elementErr("click", loc, translateError(err))
	}
	return nil
}

func (d *webDriver) SendKeys(ctx context.Context, loc Locator, text string) error {
	el, err := d.element(ctx, "send keys", loc)
	if err != nil {
		return err
	}
	if err := el.SendKeys(strings.ReplaceAll(text, KeyTab, selenium.TabKey)); err != nil {
		return elementErr("send keys", loc, translateError(err))
	}
	return nil
}

func (d *webDriver) Clear(ctx context.Context, loc Locator) error {
	_, err := d.script(ctx, "clear", loc, clearScript(loc))
	return err
}

func (d *webDriver) ScrollIntoView(ctx context.Context, loc Locator) error {
	_, err := d.script(ctx, "scroll", loc, scrollScript(loc))
	return err
}

func (d *webDriver) Evaluate(ctx context.Context, script string) (any, error) {
	res, err := d.exec(ctx, "("+script+")")
	if err != nil {
		return nil, fmt.Errorf("evaluate script: %w", translateError(err))
	}
	return res, nil
}

func (d *webDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := d.wd.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *webDriver) Quit(context.Context) error {
	if err := d.wd.Quit(); err != nil {
		return fmt.Errorf("quit webdriver session: %w", err)
	}
	return nil
}
