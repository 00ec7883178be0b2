package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// Default executables for the chromium family members that do not live on chromedp's search path.
var edgeExecutables = []string{"microsoft-edge", "microsoft-edge-stable", "msedge"}

// chromeDriver drives Chrome or Edge over the DevTools protocol.
type chromeDriver struct {
	logger *zap.Logger

	// browserCtx carries the chromedp target; every operation derives from it.
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	opTimeout       time.Duration
	pageLoadTimeout time.Duration
}

var _ Driver = (*chromeDriver)(nil)

// launchChrome starts a Chrome process configured per cfg.
func launchChrome(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
	return launchChromium(ctx, cfg, logger, cfg.ExecPath)
}

// launchEdge starts Microsoft Edge, which speaks the same protocol as Chrome.
func launchEdge(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = findExecutable(edgeExecutables)
	}
	if execPath == "" {
		return nil, &ConfigError{Field: "browser.exec_path", Value: "", Err: errors.New("microsoft edge executable not found")}
	}
	return launchChromium(ctx, cfg, logger, execPath)
}

func launchChromium(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger, execPath string) (Driver, error) {
	logger = logger.Named("chromedp")
	opts := allocatorOptions(cfg, execPath)

	// The allocator must outlive the acquiring request, so it hangs off Background
	// and is torn down by Quit.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	d := &chromeDriver{
		logger:          logger,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocCancel:     allocCancel,
		opTimeout:       cfg.ElementTimeout,
		pageLoadTimeout: cfg.PageLoadTimeout,
	}

	d.dismissDialogs()

	// The first Run starts the browser process.
	startCtx, cancel := d.actionContext(ctx, cfg.PageLoadTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return d, nil
}

// allocatorOptions configures the flags for the browser executable.
func allocatorOptions(cfg config.BrowserConfig, execPath string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	// DefaultExecAllocatorOptions enables headless; later flags win.
	if cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	} else {
		opts = append(opts, chromedp.Flag("headless", false), chromedp.Flag("start-maximized", true))
	}

	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
	)

	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// actionContext derives a chromedp-capable context that also honours opCtx and a timeout.
func (d *chromeDriver) actionContext(opCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(d.browserCtx, timeout)
	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()
	return runCtx, cancel
}

// dismissDialogs closes JavaScript dialogs as they open. An open dialog
// blocks every further DevTools call on the page.
func (d *chromeDriver) dismissDialogs() {
	chromedp.ListenTarget(d.browserCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventJavascriptDialogOpening)
		if !ok {
			return
		}
		d.logger.Info("Dismissing javascript dialog", zap.String("type", string(e.Type)), zap.String("message", e.Message))
		// Listeners must not block the event loop.
		go func() {
			if err := chromedp.Run(d.browserCtx, page.HandleJavaScriptDialog(false)); err != nil {
				d.logger.Debug("Failed to dismiss dialog", zap.Error(err))
			}
		}()
	})
}

func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := d.actionContext(ctx, d.opTimeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating", zap.String("url", url))
	runCtx, cancel := d.actionContext(ctx, d.pageLoadTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *chromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := d.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

func (d *chromeDriver) script(ctx context.Context, op string, loc Locator, js string) (scriptResult, error) {
	var res scriptResult
	if err := d.run(ctx, chromedp.Evaluate(js, &res)); err != nil {
		return res, elementErr(op, loc, err)
	}
	if !res.Found {
		return res, elementErr(op, loc, ErrNoSuchElement)
	}
	return res, nil
}

func (d *chromeDriver) Find(ctx context.Context, loc Locator) (Element, error) {
	res, err := d.script(ctx, "find", loc, snapshotScript(loc))
	if err != nil {
		return Element{}, err
	}
	return res.element(loc), nil
}

func (d *chromeDriver) Click(ctx context.Context, loc Locator) error {
	res, err := d.script(ctx, "click", loc, pointerScript(loc))
	if err != nil {
		return err
	}
	if !res.Displayed || !res.Enabled {
		return elementErr("click", loc, ErrNotInteractable)
	}
	d.logger.Debug("Clicking", zap.Stringer("locator", loc), zap.Float64("x", res.X), zap.Float64("y", res.Y))
	if err := d.run(ctx, chromedp.MouseClickXY(res.X, res.Y)); err != nil {
		return elementErr("click", loc, err)
	}
	return nil
}

func (d *chromeDriver) SendKeys(ctx context.Context, loc Locator, text string) error {
	res, err := d.script(ctx, "send keys", loc, focusScript(loc))
	if err != nil {
		return err
	}
	if !res.Displayed || !res.Enabled {
		return elementErr("send keys", loc, ErrNotInteractable)
	}
	// KeyEvent types into the focused element and maps "\t" to a Tab press.
	if err := d.run(ctx, chromedp.KeyEvent(text)); err != nil {
		return elementErr("send keys", loc, err)
	}
	return nil
}

func (d *chromeDriver) Clear(ctx context.Context, loc Locator) error {
	_, err := d.script(ctx, "clear", loc, clearScript(loc))
	return err
}

func (d *chromeDriver) ScrollIntoView(ctx context.Context, loc Locator) error {
	_, err := d.script(ctx, "scroll", loc, scrollScript(loc))
	return err
}

func (d *chromeDriver) Evaluate(ctx context.Context, script string) (any, error) {
	var res any
	err := d.run(ctx, chromedp.Evaluate(script, &res))
	if errors.Is(err, chromedp.ErrJSNull) || errors.Is(err, chromedp.ErrJSUndefined) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}
	return res, nil
}

func (d *chromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 selects PNG encoding.
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *chromeDriver) Quit(ctx context.Context) error {
	// Cancel asks the browser to close gracefully before the process is killed.
	err := chromedp.Cancel(d.browserCtx)
	d.browserCancel()
	d.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func findExecutable(candidates []string) string {
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
