package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Condition is a single evaluation of some page state. Check returns the element the
// condition resolved to (zero Element for page-level conditions), whether the condition
// holds, and any lookup error observed.
type Condition struct {
	Name  string
	Check func(ctx context.Context, d Driver) (Element, bool, error)
}

func (c Condition) String() string { return c.Name }

// Present holds once loc matches an element, visible or not.
func Present(loc Locator) Condition {
	return Condition{
		Name: "present " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			el, err := d.Find(ctx, loc)
			if err != nil {
				return Element{}, false, err
			}
			return el, true, nil
		},
	}
}

// Visible holds once loc matches a displayed element.
func Visible(loc Locator) Condition {
	return Condition{
		Name: "visible " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			el, err := d.Find(ctx, loc)
			if err != nil {
				return Element{}, false, err
			}
			return el, el.Displayed, nil
		},
	}
}

// Clickable holds once loc matches a displayed and enabled element.
func Clickable(loc Locator) Condition {
	return Condition{
		Name: "clickable " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			el, err := d.Find(ctx, loc)
			if err != nil {
				return Element{}, false, err
			}
			return el, el.Interactable(), nil
		},
	}
}

// Invisible holds when loc matches nothing or matches a hidden element.
func Invisible(loc Locator) Condition {
	return Condition{
		Name: "invisible " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			el, err := d.Find(ctx, loc)
			if errors.Is(err, ErrNoSuchElement) {
				return Element{}, true, nil
			}
			if err != nil {
				return Element{}, false, err
			}
			return el, !el.Displayed, nil
		},
	}
}

// ScriptTruthy holds when the JavaScript expression evaluates truthy in the page.
func ScriptTruthy(expr string) Condition {
	return Condition{
		Name: "script " + expr,
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			v, err := d.Evaluate(ctx, "!!("+expr+")")
			if err != nil {
				return Element{}, false, err
			}
			return Element{}, Truthy(v), nil
		},
	}
}

// URLContains holds when the current location contains fragment.
func URLContains(fragment string) Condition {
	return Condition{
		Name: fmt.Sprintf("url contains %q", fragment),
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			u, err := d.CurrentURL(ctx)
			if err != nil {
				return Element{}, false, err
			}
			return Element{}, strings.Contains(u, fragment), nil
		},
	}
}

// AnyOf holds as soon as one of conds holds; the first satisfied condition's element is returned.
func AnyOf(conds ...Condition) Condition {
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = c.Name
	}
	return Condition{
		Name: "any of [" + strings.Join(names, ", ") + "]",
		Check: func(ctx context.Context, d Driver) (Element, bool, error) {
			var lastErr error
			for _, c := range conds {
				el, ok, err := c.Check(ctx, d)
				if ok {
					return el, true, nil
				}
				if err != nil {
					lastErr = err
				}
			}
			return Element{}, false, lastErr
		},
	}
}

// Waiter polls conditions against one driver.
type Waiter struct {
	driver   Driver
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewWaiter builds a waiter with a default timeout and poll interval.
func NewWaiter(d Driver, timeout, interval time.Duration, logger *zap.Logger) *Waiter {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Waiter{
		driver:   d,
		timeout:  timeout,
		interval: interval,
		logger:   logger.Named("waiter"),
	}
}

// Timeout is the budget Await uses when called with a non-positive timeout.
func (w *Waiter) Timeout() time.Duration { return w.timeout }

// Driver exposes the driver the waiter polls.
func (w *Waiter) Driver() Driver { return w.driver }

// Await polls cond until it holds, the timeout elapses, or ctx is done. The first check
// runs immediately. Lookup errors are tolerated while polling; the last one is reported
// on the returned *TimeoutError.
func (w *Waiter) Await(ctx context.Context, cond Condition, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		timeout = w.timeout
	}
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		el, ok, err := cond.Check(ctx, w.driver)
		if ok {
			if attempt > 1 {
				w.logger.Debug("Condition met", zap.String("condition", cond.Name), zap.Int("attempts", attempt))
			}
			return el, nil
		}
		if err != nil {
			lastErr = err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Element{}, fmt.Errorf("waiting for %s: %w", cond.Name, ctxErr)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			w.logger.Debug("Condition timed out",
				zap.String("condition", cond.Name),
				zap.Duration("timeout", timeout),
				zap.Int("attempts", attempt),
				zap.Error(lastErr),
			)
			return Element{}, &TimeoutError{Condition: cond.Name, Timeout: timeout, LastErr: lastErr}
		}

		// The last sleep is trimmed so the wait ends close to the deadline.
		if remaining < w.interval {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Element{}, fmt.Errorf("waiting for %s: %w", cond.Name, ctx.Err())
			case <-timer.C:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return Element{}, fmt.Errorf("waiting for %s: %w", cond.Name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsSatisfied evaluates cond once. Any error counts as not satisfied.
func (w *Waiter) IsSatisfied(ctx context.Context, cond Condition) bool {
	_, ok, _ := cond.Check(ctx, w.driver)
	return ok
}

// Lookup finds loc once without waiting.
func (w *Waiter) Lookup(ctx context.Context, loc Locator) (Element, bool) {
	el, err := w.driver.Find(ctx, loc)
	if err != nil {
		return Element{}, false
	}
	return el, true
}
