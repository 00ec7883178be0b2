package browser

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoSuchElement means the locator matched nothing at the time of the lookup.
	ErrNoSuchElement = errors.New("no such element")
	// ErrNotInteractable means the element exists but is hidden or disabled.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrTimeout is wrapped by every *TimeoutError.
	ErrTimeout = errors.New("wait timed out")
	// ErrUnsupportedBrowser is wrapped by the ConfigError returned for an unknown family.
	ErrUnsupportedBrowser = errors.New("unsupported browser family")
	// ErrNoSession is returned when an operation needs a live session and none exists.
	ErrNoSession = errors.New("no live browser session")
)

// ElementError ties a lookup or interaction failure to the locator that caused it.
type ElementError struct {
	Op      string
	Locator Locator
	Err     error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Locator, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// TimeoutError reports a condition that never held within its budget.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	// LastErr is the last lookup failure observed while polling, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("condition %q not met within %s (last error: %v)", e.Condition, e.Timeout, e.LastErr)
	}
	return fmt.Sprintf("condition %q not met within %s", e.Condition, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ConfigError is a fatal session configuration problem. It is never retried.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid browser configuration %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func elementErr(op string, loc Locator, err error) error {
	return &ElementError{Op: op, Locator: loc, Err: err}
}
