package browser

import (
	"context"
	"strings"
)

// KeyTab moves focus to the next control. Drivers translate it to their own key code.
const KeyTab = "\t"

// Driver is the browser automation capability the harness drives. Implementations
// perform single-shot operations: they never wait for an element to appear. Waiting
// is the Waiter's job.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// Find snapshots the element's state, or returns an error wrapping ErrNoSuchElement.
	Find(ctx context.Context, loc Locator) (Element, error)
	// Click returns an error wrapping ErrNotInteractable for hidden or disabled targets.
	Click(ctx context.Context, loc Locator) error
	SendKeys(ctx context.Context, loc Locator, text string) error
	Clear(ctx context.Context, loc Locator) error
	ScrollIntoView(ctx context.Context, loc Locator) error
	Evaluate(ctx context.Context, script string) (any, error)
	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Quit(ctx context.Context) error
}

// Element is a point-in-time snapshot of a DOM element.
type Element struct {
	Locator    Locator
	Tag        string
	Text       string
	Value      string
	Displayed  bool
	Enabled    bool
	Attributes map[string]string
}

// Attribute returns the named attribute and whether it is present.
func (e Element) Attribute(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// HasClass reports whether class appears in the element's class list.
func (e Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attributes["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

// Interactable reports whether a click or keystroke would reach the element.
func (e Element) Interactable() bool {
	return e.Displayed && e.Enabled
}
