// Package browsertest provides an in-memory browser.Driver for tests that need page
// behaviour without launching a real browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
)

// PNG is the screenshot FakeDriver returns unless Screenshot is overridden.
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Node is the mutable state behind one fake element.
type Node struct {
	Tag        string
	Text       string
	Value      string
	Hidden     bool
	Disabled   bool
	Attributes map[string]string
}

func (n *Node) snapshot(loc browser.Locator) browser.Element {
	attrs := make(map[string]string, len(n.Attributes))
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	return browser.Element{
		Locator:    loc,
		Tag:        n.Tag,
		Text:       n.Text,
		Value:      n.Value,
		Displayed:  !n.Hidden,
		Enabled:    !n.Disabled,
		Attributes: attrs,
	}
}

// Handler reacts to a user event. It runs without the driver lock held and may mutate
// the page through the driver's exported methods.
type Handler func(f *FakeDriver)

// FakeDriver is a deterministic, thread-safe browser.Driver. Elements are keyed by
// locator, so a page must be modelled with the same locators its page object uses.
type FakeDriver struct {
	mu       sync.Mutex
	url      string
	nodes    map[browser.Locator]*Node
	focused  browser.Locator
	onClick  map[browser.Locator]Handler
	onInput  map[browser.Locator]Handler
	onBlur   map[browser.Locator]Handler
	routes   map[string]Handler
	calls    []string
	timers   []*time.Timer
	quits    int
	ScriptFn func(script string) (any, error)
	ShotFn   func() ([]byte, error)
	QuitErr  error
}

var _ browser.Driver = (*FakeDriver)(nil)

// New returns an empty page at about:blank.
func New() *FakeDriver {
	return &FakeDriver{
		url:     "about:blank",
		nodes:   make(map[browser.Locator]*Node),
		onClick: make(map[browser.Locator]Handler),
		onInput: make(map[browser.Locator]Handler),
		onBlur:  make(map[browser.Locator]Handler),
		routes:  make(map[string]Handler),
	}
}

// Put adds or replaces an element.
func (f *FakeDriver) Put(loc browser.Locator, n *Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.Attributes == nil {
		n.Attributes = map[string]string{}
	}
	f.nodes[loc] = n
}

// Remove detaches an element from the page.
func (f *FakeDriver) Remove(loc browser.Locator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.nodes, loc)
}

// Update mutates an element in place. It is a no-op for absent elements.
func (f *FakeDriver) Update(loc browser.Locator, fn func(n *Node)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.nodes[loc]; ok {
		fn(n)
	}
}

// Node returns a copy of the element state.
func (f *FakeDriver) Node(loc browser.Locator) (Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[loc]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Reset removes every element and handler. Routes survive.
func (f *FakeDriver) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = make(map[browser.Locator]*Node)
	f.onClick = make(map[browser.Locator]Handler)
	f.onInput = make(map[browser.Locator]Handler)
	f.onBlur = make(map[browser.Locator]Handler)
	f.focused = browser.Locator{}
}

func (f *FakeDriver) OnClick(loc browser.Locator, h Handler) { f.setHandler(f.onClick, loc, h) }
func (f *FakeDriver) OnInput(loc browser.Locator, h Handler) { f.setHandler(f.onInput, loc, h) }
func (f *FakeDriver) OnBlur(loc browser.Locator, h Handler)  { f.setHandler(f.onBlur, loc, h) }

func (f *FakeDriver) setHandler(m map[browser.Locator]Handler, loc browser.Locator, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m[loc] = h
}

// Route renders a page when Navigate or SetURL reaches url.
func (f *FakeDriver) Route(url string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[url] = h
}

// SetURL changes the location, rendering the matching route if one exists.
func (f *FakeDriver) SetURL(url string) {
	f.mu.Lock()
	f.url = url
	h := f.routes[url]
	f.mu.Unlock()
	if h != nil {
		f.Reset()
		h(f)
	}
}

// After runs fn once d has elapsed, emulating asynchronous rendering.
func (f *FakeDriver) After(d time.Duration, fn func()) {
	t := time.AfterFunc(d, fn)
	f.mu.Lock()
	f.timers = append(f.timers, t)
	f.mu.Unlock()
}

// Calls returns the operations performed so far, e.g. "click id=login-button".
func (f *FakeDriver) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// QuitCount reports how many times Quit was called.
func (f *FakeDriver) QuitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quits
}

func (f *FakeDriver) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *FakeDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.record("navigate %s", url)
	f.mu.Unlock()
	f.SetURL(url)
	return nil
}

func (f *FakeDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *FakeDriver) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return browser.Element{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[loc]
	if !ok {
		return browser.Element{}, &browser.ElementError{Op: "find", Locator: loc, Err: browser.ErrNoSuchElement}
	}
	return n.snapshot(loc), nil
}

// interactable resolves loc for an action and moves focus to it, returning the blur
// handler of the element that lost focus.
func (f *FakeDriver) interactable(op string, loc browser.Locator) (*Node, Handler, error) {
	n, ok := f.nodes[loc]
	if !ok {
		return nil, nil, &browser.ElementError{Op: op, Locator: loc, Err: browser.ErrNoSuchElement}
	}
	if n.Hidden || n.Disabled {
		return nil, nil, &browser.ElementError{Op: op, Locator: loc, Err: browser.ErrNotInteractable}
	}
	var blur Handler
	if f.focused != loc {
		blur = f.onBlur[f.focused]
		f.focused = loc
	}
	return n, blur, nil
}

func (f *FakeDriver) Click(ctx context.Context, loc browser.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.record("click %s", loc)
	_, blur, err := f.interactable("click", loc)
	click := f.onClick[loc]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if blur != nil {
		blur(f)
	}
	if click != nil {
		click(f)
	}
	return nil
}

func (f *FakeDriver) SendKeys(ctx context.Context, loc browser.Locator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.record("sendkeys %s %q", loc, text)
	_, blur, err := f.interactable("send keys", loc)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if blur != nil {
		blur(f)
	}

	typed, _, tabbed := strings.Cut(text, browser.KeyTab)
	if typed != "" {
		f.mu.Lock()
		if n, ok := f.nodes[loc]; ok {
			n.Value += typed
		}
		input := f.onInput[loc]
		f.mu.Unlock()
		if input != nil {
			input(f)
		}
	}
	if tabbed {
		f.mu.Lock()
		blurFocused := f.onBlur[f.focused]
		f.focused = browser.Locator{}
		f.mu.Unlock()
		if blurFocused != nil {
			blurFocused(f)
		}
	}
	return nil
}

func (f *FakeDriver) Clear(ctx context.Context, loc browser.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.record("clear %s", loc)
	n, ok := f.nodes[loc]
	if ok {
		n.Value = ""
	}
	input := f.onInput[loc]
	f.mu.Unlock()
	if !ok {
		return &browser.ElementError{Op: "clear", Locator: loc, Err: browser.ErrNoSuchElement}
	}
	if input != nil {
		input(f)
	}
	return nil
}

func (f *FakeDriver) ScrollIntoView(ctx context.Context, loc browser.Locator) error {
	_, err := f.Find(ctx, loc)
	return err
}

func (f *FakeDriver) Evaluate(ctx context.Context, script string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	fn := f.ScriptFn
	f.record("evaluate %s", script)
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("browsertest: no script handler installed")
	}
	return fn(script)
}

func (f *FakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	fn := f.ShotFn
	f.record("screenshot")
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return append([]byte(nil), PNG...), nil
}

func (f *FakeDriver) Quit(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("quit")
	f.quits++
	for _, t := range f.timers {
		t.Stop()
	}
	f.timers = nil
	return f.QuitErr
}

// NewSession wraps f in a session with short timeouts suited to unit tests.
func NewSession(f *FakeDriver, elementTimeout time.Duration, logger *zap.Logger) *browser.Session {
	info := browser.SessionInfo{
		ID:              "fake-session",
		Family:          browser.FamilyChrome,
		Headless:        true,
		ElementTimeout:  elementTimeout,
		PageLoadTimeout: 2 * elementTimeout,
		StartedAt:       time.Now(),
	}
	return browser.NewSession(f, info, 5*time.Millisecond, logger)
}
