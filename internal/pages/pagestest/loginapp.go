// Package pagestest models the demo login application on top of browsertest.FakeDriver,
// so page objects and step handlers can be exercised without a browser. The model
// follows the markup and script served by internal/demoapp.
package pagestest

import (
	"strings"
	"sync"
	"time"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/browser/browsertest"
	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/demoapp"
	"github.com/2300033498-rgb/LoginTesting/internal/pages"
)

const (
	DefaultBaseURL         = "http://demo.test"
	DefaultValidationDelay = 20 * time.Millisecond
	DefaultAuthDelay       = 60 * time.Millisecond
	shakeDuration          = 500 * time.Millisecond
)

// Options tune the simulated application.
type Options struct {
	BaseURL         string
	Users           []config.DemoUser
	ValidationDelay time.Duration
	AuthDelay       time.Duration
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Users == nil {
		o.Users = config.Default().DemoApp.Users
	}
	if o.ValidationDelay <= 0 {
		o.ValidationDelay = DefaultValidationDelay
	}
	if o.AuthDelay <= 0 {
		o.AuthDelay = DefaultAuthDelay
	}
}

// App is the simulated application state behind one fake browser.
type App struct {
	f    *browsertest.FakeDriver
	opts Options

	mu       sync.Mutex
	page     int
	user     *config.DemoUser
	loading  bool
	debounce map[string]int
	submits  int
}

// Install registers the login and dashboard routes on f.
func Install(f *browsertest.FakeDriver, opts Options) *App {
	opts.defaults()
	a := &App{f: f, opts: opts, debounce: map[string]int{}}
	f.Route(opts.BaseURL, a.renderLogin)
	f.Route(opts.BaseURL+"/", a.renderLogin)
	f.Route(opts.BaseURL+"/login", a.renderLogin)
	f.Route(opts.BaseURL+pages.DashboardPath, a.renderDashboard)
	return a
}

func (a *App) BaseURL() string { return a.opts.BaseURL }

// SignedIn returns the username of the current session, or "".
func (a *App) SignedIn() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return ""
	}
	return a.user.Username
}

// Submits counts the login requests that reached the server.
func (a *App) Submits() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submits
}

// later runs fn after d unless the page has been re-rendered in the meantime.
func (a *App) later(d time.Duration, fn func()) {
	a.mu.Lock()
	page := a.page
	a.mu.Unlock()
	a.f.After(d, func() {
		a.mu.Lock()
		stale := a.page != page
		a.mu.Unlock()
		if !stale {
			fn()
		}
	})
}

func (a *App) renderLogin(f *browsertest.FakeDriver) {
	a.mu.Lock()
	a.page++
	a.loading = false
	a.mu.Unlock()

	f.Put(pages.LoginCard, &browsertest.Node{Tag: "div", Attributes: map[string]string{"class": "card-gradient", "id": "login-card"}})
	f.Put(pages.GeneralError, &browsertest.Node{Tag: "div", Hidden: true, Attributes: map[string]string{"role": "alert", "aria-live": "assertive"}})
	f.Put(pages.UsernameLabel, &browsertest.Node{Tag: "label", Text: "Username or Email", Attributes: map[string]string{"for": "username"}})
	f.Put(pages.PasswordLabel, &browsertest.Node{Tag: "label", Text: "Password", Attributes: map[string]string{"for": "password"}})
	f.Put(pages.UsernameIcon, &browsertest.Node{Tag: "svg"})
	f.Put(pages.PasswordIcon, &browsertest.Node{Tag: "svg"})
	f.Put(pages.UsernameField, &browsertest.Node{Tag: "input", Attributes: map[string]string{
		"type":          "text",
		"placeholder":   "Enter username or email",
		"aria-label":    "Username or Email",
		"aria-required": "true",
		"aria-invalid":  "false",
	}})
	f.Put(pages.PasswordField, &browsertest.Node{Tag: "input", Attributes: map[string]string{
		"type":          "password",
		"placeholder":   "Enter your password",
		"aria-label":    "Password",
		"aria-required": "true",
		"aria-invalid":  "false",
	}})
	f.Put(pages.UsernameError, &browsertest.Node{Tag: "p", Hidden: true, Attributes: map[string]string{"role": "alert"}})
	f.Put(pages.PasswordError, &browsertest.Node{Tag: "p", Hidden: true, Attributes: map[string]string{"role": "alert"}})
	f.Put(pages.LoginButton, &browsertest.Node{Tag: "button", Text: "Sign In", Disabled: true, Attributes: map[string]string{
		"type":       "submit",
		"aria-label": "Login Button",
	}})
	f.Put(pages.LoadingSpinner, &browsertest.Node{Tag: "svg", Hidden: true, Attributes: map[string]string{"class": "animate-spin"}})

	for name, loc := range map[string]browser.Locator{"username": pages.UsernameField, "password": pages.PasswordField} {
		f.OnInput(loc, func(*browsertest.FakeDriver) {
			a.showError("")
			a.schedule(name)
			a.refreshButton()
		})
		f.OnBlur(loc, func(*browsertest.FakeDriver) { a.schedule(name) })
	}
	f.OnClick(pages.LoginButton, func(*browsertest.FakeDriver) { a.submit() })
}

func (a *App) renderDashboard(f *browsertest.FakeDriver) {
	a.mu.Lock()
	a.page++
	user := a.user
	a.mu.Unlock()

	if user == nil {
		f.SetURL(a.opts.BaseURL + "/")
		return
	}
	f.Put(pages.WelcomeMessage, &browsertest.Node{Tag: "h1", Text: "Welcome back, " + user.Username + "!"})
	f.Put(pages.LogoutButton, &browsertest.Node{Tag: "button", Text: "Logout", Attributes: map[string]string{"aria-label": "Logout Button"}})
	f.Put(pages.SuccessMessage, &browsertest.Node{Tag: "div", Text: "Authentication Successful", Attributes: map[string]string{"class": "bg-green-50"}})
	f.OnClick(pages.LogoutButton, func(f *browsertest.FakeDriver) {
		a.mu.Lock()
		a.user = nil
		a.mu.Unlock()
		f.SetURL(a.opts.BaseURL + "/")
	})
}

func (a *App) value(loc browser.Locator) string {
	n, _ := a.f.Node(loc)
	return n.Value
}

func validate(name, value string) string {
	if name == "username" {
		return demoapp.ValidateUsername(value)
	}
	return demoapp.ValidatePassword(value)
}

func (a *App) schedule(name string) {
	a.mu.Lock()
	a.debounce[name]++
	gen := a.debounce[name]
	a.mu.Unlock()
	a.later(a.opts.ValidationDelay, func() {
		a.mu.Lock()
		current := a.debounce[name] == gen
		a.mu.Unlock()
		if current {
			a.renderValidation(name)
		}
	})
}

func (a *App) renderValidation(name string) {
	field, errLoc := pages.UsernameField, pages.UsernameError
	if name == "password" {
		field, errLoc = pages.PasswordField, pages.PasswordError
	}
	msg := validate(name, a.value(field))
	a.f.Update(errLoc, func(n *browsertest.Node) {
		n.Text = msg
		n.Hidden = msg == ""
	})
	a.f.Update(field, func(n *browsertest.Node) {
		if msg == "" {
			n.Attributes["aria-invalid"] = "false"
		} else {
			n.Attributes["aria-invalid"] = "true"
		}
	})
}

func (a *App) formValid() bool {
	return demoapp.FormValid(a.value(pages.UsernameField), a.value(pages.PasswordField))
}

func (a *App) refreshButton() {
	a.mu.Lock()
	loading := a.loading
	a.mu.Unlock()
	disabled := loading || !a.formValid()
	a.f.Update(pages.LoginButton, func(n *browsertest.Node) { n.Disabled = disabled })
}

func (a *App) setLoading(on bool) {
	a.mu.Lock()
	a.loading = on
	a.mu.Unlock()
	a.f.Update(pages.LoadingSpinner, func(n *browsertest.Node) { n.Hidden = !on })
	a.f.Update(pages.LoginButton, func(n *browsertest.Node) {
		if on {
			n.Text = "Logging in..."
		} else {
			n.Text = "Sign In"
		}
	})
	a.refreshButton()
}

func (a *App) shake() {
	a.f.Update(pages.LoginCard, func(n *browsertest.Node) { n.Attributes["class"] = "card-gradient " + pages.ShakeClass })
	a.later(shakeDuration, func() {
		a.f.Update(pages.LoginCard, func(n *browsertest.Node) { n.Attributes["class"] = "card-gradient" })
	})
}

func (a *App) showError(text string) {
	a.f.Update(pages.GeneralError, func(n *browsertest.Node) {
		n.Text = text
		n.Hidden = text == ""
	})
}

func (a *App) submit() {
	if !a.formValid() {
		a.shake()
		return
	}
	username, password := a.value(pages.UsernameField), a.value(pages.PasswordField)
	a.setLoading(true)
	a.showError("")
	a.later(a.opts.AuthDelay, func() {
		a.mu.Lock()
		a.submits++
		a.mu.Unlock()

		out := demoapp.Authenticate(a.opts.Users, username, password)
		if out.User != nil {
			a.mu.Lock()
			a.user = out.User
			a.mu.Unlock()
			a.f.SetURL(a.opts.BaseURL + pages.DashboardPath)
			return
		}
		a.setLoading(false)
		a.shake()
		a.showError(out.Message)
	})
}
