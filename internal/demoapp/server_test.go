package demoapp

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default().DemoApp
	cfg.ValidationDelay = 50 * time.Millisecond
	app, err := New(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func fetchDoc(t *testing.T, c *http.Client, url string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func postLogin(t *testing.T, c *http.Client, base, user, pass string) (*http.Response, apiResponse) {
	t.Helper()
	body, err := json.Marshal(loginRequest{Username: user, Password: pass})
	require.NoError(t, err)
	resp, err := c.Post(base+"/api/auth/login", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestLoginPageMarkup(t *testing.T) {
	ts := newTestServer(t)
	resp, doc := fetchDoc(t, newClient(t), ts.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	assert.Equal(t, 1, doc.Find(".card-gradient").Length())

	username := doc.Find("#username")
	require.Equal(t, 1, username.Length())
	assert.Equal(t, "text", username.AttrOr("type", ""))
	assert.Equal(t, "Enter username or email", username.AttrOr("placeholder", ""))
	assert.Equal(t, "Username or Email", username.AttrOr("aria-label", ""))
	assert.Equal(t, "false", username.AttrOr("aria-invalid", ""))

	password := doc.Find("#password")
	assert.Equal(t, "password", password.AttrOr("type", ""))
	assert.Equal(t, "Enter your password", password.AttrOr("placeholder", ""))

	button := doc.Find("#login-button")
	_, disabled := button.Attr("disabled")
	assert.True(t, disabled, "submit starts disabled")
	assert.Equal(t, "Login Button", button.AttrOr("aria-label", ""))
	assert.Contains(t, button.Text(), "Sign In")

	banner := doc.Find("#error-message")
	assert.Equal(t, "alert", banner.AttrOr("role", ""))
	_, hidden := banner.Attr("hidden")
	assert.True(t, hidden)

	assert.Equal(t, 1, doc.Find(`label[for="username"]`).Length())
	assert.Equal(t, 1, doc.Find(`label[for="password"]`).Length())

	script := doc.Find("script").Text()
	assert.Regexp(t, `delay:\s*50\b`, script)
	assert.Contains(t, script, MsgUsernameRequired)
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, _ := fetchDoc(t, c, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "dashboard requires a session")
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, out := postLogin(t, c, ts.URL, "validUser", "ValidPass123")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	require.NotNil(t, out.User)
	assert.Equal(t, "validUser", out.User.Username)

	resp, doc := fetchDoc(t, c, ts.URL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome back, validUser!", strings.TrimSpace(doc.Find("#welcome-message").Text()))
	assert.Equal(t, 1, doc.Find("#logout-button").Length())
	assert.Equal(t, 1, doc.Find("div.bg-green-50").Length())
	assert.Equal(t, "User", doc.Find("#user-role").Text())

	logout, err := c.Post(ts.URL+"/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	logout.Body.Close()
	assert.Equal(t, http.StatusSeeOther, logout.StatusCode)

	resp, _ = fetchDoc(t, c, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "session is gone after logout")
}

func TestLoginRejections(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, out := postLogin(t, c, ts.URL, "admin", "wrongpass")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, out.Success)
	assert.Equal(t, MsgInvalidCredential, out.Message)
	assert.Empty(t, resp.Cookies())

	resp, out = postLogin(t, c, ts.URL, "admin' OR '1'='1", "password")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, MsgInjection, out.Message)

	bad, err := c.Post(ts.URL+"/api/auth/login", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestAPIEndpoints(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "OK", health["status"])

	resp, err = c.Get(ts.URL + "/api/users")
	require.NoError(t, err)
	var listing struct {
		Success bool             `json:"success"`
		Users   []map[string]any `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	assert.True(t, listing.Success)
	require.NotEmpty(t, listing.Users)
	for _, u := range listing.Users {
		assert.NotContains(t, u, "password")
	}

	resp, err = c.Get(ts.URL + "/api/nope")
	require.NoError(t, err)
	var notFound apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&notFound))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Endpoint not found", notFound.Message)
}
