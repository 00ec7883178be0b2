package demoapp

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// Field limits shared by the client-side validation and the login endpoint.
const (
	MaxUsernameLength = 255
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

// Messages rendered by the login form.
const (
	MsgUsernameRequired  = "Username or email is required"
	MsgUsernameTooLong   = "Username must not exceed 255 characters"
	MsgUsernameInvalid   = "Invalid characters detected"
	MsgPasswordRequired  = "Password is required"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgPasswordTooLong   = "Password must not exceed 128 characters"
	MsgInvalidCredential = "Invalid username or password"
	MsgInjection         = "Invalid credentials format detected"
	MsgScriptInjection   = "Invalid characters in credentials"
)

var (
	sqlInjection    = regexp.MustCompile(`(?i)(\bOR\b.*=.*|'.*OR.*'.*=.*'|".*OR.*".*=.*"|--)`)
	scriptInjection = regexp.MustCompile(`(?i)<script|javascript:|onerror=|onload=|<img|<iframe`)
)

// ValidateUsername returns the inline error for a username, or "" when it is acceptable.
func ValidateUsername(v string) string {
	switch {
	case strings.TrimSpace(v) == "":
		return MsgUsernameRequired
	case len(v) > MaxUsernameLength:
		return MsgUsernameTooLong
	case strings.ContainsAny(v, "<>"):
		return MsgUsernameInvalid
	}
	return ""
}

// ValidatePassword returns the inline error for a password, or "" when it is acceptable.
func ValidatePassword(v string) string {
	switch {
	case v == "":
		return MsgPasswordRequired
	case len(v) < MinPasswordLength:
		return MsgPasswordTooShort
	case len(v) > MaxPasswordLength:
		return MsgPasswordTooLong
	}
	return ""
}

// FormValid reports whether the submit button should be enabled.
func FormValid(username, password string) bool {
	return ValidateUsername(username) == "" && ValidatePassword(password) == ""
}

// Outcome is the result of a login attempt.
type Outcome struct {
	Status  int
	Message string
	User    *config.DemoUser
}

// Authenticate applies the login endpoint's checks in order: field validation,
// injection screening, then the credential lookup.
func Authenticate(users []config.DemoUser, username, password string) Outcome {
	if msg := ValidateUsername(username); msg != "" {
		return Outcome{Status: http.StatusBadRequest, Message: msg}
	}
	if msg := ValidatePassword(password); msg != "" {
		return Outcome{Status: http.StatusBadRequest, Message: msg}
	}
	if sqlInjection.MatchString(username) || sqlInjection.MatchString(password) {
		return Outcome{Status: http.StatusForbidden, Message: MsgInjection}
	}
	if scriptInjection.MatchString(username) || scriptInjection.MatchString(password) {
		return Outcome{Status: http.StatusForbidden, Message: MsgScriptInjection}
	}

	u := findUser(users, username)
	if u == nil || u.Password != password {
		return Outcome{Status: http.StatusUnauthorized, Message: MsgInvalidCredential}
	}
	return Outcome{Status: http.StatusOK, Message: "Login successful", User: u}
}

// findUser matches on username or email, case-insensitively.
func findUser(users []config.DemoUser, identifier string) *config.DemoUser {
	id := strings.TrimSpace(identifier)
	for i := range users {
		if strings.EqualFold(users[i].Username, id) || (users[i].Email != "" && strings.EqualFold(users[i].Email, id)) {
			return &users[i]
		}
	}
	return nil
}
