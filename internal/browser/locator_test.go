package browser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
)

func TestLocator(t *testing.T) {
	t.Run("Comparable", func(t *testing.T) {
		assert.Equal(t, ByID("username"), ByID("username"))
		assert.NotEqual(t, ByID("username"), ByName("username"))
		seen := map[Locator]bool{ByCSS("#a"): true}
		assert.True(t, seen[ByCSS("#a")])
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "id=login-button", ByID("login-button").String())
		assert.Equal(t, "xpath=//label[@for='username']", ByXPath("//label[@for='username']").String())
	})

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, ByClass("card-gradient").Validate())
		assert.Error(t, ByID("").Validate())
		assert.Error(t, Locator{Strategy: "link", Value: "Sign up"}.Validate())
	})

	t.Run("Resolver", func(t *testing.T) {
		tests := []struct {
			loc  Locator
			want string
		}{
			{ByID("username"), `document.getElementById("username")`},
			{ByCSS("#a > b"), `document.querySelector("#a > b")`},
			{ByClass("card-gradient"), `document.getElementsByClassName("card-gradient")[0] || null`},
			{ByName("password"), `document.getElementsByName("password")[0] || null`},
			{ByCSS(`a[href="/x?a=1&b=2"] > span<i>`), `document.querySelector("a[href=\"/x?a=1&b=2\"] > span<i>")`},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, tt.loc.jsResolver())
		}
		xp := ByXPath(`//input[@id="username"]`).jsResolver()
		assert.Contains(t, xp, `document.evaluate("//input[@id=\"username\"]"`)
		assert.Contains(t, xp, "FIRST_ORDERED_NODE_TYPE")
	})
}

func TestScriptResult(t *testing.T) {
	t.Run("DecodeWebDriverMap", func(t *testing.T) {
		raw := map[string]interface{}{
			"found":      true,
			"tag":        "input",
			"value":      "admin",
			"displayed":  true,
			"enabled":    false,
			"attributes": map[string]interface{}{"type": "password", "maxlength": 150.0},
			"x":          12.5,
		}
		res, err := decodeScriptResult(raw)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, 12.5, res.X)

		el := res.element(ByID("password"))
		assert.Equal(t, "input", el.Tag)
		assert.Equal(t, "admin", el.Value)
		assert.False(t, el.Interactable())
		assert.Equal(t, "password", el.Attributes["type"])
		assert.Equal(t, "150", el.Attributes["maxlength"])
	})

	t.Run("DecodeRejectsNonObject", func(t *testing.T) {
		_, err := decodeScriptResult("nope")
		assert.Error(t, err)
	})

	t.Run("MissingAttributesAreEmpty", func(t *testing.T) {
		el := scriptResult{Found: true}.element(ByID("x"))
		require.NotNil(t, el.Attributes)
		_, ok := el.Attribute("class")
		assert.False(t, ok)
	})

	t.Run("HasClass", func(t *testing.T) {
		el := Element{Attributes: map[string]string{"class": "card-gradient  error-shake"}}
		assert.True(t, el.HasClass("error-shake"))
		assert.False(t, el.HasClass("error"))
	})

	t.Run("Scripts", func(t *testing.T) {
		loc := ByID("username")
		for _, js := range []string{snapshotScript(loc), pointerScript(loc), focusScript(loc), clearScript(loc), scrollScript(loc)} {
			assert.Contains(t, js, `document.getElementById("username")`)
			assert.Contains(t, js, "found: false")
		}
		assert.Contains(t, clearScript(loc), `new Event("input"`)
	})

	t.Run("ClearUsesPrototypeSetter", func(t *testing.T) {
		js := clearScript(ByID("username"))
		setter := strings.Index(js, `desc.set.call(el, "")`)
		input := strings.Index(js, `new Event("input"`)
		require.NotEqual(t, -1, setter, "value must be assigned through the prototype setter")
		assert.Contains(t, js, `Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), "value")`)
		assert.Less(t, setter, input, "the input event must follow the assignment")
	})
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(1.0))
	assert.True(t, Truthy(map[string]interface{}{}))
}

func TestErrors(t *testing.T) {
	te := &TimeoutError{Condition: "visible id=a", Timeout: time.Second, LastErr: ErrNoSuchElement}
	assert.ErrorIs(t, te, ErrTimeout)
	assert.Contains(t, te.Error(), "last error")

	ee := elementErr("click", ByID("a"), ErrNotInteractable)
	assert.ErrorIs(t, ee, ErrNotInteractable)
	assert.Equal(t, "click id=a: element not interactable", ee.Error())

	ce := &ConfigError{Field: "browser.family", Value: "ie", Err: ErrUnsupportedBrowser}
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", ce), ErrUnsupportedBrowser)
}

func TestWebDriverTranslation(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"no such element", ErrNoSuchElement},
		{"stale element reference", ErrNoSuchElement},
		{"element not interactable", ErrNotInteractable},
		{"element click intercepted", ErrNotInteractable},
		{"invalid element state", ErrNotInteractable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := translateError(&selenium.Error{Err: tt.code, Message: "details"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	other := errors.New("connection refused")
	assert.Same(t, other, translateError(other))

	by, value := seleniumBy(ByXPath("//a"))
	assert.Equal(t, selenium.ByXPATH, by)
	assert.Equal(t, "//a", value)
	by, _ = seleniumBy(ByCSS(".x"))
	assert.Equal(t, selenium.ByCSSSelector, by)
}
