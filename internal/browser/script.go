package browser

import (
	"fmt"
)

// Scripts shared by every driver. Each returns a plain object so that no driver has to
// special-case a null result.

func snapshotScript(loc Locator) string {
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) { return {found: false}; }
	const style = window.getComputedStyle(el);
	const attrs = {};
	for (const a of el.attributes) { attrs[a.name] = a.value; }
	return {
		found: true,
		tag: el.tagName.toLowerCase(),
		text: (el.innerText || el.textContent || "").trim(),
		value: ("value" in el && el.value != null) ? String(el.value) : "",
		displayed: el.getClientRects().length > 0 && style.visibility !== "hidden" && style.display !== "none",
		enabled: !el.disabled,
		attributes: attrs
	};
})()`, loc.jsResolver())
}

// pointerScript scrolls the element to the viewport centre and reports its click point.
func pointerScript(loc Locator) string {
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) { return {found: false}; }
	el.scrollIntoView({block: "center", inline: "center"});
	const r = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	return {
		found: true,
		displayed: r.width > 0 && r.height > 0 && style.visibility !== "hidden" && style.display !== "none",
		enabled: !el.disabled,
		x: r.left + r.width / 2,
		y: r.top + r.height / 2
	};
})()`, loc.jsResolver())
}

func focusScript(loc Locator) string {
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) { return {found: false}; }
	const style = window.getComputedStyle(el);
	const displayed = el.getClientRects().length > 0 && style.visibility !== "hidden" && style.display !== "none";
	if (displayed && !el.disabled) { el.focus(); }
	return {found: true, displayed: displayed, enabled: !el.disabled};
})()`, loc.jsResolver())
}

// clearScript empties a field and fires the events a user edit would fire, so pages that
// derive state from input events (e.g. enabling a submit button) stay consistent. The
// value goes through the prototype setter: frameworks with controlled inputs track
// assignments made on the instance and would drop the following input event.
func clearScript(loc Locator) string {
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) { return {found: false}; }
	const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), "value");
	if (desc && desc.set) { desc.set.call(el, ""); } else { el.value = ""; }
	el.dispatchEvent(new Event("input", {bubbles: true}));
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return {found: true};
})()`, loc.jsResolver())
}

func scrollScript(loc Locator) string {
	return fmt.Sprintf(`(function() {
	const el = %s;
	if (!el) { return {found: false}; }
	el.scrollIntoView({block: "center", inline: "center"});
	return {found: true};
})()`, loc.jsResolver())
}

// scriptResult is the decoded shape of every script above.
type scriptResult struct {
	Found      bool              `json:"found"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Value      string            `json:"value"`
	Displayed  bool              `json:"displayed"`
	Enabled    bool              `json:"enabled"`
	Attributes map[string]string `json:"attributes"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
}

func (r scriptResult) element(loc Locator) Element {
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return Element{
		Locator:    loc,
		Tag:        r.Tag,
		Text:       r.Text,
		Value:      r.Value,
		Displayed:  r.Displayed,
		Enabled:    r.Enabled,
		Attributes: attrs,
	}
}

// decodeScriptResult converts a generic JSON-ish value (as returned by WebDriver) into a scriptResult.
func decodeScriptResult(raw any) (scriptResult, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return scriptResult{}, fmt.Errorf("unexpected script result type %T", raw)
	}
	var r scriptResult
	r.Found, _ = m["found"].(bool)
	r.Tag, _ = m["tag"].(string)
	r.Text, _ = m["text"].(string)
	r.Value, _ = m["value"].(string)
	r.Displayed, _ = m["displayed"].(bool)
	r.Enabled, _ = m["enabled"].(bool)
	r.X, _ = m["x"].(float64)
	r.Y, _ = m["y"].(float64)
	if attrs, ok := m["attributes"].(map[string]interface{}); ok {
		r.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			r.Attributes[k] = fmt.Sprint(v)
		}
	}
	return r, nil
}

// Truthy applies JavaScript truthiness to a decoded script value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}
