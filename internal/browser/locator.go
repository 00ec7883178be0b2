package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Strategy names how a Locator finds its element.
type Strategy string

const (
	StrategyID    Strategy = "id"
	StrategyCSS   Strategy = "css"
	StrategyClass Strategy = "class"
	StrategyName  Strategy = "name"
	StrategyXPath Strategy = "xpath"
)

// Locator is a declarative address for one element. It is a comparable value and is
// only resolved against the DOM when an operation uses it.
type Locator struct {
	Strategy Strategy
	Value    string
}

func ByID(id string) Locator        { return Locator{Strategy: StrategyID, Value: id} }
func ByCSS(selector string) Locator { return Locator{Strategy: StrategyCSS, Value: selector} }
func ByClass(class string) Locator  { return Locator{Strategy: StrategyClass, Value: class} }
func ByName(name string) Locator    { return Locator{Strategy: StrategyName, Value: name} }
func ByXPath(expr string) Locator   { return Locator{Strategy: StrategyXPath, Value: expr} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// Validate reports locators that can never match.
func (l Locator) Validate() error {
	if l.Value == "" {
		return fmt.Errorf("locator %q has an empty value", l.Strategy)
	}
	switch l.Strategy {
	case StrategyID, StrategyCSS, StrategyClass, StrategyName, StrategyXPath:
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
}

// jsResolver returns a JavaScript expression evaluating to the element or null.
func (l Locator) jsResolver() string {
	quoted := jsString(l.Value)
	switch l.Strategy {
	case StrategyID:
		return fmt.Sprintf("document.getElementById(%s)", quoted)
	case StrategyClass:
		return fmt.Sprintf("document.getElementsByClassName(%s)[0] || null", quoted)
	case StrategyName:
		return fmt.Sprintf("document.getElementsByName(%s)[0] || null", quoted)
	case StrategyXPath:
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", quoted)
	default:
		return fmt.Sprintf("document.querySelector(%s)", quoted)
	}
}

// jsString quotes s as a JavaScript string literal. HTML escaping is off so that
// selectors such as "#a > b" stay readable in logs.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
