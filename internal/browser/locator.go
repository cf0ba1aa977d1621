package browser

import (
	"fmt"
	"strconv"
)

// By is the attribute a Locator matches on.
type By string

const (
	ByID    By = "id"
	ByName  By = "name"
	ByClass By = "class"
	ByCSS   By = "css"
)

// Locator finds an element on a page. Every strategy renders to a CSS selector.
type Locator struct {
	By    By
	Value string
}

func ID(v string) Locator    { return Locator{By: ByID, Value: v} }
func Name(v string) Locator  { return Locator{By: ByName, Value: v} }
func Class(v string) Locator { return Locator{By: ByClass, Value: v} }
func CSS(v string) Locator   { return Locator{By: ByCSS, Value: v} }

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Value == ""
}

// Selector returns the CSS selector for the locator.
func (l Locator) Selector() string {
	switch l.By {
	case ByID:
		return "[id=" + strconv.Quote(l.Value) + "]"
	case ByName:
		return "[name=" + strconv.Quote(l.Value) + "]"
	case ByClass:
		return "." + l.Value
	default:
		return l.Value
	}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}
