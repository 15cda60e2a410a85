package vdom

import (
	"strconv"
	"strings"
)

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Empty entries are dropped so conditional classes can be passed as "".
func Class(classes ...string) Attr {
	kept := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return attr("class", strings.Join(kept, " "))
}


// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", strconv.FormatBool(hidden)) }

// AriaDescribedBy sets the aria-describedby attribute.
func AriaDescribedBy(id string) Attr { return attr("aria-describedby", id) }

// AriaLive sets the aria-live attribute.
func AriaLive(mode string) Attr { return attr("aria-live", mode) }

// Form attributes

func Name(name string) Attr      { return attr("name", name) }
func Value(value string) Attr    { return attr("value", value) }
func Type(t string) Attr         { return attr("type", t) }
func For(id string) Attr         { return attr("for", id) }
func Accept(types string) Attr   { return attr("accept", types) }
func Charset(cs string) Attr     { return attr("charset", cs) }
func Src(url string) Attr        { return attr("src", url) }
func Alt(text string) Attr       { return attr("alt", text) }
func Disabled(on bool) Attr      { return attr("disabled", on) }
func Multiple(on bool) Attr      { return attr("multiple", on) }
func Selected(on bool) Attr      { return attr("selected", on) }
func Required(on bool) Attr      { return attr("required", on) }
func Defer() Attr                { return attr("defer", true) }
func Loading(mode string) Attr   { return attr("loading", mode) }
func TabIndex(index int) Attr    { return attr("tabindex", index) }
func Attribute(k, v string) Attr { return attr(k, v) }

// booleanAttrs render as a bare name when true and are omitted when false.
var booleanAttrs = map[string]bool{
	"disabled": true,
	"multiple": true,
	"selected": true,
	"required": true,
	"checked":  true,
	"defer":    true,
	"hidden":   true,
	"readonly": true,
}

func isBooleanAttr(key string) bool {
	return booleanAttrs[key]
}
