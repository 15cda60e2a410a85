package vdom

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// RenderToString renders a VNode tree to an HTML string.
func RenderToString(node *VNode) (string, error) {
	var buf bytes.Buffer
	if err := RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MustRender renders a VNode tree and panics on failure.
// Rendering into memory only fails on an unknown node kind.
func MustRender(node *VNode) string {
	out, err := RenderToString(node)
	if err != nil {
		panic(err)
	}
	return out
}

// RenderToWriter streams a VNode tree to the given writer.
func RenderToWriter(w io.Writer, node *VNode) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case KindElement:
		return renderElement(w, node)
	case KindText:
		_, err := io.WriteString(w, htmlEscaper.Replace(node.Text))
		return err
	case KindRaw:
		_, err := io.WriteString(w, node.Text)
		return err
	case KindFragment:
		for _, child := range node.Children {
			if err := RenderToWriter(w, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("vdom: unknown node kind: %d", node.Kind)
	}
}

func renderElement(w io.Writer, node *VNode) error {
	if _, err := fmt.Fprintf(w, "<%s", node.Tag); err != nil {
		return err
	}
	if err := renderAttributes(w, node.Props); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if IsVoidElement(node.Tag) {
		return nil
	}
	for _, child := range node.Children {
		if err := RenderToWriter(w, child); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", node.Tag)
	return err
}

func renderAttributes(w io.Writer, props Props) error {
	// Sort keys for deterministic output
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := props[key]

		if isBooleanAttr(key) {
			if on, ok := value.(bool); ok {
				if on {
					if _, err := fmt.Fprintf(w, " %s", key); err != nil {
						return err
					}
				}
				continue
			}
		}

		s := attrToString(value)
		if s == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, attrEscaper.Replace(s)); err != nil {
			return err
		}
	}
	return nil
}

func attrToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
