package vdom

import "fmt"

// Text creates an escaped text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Textf is Text with fmt.Sprintf formatting.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Raw creates a node whose content is written without escaping. Never pass
// it user input.
func Raw(html string) *VNode {
	return &VNode{Kind: KindRaw, Text: html}
}

// Fragment groups children without a wrapper element. Attributes among the
// children are ignored.
func Fragment(children ...any) *VNode {
	node := &VNode{Kind: KindFragment}
	for _, child := range children {
		node.Children = appendChild(node.Children, child)
	}
	if node.Children == nil {
		node.Children = []*VNode{}
	}
	return node
}

// appendChild adds a child argument to dst, skipping nils and expanding
// slices and components.
func appendChild(dst []*VNode, child any) []*VNode {
	switch v := child.(type) {
	case *VNode:
		if v != nil {
			dst = append(dst, v)
		}
	case []*VNode:
		for _, c := range v {
			if c != nil {
				dst = append(dst, c)
			}
		}
	case string:
		dst = append(dst, Text(v))
	case Component:
		if out := v.Render(); out != nil {
			dst = append(dst, out)
		}
	}
	return dst
}

// If returns node when cond holds.
func If(cond bool, node *VNode) *VNode {
	if !cond {
		return nil
	}
	return node
}

// IfElse picks between two nodes.
func IfElse(cond bool, then, otherwise *VNode) *VNode {
	if cond {
		return then
	}
	return otherwise
}

// AttrIf returns a when cond holds and an empty Attr otherwise, which
// elements ignore.
func AttrIf(cond bool, a Attr) Attr {
	if !cond {
		return Attr{}
	}
	return a
}

// Range maps items to nodes, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i, item := range items {
		if n := fn(item, i); n != nil {
			out = append(out, n)
		}
	}
	return out
}
