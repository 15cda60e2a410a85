// Package vdom is the node tree the dropzone widgets render into.
//
// Elements are built with variadic constructors that accept attributes,
// child nodes, components and plain strings:
//
//	Div(Class("dropzone"), Data("field", "avatar"),
//	    Label(For("avatar"), "Avatar"),
//	    Input(Type("file"), Accept("image/*")),
//	)
//
// RenderToString serializes a tree to HTML. Text and attribute values are
// escaped and attributes are written in sorted order, so the same tree always
// produces the same bytes. Behaviour is attached by the client script through
// data-* attributes.
package vdom
