package vdom

import "testing"

func TestText(t *testing.T) {
	node := Text("Hello")
	if node.Kind != KindText || node.Text != "Hello" {
		t.Errorf("Text() = %+v", node)
	}
}

func TestTextf(t *testing.T) {
	node := Textf("%d of %d files", 2, 3)
	if node.Text != "2 of 3 files" {
		t.Errorf("Text = %q", node.Text)
	}
}

func TestRaw(t *testing.T) {
	node := Raw("<b>bold</b>")
	if node.Kind != KindRaw || node.Text != "<b>bold</b>" {
		t.Errorf("Raw() = %+v", node)
	}
}

func TestFragment(t *testing.T) {
	node := Fragment(Div(), "text", nil, []*VNode{Span(), nil}, Func(func() *VNode { return P() }))
	if node.Kind != KindFragment {
		t.Fatalf("Kind = %v, want KindFragment", node.Kind)
	}
	if len(node.Children) != 4 {
		t.Errorf("Children len = %v, want 4", len(node.Children))
	}
}

func TestIf(t *testing.T) {
	node := Div()
	if If(true, node) != node {
		t.Error("If(true) should return the node")
	}
	if If(false, node) != nil {
		t.Error("If(false) should return nil")
	}
}

func TestIfElse(t *testing.T) {
	a, b := Div(), Span()
	if IfElse(true, a, b) != a {
		t.Error("IfElse(true) should return the first node")
	}
	if IfElse(false, a, b) != b {
		t.Error("IfElse(false) should return the second node")
	}
}

func TestAttrIf(t *testing.T) {
	if a := AttrIf(true, ID("x")); a.Key != "id" {
		t.Errorf("AttrIf(true) = %+v", a)
	}
	if a := AttrIf(false, ID("x")); !a.IsEmpty() {
		t.Errorf("AttrIf(false) = %+v", a)
	}
}


