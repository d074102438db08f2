package stormfront

import "maps"

// Node is one element of the parsed game protocol: a tag name, an optional text
// value, attributes and ordered children. Plain text between tags arrives as a
// node named "text" whose value is the text.
type Node struct {
	Name     string            `json:"name"`
	Value    *string           `json:"value,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// NewNode returns a node with the given name and nothing else.
func NewNode(name string) Node {
	return Node{Name: name}
}

// TextNode returns a "text" node carrying value.
func TextNode(value string) Node {
	return NewNode("text").WithValue(value)
}

// WithValue returns a copy of n with its value set.
func (n Node) WithValue(value string) Node {
	n.Value = &value
	return n
}

// WithAttr returns a copy of n with key set to value.
func (n Node) WithAttr(key, value string) Node {
	attrs := make(map[string]string, len(n.Attrs)+1)
	maps.Copy(attrs, n.Attrs)
	attrs[key] = value
	n.Attrs = attrs
	return n
}

// WithChildren returns a copy of n with children appended.
func (n Node) WithChildren(children ...Node) Node {
	out := make([]Node, 0, len(n.Children)+len(children))
	out = append(out, n.Children...)
	n.Children = append(out, children...)
	return n
}

// Text returns the value, or "" when the node has none.
func (n Node) Text() string {
	if n.Value == nil {
		return ""
	}
	return *n.Value
}

// HasValue reports whether the node carries a value.
func (n Node) HasValue() bool {
	return n.Value != nil
}

// Attr returns the attribute and whether it is present.
func (n Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// AttrOr returns the attribute, or def when it is absent.
func (n Node) AttrOr(key, def string) string {
	if v, ok := n.Attrs[key]; ok {
		return v
	}
	return def
}

// HasAttr reports whether key is present and equal to value.
func (n Node) HasAttr(key, value string) bool {
	v, ok := n.Attrs[key]
	return ok && v == value
}

// Kind returns the node's protocol kind.
func (n Node) Kind() Kind {
	return KindOf(n.Name)
}

// Is reports whether the node has the given kind.
func (n Node) Is(k Kind) bool {
	return n.Kind() == k
}

// ChildText concatenates the values of the node's direct text and d children.
func (n Node) ChildText() string {
	var b []byte
	for _, child := range n.Children {
		switch child.Kind() {
		case KindText, KindD:
			b = append(b, child.Text()...)
		}
	}
	return string(b)
}
