package document

import (
	"strings"
)

// Attr is one element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is an element or character-data node of a mapper document.
// Text nodes have an empty Name.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
	Line     int
}

// IsText reports whether n is character data.
func (n *Node) IsText() bool {
	return n.Name == ""
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// AttrOr returns the value of an attribute, or def when it is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}

	return def
}

// Elements returns the child elements, optionally filtered by name.
func (n *Node) Elements(names ...string) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if c.IsText() {
			continue
		}

		if len(names) == 0 {
			out = append(out, c)
			continue
		}

		for _, name := range names {
			if c.Name == name {
				out = append(out, c)
				break
			}
		}
	}

	return out
}

// TextContent concatenates every descendant text node.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}

	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}

	return sb.String()
}
