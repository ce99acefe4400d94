package config

import (
	"sort"
	"strings"
)

// NodeKind identifies a node of a statement body.
type NodeKind string

const (
	NodeText      NodeKind = "text"
	NodeIf        NodeKind = "if"
	NodeWhere     NodeKind = "where"
	NodeSet       NodeKind = "set"
	NodeTrim      NodeKind = "trim"
	NodeForEach   NodeKind = "foreach"
	NodeChoose    NodeKind = "choose"
	NodeWhen      NodeKind = "when"
	NodeOtherwise NodeKind = "otherwise"
	NodeBind      NodeKind = "bind"
	NodeSelectKey NodeKind = "selectKey"
)

var dynamicKinds = map[NodeKind]struct{}{
	NodeIf: {}, NodeWhere: {}, NodeSet: {}, NodeTrim: {}, NodeForEach: {},
	NodeChoose: {}, NodeWhen: {}, NodeOtherwise: {}, NodeBind: {},
}

// IsDynamicKind reports whether kind is a dynamic SQL element name.
func IsDynamicKind(kind NodeKind) bool {
	_, ok := dynamicKinds[kind]
	return ok
}

// SQLNode is one node of a compiled statement body. Includes are already
// expanded when a node reaches the configuration.
type SQLNode struct {
	Kind     NodeKind          `yaml:"kind" json:"kind"`
	Text     string            `yaml:"text,omitempty" json:"text,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Children []*SQLNode        `yaml:"children,omitempty" json:"children,omitempty"`
}

// TextNode returns a text leaf.
func TextNode(text string) *SQLNode {
	return &SQLNode{Kind: NodeText, Text: text}
}

// ContainerNode returns an element node with the given attributes and children.
func ContainerNode(kind NodeKind, attrs map[string]string, children ...*SQLNode) *SQLNode {
	return &SQLNode{Kind: kind, Attrs: attrs, Children: children}
}

// IsDynamic reports whether the tree needs runtime evaluation: it contains a
// dynamic element or a ${} text substitution.
func (n *SQLNode) IsDynamic() bool {
	if n == nil {
		return false
	}

	if IsDynamicKind(n.Kind) {
		return true
	}

	if n.Kind == NodeText && strings.Contains(n.Text, "${") {
		return true
	}

	for _, c := range n.Children {
		if c.IsDynamic() {
			return true
		}
	}

	return false
}

// Render writes the body as SQL text. Dynamic elements are kept in element
// form so the result stays readable. Adjacent parts are joined by one space.
func (n *SQLNode) Render(shrink bool) string {
	var parts []string
	n.render(&parts, shrink)

	return strings.Join(parts, " ")
}

func (n *SQLNode) render(parts *[]string, shrink bool) {
	if n == nil {
		return
	}

	switch n.Kind {
	case NodeText:
		text := strings.TrimSpace(n.Text)
		if shrink {
			text = strings.Join(strings.Fields(text), " ")
		}

		if text != "" {
			*parts = append(*parts, text)
		}
	case "":
		n.renderChildren(parts, shrink)
	case NodeSelectKey:
		// rendered by the owning statement's key generator, not inline
	default:
		if len(n.Children) == 0 {
			*parts = append(*parts, "<"+string(n.Kind)+n.attrString()+"/>")
			return
		}

		*parts = append(*parts, "<"+string(n.Kind)+n.attrString()+">")
		n.renderChildren(parts, shrink)
		*parts = append(*parts, "</"+string(n.Kind)+">")
	}
}

func (n *SQLNode) renderChildren(parts *[]string, shrink bool) {
	for _, c := range n.Children {
		c.render(parts, shrink)
	}
}

func (n *SQLNode) attrString() string {
	if len(n.Attrs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(" " + k + `="` + n.Attrs[k] + `"`)
	}

	return sb.String()
}

// Walk visits n and every descendant depth-first.
func (n *SQLNode) Walk(fn func(*SQLNode)) {
	if n == nil {
		return
	}

	fn(n)

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Clone returns a deep copy of the tree.
func (n *SQLNode) Clone() *SQLNode {
	if n == nil {
		return nil
	}

	c := &SQLNode{Kind: n.Kind, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}

	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}

	return c
}
