package builder

import (
	"fmt"
	"slices"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// assemble builds a statement body with every include expanded and pulls
// out its selectKey.
func (m *mapperCompiler) assemble(n *document.Node) (*config.SQLNode, *config.KeyGenerator, error) {
	var keyGen *config.KeyGenerator

	body := config.ContainerNode("", nil)

	for _, c := range n.Children {
		if c.Name == string(config.NodeSelectKey) {
			if keyGen != nil {
				return nil, nil, fmt.Errorf("%w: more than one selectKey at line %d", config.ErrMalformedDocument, c.Line)
			}

			kg, err := m.selectKey(c)
			if err != nil {
				return nil, nil, err
			}

			keyGen = kg

			continue
		}

		nodes, err := m.expand(c, m.b.ph, m.namespace, nil)
		if err != nil {
			return nil, nil, err
		}

		body.Children = append(body.Children, nodes...)
	}

	return body, keyGen, nil
}

// expand converts one element of a statement body. ns is the namespace
// references are resolved against and chain the fragments being expanded.
func (m *mapperCompiler) expand(n *document.Node, ph placeholders, ns string, chain []string) ([]*config.SQLNode, error) {
	if n.IsText() {
		return []*config.SQLNode{config.TextNode(ph.expand(n.Text))}, nil
	}

	if n.Name == "include" {
		return m.include(n, ph, ns, chain)
	}

	kind := config.NodeKind(n.Name)
	if !config.IsDynamicKind(kind) {
		return nil, fmt.Errorf("%w: unexpected element <%s> at line %d", config.ErrMalformedDocument, n.Name, n.Line)
	}

	var attrs map[string]string
	if len(n.Attrs) > 0 {
		attrs = make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			attrs[a.Name] = ph.expand(a.Value)
		}
	}

	node := config.ContainerNode(kind, attrs)

	for _, c := range n.Children {
		nodes, err := m.expand(c, ph, ns, chain)
		if err != nil {
			return nil, err
		}

		node.Children = append(node.Children, nodes...)
	}

	return []*config.SQLNode{node}, nil
}

// include splices a fragment's body. The include's <property> children
// are visible to the fragment as ${name}.
func (m *mapperCompiler) include(n *document.Node, ph placeholders, ns string, chain []string) ([]*config.SQLNode, error) {
	refid := strings.TrimSpace(ph.expand(n.AttrOr("refid", "")))
	if refid == "" {
		return nil, fmt.Errorf("%w: include at line %d has no refid", config.ErrMalformedDocument, n.Line)
	}

	id := qualify(ns, refid)

	if slices.Contains(chain, id) {
		return nil, fmt.Errorf("%w: %s", config.ErrIncludeCycle, strings.Join(append(chain, id), " -> "))
	}

	frag, ok := m.b.fragments[id]
	if !ok {
		return nil, withHint(fmt.Errorf("%w: %q included from %s", config.ErrUnresolvedInclude, refid, m.resource),
			id, m.b.cfg.FragmentIDs())
	}

	local := make(map[string]string)

	for _, p := range n.Elements("property") {
		name := strings.TrimSpace(p.AttrOr("name", ""))
		if name == "" {
			return nil, fmt.Errorf("%w: include property at line %d has no name", config.ErrMalformedDocument, p.Line)
		}

		local[name] = ph.expand(p.AttrOr("value", ""))
	}

	inner := ph.with(local)
	next := append(chain[:len(chain):len(chain)], id)

	var out []*config.SQLNode

	for _, c := range frag.node.Children {
		nodes, err := m.expand(c, inner, frag.namespace, next)
		if err != nil {
			return nil, err
		}

		out = append(out, nodes...)
	}

	return out, nil
}
