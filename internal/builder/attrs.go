package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// attr returns an attribute with placeholders expanded.
func (m *mapperCompiler) attr(n *document.Node, name string) string {
	return strings.TrimSpace(m.b.ph.expand(n.AttrOr(name, "")))
}

func (m *mapperCompiler) attrOr(n *document.Node, name, def string) string {
	if v := m.attr(n, name); v != "" {
		return v
	}

	return def
}

func (m *mapperCompiler) intAttr(n *document.Node, name string) (*int, error) {
	v := m.attr(n, name)
	if v == "" {
		return nil, nil
	}

	i, err := cast.ToIntE(v)
	if err != nil {
		return nil, m.badAttr(n, name, v, err)
	}

	return &i, nil
}

func (m *mapperCompiler) boolAttr(n *document.Node, name string, def bool) (bool, error) {
	v := m.attr(n, name)
	if v == "" {
		return def, nil
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return def, m.badAttr(n, name, v, err)
	}

	return b, nil
}

// durationAttr reads a millisecond count.
func (m *mapperCompiler) durationAttr(n *document.Node, name string) (time.Duration, error) {
	v := m.attr(n, name)
	if v == "" {
		return 0, nil
	}

	ms, err := cast.ToInt64E(v)
	if err != nil || ms < 0 {
		if err == nil {
			err = fmt.Errorf("negative duration")
		}

		return 0, m.badAttr(n, name, v, err)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

// listAttr splits a comma separated attribute.
func (m *mapperCompiler) listAttr(n *document.Node, name string) []string {
	var out []string

	for _, part := range strings.Split(m.attr(n, name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// propertyMap collects <property name value> children.
func (m *mapperCompiler) propertyMap(n *document.Node) map[string]string {
	props := n.Elements("property")
	if len(props) == 0 {
		return nil
	}

	out := make(map[string]string, len(props))
	for _, p := range props {
		out[m.attr(p, "name")] = m.b.ph.expand(p.AttrOr("value", ""))
	}

	return out
}

func (m *mapperCompiler) badAttr(n *document.Node, name, value string, err error) error {
	return fmt.Errorf("%w: <%s> at line %d: %s=%q: %v", config.ErrMalformedDocument, n.Name, n.Line, name, value, err)
}
