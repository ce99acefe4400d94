package xmldoc

import (
	"fmt"
	"io"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// sectionOrder is the declaration order of <configuration> children.
// plugins and environments share a rank and may appear in either order.
var sectionOrder = map[string]int{
	"properties":           0,
	"settings":             1,
	"typeAliases":          2,
	"typeHandlers":         3,
	"objectFactory":        4,
	"objectWrapperFactory": 5,
	"reflectorFactory":     6,
	"plugins":              7,
	"environments":         7,
	"databaseIdProvider":   8,
	"mappers":              9,
}

// ParseConfig reads a configuration document.
func ParseConfig(r io.Reader, enc Encoding, name string) (*document.Static, error) {
	root, err := Parse(r, enc)
	if err != nil {
		return nil, err
	}

	cfg, err := ConfigFromNode(root)
	if err != nil {
		return nil, err
	}

	return &document.Static{Resource: name, Config: cfg}, nil
}

// ConfigFromNode converts a <configuration> tree.
func ConfigFromNode(root *document.Node) (*document.Config, error) {
	if root.Name != "configuration" {
		return nil, malformed(root, "root element is <%s>, expected <configuration>", root.Name)
	}

	cfg := &document.Config{}
	seen := make(map[string]bool, len(sectionOrder))
	last := -1

	for _, n := range root.Elements() {
		pos, ok := sectionOrder[n.Name]
		if !ok {
			return nil, malformed(n, "unexpected element <%s> in <configuration>", n.Name)
		}

		if seen[n.Name] {
			return nil, malformed(n, "<%s> is repeated", n.Name)
		}

		if pos < last {
			return nil, malformed(n, "<%s> is out of order", n.Name)
		}

		seen[n.Name] = true
		last = pos

		if err := convertSection(cfg, n); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func convertSection(cfg *document.Config, n *document.Node) error {
	var err error

	switch n.Name {
	case "properties":
		cfg.Properties = &document.Properties{
			Resource: n.AttrOr("resource", ""),
			URL:      n.AttrOr("url", ""),
		}
		cfg.Properties.Entries, err = propertyList(n, "property")
	case "settings":
		cfg.Settings, err = propertyList(n, "setting")
	case "typeAliases":
		for _, c := range n.Elements() {
			switch c.Name {
			case "typeAlias":
				cfg.TypeAliases = append(cfg.TypeAliases, document.TypeAliasEntry{
					Alias: c.AttrOr("alias", ""),
					Type:  c.AttrOr("type", ""),
				})
			case "package":
				cfg.TypeAliases = append(cfg.TypeAliases, document.TypeAliasEntry{Package: c.AttrOr("name", "")})
			default:
				return malformed(c, "unexpected element <%s> in <typeAliases>", c.Name)
			}
		}
	case "typeHandlers":
		for _, c := range n.Elements() {
			switch c.Name {
			case "typeHandler":
				cfg.TypeHandlers = append(cfg.TypeHandlers, document.TypeHandlerEntry{
					Handler:  c.AttrOr("handler", ""),
					JavaType: c.AttrOr("javaType", ""),
					JdbcType: c.AttrOr("jdbcType", ""),
				})
			case "package":
				cfg.TypeHandlers = append(cfg.TypeHandlers, document.TypeHandlerEntry{Package: c.AttrOr("name", "")})
			default:
				return malformed(c, "unexpected element <%s> in <typeHandlers>", c.Name)
			}
		}
	case "plugins":
		for _, c := range n.Elements() {
			if c.Name != "plugin" {
				return malformed(c, "unexpected element <%s> in <plugins>", c.Name)
			}

			p := document.Plugin{Interceptor: c.AttrOr("interceptor", "")}
			if p.Properties, err = propertyList(c, "property"); err != nil {
				return err
			}

			cfg.Plugins = append(cfg.Plugins, p)
		}
	case "environments":
		cfg.Environments, err = environments(n)
	case "databaseIdProvider":
		cfg.DatabaseIDProvider, err = component(n)
	case "mappers":
		for _, c := range n.Elements() {
			switch c.Name {
			case "mapper":
				cfg.Mappers = append(cfg.Mappers, document.MapperEntry{
					Resource: c.AttrOr("resource", ""),
					URL:      c.AttrOr("url", ""),
					Class:    c.AttrOr("class", ""),
				})
			case "package":
				cfg.Mappers = append(cfg.Mappers, document.MapperEntry{Package: c.AttrOr("name", "")})
			default:
				return malformed(c, "unexpected element <%s> in <mappers>", c.Name)
			}
		}
	default:
		cfg.Ignored = append(cfg.Ignored, n.Name)
	}

	return err
}

func environments(n *document.Node) (*document.Environments, error) {
	envs := &document.Environments{Default: n.AttrOr("default", "")}

	for _, c := range n.Elements() {
		if c.Name != "environment" {
			return nil, malformed(c, "unexpected element <%s> in <environments>", c.Name)
		}

		decl := document.EnvironmentDecl{ID: c.AttrOr("id", "")}

		for _, part := range c.Elements() {
			comp, err := component(part)
			if err != nil {
				return nil, err
			}

			switch part.Name {
			case "transactionManager":
				decl.TransactionManager = comp
			case "dataSource":
				decl.DataSource = comp
			default:
				return nil, malformed(part, "unexpected element <%s> in <environment>", part.Name)
			}
		}

		envs.Items = append(envs.Items, decl)
	}

	return envs, nil
}

func component(n *document.Node) (*document.Component, error) {
	props, err := propertyList(n, "property")
	if err != nil {
		return nil, err
	}

	return &document.Component{Type: n.AttrOr("type", ""), Properties: props}, nil
}

func propertyList(n *document.Node, child string) (document.PropertyList, error) {
	var out document.PropertyList

	for _, c := range n.Elements() {
		if c.Name != child {
			return nil, malformed(c, "unexpected element <%s> in <%s>", c.Name, n.Name)
		}

		name, ok := c.Attr("name")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, malformed(c, "<%s> requires a name", child)
		}

		value, ok := c.Attr("value")
		if !ok {
			return nil, malformed(c, "<%s name=%q> requires a value", child, name)
		}

		out = append(out, document.Property{Name: name, Value: value})
	}

	return out, nil
}

func malformed(n *document.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", config.ErrMalformedDocument, n.Line, fmt.Sprintf(format, args...))
}
