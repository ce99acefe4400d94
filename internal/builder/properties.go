package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/magiconair/properties"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// Property names that switch on ${key:default} placeholders.
const (
	EnableDefaultValueKey    = "org.apache.ibatis.parsing.PropertyParser.enable-default-value"
	DefaultValueSeparatorKey = "org.apache.ibatis.parsing.PropertyParser.default-value-separator"

	defaultValueSeparator = ":"
)

// placeholders expands ${key} references from a variable table.
type placeholders struct {
	vars          map[string]string
	enableDefault bool
	separator     string
}

func newPlaceholders(vars map[string]string) placeholders {
	p := placeholders{vars: vars, separator: defaultValueSeparator}
	if strings.EqualFold(strings.TrimSpace(vars[EnableDefaultValueKey]), "true") {
		p.enableDefault = true
	}

	if sep, ok := vars[DefaultValueSeparatorKey]; ok && sep != "" {
		p.separator = sep
	}

	return p
}

// with returns a copy whose table is extended by extra. Entries in extra win.
func (p placeholders) with(extra map[string]string) placeholders {
	if len(extra) == 0 {
		return p
	}

	vars := make(map[string]string, len(p.vars)+len(extra))
	for k, v := range p.vars {
		vars[k] = v
	}

	for k, v := range extra {
		vars[k] = v
	}

	p.vars = vars

	return p
}

// expand replaces every ${key} in s. Unknown keys are left verbatim and
// "\${" produces a literal "${".
func (p placeholders) expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var sb strings.Builder

	for {
		start := strings.Index(s, "${")
		if start < 0 {
			sb.WriteString(s)
			break
		}

		if start > 0 && s[start-1] == '\\' {
			sb.WriteString(s[:start-1])
			sb.WriteString("${")
			s = s[start+2:]

			continue
		}

		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			sb.WriteString(s)
			break
		}

		sb.WriteString(s[:start])

		key := s[start+2 : start+2+end]
		sb.WriteString(p.lookup(key))
		s = s[start+2+end+1:]
	}

	return sb.String()
}

func (p placeholders) lookup(key string) string {
	if v, ok := p.vars[key]; ok {
		return v
	}

	if p.enableDefault {
		if i := strings.Index(key, p.separator); i >= 0 {
			if v, ok := p.vars[key[:i]]; ok {
				return v
			}

			return key[i+len(p.separator):]
		}
	}

	return "${" + key + "}"
}

// properties computes the effective variables: document entries, then the
// referenced properties file, then external values.
func (b *ConfigBuilder) properties(ctx context.Context, props *document.Properties, external map[string]string) (map[string]string, error) {
	vars := make(map[string]string)

	if props != nil {
		outer := newPlaceholders(external)

		for _, p := range props.Entries {
			vars[p.Name] = outer.expand(p.Value)
		}

		res, url := outer.expand(props.Resource), outer.expand(props.URL)

		if res != "" && url != "" {
			return nil, fmt.Errorf("%w: properties cannot specify both resource %q and url %q",
				config.ErrMalformedDocument, res, url)
		}

		if res != "" || url != "" {
			b.diag.Activity("loading properties").Object(res + url)

			loaded, err := b.loadProperties(ctx, res, url)
			if err != nil {
				return nil, err
			}

			for k, v := range loaded {
				vars[k] = v
			}
		}
	}

	for k, v := range external {
		vars[k] = v
	}

	return vars, nil
}

// loadProperties reads a .properties file without expanding its own
// references; expansion happens later against the full table.
func (b *ConfigBuilder) loadProperties(ctx context.Context, res, url string) (map[string]string, error) {
	data, err := b.deps.Loader.ReadAll(ctx, res, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}

	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: properties %s%s: %v", config.ErrMalformedDocument, res, url, err)
	}

	out := make(map[string]string, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		out[k] = v
	}

	return out, nil
}
