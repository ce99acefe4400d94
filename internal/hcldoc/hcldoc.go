// Package hcldoc decodes HCL configuration documents.
//
// Attribute expressions may read the effective properties through the prop
// object: prop.driver or prop["jdbc.url"]. The properties block itself must
// be literal.
package hcldoc

import (
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

type hclProperties struct {
	Resource string            `hcl:"resource,optional"`
	URL      string            `hcl:"url,optional"`
	Values   map[string]string `hcl:"values,optional"`
}

type hclHead struct {
	Properties *hclProperties `hcl:"properties,block"`
	Remain     hcl.Body       `hcl:",remain"`
}

type hclTypeAlias struct {
	Alias   string `hcl:"alias,optional"`
	Type    string `hcl:"type,optional"`
	Package string `hcl:"package,optional"`
}

type hclTypeHandler struct {
	Handler  string `hcl:"handler,optional"`
	JavaType string `hcl:"java_type,optional"`
	JdbcType string `hcl:"jdbc_type,optional"`
	Package  string `hcl:"package,optional"`
}

type hclComponent struct {
	Type       string            `hcl:"type"`
	Properties map[string]string `hcl:"properties,optional"`
}

type hclEnvironment struct {
	ID                 string        `hcl:"id,label"`
	TransactionManager *hclComponent `hcl:"transaction_manager,block"`
	DataSource         *hclComponent `hcl:"data_source,block"`
}

type hclEnvironments struct {
	Default string           `hcl:"default,optional"`
	Items   []hclEnvironment `hcl:"environment,block"`
}

type hclPlugin struct {
	Interceptor string            `hcl:"interceptor,label"`
	Properties  map[string]string `hcl:"properties,optional"`
}

type hclMapper struct {
	Resource string `hcl:"resource,optional"`
	URL      string `hcl:"url,optional"`
	Class    string `hcl:"class,optional"`
	Package  string `hcl:"package,optional"`
}

type hclBody struct {
	Settings           map[string]string `hcl:"settings,optional"`
	TypeAliases        []hclTypeAlias    `hcl:"type_alias,block"`
	TypeHandlers       []hclTypeHandler  `hcl:"type_handler,block"`
	Plugins            []hclPlugin       `hcl:"plugin,block"`
	Environments       *hclEnvironments  `hcl:"environments,block"`
	DatabaseIDProvider *hclComponent     `hcl:"database_id_provider,block"`
	Mappers            []hclMapper       `hcl:"mapper,block"`
}

// Document is a parsed HCL configuration whose body is evaluated lazily.
type Document struct {
	name  string
	props *document.Properties
	body  hcl.Body
}

// ParseConfig reads an HCL configuration document and decodes its
// properties block.
func ParseConfig(r io.Reader, name string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", name, err)
	}

	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %v", config.ErrMalformedDocument, name, diags)
	}

	var head hclHead

	diags = gohcl.DecodeBody(file.Body, nil, &head)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode properties in %s: %v", config.ErrMalformedDocument, name, diags)
	}

	doc := &Document{name: name, body: head.Remain}
	if head.Properties != nil {
		doc.props = &document.Properties{
			Resource: head.Properties.Resource,
			URL:      head.Properties.URL,
			Entries:  sortedProperties(head.Properties.Values),
		}
	}

	return doc, nil
}

// Name returns the resource name.
func (d *Document) Name() string { return d.name }

// Properties returns the literal properties block, or nil.
func (d *Document) Properties() (*document.Properties, error) { return d.props, nil }

// Body decodes the rest of the document with vars visible as prop.
func (d *Document) Body(vars map[string]string) (*document.Config, error) {
	var body hclBody

	diags := gohcl.DecodeBody(d.body, EvalContext(vars), &body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %v", config.ErrMalformedDocument, d.name, diags)
	}

	cfg := &document.Config{
		Properties:         d.props,
		Settings:           sortedProperties(body.Settings),
		DatabaseIDProvider: body.DatabaseIDProvider.toDocument(),
	}

	for _, a := range body.TypeAliases {
		cfg.TypeAliases = append(cfg.TypeAliases, document.TypeAliasEntry(a))
	}

	for _, h := range body.TypeHandlers {
		cfg.TypeHandlers = append(cfg.TypeHandlers, document.TypeHandlerEntry(h))
	}

	for _, p := range body.Plugins {
		cfg.Plugins = append(cfg.Plugins, document.Plugin{
			Interceptor: p.Interceptor,
			Properties:  sortedProperties(p.Properties),
		})
	}

	if body.Environments != nil {
		cfg.Environments = &document.Environments{Default: body.Environments.Default}
		for _, e := range body.Environments.Items {
			cfg.Environments.Items = append(cfg.Environments.Items, document.EnvironmentDecl{
				ID:                 e.ID,
				TransactionManager: e.TransactionManager.toDocument(),
				DataSource:         e.DataSource.toDocument(),
			})
		}
	}

	for _, m := range body.Mappers {
		cfg.Mappers = append(cfg.Mappers, document.MapperEntry(m))
	}

	return cfg, nil
}

// EvalContext exposes vars to expressions as the prop object.
func EvalContext(vars map[string]string) *hcl.EvalContext {
	attrs := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		attrs[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"prop": cty.ObjectVal(attrs)},
	}
}

func (c *hclComponent) toDocument() *document.Component {
	if c == nil {
		return nil
	}

	return &document.Component{Type: c.Type, Properties: sortedProperties(c.Properties)}
}

func sortedProperties(m map[string]string) document.PropertyList {
	if len(m) == 0 {
		return nil
	}

	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}

	sort.Strings(names)

	out := make(document.PropertyList, 0, len(names))
	for _, n := range names {
		out = append(out, document.Property{Name: n, Value: m[n]})
	}

	return out
}
