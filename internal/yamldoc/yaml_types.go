package yamldoc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"sqlmap-builder/internal/document"
)

// propertyMap decodes either an ordered mapping (name: value) or a sequence
// of {name, value} pairs, keeping declaration order.
type propertyMap document.PropertyList

// UnmarshalYAML implements custom YAML unmarshaling for propertyMap.
func (p *propertyMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(propertyMap, 0, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: property %q must be a scalar", val.Line, key.Value)
			}

			out = append(out, document.Property{Name: key.Value, Value: val.Value})
		}

		*p = out

		return nil

	case yaml.SequenceNode:
		var items []document.Property

		err := node.Decode(&items)
		if err != nil {
			return err
		}

		*p = items

		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*p = nil
			return nil
		}

		return fmt.Errorf("line %d: expected a mapping or a list of properties", node.Line)

	default:
		return fmt.Errorf("line %d: expected a mapping or a list of properties, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML writes the properties as a mapping.
func (p propertyMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, prop := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: prop.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: prop.Value},
		)
	}

	return node, nil
}

type yamlProperties struct {
	Resource string      `yaml:"resource,omitempty"`
	URL      string      `yaml:"url,omitempty"`
	Entries  propertyMap `yaml:"entries,omitempty"`
}

type yamlComponent struct {
	Type       string      `yaml:"type"`
	Properties propertyMap `yaml:"properties,omitempty"`
}

type yamlEnvironment struct {
	ID                 string         `yaml:"id"`
	TransactionManager *yamlComponent `yaml:"transactionManager"`
	DataSource         *yamlComponent `yaml:"dataSource"`
}

type yamlEnvironments struct {
	Default string            `yaml:"default"`
	Items   []yamlEnvironment `yaml:"items"`
}

type yamlPlugin struct {
	Interceptor string      `yaml:"interceptor"`
	Properties  propertyMap `yaml:"properties,omitempty"`
}

// File is the YAML shape of a configuration document.
type File struct {
	Properties         *yamlProperties             `yaml:"properties,omitempty"`
	Settings           propertyMap                 `yaml:"settings,omitempty"`
	TypeAliases        []document.TypeAliasEntry   `yaml:"typeAliases,omitempty"`
	TypeHandlers       []document.TypeHandlerEntry `yaml:"typeHandlers,omitempty"`
	Plugins            []yamlPlugin                `yaml:"plugins,omitempty"`
	Environments       *yamlEnvironments           `yaml:"environments,omitempty"`
	DatabaseIDProvider *yamlComponent              `yaml:"databaseIdProvider,omitempty"`
	Mappers            []document.MapperEntry      `yaml:"mappers,omitempty"`
}

func (c *yamlComponent) toDocument() *document.Component {
	if c == nil {
		return nil
	}

	return &document.Component{Type: c.Type, Properties: document.PropertyList(c.Properties)}
}

// Config converts the file into the format-neutral model.
func (f *File) Config() *document.Config {
	cfg := &document.Config{
		Settings:           document.PropertyList(f.Settings),
		TypeAliases:        f.TypeAliases,
		TypeHandlers:       f.TypeHandlers,
		DatabaseIDProvider: f.DatabaseIDProvider.toDocument(),
		Mappers:            f.Mappers,
	}

	if f.Properties != nil {
		cfg.Properties = &document.Properties{
			Resource: f.Properties.Resource,
			URL:      f.Properties.URL,
			Entries:  document.PropertyList(f.Properties.Entries),
		}
	}

	for _, p := range f.Plugins {
		cfg.Plugins = append(cfg.Plugins, document.Plugin{
			Interceptor: p.Interceptor,
			Properties:  document.PropertyList(p.Properties),
		})
	}

	if f.Environments != nil {
		cfg.Environments = &document.Environments{Default: f.Environments.Default}
		for _, e := range f.Environments.Items {
			cfg.Environments.Items = append(cfg.Environments.Items, document.EnvironmentDecl{
				ID:                 e.ID,
				TransactionManager: e.TransactionManager.toDocument(),
				DataSource:         e.DataSource.toDocument(),
			})
		}
	}

	return cfg
}

// FromConfig converts the format-neutral model back into the YAML shape.
func FromConfig(cfg *document.Config) *File {
	f := &File{
		Settings:     propertyMap(cfg.Settings),
		TypeAliases:  cfg.TypeAliases,
		TypeHandlers: cfg.TypeHandlers,
		Mappers:      cfg.Mappers,
	}

	if cfg.Properties != nil {
		f.Properties = &yamlProperties{
			Resource: cfg.Properties.Resource,
			URL:      cfg.Properties.URL,
			Entries:  propertyMap(cfg.Properties.Entries),
		}
	}

	if cfg.DatabaseIDProvider != nil {
		f.DatabaseIDProvider = &yamlComponent{
			Type:       cfg.DatabaseIDProvider.Type,
			Properties: propertyMap(cfg.DatabaseIDProvider.Properties),
		}
	}

	for _, p := range cfg.Plugins {
		f.Plugins = append(f.Plugins, yamlPlugin{Interceptor: p.Interceptor, Properties: propertyMap(p.Properties)})
	}

	if cfg.Environments != nil {
		f.Environments = &yamlEnvironments{Default: cfg.Environments.Default}
		for _, e := range cfg.Environments.Items {
			ye := yamlEnvironment{ID: e.ID}
			if e.TransactionManager != nil {
				ye.TransactionManager = &yamlComponent{
					Type:       e.TransactionManager.Type,
					Properties: propertyMap(e.TransactionManager.Properties),
				}
			}

			if e.DataSource != nil {
				ye.DataSource = &yamlComponent{
					Type:       e.DataSource.Type,
					Properties: propertyMap(e.DataSource.Properties),
				}
			}

			f.Environments.Items = append(f.Environments.Items, ye)
		}
	}

	return f
}
