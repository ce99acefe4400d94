package config

import (
	"fmt"
	"sort"
	"strings"
)

// TransactionFactoryType names a transaction management strategy.
type TransactionFactoryType string

const (
	TransactionJDBC    TransactionFactoryType = "JDBC"
	TransactionManaged TransactionFactoryType = "MANAGED"
)

// DataSourceType names a data source strategy.
type DataSourceType string

const (
	DataSourceUnpooled DataSourceType = "UNPOOLED"
	DataSourcePooled   DataSourceType = "POOLED"
	DataSourceJNDI     DataSourceType = "JNDI"
)

// ParseTransactionFactoryType resolves a transaction manager type case-insensitively.
func ParseTransactionFactoryType(name string) (TransactionFactoryType, error) {
	switch t := TransactionFactoryType(strings.ToUpper(strings.TrimSpace(name))); t {
	case TransactionJDBC, TransactionManaged:
		return t, nil
	default:
		return "", wrapf(ErrUnresolvedType, "transaction manager type %q", name)
	}
}

// ParseDataSourceType resolves a data source type case-insensitively.
func ParseDataSourceType(name string) (DataSourceType, error) {
	switch t := DataSourceType(strings.ToUpper(strings.TrimSpace(name))); t {
	case DataSourceUnpooled, DataSourcePooled, DataSourceJNDI:
		return t, nil
	default:
		return "", wrapf(ErrUnresolvedType, "data source type %q", name)
	}
}

// TransactionFactory describes how transactions are managed for an environment.
type TransactionFactory struct {
	Type       TransactionFactoryType `yaml:"type" json:"type"`
	Properties map[string]string      `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// DataSource describes how connections are obtained for an environment. It is
// a descriptor only; nothing is opened at build time.
type DataSource struct {
	Type       DataSourceType    `yaml:"type" json:"type"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Driver returns the "driver" property.
func (d DataSource) Driver() string { return d.Properties["driver"] }

// URL returns the "url" property.
func (d DataSource) URL() string { return d.Properties["url"] }

// Username returns the "username" property.
func (d DataSource) Username() string { return d.Properties["username"] }

// Password returns the "password" property.
func (d DataSource) Password() string { return d.Properties["password"] }

// Property returns one data source property.
func (d DataSource) Property(name string) (string, bool) {
	v, ok := d.Properties[name]
	return v, ok
}

const redactedPassword = "******"

// Environment is the selected combination of transaction factory and data source.
type Environment struct {
	ID                 string             `yaml:"id" json:"id"`
	TransactionFactory TransactionFactory `yaml:"transactionManager" json:"transactionManager"`
	DataSource         DataSource         `yaml:"dataSource" json:"dataSource"`
}

// Validate checks that every part of the environment is set.
func (e *Environment) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("environment requires an id")
	}

	if e.TransactionFactory.Type == "" {
		return fmt.Errorf("environment %q requires a transaction manager", e.ID)
	}

	if e.DataSource.Type == "" {
		return fmt.Errorf("environment %q requires a data source", e.ID)
	}

	return nil
}

// DataSourceKeys returns the data source property names, sorted.
func (e *Environment) DataSourceKeys() []string {
	keys := make([]string, 0, len(e.DataSource.Properties))
	for k := range e.DataSource.Properties {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Redacted returns a copy with the data source password masked. It is nil
// for a nil environment.
func (e *Environment) Redacted() *Environment {
	if e == nil {
		return nil
	}

	out := *e
	out.DataSource.Properties = make(map[string]string, len(e.DataSource.Properties))

	for k, v := range e.DataSource.Properties {
		if k == "password" && v != "" {
			v = redactedPassword
		}

		out.DataSource.Properties[k] = v
	}

	return &out
}
