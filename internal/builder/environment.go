package builder

import (
	"fmt"
	"slices"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/diagnostic"
	"sqlmap-builder/internal/document"
)

// Database id provider types.
const (
	ProviderDBVendor = "DB_VENDOR"
	providerVendor   = "VENDOR"
)

// environments validates every declared environment and materializes the
// selected one. Problems in all declarations are reported together.
func (b *ConfigBuilder) environments(envs *document.Environments, requested string) error {
	if envs == nil {
		if requested != "" {
			return fmt.Errorf("%w: %q (no environments are declared)", config.ErrUnknownEnvironment, requested)
		}

		return nil
	}

	id := requested
	if id == "" {
		id = b.ph.expand(envs.Default)
	}

	var (
		ids      []string
		selected *document.EnvironmentDecl
		problems diagnostic.Diagnostics
	)

	resource := b.diag.Current().Resource

	for i := range envs.Items {
		decl := &envs.Items[i]

		envID := b.ph.expand(decl.ID)

		if envID != "" && slices.Contains(ids, envID) {
			problems.AddError("duplicate_environment",
				fmt.Errorf("%w: environment %q is declared twice", config.ErrMalformedDocument, envID), resource, envID)

			continue
		}

		ids = append(ids, envID)

		if err := b.validateEnvironment(envID, decl); err != nil {
			problems.AddError("invalid_environment", err, resource, envID)
			continue
		}

		if envID == id {
			selected = decl
		}
	}

	if problems.HasErrors() {
		b.diag.Diagnostics.Merge(problems)
		return problems.Error()
	}

	b.diag.Object(id)

	if id == "" {
		return fmt.Errorf("%w: no environment was requested and no default is declared", config.ErrUnknownEnvironment)
	}

	if selected == nil {
		return withHint(fmt.Errorf("%w: %q", config.ErrUnknownEnvironment, id), id, ids)
	}

	env, err := b.materialize(id, selected)
	if err != nil {
		return err
	}

	return b.cfg.SetEnvironment(env)
}

func (b *ConfigBuilder) validateEnvironment(id string, decl *document.EnvironmentDecl) error {
	if id == "" {
		return fmt.Errorf("%w: environment without an id", config.ErrMalformedDocument)
	}

	if decl.TransactionManager == nil {
		return fmt.Errorf("%w: environment %q has no transactionManager", config.ErrMalformedDocument, id)
	}

	if decl.DataSource == nil {
		return fmt.Errorf("%w: environment %q has no dataSource", config.ErrMalformedDocument, id)
	}

	if _, err := config.ParseTransactionFactoryType(b.ph.expand(decl.TransactionManager.Type)); err != nil {
		return fmt.Errorf("environment %q: %w", id, err)
	}

	if _, err := config.ParseDataSourceType(b.ph.expand(decl.DataSource.Type)); err != nil {
		return fmt.Errorf("environment %q: %w", id, err)
	}

	return nil
}

func (b *ConfigBuilder) materialize(id string, decl *document.EnvironmentDecl) (*config.Environment, error) {
	tx, err := config.ParseTransactionFactoryType(b.ph.expand(decl.TransactionManager.Type))
	if err != nil {
		return nil, err
	}

	ds, err := config.ParseDataSourceType(b.ph.expand(decl.DataSource.Type))
	if err != nil {
		return nil, err
	}

	env := &config.Environment{
		ID: id,
		TransactionFactory: config.TransactionFactory{
			Type:       tx,
			Properties: b.expandAll(decl.TransactionManager.Properties),
		},
		DataSource: config.DataSource{
			Type:       ds,
			Properties: b.expandAll(decl.DataSource.Properties),
		},
	}

	return env, env.Validate()
}

// databaseID maps the selected data source's driver to a database id
// through the provider's property table.
func (b *ConfigBuilder) databaseID(provider *document.Component) error {
	if provider == nil {
		return nil
	}

	typ := strings.ToUpper(b.ph.expand(provider.Type))
	b.diag.Object(typ)

	if typ != ProviderDBVendor && typ != providerVendor {
		return fmt.Errorf("%w: databaseIdProvider type %q", config.ErrUnknownPlugin, provider.Type)
	}

	env := b.cfg.Environment()
	if env == nil {
		b.info("database_id_skipped", "databaseIdProvider needs an environment and was skipped", typ)
		return nil
	}

	var table document.PropertyList
	for _, p := range provider.Properties {
		table = append(table, document.Property{Name: b.ph.expand(p.Name), Value: b.ph.expand(p.Value)})
	}

	id := vendorID(env.DataSource.Driver(), table)
	if id == "" {
		b.info("database_id_unmatched",
			fmt.Sprintf("driver %q matches no databaseIdProvider property", env.DataSource.Driver()), typ)

		return nil
	}

	return b.cfg.SetDatabaseID(id)
}

// vendorID returns the value of the first property whose name occurs in
// product, or product itself when the table is empty.
func vendorID(product string, table document.PropertyList) string {
	if len(table) == 0 {
		return product
	}

	lower := strings.ToLower(product)
	for _, p := range table {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			return p.Value
		}
	}

	return ""
}
