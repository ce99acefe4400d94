package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/internal/diagnostic"
	"sqlmap-builder/internal/document"
	"sqlmap-builder/internal/match"
)

// ConfigBuilder compiles one configuration document. It is single use.
type ConfigBuilder struct {
	deps Deps
	diag *diagnostic.Context
	cfg  *config.Configuration
	ph   placeholders

	// fragments holds every <sql> element of the mappers compiled so far,
	// before includes and properties are applied.
	fragments map[string]*fragment
	// nested lists result map references made by association and
	// collection mappings; they are checked once every mapper is loaded.
	nested []nestedRef
}

type fragment struct {
	namespace  string
	resource   string
	databaseID string
	node       *document.Node
}

type nestedRef struct {
	from     string
	id       string
	resource string
}

// NewConfigBuilder returns a builder reporting into diag.
func NewConfigBuilder(deps Deps, diag *diagnostic.Context) *ConfigBuilder {
	if diag == nil {
		diag = diagnostic.NewContext("")
	}

	return &ConfigBuilder{
		deps:      deps,
		diag:      diag,
		fragments: make(map[string]*fragment),
	}
}

// Build compiles doc. environment selects the environment to materialize;
// empty selects the document's default. External properties override
// document properties, and external keys of the form "settings.<name>"
// override document settings.
func (b *ConfigBuilder) Build(
	ctx context.Context,
	doc document.Document,
	environment string,
	external map[string]string,
) (*config.Configuration, error) {
	if b.cfg != nil {
		return nil, fmt.Errorf("config builder for %s has already been used", doc.Name())
	}

	log := ctxlog.FromContext(ctx).With("resource", doc.Name())
	b.cfg = config.New()
	b.diag.Resource(doc.Name()).Activity("parsing properties")

	props, err := doc.Properties()
	if err != nil {
		return nil, err
	}

	vars, err := b.properties(ctx, props, external)
	if err != nil {
		return nil, err
	}

	if err := b.cfg.SetVariables(vars); err != nil {
		return nil, err
	}

	b.ph = newPlaceholders(vars)

	b.diag.Activity("reading configuration").Object("")

	body, err := doc.Body(vars)
	if err != nil {
		return nil, err
	}

	for _, name := range body.Ignored {
		b.info("ignored_element", fmt.Sprintf("<%s> is not used by this builder and was skipped", name), name)
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{"settings", func() error { return b.settings(body.Settings, external) }},
		{"type aliases", func() error { return b.typeAliases(body.TypeAliases) }},
		{"type handlers", func() error { return b.typeHandlers(body.TypeHandlers) }},
		{"environments", func() error { return b.environments(body.Environments, environment) }},
		{"database id provider", func() error { return b.databaseID(body.DatabaseIDProvider) }},
		{"plugins", func() error { return b.plugins(body.Plugins) }},
		{"mappers", func() error { return b.mappers(ctx, body.Mappers) }},
		{"result map references", b.linkNestedResultMaps},
	}

	for _, stage := range stages {
		b.diag.Activity("parsing " + stage.name).Object("")
		log.Debug("config stage", "stage", stage.name)

		if err := stage.run(); err != nil {
			return nil, err
		}
	}

	log.Debug("configuration compiled",
		"statements", len(b.cfg.StatementIDs()),
		"resultMaps", len(b.cfg.ResultMapIDs()),
		"resources", len(b.cfg.LoadedResources()))

	return b.cfg, nil
}

// settings applies document settings, then "settings.<name>" external
// properties, over the defaults.
func (b *ConfigBuilder) settings(entries document.PropertyList, external map[string]string) error {
	s := config.DefaultSettings()

	for _, p := range entries {
		name := b.ph.expand(p.Name)
		b.diag.Object(name)

		if err := applySetting(&s, name, b.ph.expand(p.Value)); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(external))
	for k := range external {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		name, ok := strings.CutPrefix(k, "settings.")
		if !ok {
			continue
		}

		b.diag.Object(k)

		if err := applySetting(&s, name, external[k]); err != nil {
			return err
		}
	}

	return b.cfg.SetSettings(s)
}

func applySetting(s *config.Settings, name, value string) error {
	if !config.IsSetting(name) {
		return withHint(fmt.Errorf("%w: %q", config.ErrUnknownSetting, name), name, config.SettingNames())
	}

	return s.Apply(name, value)
}

// plugins instantiates interceptors in document order.
func (b *ConfigBuilder) plugins(plugins []document.Plugin) error {
	for _, p := range plugins {
		name := b.ph.expand(p.Interceptor)
		b.diag.Object(name)

		factory, ok := b.deps.Interceptors.Get(name)
		if !ok {
			return withHint(fmt.Errorf("%w: interceptor %q is not registered", config.ErrUnknownPlugin, name),
				name, b.deps.Interceptors.Names())
		}

		i, err := factory(b.expandAll(p.Properties))
		if err != nil {
			return fmt.Errorf("failed to create interceptor %s: %w", name, err)
		}

		if err := b.cfg.AddInterceptor(name, i); err != nil {
			return err
		}
	}

	return nil
}

// linkNestedResultMaps checks the result maps named by association and
// collection mappings. These may point at mappers loaded later.
func (b *ConfigBuilder) linkNestedResultMaps() error {
	for _, ref := range b.nested {
		if _, ok := b.cfg.ResultMap(ref.id); ok {
			continue
		}

		b.diag.Resource(ref.resource).Object(ref.from)

		return withHint(fmt.Errorf("%w: %q referenced from %s", config.ErrUnresolvedResultMap, ref.id, ref.from),
			ref.id, b.cfg.ResultMapIDs())
	}

	return nil
}

// expandAll substitutes placeholders in every value and returns a map.
func (b *ConfigBuilder) expandAll(props document.PropertyList) map[string]string {
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[b.ph.expand(p.Name)] = b.ph.expand(p.Value)
	}

	return out
}

func (b *ConfigBuilder) info(code, message, element string) {
	b.diag.Diagnostics.AddInfo(code, message, b.diag.Current().Resource, element)
}

func (b *ConfigBuilder) warn(code, message, element string, suggestions []string) {
	b.diag.Diagnostics.Warnings = append(b.diag.Diagnostics.Warnings, diagnostic.Diagnostic{
		Severity:    diagnostic.DiagnosticWarning,
		Code:        code,
		Message:     message,
		Resource:    b.diag.Current().Resource,
		Element:     element,
		Suggestions: suggestions,
	})
}

// withHint appends the closest known name to err, if any is close enough.
func withHint(err error, name string, known []string) error {
	if hints := match.Suggest(name, known, 1); len(hints) > 0 {
		return fmt.Errorf("%w (did you mean %q?)", err, hints[0])
	}

	return err
}
