package config

// Snapshot is a serializable summary of a configuration. Two builds from
// equal inputs produce equal snapshots.
type Snapshot struct {
	Settings    map[string]string   `yaml:"settings" json:"settings"`
	Variables   map[string]string   `yaml:"variables,omitempty" json:"variables,omitempty"`
	TypeAliases map[string]string   `yaml:"typeAliases" json:"typeAliases"`
	Environment *Environment        `yaml:"environment,omitempty" json:"environment,omitempty"`
	DatabaseID  string              `yaml:"databaseId,omitempty" json:"databaseId,omitempty"`
	Plugins     []string            `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	Statements  []StatementSnapshot `yaml:"statements" json:"statements"`
	ResultMaps  []string            `yaml:"resultMaps,omitempty" json:"resultMaps,omitempty"`
	Caches      map[string]string   `yaml:"caches,omitempty" json:"caches,omitempty"`
	Mappers     []string            `yaml:"mappers,omitempty" json:"mappers,omitempty"`
	Resources   []string            `yaml:"resources" json:"resources"`
}

// StatementSnapshot summarizes one mapped statement.
type StatementSnapshot struct {
	ID            string        `yaml:"id" json:"id"`
	Kind          StatementKind `yaml:"kind" json:"kind"`
	Resource      string        `yaml:"resource" json:"resource"`
	ParameterType string        `yaml:"parameterType,omitempty" json:"parameterType,omitempty"`
	ResultType    string        `yaml:"resultType,omitempty" json:"resultType,omitempty"`
	ResultMaps    []string      `yaml:"resultMaps,omitempty" json:"resultMaps,omitempty"`
	Cache         string        `yaml:"cache,omitempty" json:"cache,omitempty"`
	Dynamic       bool          `yaml:"dynamic" json:"dynamic"`
	SQL           string        `yaml:"sql" json:"sql"`
}

// Snapshot summarizes the configuration.
func (c *Configuration) Snapshot() Snapshot {
	s := Snapshot{
		Settings:    c.settings.Values(),
		Variables:   c.Variables(),
		TypeAliases: make(map[string]string, len(c.aliases.aliases)),
		Environment: c.environment.Redacted(),
		DatabaseID:  c.databaseID,
		Plugins:     c.chain.Names(),
		ResultMaps:  c.ResultMapIDs(),
		Mappers:     c.MapperNamespaces(),
		Resources:   c.LoadedResources(),
	}

	for alias, ref := range c.aliases.Aliases() {
		s.TypeAliases[alias] = ref.Name
	}

	if len(c.caches)+len(c.cacheRefs) > 0 {
		s.Caches = make(map[string]string, len(c.caches)+len(c.cacheRefs))
		for ns := range c.caches {
			s.Caches[ns] = ns
		}

		for ns := range c.cacheRefs {
			if def, ok := c.CacheFor(ns); ok {
				s.Caches[ns] = def.Namespace
			}
		}
	}

	for _, ms := range c.Statements() {
		s.Statements = append(s.Statements, ms.Snapshot())
	}

	return s
}

// Snapshot summarizes the statement.
func (s *MappedStatement) Snapshot() StatementSnapshot {
	return StatementSnapshot{
		ID:            s.ID,
		Kind:          s.Kind,
		Resource:      s.Resource,
		ParameterType: s.ParameterType.Name,
		ResultType:    s.ResultType.Name,
		ResultMaps:    s.ResultMaps,
		Cache:         s.Cache,
		Dynamic:       s.IsDynamic(),
		SQL:           s.SQL(),
	}
}
