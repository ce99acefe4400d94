package document

// Property is one name/value pair in declaration order.
type Property struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// PropertyList keeps properties in declaration order.
type PropertyList []Property

// Map returns the properties as a map. Later duplicates win.
func (l PropertyList) Map() map[string]string {
	m := make(map[string]string, len(l))
	for _, p := range l {
		m[p.Name] = p.Value
	}

	return m
}

// Get returns the last value declared for name.
func (l PropertyList) Get(name string) (string, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Name == name {
			return l[i].Value, true
		}
	}

	return "", false
}

// Properties is the <properties> section.
type Properties struct {
	Resource string       `yaml:"resource,omitempty" json:"resource,omitempty"`
	URL      string       `yaml:"url,omitempty" json:"url,omitempty"`
	Entries  PropertyList `yaml:"entries,omitempty" json:"entries,omitempty"`
}

// TypeAliasEntry is one child of <typeAliases>: either an alias for a type
// or a package to scan.
type TypeAliasEntry struct {
	Alias   string `yaml:"alias,omitempty" json:"alias,omitempty"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Package string `yaml:"package,omitempty" json:"package,omitempty"`
}

// TypeHandlerEntry is one child of <typeHandlers>.
type TypeHandlerEntry struct {
	Handler  string `yaml:"handler,omitempty" json:"handler,omitempty"`
	JavaType string `yaml:"javaType,omitempty" json:"javaType,omitempty"`
	JdbcType string `yaml:"jdbcType,omitempty" json:"jdbcType,omitempty"`
	Package  string `yaml:"package,omitempty" json:"package,omitempty"`
}

// Component is an element with a type and nested properties, such as
// <transactionManager> or <dataSource>.
type Component struct {
	Type       string       `yaml:"type" json:"type"`
	Properties PropertyList `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// EnvironmentDecl is one <environment>.
type EnvironmentDecl struct {
	ID                 string     `yaml:"id" json:"id"`
	TransactionManager *Component `yaml:"transactionManager" json:"transactionManager"`
	DataSource         *Component `yaml:"dataSource" json:"dataSource"`
}

// Environments is the <environments> section.
type Environments struct {
	Default string            `yaml:"default" json:"default"`
	Items   []EnvironmentDecl `yaml:"items" json:"items"`
}

// Plugin is one <plugin>.
type Plugin struct {
	Interceptor string       `yaml:"interceptor" json:"interceptor"`
	Properties  PropertyList `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// MapperEntry is one child of <mappers>. Exactly one field is expected to
// be set; the builder reports entries that set more.
type MapperEntry struct {
	Resource string `yaml:"resource,omitempty" json:"resource,omitempty"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Class    string `yaml:"class,omitempty" json:"class,omitempty"`
	Package  string `yaml:"package,omitempty" json:"package,omitempty"`
}

// Ref returns whichever location the entry names.
func (e MapperEntry) Ref() string {
	switch {
	case e.Resource != "":
		return e.Resource
	case e.URL != "":
		return e.URL
	case e.Class != "":
		return e.Class
	default:
		return e.Package
	}
}

// Config is the format-neutral configuration document. String values are
// raw: ${} placeholders are still present.
type Config struct {
	Properties         *Properties        `yaml:"properties,omitempty" json:"properties,omitempty"`
	Settings           PropertyList       `yaml:"settings,omitempty" json:"settings,omitempty"`
	TypeAliases        []TypeAliasEntry   `yaml:"typeAliases,omitempty" json:"typeAliases,omitempty"`
	TypeHandlers       []TypeHandlerEntry `yaml:"typeHandlers,omitempty" json:"typeHandlers,omitempty"`
	Plugins            []Plugin           `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	Environments       *Environments      `yaml:"environments,omitempty" json:"environments,omitempty"`
	DatabaseIDProvider *Component         `yaml:"databaseIdProvider,omitempty" json:"databaseIdProvider,omitempty"`
	Mappers            []MapperEntry      `yaml:"mappers,omitempty" json:"mappers,omitempty"`

	// Ignored lists recognized elements the builder does not compile
	// (objectFactory and friends), for diagnostics.
	Ignored []string `yaml:"-" json:"-"`
}

// Document is a decoded configuration document.
//
// Properties is read first; Body is then evaluated with the effective
// properties so formats with expressions can reference them.
type Document interface {
	Name() string
	Properties() (*Properties, error)
	Body(vars map[string]string) (*Config, error)
}

// Static is a Document whose body does not depend on properties.
type Static struct {
	Resource string
	Config   *Config
}

// Name returns the resource name.
func (s *Static) Name() string { return s.Resource }

// Properties returns the <properties> section, or nil.
func (s *Static) Properties() (*Properties, error) { return s.Config.Properties, nil }

// Body returns the parsed document.
func (s *Static) Body(map[string]string) (*Config, error) { return s.Config, nil }
