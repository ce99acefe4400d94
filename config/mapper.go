package config

// MapperBinding ties a namespace to a Go interface whose methods name the
// namespace's statements.
type MapperBinding struct {
	Namespace string   `yaml:"namespace" json:"namespace"`
	Type      TypeRef  `yaml:"-" json:"-"`
	Methods   []string `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// HasMethod reports whether the interface declares the named method.
func (b MapperBinding) HasMethod(name string) bool {
	for _, m := range b.Methods {
		if m == name {
			return true
		}
	}

	return false
}
