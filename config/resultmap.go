package config

// MappingKind distinguishes the children of a resultMap element.
type MappingKind string

const (
	MappingID          MappingKind = "id"
	MappingResult      MappingKind = "result"
	MappingArg         MappingKind = "arg"
	MappingIDArg       MappingKind = "idArg"
	MappingAssociation MappingKind = "association"
	MappingCollection  MappingKind = "collection"
)

// ResultMapping maps one column to one property.
type ResultMapping struct {
	Kind            MappingKind
	Property        string
	Column          string
	JavaType        TypeRef
	JdbcType        JdbcType
	TypeHandler     string
	NestedResultMap string // qualified id
	NestedSelect    string // qualified statement id, resolved lazily at run time
	ColumnPrefix    string
	NotNullColumns  []string
}

// IsID reports whether the mapping identifies the row.
func (m ResultMapping) IsID() bool {
	return m.Kind == MappingID || m.Kind == MappingIDArg
}

// ResultMap describes how rows of a result set populate a type.
type ResultMap struct {
	ID          string // namespace-qualified
	Namespace   string
	Resource    string
	Type        TypeRef
	Extends     string // qualified id of the parent, already merged into Mappings
	AutoMapping *bool
	Mappings    []ResultMapping
}

// IDMappings returns the mappings that identify a row.
func (m *ResultMap) IDMappings() []ResultMapping {
	var out []ResultMapping
	for _, rm := range m.Mappings {
		if rm.IsID() {
			out = append(out, rm)
		}
	}

	return out
}

// HasNested reports whether any mapping refers to another result map.
func (m *ResultMap) HasNested() bool {
	for _, rm := range m.Mappings {
		if rm.NestedResultMap != "" {
			return true
		}
	}

	return false
}

// MappedColumns returns every column the map reads, in declaration order.
func (m *ResultMap) MappedColumns() []string {
	cols := make([]string, 0, len(m.Mappings))
	for _, rm := range m.Mappings {
		if rm.Column != "" {
			cols = append(cols, rm.Column)
		}
	}

	return cols
}
