package analyze

import (
	"go/types"
	"reflect"
	"sort"

	"sqlmap-builder/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "sqlmap-builder/examples/blog/model"
	Name    string // e.g., "Blog"
}

// String returns the qualified name used in documents, "pkgpath.Name".
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindBasic              // int, string, bool, etc.
	TypeKindStruct             // struct type
	TypeKindInterface          // interface type, candidate mapper
	TypeKindPointer            // pointer to another type
	TypeKindSlice              // slice of another type
	TypeKindAlias              // named type wrapping another
	TypeKindExternal           // external/opaque type (e.g., time.Time)
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindInterface:
		return "interface"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindAlias:
		return "alias"
	case TypeKindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a Go type found by a package scan.
type TypeInfo struct {
	ID         TypeID      // Unique identifier (empty for unnamed types like *T or []T)
	Kind       TypeKind    // Kind of type
	Underlying *TypeInfo   // For named types, the underlying type
	ElemType   *TypeInfo   // For pointers and slices, the element type
	Fields     []FieldInfo // For structs, the exported fields
	Methods    []string    // For interfaces, the method names in source order
	GoType     types.Type  // The original go/types.Type
}

// FieldNames returns the names of every exported field.
func (t *TypeInfo) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}

	return names
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string            // Go field name
	Type     *TypeInfo         // Field type
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    int               // Field index in the struct
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Types []TypeID // Exported named types, sorted by name
}

// Exported returns every exported type of the package of the given kind,
// or of any kind when kind is TypeKindUnknown, sorted by name.
func (g *TypeGraph) Exported(pkgPath string, kind TypeKind) []*TypeInfo {
	pkg, ok := g.Packages[pkgPath]
	if !ok {
		return nil
	}

	out := make([]*TypeInfo, 0, len(pkg.Types))
	for _, id := range pkg.Types {
		info := g.Types[id]
		if info == nil || (kind != TypeKindUnknown && info.Kind != kind) {
			continue
		}

		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID.Name < out[j].ID.Name })

	return out
}
