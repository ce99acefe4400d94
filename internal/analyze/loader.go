package analyze

import (
	"errors"
	"fmt"
	"go/types"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// ErrTypeNotFound is returned when a qualified name does not name an
// exported type of its package.
var ErrTypeNotFound = errors.New("type not found")

// Analyzer loads Go packages and builds a type graph. Packages are loaded at
// most once per Analyzer.
type Analyzer struct {
	// Dir is the directory packages are resolved from; empty means the
	// current directory.
	Dir string

	graph     *TypeGraph
	typeCache map[types.Type]*TypeInfo // Cache to handle recursive types
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		graph:     NewTypeGraph(),
		typeCache: make(map[types.Type]*TypeInfo),
	}
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./examples/blog/model").
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs)
	}

	for _, pkg := range pkgs {
		a.graph.Packages[pkg.PkgPath] = &PackageInfo{Path: pkg.PkgPath, Name: pkg.Name}
	}

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// Package returns the scanned package, loading it on first use.
func (a *Analyzer) Package(pkgPath string) (*PackageInfo, error) {
	if pkg, ok := a.graph.Packages[pkgPath]; ok {
		return pkg, nil
	}

	if _, err := a.LoadPackages(pkgPath); err != nil {
		return nil, err
	}

	pkg, ok := a.graph.Packages[pkgPath]
	if !ok {
		return nil, fmt.Errorf("package %s not found", pkgPath)
	}

	return pkg, nil
}

// Lookup resolves a qualified type name, "pkgpath.Name".
func (a *Analyzer) Lookup(qualified string) (*TypeInfo, error) {
	i := strings.LastIndexByte(qualified, '.')
	if i <= 0 || i == len(qualified)-1 {
		return nil, fmt.Errorf("%w: %q is not a qualified type name", ErrTypeNotFound, qualified)
	}

	id := TypeID{PkgPath: qualified[:i], Name: qualified[i+1:]}
	if _, err := a.Package(id.PkgPath); err != nil {
		return nil, err
	}

	info := a.graph.GetType(id)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}

	return info, nil
}

// Exported returns the exported types of a package of the given kind, or of
// every kind for TypeKindUnknown, loading the package on first use.
func (a *Analyzer) Exported(pkgPath string, kind TypeKind) ([]*TypeInfo, error) {
	if _, err := a.Package(pkgPath); err != nil {
		return nil, err
	}

	return a.graph.Exported(pkgPath, kind), nil
}

// processPackage extracts exported types from a loaded package.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	pkgInfo := a.graph.Packages[pkg.PkgPath]

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !typeName.Exported() {
			continue
		}

		typeID := TypeID{PkgPath: pkg.PkgPath, Name: name}

		typeInfo := a.analyzeType(typeName.Type())
		typeInfo.ID = typeID

		a.graph.Types[typeID] = typeInfo
		pkgInfo.Types = append(pkgInfo.Types, typeID)
	}

	sort.Slice(pkgInfo.Types, func(i, j int) bool { return pkgInfo.Types[i].Name < pkgInfo.Types[j].Name })
}

// analyzeType recursively analyzes a go/types.Type and returns a TypeInfo.
func (a *Analyzer) analyzeType(t types.Type) *TypeInfo {
	if cached, ok := a.typeCache[t]; ok {
		return cached
	}

	info := &TypeInfo{GoType: t}

	// Pre-cache to handle recursive types (we'll fill in details)
	a.typeCache[t] = info

	switch tt := t.(type) {
	case *types.Named:
		a.analyzeNamedType(tt, info)

	case *types.Basic:
		info.Kind = TypeKindBasic

	case *types.Pointer:
		info.Kind = TypeKindPointer
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Slice:
		info.Kind = TypeKindSlice
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Struct:
		info.Kind = TypeKindStruct
		a.analyzeStructFields(tt, info)

	case *types.Interface:
		info.Kind = TypeKindInterface
		info.Methods = interfaceMethods(tt)

	default:
		info.Kind = TypeKindUnknown
	}

	return info
}

// analyzeNamedType analyzes a named type.
func (a *Analyzer) analyzeNamedType(named *types.Named, info *TypeInfo) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		info.ID = TypeID{Name: obj.Name()}
		info.Kind = TypeKindExternal

		return
	}

	info.ID = TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()}

	switch ut := named.Underlying().(type) {
	case *types.Struct:
		if a.isExternalPackage(obj.Pkg().Path()) {
			info.Kind = TypeKindExternal
			return
		}

		info.Kind = TypeKindStruct
		a.analyzeStructFields(ut, info)

	case *types.Interface:
		info.Kind = TypeKindInterface
		info.Methods = interfaceMethods(ut)

	case *types.Basic:
		info.Kind = TypeKindAlias
		info.Underlying = a.analyzeType(ut)

	default:
		if a.isExternalPackage(obj.Pkg().Path()) {
			info.Kind = TypeKindExternal
		} else {
			info.Kind = TypeKindAlias
			info.Underlying = a.analyzeType(ut)
		}
	}
}

// isExternalPackage returns true if the package is not in our analyzed set.
func (a *Analyzer) isExternalPackage(pkgPath string) bool {
	_, ok := a.graph.Packages[pkgPath]
	return !ok
}

// analyzeStructFields extracts exported fields from a struct type.
func (a *Analyzer) analyzeStructFields(st *types.Struct, info *TypeInfo) {
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Exported() {
			continue
		}

		info.Fields = append(info.Fields, FieldInfo{
			Name:     field.Name(),
			Type:     a.analyzeType(field.Type()),
			Tag:      reflect.StructTag(st.Tag(i)),
			Embedded: field.Embedded(),
			Index:    i,
		})
	}
}

// interfaceMethods lists the method names of an interface, embedded ones
// included, in source position order.
func interfaceMethods(it *types.Interface) []string {
	fns := make([]*types.Func, 0, it.NumMethods())
	for i := 0; i < it.NumMethods(); i++ {
		fns = append(fns, it.Method(i))
	}

	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Pos() < fns[j].Pos() })

	names := make([]string, 0, len(fns))
	for _, fn := range fns {
		names = append(names, fn.Name())
	}

	return names
}
