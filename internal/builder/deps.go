package builder

import (
	"reflect"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/analyze"
	"sqlmap-builder/internal/resource"
)

// Scanner discovers Go types by package. *analyze.Analyzer satisfies it.
type Scanner interface {
	Lookup(qualified string) (*analyze.TypeInfo, error)
	Exported(pkgPath string, kind analyze.TypeKind) ([]*analyze.TypeInfo, error)
}

// Deps are the collaborators a build reads from. Every field is optional.
type Deps struct {
	// Loader opens properties files and mapper documents.
	Loader *resource.Loader
	// Types maps qualified type names to runtime types.
	Types *config.Registry[reflect.Type]
	// TypeHandlers maps handler names used in documents to handlers.
	TypeHandlers *config.Registry[config.TypeHandler]
	// Interceptors maps plugin interceptor names to factories.
	Interceptors *config.Registry[config.InterceptorFactory]
	// Scanner resolves package entries and qualified names that are not
	// registered in Types.
	Scanner Scanner
	// PackageRoot is the module path stripped from a mapper interface's
	// package path to find its XML resource.
	PackageRoot string
}
