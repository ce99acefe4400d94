package session

import (
	"io/fs"
	"log/slog"
	"net/http"
	"reflect"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/internal/diagnostic"
)

// Options configures a Builder.
type Options struct {
	// Logger receives debug lines for every stage. Nil discards.
	Logger *slog.Logger
	// Diagnostics, when set, is used instead of a fresh context per build.
	// It is reset after every build and must not be shared by concurrent
	// builds.
	Diagnostics *diagnostic.Context

	// Resources resolves mapper and properties resource paths.
	Resources fs.FS
	// HTTPClient loads url resources. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	// Types maps qualified names ("pkgpath.Name") to runtime types. It
	// resolves type names, class mappers and package entries.
	Types *config.Registry[reflect.Type]
	// TypeHandlers maps handler names used in documents to handlers.
	TypeHandlers *config.Registry[config.TypeHandler]
	// Interceptors maps plugin names used in documents to factories.
	Interceptors *config.Registry[config.InterceptorFactory]

	// ScanPackages resolves types and package entries missing from Types
	// by loading Go packages from ScanDir.
	ScanPackages bool
	ScanDir      string
	// PackageRoot is the import path that maps to the root of Resources
	// when locating a class mapper's XML document.
	PackageRoot string
}

// DefaultOptions returns options with empty registries and a discarding
// logger.
func DefaultOptions() Options {
	return Options{
		Logger:       ctxlog.Discard,
		Types:        config.NewRegistry[reflect.Type](),
		TypeHandlers: config.NewRegistry[config.TypeHandler](),
		Interceptors: config.NewRegistry[config.InterceptorFactory](),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.Logger == nil {
		o.Logger = def.Logger
	}

	if o.Types == nil {
		o.Types = def.Types
	}

	if o.TypeHandlers == nil {
		o.TypeHandlers = def.TypeHandlers
	}

	if o.Interceptors == nil {
		o.Interceptors = def.Interceptors
	}

	return o
}
