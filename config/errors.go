package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration compilation. Build failures wrap one of
// these so callers can use errors.Is.
var (
	// ErrFrozen is returned by every mutator once Freeze has been called.
	ErrFrozen = errors.New("configuration is frozen and cannot be modified")

	// ErrMalformedDocument is returned for documents that cannot be read or
	// violate the document structure.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrResourceNotFound is returned when a referenced resource cannot be
	// located or loaded.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUnknownSetting is returned for a setting name outside the settings table.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSetting is returned when a setting value cannot be converted.
	ErrInvalidSetting = errors.New("invalid setting value")

	// ErrUnresolvedType is returned when a type name is neither an alias nor a
	// registered or scanned type.
	ErrUnresolvedType = errors.New("unresolved type")

	// ErrDuplicateAlias is returned when an alias is bound to two different types.
	ErrDuplicateAlias = errors.New("duplicate type alias")

	// ErrUnknownEnvironment is returned when the requested environment id is
	// not declared.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrUnknownPlugin is returned when an interceptor or type handler name
	// has no registered factory.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrDuplicateStatement is returned when two statements share a fully
	// qualified id.
	ErrDuplicateStatement = errors.New("duplicate mapped statement")

	// ErrStatementNotFound is returned by lookups of undefined statement ids.
	ErrStatementNotFound = errors.New("mapped statement not found")

	// ErrAmbiguousStatement is returned when a short id matches statements in
	// more than one namespace.
	ErrAmbiguousStatement = errors.New("ambiguous mapped statement id")

	// ErrDuplicateResultMap is returned when two result maps share an id.
	ErrDuplicateResultMap = errors.New("duplicate result map")

	// ErrUnresolvedResultMap is returned for references to undefined result maps.
	ErrUnresolvedResultMap = errors.New("unresolved result map")

	// ErrUnresolvedCacheRef is returned when a cache-ref names a namespace
	// without a cache.
	ErrUnresolvedCacheRef = errors.New("unresolved cache reference")

	// ErrDuplicateCache is returned when a namespace declares a cache twice.
	ErrDuplicateCache = errors.New("duplicate cache")

	// ErrUnresolvedInclude is returned for includes of undefined SQL fragments.
	ErrUnresolvedInclude = errors.New("unresolved include")

	// ErrIncludeCycle is returned when SQL fragments include each other.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrDuplicateMapper is returned when a mapper type is bound twice.
	ErrDuplicateMapper = errors.New("duplicate mapper")
)

// wrapf prefixes a formatted message with a sentinel so errors.Is matches it.
func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}
