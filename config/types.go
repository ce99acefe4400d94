package config

import (
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"sqlmap-builder/primitive"
)

// TypeRef names a Go type referenced from a document.
//
// Type is nil for types known only by name, e.g. types discovered by a
// package scan that were never registered with a reflect.Type.
type TypeRef struct {
	Name string       // qualified name, e.g. "string" or "example.com/blog.Author"
	Type reflect.Type // runtime type, if known
}

// TypeOf returns a TypeRef for a runtime type.
func TypeOf(t reflect.Type) TypeRef {
	return TypeRef{Name: QualifiedTypeName(t), Type: t}
}

// NamedType returns a TypeRef known only by its qualified name.
func NamedType(name string) TypeRef {
	return TypeRef{Name: name}
}

// IsZero reports whether the reference is empty.
func (r TypeRef) IsZero() bool {
	return r.Name == "" && r.Type == nil
}

// String returns the qualified name.
func (r TypeRef) String() string {
	return r.Name
}

// QualifiedTypeName returns "pkgpath.Name" for named types and the Go
// syntax for everything else ([]byte, map[string]interface {}).
func QualifiedTypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}

	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	mapType   = reflect.TypeOf(map[string]any(nil))
	sliceType = reflect.TypeOf([]any(nil))
)

// builtinAliases mirrors the short names documents use for common types.
var builtinAliases = map[string]reflect.Type{
	"string":     primitive.KindString.ReflectType(),
	"byte":       primitive.KindUint8.ReflectType(),
	"short":      primitive.KindInt16.ReflectType(),
	"int":        primitive.KindInt.ReflectType(),
	"integer":    primitive.KindInt32.ReflectType(),
	"long":       primitive.KindInt64.ReflectType(),
	"float":      primitive.KindFloat32.ReflectType(),
	"double":     primitive.KindFloat64.ReflectType(),
	"boolean":    primitive.KindBool.ReflectType(),
	"bool":       primitive.KindBool.ReflectType(),
	"date":       primitive.KindTime.ReflectType(),
	"timestamp":  primitive.KindTime.ReflectType(),
	"time":       primitive.KindTime.ReflectType(),
	"duration":   reflect.TypeOf(time.Duration(0)),
	"bytes":      primitive.KindBytes.ReflectType(),
	"byte[]":     primitive.KindBytes.ReflectType(),
	"object":     anyType,
	"map":        mapType,
	"hashmap":    mapType,
	"list":       sliceType,
	"arraylist":  sliceType,
	"collection": sliceType,
}

// TypeAliasRegistry maps case-insensitive alias names to types.
type TypeAliasRegistry struct {
	frozen  atomic.Bool
	aliases map[string]TypeRef
}

// NewTypeAliasRegistry returns a registry preloaded with the built-in aliases.
func NewTypeAliasRegistry() *TypeAliasRegistry {
	r := &TypeAliasRegistry{aliases: make(map[string]TypeRef, len(builtinAliases))}
	for alias, t := range builtinAliases {
		r.aliases[alias] = TypeOf(t)
	}

	return r
}

// Register binds alias to ref. Re-registering the same binding is a no-op;
// binding an existing alias to a different type fails.
func (r *TypeAliasRegistry) Register(alias string, ref TypeRef) error {
	if r.frozen.Load() {
		return ErrFrozen
	}

	if alias == "" {
		return wrapf(ErrDuplicateAlias, "alias for %s is empty", ref.Name)
	}

	key := strings.ToLower(alias)
	if existing, ok := r.aliases[key]; ok && existing.Name != ref.Name {
		return wrapf(ErrDuplicateAlias, "alias %q is already mapped to %s", alias, existing.Name)
	}

	r.aliases[key] = ref

	return nil
}

// Lookup returns the type bound to alias.
func (r *TypeAliasRegistry) Lookup(alias string) (TypeRef, bool) {
	ref, ok := r.aliases[strings.ToLower(alias)]
	return ref, ok
}

// Aliases returns a copy of every alias binding keyed by lower-case alias.
func (r *TypeAliasRegistry) Aliases() map[string]TypeRef {
	out := make(map[string]TypeRef, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}

	return out
}

// Names returns every alias name.
func (r *TypeAliasRegistry) Names() []string {
	names := make([]string, 0, len(r.aliases))
	for k := range r.aliases {
		names = append(names, k)
	}

	return names
}

func (r *TypeAliasRegistry) freeze() {
	r.frozen.Store(true)
}
