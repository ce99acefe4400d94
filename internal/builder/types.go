package builder

import (
	"fmt"
	"reflect"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/analyze"
	"sqlmap-builder/internal/common"
	"sqlmap-builder/internal/document"
)

// typeAliases registers aliases in document order.
func (b *ConfigBuilder) typeAliases(entries []document.TypeAliasEntry) error {
	for _, e := range entries {
		if pkg := b.ph.expand(e.Package); pkg != "" {
			b.diag.Object(pkg)

			if err := b.aliasPackage(pkg); err != nil {
				return err
			}

			continue
		}

		typeName := b.ph.expand(e.Type)
		b.diag.Object(typeName)

		if typeName == "" {
			return fmt.Errorf("%w: typeAlias %q has no type", config.ErrMalformedDocument, e.Alias)
		}

		ref, err := b.resolveType(typeName)
		if err != nil {
			return err
		}

		alias := b.ph.expand(e.Alias)
		if alias == "" {
			alias = common.ShortName(ref.Name)
		}

		if err := b.cfg.TypeAliases().Register(alias, ref); err != nil {
			return err
		}
	}

	return nil
}

// aliasPackage registers every exported non-interface type of pkg under
// its simple name. Registered runtime types are used first, then the
// package scanner.
func (b *ConfigBuilder) aliasPackage(pkg string) error {
	found := 0

	for _, name := range b.deps.Types.Names() {
		t := b.deps.Types.MustGet(name)
		if common.PackageOf(name) != pkg || t.Kind() == reflect.Interface {
			continue
		}

		if err := b.cfg.TypeAliases().Register(common.ShortName(name), config.TypeRef{Name: name, Type: t}); err != nil {
			return err
		}

		found++
	}

	if b.deps.Scanner != nil {
		infos, err := b.deps.Scanner.Exported(pkg, analyze.TypeKindUnknown)
		if err != nil {
			return fmt.Errorf("%w: package %s: %v", config.ErrUnresolvedType, pkg, err)
		}

		for _, info := range infos {
			if info.Kind == analyze.TypeKindInterface {
				continue
			}

			if err := b.cfg.TypeAliases().Register(info.ID.Name, b.typeRef(info.ID.String())); err != nil {
				return err
			}

			found++
		}
	}

	if found == 0 {
		return fmt.Errorf("%w: package %s has no known types", config.ErrUnresolvedType, pkg)
	}

	return nil
}

// typeHandlers registers handlers in document order.
func (b *ConfigBuilder) typeHandlers(entries []document.TypeHandlerEntry) error {
	for _, e := range entries {
		if pkg := b.ph.expand(e.Package); pkg != "" {
			b.diag.Object(pkg)

			if err := b.handlerPackage(pkg); err != nil {
				return err
			}

			continue
		}

		name := b.ph.expand(e.Handler)
		b.diag.Object(name)

		h, ok := b.deps.TypeHandlers.Get(name)
		if !ok {
			return withHint(fmt.Errorf("%w: type handler %q is not registered", config.ErrUnknownPlugin, name),
				name, b.deps.TypeHandlers.Names())
		}

		if err := b.registerHandler(h, b.ph.expand(e.JavaType), b.ph.expand(e.JdbcType)); err != nil {
			return fmt.Errorf("type handler %s: %w", name, err)
		}
	}

	return nil
}

// handlerPackage registers every handler whose registry name lies in pkg.
func (b *ConfigBuilder) handlerPackage(pkg string) error {
	found := 0

	for _, name := range b.deps.TypeHandlers.Names() {
		if common.PackageOf(name) != pkg {
			continue
		}

		if err := b.registerHandler(b.deps.TypeHandlers.MustGet(name), "", ""); err != nil {
			return fmt.Errorf("type handler %s: %w", name, err)
		}

		found++
	}

	if found == 0 {
		b.info("empty_package", fmt.Sprintf("no type handlers are registered under %s", pkg), pkg)
	}

	return nil
}

func (b *ConfigBuilder) registerHandler(h config.TypeHandler, javaType, jdbcType string) error {
	ref, err := b.resolveType(javaType)
	if err != nil {
		return err
	}

	if ref.IsZero() {
		if typed, ok := h.(config.GoTyped); ok {
			ref = config.TypeOf(typed.GoType())
		}
	}

	jdbc, err := config.ParseJdbcType(jdbcType)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrMalformedDocument, err)
	}

	return b.cfg.TypeHandlers().Register(ref, jdbc, h)
}

// resolveType resolves a type name through aliases, the type registry and
// finally the package scanner. The empty name resolves to the zero TypeRef.
func (b *ConfigBuilder) resolveType(name string) (config.TypeRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return config.TypeRef{}, nil
	}

	if ref, ok := b.cfg.TypeAliases().Lookup(name); ok {
		return ref, nil
	}

	if t, ok := b.deps.Types.Get(name); ok {
		return config.TypeRef{Name: name, Type: t}, nil
	}

	if b.deps.Scanner != nil && common.PackageOf(name) != "" {
		info, err := b.deps.Scanner.Lookup(name)
		if err != nil {
			return config.TypeRef{}, fmt.Errorf("%w: %s: %v", config.ErrUnresolvedType, name, err)
		}

		return config.NamedType(info.ID.String()), nil
	}

	return config.TypeRef{}, withHint(
		fmt.Errorf("%w: %q is neither an alias nor a known type", config.ErrUnresolvedType, name),
		strings.ToLower(name), b.cfg.TypeAliases().Names())
}

func (b *ConfigBuilder) typeRef(name string) config.TypeRef {
	if t, ok := b.deps.Types.Get(name); ok {
		return config.TypeRef{Name: name, Type: t}
	}

	return config.NamedType(name)
}

// fieldNames lists the exported fields of a struct type, or nil when the
// type is unknown or not a struct.
func (b *ConfigBuilder) fieldNames(ref config.TypeRef) []string {
	if t := ref.Type; t != nil {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		if t.Kind() != reflect.Struct {
			return nil
		}

		var names []string

		for _, f := range reflect.VisibleFields(t) {
			if f.IsExported() && !f.Anonymous {
				names = append(names, f.Name)
			}
		}

		return names
	}

	if b.deps.Scanner == nil || common.PackageOf(ref.Name) == "" {
		return nil
	}

	info, err := b.deps.Scanner.Lookup(ref.Name)
	if err != nil || info.Kind != analyze.TypeKindStruct {
		return nil
	}

	return info.FieldNames()
}
