package builder

import (
	"context"
	"fmt"
	"io"
	"path"
	"reflect"
	"sort"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/analyze"
	"sqlmap-builder/internal/common"
	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/internal/document"
	"sqlmap-builder/internal/resource"
	"sqlmap-builder/internal/xmldoc"
)

var mapperElements = map[string]struct{}{
	"cache": {}, "cache-ref": {}, "sql": {}, "resultMap": {}, "parameterMap": {},
	"select": {}, "insert": {}, "update": {}, "delete": {},
}

// mappers resolves each entry in document order.
func (b *ConfigBuilder) mappers(ctx context.Context, entries []document.MapperEntry) error {
	for _, raw := range entries {
		e := document.MapperEntry{
			Resource: b.ph.expand(raw.Resource),
			URL:      b.ph.expand(raw.URL),
			Class:    b.ph.expand(raw.Class),
			Package:  b.ph.expand(raw.Package),
		}

		b.diag.Activity("parsing mappers").Object(e.Ref())

		set := 0
		for _, v := range []string{e.Resource, e.URL, e.Class, e.Package} {
			if v != "" {
				set++
			}
		}

		if set != 1 {
			return fmt.Errorf("%w: a mapper entry must specify exactly one of resource, url, class or package",
				config.ErrMalformedDocument)
		}

		var err error

		switch {
		case e.Resource != "":
			err = b.mapperResource(ctx, e.Resource)
		case e.URL != "":
			err = b.mapperURL(ctx, e.URL)
		case e.Class != "":
			err = b.bindMapper(ctx, e.Class)
		default:
			err = b.mapperPackage(ctx, e.Package)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (b *ConfigBuilder) mapperResource(ctx context.Context, name string) error {
	name, err := resource.Clean(name)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrResourceNotFound, err)
	}

	if b.cfg.IsResourceLoaded(name) {
		ctxlog.FromContext(ctx).Debug("mapper already loaded", "resource", name)
		return nil
	}

	rc, err := b.deps.Loader.Open(name)
	if err != nil {
		return err
	}

	return b.compileStream(ctx, name, rc, "")
}

func (b *ConfigBuilder) mapperURL(ctx context.Context, url string) error {
	if b.cfg.IsResourceLoaded(url) {
		ctxlog.FromContext(ctx).Debug("mapper already loaded", "url", url)
		return nil
	}

	rc, err := b.deps.Loader.OpenURL(ctx, url)
	if err != nil {
		return err
	}

	return b.compileStream(ctx, url, rc, "")
}

// bindMapper registers a mapper interface and compiles the XML document
// next to it, if there is one.
func (b *ConfigBuilder) bindMapper(ctx context.Context, typeName string) error {
	if b.cfg.HasMapper(typeName) {
		return fmt.Errorf("%w: %s is already bound", config.ErrDuplicateMapper, typeName)
	}

	ref, methods, err := b.interfaceMethods(typeName)
	if err != nil {
		return err
	}

	if err := b.cfg.AddMapper(config.MapperBinding{Namespace: typeName, Type: ref, Methods: methods}); err != nil {
		return err
	}

	res := b.mapperResourceFor(typeName)
	if b.deps.Loader.Exists(res) && !b.cfg.IsResourceLoaded(res) {
		rc, err := b.deps.Loader.Open(res)
		if err != nil {
			return err
		}

		if err := b.compileStream(ctx, res, rc, typeName); err != nil {
			return err
		}
	}

	for _, m := range methods {
		if !b.cfg.HasStatement(typeName + "." + m) {
			b.info("unmapped_method", fmt.Sprintf("%s.%s has no mapped statement", common.ShortName(typeName), m), m)
		}
	}

	return nil
}

// mapperPackage binds every exported interface of pkg.
func (b *ConfigBuilder) mapperPackage(ctx context.Context, pkg string) error {
	seen := make(map[string]bool)

	for _, name := range b.deps.Types.Names() {
		if common.PackageOf(name) == pkg && b.deps.Types.MustGet(name).Kind() == reflect.Interface {
			seen[name] = true
		}
	}

	if b.deps.Scanner != nil {
		infos, err := b.deps.Scanner.Exported(pkg, analyze.TypeKindInterface)
		if err != nil {
			return fmt.Errorf("%w: package %s: %v", config.ErrUnresolvedType, pkg, err)
		}

		for _, info := range infos {
			seen[info.ID.String()] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	if len(names) == 0 {
		b.info("empty_package", fmt.Sprintf("package %s declares no mapper interfaces", pkg), pkg)
	}

	for _, name := range names {
		b.diag.Object(name)

		if err := b.bindMapper(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

// interfaceMethods returns the method names of a mapper interface.
func (b *ConfigBuilder) interfaceMethods(typeName string) (config.TypeRef, []string, error) {
	if t, ok := b.deps.Types.Get(typeName); ok {
		if t.Kind() != reflect.Interface {
			return config.TypeRef{}, nil, fmt.Errorf("%w: mapper %s is not an interface", config.ErrUnresolvedType, typeName)
		}

		methods := make([]string, 0, t.NumMethod())
		for i := 0; i < t.NumMethod(); i++ {
			methods = append(methods, t.Method(i).Name)
		}

		return config.TypeRef{Name: typeName, Type: t}, methods, nil
	}

	if b.deps.Scanner == nil {
		return config.TypeRef{}, nil, fmt.Errorf("%w: mapper %s is not registered", config.ErrUnresolvedType, typeName)
	}

	info, err := b.deps.Scanner.Lookup(typeName)
	if err != nil {
		return config.TypeRef{}, nil, fmt.Errorf("%w: mapper %s: %v", config.ErrUnresolvedType, typeName, err)
	}

	if info.Kind != analyze.TypeKindInterface {
		return config.TypeRef{}, nil, fmt.Errorf("%w: mapper %s is a %s, not an interface",
			config.ErrUnresolvedType, typeName, info.Kind)
	}

	return config.NamedType(typeName), info.Methods, nil
}

// mapperResourceFor returns the resource path of a mapper interface's XML
// document: its package path relative to PackageRoot, then "<Name>.xml".
func (b *ConfigBuilder) mapperResourceFor(typeName string) string {
	pkg := common.PackageOf(typeName)

	rel := pkg
	if root := b.deps.PackageRoot; root != "" {
		if pkg == root {
			rel = ""
		} else {
			rel = strings.TrimPrefix(pkg, root+"/")
		}
	}

	return path.Join(rel, common.ShortName(typeName)+".xml")
}

// compileStream parses and compiles one mapper document and closes rc.
func (b *ConfigBuilder) compileStream(ctx context.Context, name string, rc io.ReadCloser, namespace string) error {
	defer func() {
		if err := rc.Close(); err != nil {
			ctxlog.FromContext(ctx).Debug("closing mapper failed", "resource", name, "error", err)
		}
	}()

	root, err := xmldoc.ParseMapper(rc, xmldoc.Bytes)
	if err != nil {
		return fmt.Errorf("mapper %s: %w", name, err)
	}

	return b.compileMapper(ctx, name, root, namespace)
}

// compileMapper registers a mapper document. namespace, when set, is the
// interface the document must belong to.
func (b *ConfigBuilder) compileMapper(ctx context.Context, res string, root *document.Node, namespace string) error {
	if err := b.cfg.MarkResourceLoaded(res); err != nil {
		return err
	}

	b.diag.Store().Resource(res).Activity("parsing mapper")

	ns := b.ph.expand(root.AttrOr("namespace", ""))
	if ns == "" {
		return fmt.Errorf("%w: mapper namespace cannot be empty", config.ErrMalformedDocument)
	}

	if namespace != "" && ns != namespace {
		return fmt.Errorf("%w: namespace %q does not match mapper type %s", config.ErrMalformedDocument, ns, namespace)
	}

	b.diag.Object(ns)

	m := &mapperCompiler{b: b, namespace: ns, resource: res}

	for _, el := range root.Elements() {
		if _, ok := mapperElements[el.Name]; !ok {
			return fmt.Errorf("%w: unknown element <%s> at line %d", config.ErrMalformedDocument, el.Name, el.Line)
		}
	}

	if err := m.declarations(root); err != nil {
		return err
	}

	if err := m.statements(root); err != nil {
		return err
	}

	// A namespace naming a registered interface binds it.
	if t, ok := b.deps.Types.Get(ns); ok && namespace == "" && !b.cfg.HasMapper(ns) && t.Kind() == reflect.Interface {
		ref, methods, _ := b.interfaceMethods(ns)
		if err := b.cfg.AddMapper(config.MapperBinding{Namespace: ns, Type: ref, Methods: methods}); err != nil {
			return err
		}
	}

	b.diag.Recall()
	ctxlog.FromContext(ctx).Debug("mapper compiled", "namespace", ns, "resource", res)

	return nil
}

// mapperCompiler holds the state of one mapper document.
type mapperCompiler struct {
	b         *ConfigBuilder
	namespace string
	resource  string
}

// declarations is the first pass: caches, fragments and result maps.
func (m *mapperCompiler) declarations(root *document.Node) error {
	refs := root.Elements("cache-ref")
	caches := root.Elements("cache")

	if len(refs)+len(caches) > 1 {
		return fmt.Errorf("%w: mapper %s declares more than one cache or cache-ref", config.ErrDuplicateCache, m.namespace)
	}

	for _, n := range refs {
		target := m.b.ph.expand(n.AttrOr("namespace", ""))
		m.b.diag.Activity("resolving cache-ref").Object(target)

		if target == "" {
			return fmt.Errorf("%w: cache-ref at line %d has no namespace", config.ErrMalformedDocument, n.Line)
		}

		if err := m.b.cfg.AddCacheRef(m.namespace, target); err != nil {
			return err
		}
	}

	for _, n := range caches {
		m.b.diag.Activity("parsing cache").Object(m.namespace)

		if err := m.cache(n); err != nil {
			return err
		}
	}

	m.b.diag.Activity("parsing sql fragments")

	for _, n := range root.Elements("sql") {
		if err := m.fragment(n); err != nil {
			return err
		}
	}

	if err := m.resultMaps(root.Elements("resultMap")); err != nil {
		return err
	}

	for _, n := range root.Elements("parameterMap") {
		m.b.info("ignored_element", "parameterMap is not compiled", n.AttrOr("id", "parameterMap"))
	}

	return nil
}

func (m *mapperCompiler) cache(n *document.Node) error {
	eviction, err := config.ParseEviction(m.attr(n, "eviction"))
	if err != nil {
		return err
	}

	def := &config.CacheDef{
		Namespace:  m.namespace,
		Resource:   m.resource,
		Type:       m.attrOr(n, "type", config.DefaultCacheType),
		Eviction:   eviction,
		Properties: m.propertyMap(n),
	}

	if def.FlushInterval, err = m.durationAttr(n, "flushInterval"); err != nil {
		return err
	}

	size, err := m.intAttr(n, "size")
	if err != nil {
		return err
	}

	if size != nil {
		def.Size = *size
	}

	if def.ReadOnly, err = m.boolAttr(n, "readOnly", false); err != nil {
		return err
	}

	if def.Blocking, err = m.boolAttr(n, "blocking", false); err != nil {
		return err
	}

	return m.b.cfg.AddCache(def)
}

// fragment registers a <sql> element. A fragment for the configuration's
// database id wins over one without a database id.
func (m *mapperCompiler) fragment(n *document.Node) error {
	id, err := m.declaredID(n)
	if err != nil {
		return err
	}

	m.b.diag.Object(id)

	dbID := m.attr(n, "databaseId")
	if !m.databaseIDMatches(dbID) {
		return nil
	}

	if existing, ok := m.b.fragments[id]; ok {
		switch {
		case existing.namespace != m.namespace:
			return fmt.Errorf("%w: sql fragment %q is declared in %s and again in %s",
				config.ErrMalformedDocument, id, existing.resource, m.resource)
		case dbID == "" && existing.databaseID != "":
			return nil
		case dbID == existing.databaseID:
			return fmt.Errorf("%w: sql fragment %q is declared twice in %s", config.ErrMalformedDocument, id, m.resource)
		}
	}

	m.b.fragments[id] = &fragment{namespace: m.namespace, resource: m.resource, databaseID: dbID, node: n}

	return m.b.cfg.AddFragment(id, rawSQL(n))
}

// statements is the second pass.
func (m *mapperCompiler) statements(root *document.Node) error {
	for _, n := range root.Elements("select", "insert", "update", "delete") {
		if err := m.statement(n); err != nil {
			return err
		}
	}

	return nil
}

func (m *mapperCompiler) databaseIDMatches(dbID string) bool {
	return dbID == "" || dbID == m.b.cfg.DatabaseID()
}

// declaredID returns the qualified id of a declaring element.
func (m *mapperCompiler) declaredID(n *document.Node) (string, error) {
	id := m.attr(n, "id")
	if id == "" {
		return "", fmt.Errorf("%w: <%s> at line %d has no id", config.ErrMalformedDocument, n.Name, n.Line)
	}

	if strings.HasPrefix(id, m.namespace+".") {
		return id, nil
	}

	if strings.Contains(id, ".") {
		return "", fmt.Errorf("%w: id %q of <%s> at line %d contains a dot", config.ErrMalformedDocument, id, n.Name, n.Line)
	}

	return m.namespace + "." + id, nil
}

// qualify resolves a reference made from namespace ns. References without
// a dot are local.
func qualify(ns, ref string) string {
	if strings.Contains(ref, ".") {
		return ref
	}

	return ns + "." + ref
}

// rawSQL converts a fragment element to a node tree without expanding
// anything, for inspection.
func rawSQL(n *document.Node) *config.SQLNode {
	if n.IsText() {
		return config.TextNode(n.Text)
	}

	var attrs map[string]string
	if n.Name != "sql" && len(n.Attrs) > 0 {
		attrs = make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			attrs[a.Name] = a.Value
		}
	}

	node := config.ContainerNode(config.NodeKind(n.Name), attrs)
	if n.Name == "sql" {
		node.Kind = ""
	}

	for _, c := range n.Children {
		node.Children = append(node.Children, rawSQL(c))
	}

	return node
}
