package builder

import (
	"fmt"
	"slices"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
	"sqlmap-builder/internal/match"
)

// resultMaps registers the mapper's result maps. A map may extend one
// declared later in the same document; parents are compiled first.
func (m *mapperCompiler) resultMaps(nodes []*document.Node) error {
	raw := make(map[string]*document.Node, len(nodes))
	order := make([]string, 0, len(nodes))

	for _, n := range nodes {
		id, err := m.declaredID(n)
		if err != nil {
			return err
		}

		if _, dup := raw[id]; dup {
			return fmt.Errorf("%w: %q is declared twice in %s", config.ErrDuplicateResultMap, id, m.resource)
		}

		raw[id] = n
		order = append(order, id)
	}

	done := make(map[string]bool, len(nodes))

	var resolve func(id string, chain []string) error

	resolve = func(id string, chain []string) error {
		if done[id] {
			return nil
		}

		if slices.Contains(chain, id) {
			return fmt.Errorf("%w: result map inheritance cycle %s", config.ErrMalformedDocument,
				strings.Join(append(chain, id), " -> "))
		}

		n := raw[id]
		m.b.diag.Activity("parsing result map").Object(id)

		var parent *config.ResultMap

		if ext := m.attr(n, "extends"); ext != "" {
			pid := qualify(m.namespace, ext)
			if _, local := raw[pid]; local {
				if err := resolve(pid, append(chain[:len(chain):len(chain)], id)); err != nil {
					return err
				}

				m.b.diag.Activity("parsing result map").Object(id)
			}

			p, ok := m.b.cfg.ResultMap(pid)
			if !ok {
				return withHint(fmt.Errorf("%w: %q extended by %s", config.ErrUnresolvedResultMap, ext, id),
					pid, m.b.cfg.ResultMapIDs())
			}

			parent = p
		}

		rm, err := m.resultMap(id, n, m.attrOr(n, "type", m.attr(n, "ofType")), true)
		if err != nil {
			return err
		}

		if parent != nil {
			inherit(rm, parent)
		}

		done[id] = true

		return m.b.cfg.AddResultMap(rm)
	}

	for _, id := range order {
		if err := resolve(id, nil); err != nil {
			return err
		}
	}

	return nil
}

// resultMap compiles a resultMap element, or the inline body of an
// association or collection.
func (m *mapperCompiler) resultMap(id string, n *document.Node, typeName string, requireType bool) (*config.ResultMap, error) {
	if requireType && typeName == "" {
		return nil, fmt.Errorf("%w: result map %s has no type", config.ErrMalformedDocument, id)
	}

	ref, err := m.b.resolveType(typeName)
	if err != nil {
		return nil, err
	}

	rm := &config.ResultMap{ID: id, Namespace: m.namespace, Resource: m.resource, Type: ref}

	if m.attr(n, "autoMapping") != "" {
		auto, err := m.boolAttr(n, "autoMapping", false)
		if err != nil {
			return nil, err
		}

		rm.AutoMapping = &auto
	}

	for _, c := range n.Elements() {
		switch c.Name {
		case "constructor":
			for _, arg := range c.Elements() {
				kind := config.MappingArg
				switch arg.Name {
				case "idArg":
					kind = config.MappingIDArg
				case "arg":
				default:
					return nil, fmt.Errorf("%w: unknown element <%s> in constructor at line %d",
						config.ErrMalformedDocument, arg.Name, arg.Line)
				}

				mapping, err := m.mapping(id, arg, kind)
				if err != nil {
					return nil, err
				}

				rm.Mappings = append(rm.Mappings, mapping)
			}
		case "id", "result", "association", "collection":
			mapping, err := m.mapping(id, c, config.MappingKind(c.Name))
			if err != nil {
				return nil, err
			}

			rm.Mappings = append(rm.Mappings, mapping)
		case "discriminator":
			m.b.info("ignored_element", "discriminator is not compiled", id)
		default:
			return nil, fmt.Errorf("%w: unknown element <%s> in result map %s at line %d",
				config.ErrMalformedDocument, c.Name, id, c.Line)
		}
	}

	m.checkProperties(rm)

	return rm, nil
}

func (m *mapperCompiler) mapping(owner string, n *document.Node, kind config.MappingKind) (config.ResultMapping, error) {
	rm := config.ResultMapping{
		Kind:           kind,
		Property:       m.attr(n, "property"),
		Column:         m.attr(n, "column"),
		ColumnPrefix:   m.attr(n, "columnPrefix"),
		NotNullColumns: m.listAttr(n, "notNullColumn"),
	}

	if kind == config.MappingArg || kind == config.MappingIDArg {
		rm.Property = m.attr(n, "name")
	}

	var err error

	if rm.JavaType, err = m.b.resolveType(m.attr(n, "javaType")); err != nil {
		return rm, err
	}

	if rm.JdbcType, err = config.ParseJdbcType(m.attr(n, "jdbcType")); err != nil {
		return rm, m.badAttr(n, "jdbcType", m.attr(n, "jdbcType"), err)
	}

	if th := m.attr(n, "typeHandler"); th != "" {
		if _, ok := m.b.deps.TypeHandlers.Get(th); !ok {
			return rm, withHint(fmt.Errorf("%w: type handler %q is not registered", config.ErrUnknownPlugin, th),
				th, m.b.deps.TypeHandlers.Names())
		}

		rm.TypeHandler = th
	}

	if sel := m.attr(n, "select"); sel != "" {
		rm.NestedSelect = qualify(m.namespace, sel)
	}

	if ref := m.attr(n, "resultMap"); ref != "" {
		rm.NestedResultMap = qualify(m.namespace, ref)
		m.b.nested = append(m.b.nested, nestedRef{from: owner, id: rm.NestedResultMap, resource: m.resource})

		return rm, nil
	}

	if (kind == config.MappingAssociation || kind == config.MappingCollection) &&
		rm.NestedSelect == "" && len(n.Elements()) > 0 {
		nestedID := fmt.Sprintf("%s_%s[%s]", owner, kind, rm.Property)

		typeName := m.attr(n, "javaType")
		if kind == config.MappingCollection {
			typeName = m.attr(n, "ofType")
		}

		nested, err := m.resultMap(nestedID, n, typeName, false)
		if err != nil {
			return rm, err
		}

		if err := m.b.cfg.AddResultMap(nested); err != nil {
			return rm, err
		}

		rm.NestedResultMap = nestedID
	}

	return rm, nil
}

// checkProperties warns about mapped properties the result type lacks.
func (m *mapperCompiler) checkProperties(rm *config.ResultMap) {
	fields := m.b.fieldNames(rm.Type)
	if len(fields) == 0 {
		return
	}

	for _, mapping := range rm.Mappings {
		if mapping.Property == "" || mapping.Kind == config.MappingArg || mapping.Kind == config.MappingIDArg {
			continue
		}

		prop, _, _ := strings.Cut(mapping.Property, ".")
		if slices.Contains(fields, prop) {
			continue
		}

		m.b.warn("unknown_property",
			fmt.Sprintf("%s has no field %q", rm.Type.Name, prop),
			rm.ID, match.Suggest(prop, fields, 3))
	}
}

// inherit appends the parent's mappings that the child does not redefine.
func inherit(child, parent *config.ResultMap) {
	child.Extends = parent.ID

	own := make(map[string]bool, len(child.Mappings))
	hasConstructor := false

	for _, mapping := range child.Mappings {
		if mapping.Kind == config.MappingArg || mapping.Kind == config.MappingIDArg {
			hasConstructor = true
			continue
		}

		if mapping.Property != "" {
			own[mapping.Property] = true
		}
	}

	for _, mapping := range parent.Mappings {
		isArg := mapping.Kind == config.MappingArg || mapping.Kind == config.MappingIDArg
		if (isArg && hasConstructor) || (!isArg && own[mapping.Property]) {
			continue
		}

		child.Mappings = append(child.Mappings, mapping)
	}

	if child.AutoMapping == nil {
		child.AutoMapping = parent.AutoMapping
	}
}
