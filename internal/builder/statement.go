package builder

import (
	"fmt"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// statement compiles one select, insert, update or delete element.
func (m *mapperCompiler) statement(n *document.Node) error {
	id, err := m.declaredID(n)
	if err != nil {
		return err
	}

	m.b.diag.Activity("compiling statement").Object(id)

	dbID := m.attr(n, "databaseId")
	if !m.databaseIDMatches(dbID) {
		return nil
	}

	replace := false

	if m.b.cfg.HasStatement(id) {
		existing, err := m.b.cfg.Statement(id)
		if err != nil {
			return err
		}

		switch {
		case dbID == "" && existing.DatabaseID != "":
			return nil
		case dbID != "" && existing.DatabaseID == "":
			replace = true
		}
	}

	ms, err := m.mappedStatement(id, dbID, n)
	if err != nil {
		return err
	}

	if replace {
		return m.b.cfg.ReplaceStatement(ms)
	}

	return m.b.cfg.AddStatement(ms)
}

func (m *mapperCompiler) mappedStatement(id, dbID string, n *document.Node) (*config.MappedStatement, error) {
	settings := m.b.cfg.Settings()
	kind := config.StatementKind(strings.ToUpper(n.Name))
	isSelect := kind == config.KindSelect

	ms := &config.MappedStatement{
		ID:            id,
		Namespace:     m.namespace,
		Resource:      m.resource,
		Kind:          kind,
		DatabaseID:    dbID,
		Timeout:       settings.DefaultStatementTimeout,
		FetchSize:     settings.DefaultFetchSize,
		ResultSetType: settings.DefaultResultSetType,
		KeyProperties: m.listAttr(n, "keyProperty"),
		KeyColumns:    m.listAttr(n, "keyColumn"),
		Lang:          m.attrOr(n, "lang", settings.DefaultScriptingLanguage),
	}

	var err error

	if ms.StatementType, err = config.ParseStatementType(m.attr(n, "statementType")); err != nil {
		return nil, err
	}

	if ms.ParameterType, err = m.b.resolveType(m.attr(n, "parameterType")); err != nil {
		return nil, err
	}

	if ms.ResultType, err = m.b.resolveType(m.attr(n, "resultType")); err != nil {
		return nil, err
	}

	for _, ref := range m.listAttr(n, "resultMap") {
		rid := qualify(m.namespace, ref)
		if _, ok := m.b.cfg.ResultMap(rid); !ok {
			return nil, withHint(fmt.Errorf("%w: %q used by %s", config.ErrUnresolvedResultMap, ref, id),
				rid, m.b.cfg.ResultMapIDs())
		}

		ms.ResultMaps = append(ms.ResultMaps, rid)
	}

	timeout, err := m.intAttr(n, "timeout")
	if err != nil {
		return nil, err
	}

	if timeout != nil {
		ms.Timeout = timeout
	}

	fetchSize, err := m.intAttr(n, "fetchSize")
	if err != nil {
		return nil, err
	}

	if fetchSize != nil {
		ms.FetchSize = fetchSize
	}

	if v := m.attr(n, "resultSetType"); v != "" {
		if ms.ResultSetType, err = parseResultSetType(v); err != nil {
			return nil, m.badAttr(n, "resultSetType", v, err)
		}
	}

	if ms.FlushCache, err = m.boolAttr(n, "flushCache", !isSelect); err != nil {
		return nil, err
	}

	if ms.UseCache, err = m.boolAttr(n, "useCache", isSelect); err != nil {
		return nil, err
	}

	defaultKeys := settings.UseGeneratedKeys && kind == config.KindInsert
	if ms.UseGeneratedKeys, err = m.boolAttr(n, "useGeneratedKeys", defaultKeys); err != nil {
		return nil, err
	}

	if ms.ResultOrdered, err = m.boolAttr(n, "resultOrdered", false); err != nil {
		return nil, err
	}

	if ms.Body, ms.KeyGenerator, err = m.assemble(n); err != nil {
		return nil, err
	}

	if ms.KeyGenerator != nil && kind != config.KindInsert && kind != config.KindUpdate {
		return nil, fmt.Errorf("%w: selectKey in <%s> %s", config.ErrMalformedDocument, n.Name, id)
	}

	if settings.CacheEnabled {
		if def, ok := m.b.cfg.CacheFor(m.namespace); ok {
			ms.Cache = def.Namespace
		}
	}

	return ms, nil
}

// selectKey compiles a key generator.
func (m *mapperCompiler) selectKey(n *document.Node) (*config.KeyGenerator, error) {
	kg := &config.KeyGenerator{
		KeyProperty: m.attr(n, "keyProperty"),
		KeyColumn:   m.attr(n, "keyColumn"),
		Order:       strings.ToUpper(m.attrOr(n, "order", "AFTER")),
	}

	if kg.Order != "BEFORE" && kg.Order != "AFTER" {
		return nil, m.badAttr(n, "order", kg.Order, fmt.Errorf("expected BEFORE or AFTER"))
	}

	var err error

	if kg.ResultType, err = m.b.resolveType(m.attr(n, "resultType")); err != nil {
		return nil, err
	}

	if kg.Type, err = config.ParseStatementType(m.attr(n, "statementType")); err != nil {
		return nil, err
	}

	body := config.ContainerNode("", nil)

	for _, c := range n.Children {
		nodes, err := m.expand(c, m.b.ph, m.namespace, nil)
		if err != nil {
			return nil, err
		}

		body.Children = append(body.Children, nodes...)
	}

	kg.Body = body

	return kg, nil
}

func parseResultSetType(v string) (config.ResultSetType, error) {
	switch t := config.ResultSetType(strings.ToUpper(v)); t {
	case config.ResultSetDefault, config.ResultSetForwardOnly,
		config.ResultSetScrollInsensitive, config.ResultSetScrollSensitive:
		return t, nil
	default:
		return "", fmt.Errorf("unknown result set type")
	}
}
