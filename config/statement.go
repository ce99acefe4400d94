package config

import (
	"strings"

	"sqlmap-builder/internal/common"
)

// StatementKind is the SQL command a mapped statement issues.
type StatementKind string

const (
	KindSelect StatementKind = "SELECT"
	KindInsert StatementKind = "INSERT"
	KindUpdate StatementKind = "UPDATE"
	KindDelete StatementKind = "DELETE"
)

// StatementType selects how the statement is prepared.
type StatementType string

const (
	StatementPlain    StatementType = "STATEMENT"
	StatementPrepared StatementType = "PREPARED"
	StatementCallable StatementType = "CALLABLE"
)

// ParseStatementType resolves a statementType attribute. Empty means PREPARED.
func ParseStatementType(name string) (StatementType, error) {
	if strings.TrimSpace(name) == "" {
		return StatementPrepared, nil
	}

	switch t := StatementType(strings.ToUpper(strings.TrimSpace(name))); t {
	case StatementPlain, StatementPrepared, StatementCallable:
		return t, nil
	default:
		return "", wrapf(ErrMalformedDocument, "unknown statementType %q", name)
	}
}

// KeyGenerator describes a selectKey element attached to an insert or update.
type KeyGenerator struct {
	KeyProperty string        `yaml:"keyProperty" json:"keyProperty"`
	KeyColumn   string        `yaml:"keyColumn,omitempty" json:"keyColumn,omitempty"`
	ResultType  TypeRef       `yaml:"-" json:"-"`
	Order       string        `yaml:"order" json:"order"` // BEFORE or AFTER
	Body        *SQLNode      `yaml:"body" json:"body"`
	Type        StatementType `yaml:"statementType" json:"statementType"`
}

// MappedStatement is a compiled SQL operation.
type MappedStatement struct {
	ID            string        // namespace-qualified id
	Namespace     string        // mapper namespace
	Resource      string        // mapper document the statement came from
	Kind          StatementKind // select, insert, update or delete
	StatementType StatementType
	DatabaseID    string

	ParameterType TypeRef
	ResultType    TypeRef
	ResultMaps    []string // qualified result map ids

	Timeout       *int
	FetchSize     *int
	ResultSetType ResultSetType

	FlushCache       bool
	UseCache         bool
	UseGeneratedKeys bool
	KeyProperties    []string
	KeyColumns       []string
	KeyGenerator     *KeyGenerator
	ResultOrdered    bool
	Lang             string

	// Cache is the namespace whose cache serves this statement, after
	// cache-ref resolution. Empty when the mapper has no cache.
	Cache string

	Body *SQLNode

	shrink bool
}

// ShortID returns the id without its namespace.
func (s *MappedStatement) ShortID() string {
	return common.ShortName(s.ID)
}

// SQL renders the statement body.
func (s *MappedStatement) SQL() string {
	return s.Body.Render(s.shrink)
}

// IsDynamic reports whether the body needs per-call evaluation.
func (s *MappedStatement) IsDynamic() bool {
	return s.Body.IsDynamic()
}

// IsSelect reports whether the statement is a query.
func (s *MappedStatement) IsSelect() bool {
	return s.Kind == KindSelect
}
