package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sqlmap-builder/internal/document"
)

func TestPlaceholders_Expand(t *testing.T) {
	vars := map[string]string{
		"user":   "scott",
		"schema": "blog",
		"empty":  "",
	}

	tests := []struct {
		name    string
		vars    map[string]string
		input   string
		want    string
		enabled bool
	}{
		{name: "no placeholders", input: "select 1", want: "select 1"},
		{name: "simple", input: "${schema}.author", want: "blog.author"},
		{name: "several", input: "${user}@${schema}", want: "scott@blog"},
		{name: "unknown stays verbatim", input: "order by ${column}", want: "order by ${column}"},
		{name: "empty value", input: "[${empty}]", want: "[]"},
		{name: "escaped", input: `\${user}`, want: "${user}"},
		{name: "unterminated", input: "x ${user", want: "x ${user"},
		{name: "default disabled", input: "${missing:10}", want: "${missing:10}"},
		{name: "default used", input: "${missing:10}", want: "10", enabled: true},
		{name: "default ignored when set", input: "${user:nobody}", want: "scott", enabled: true},
		{name: "default with colon", input: "${url:jdbc:h2:mem}", want: "jdbc:h2:mem", enabled: true},
		{
			name:  "custom separator",
			vars:  map[string]string{EnableDefaultValueKey: "true", DefaultValueSeparatorKey: "?:"},
			input: "${host?:localhost}",
			want:  "localhost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := tt.vars
			if table == nil {
				table = make(map[string]string, len(vars)+1)
				for k, v := range vars {
					table[k] = v
				}

				if tt.enabled {
					table[EnableDefaultValueKey] = "true"
				}
			}

			assert.Equal(t, tt.want, newPlaceholders(table).expand(tt.input))
		})
	}
}

func TestPlaceholders_With(t *testing.T) {
	base := newPlaceholders(map[string]string{"alias": "a", "schema": "blog"})
	inner := base.with(map[string]string{"alias": "au"})

	assert.Equal(t, "au.id", inner.expand("${alias}.id"))
	assert.Equal(t, "blog", inner.expand("${schema}"))
	assert.Equal(t, "a.id", base.expand("${alias}.id"))
	assert.Equal(t, base, base.with(nil))
}

func TestVendorID(t *testing.T) {
	table := document.PropertyList{
		{Name: "Postgres", Value: "pg"},
		{Name: "MySQL", Value: "mysql"},
	}

	assert.Equal(t, "pg", vendorID("postgres", table))
	assert.Equal(t, "mysql", vendorID("MySQL Community", table))
	assert.Empty(t, vendorID("sqlite3", table))
	assert.Equal(t, "sqlite3", vendorID("sqlite3", nil))
}
