package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// AutoMappingBehavior controls how columns are mapped to fields automatically.
type AutoMappingBehavior string

const (
	AutoMappingNone    AutoMappingBehavior = "NONE"
	AutoMappingPartial AutoMappingBehavior = "PARTIAL"
	AutoMappingFull    AutoMappingBehavior = "FULL"
)

// UnknownColumnBehavior controls what happens when an auto-mapped column has
// no matching field.
type UnknownColumnBehavior string

const (
	UnknownColumnNone    UnknownColumnBehavior = "NONE"
	UnknownColumnWarning UnknownColumnBehavior = "WARNING"
	UnknownColumnFailing UnknownColumnBehavior = "FAILING"
)

// ExecutorType selects the statement executor a session uses.
type ExecutorType string

const (
	ExecutorSimple ExecutorType = "SIMPLE"
	ExecutorReuse  ExecutorType = "REUSE"
	ExecutorBatch  ExecutorType = "BATCH"
)

// LocalCacheScope selects the lifetime of the session-local cache.
type LocalCacheScope string

const (
	LocalCacheSession   LocalCacheScope = "SESSION"
	LocalCacheStatement LocalCacheScope = "STATEMENT"
)

// ResultSetType is the cursor type requested for a statement.
type ResultSetType string

const (
	ResultSetDefault           ResultSetType = "DEFAULT"
	ResultSetForwardOnly       ResultSetType = "FORWARD_ONLY"
	ResultSetScrollInsensitive ResultSetType = "SCROLL_INSENSITIVE"
	ResultSetScrollSensitive   ResultSetType = "SCROLL_SENSITIVE"
)

// Settings holds the effective global settings of a configuration.
// Zero-valued optional fields (nil pointers, empty strings) mean "unset".
type Settings struct {
	CacheEnabled                     bool                  `yaml:"cacheEnabled" json:"cacheEnabled"`
	LazyLoadingEnabled               bool                  `yaml:"lazyLoadingEnabled" json:"lazyLoadingEnabled"`
	AggressiveLazyLoading            bool                  `yaml:"aggressiveLazyLoading" json:"aggressiveLazyLoading"`
	MultipleResultSetsEnabled        bool                  `yaml:"multipleResultSetsEnabled" json:"multipleResultSetsEnabled"`
	UseColumnLabel                   bool                  `yaml:"useColumnLabel" json:"useColumnLabel"`
	UseGeneratedKeys                 bool                  `yaml:"useGeneratedKeys" json:"useGeneratedKeys"`
	AutoMappingBehavior              AutoMappingBehavior   `yaml:"autoMappingBehavior" json:"autoMappingBehavior"`
	AutoMappingUnknownColumnBehavior UnknownColumnBehavior `yaml:"autoMappingUnknownColumnBehavior" json:"autoMappingUnknownColumnBehavior"`
	DefaultExecutorType              ExecutorType          `yaml:"defaultExecutorType" json:"defaultExecutorType"`
	DefaultStatementTimeout          *int                  `yaml:"defaultStatementTimeout,omitempty" json:"defaultStatementTimeout,omitempty"`
	DefaultFetchSize                 *int                  `yaml:"defaultFetchSize,omitempty" json:"defaultFetchSize,omitempty"`
	DefaultResultSetType             ResultSetType         `yaml:"defaultResultSetType,omitempty" json:"defaultResultSetType,omitempty"`
	MapUnderscoreToCamelCase         bool                  `yaml:"mapUnderscoreToCamelCase" json:"mapUnderscoreToCamelCase"`
	SafeRowBoundsEnabled             bool                  `yaml:"safeRowBoundsEnabled" json:"safeRowBoundsEnabled"`
	SafeResultHandlerEnabled         bool                  `yaml:"safeResultHandlerEnabled" json:"safeResultHandlerEnabled"`
	LocalCacheScope                  LocalCacheScope       `yaml:"localCacheScope" json:"localCacheScope"`
	JdbcTypeForNull                  JdbcType              `yaml:"jdbcTypeForNull" json:"jdbcTypeForNull"`
	LazyLoadTriggerMethods           []string              `yaml:"lazyLoadTriggerMethods" json:"lazyLoadTriggerMethods"`
	CallSettersOnNulls               bool                  `yaml:"callSettersOnNulls" json:"callSettersOnNulls"`
	UseActualParamName               bool                  `yaml:"useActualParamName" json:"useActualParamName"`
	ReturnInstanceForEmptyRow        bool                  `yaml:"returnInstanceForEmptyRow" json:"returnInstanceForEmptyRow"`
	LogPrefix                        string                `yaml:"logPrefix,omitempty" json:"logPrefix,omitempty"`
	LogImpl                          string                `yaml:"logImpl,omitempty" json:"logImpl,omitempty"`
	ShrinkWhitespacesInSQL           bool                  `yaml:"shrinkWhitespacesInSql" json:"shrinkWhitespacesInSql"`
	NullableOnForEach                bool                  `yaml:"nullableOnForEach" json:"nullableOnForEach"`
	ArgNameBasedConstructorAutoMap   bool                  `yaml:"argNameBasedConstructorAutoMapping" json:"argNameBasedConstructorAutoMapping"`
	DefaultScriptingLanguage         string                `yaml:"defaultScriptingLanguage,omitempty" json:"defaultScriptingLanguage,omitempty"`
	DefaultEnumTypeHandler           string                `yaml:"defaultEnumTypeHandler,omitempty" json:"defaultEnumTypeHandler,omitempty"`
}

// DefaultSettings returns the settings used when a document declares none.
func DefaultSettings() Settings {
	return Settings{
		CacheEnabled:                     true,
		MultipleResultSetsEnabled:        true,
		UseColumnLabel:                   true,
		AutoMappingBehavior:              AutoMappingPartial,
		AutoMappingUnknownColumnBehavior: UnknownColumnNone,
		DefaultExecutorType:              ExecutorSimple,
		SafeResultHandlerEnabled:         true,
		LocalCacheScope:                  LocalCacheSession,
		JdbcTypeForNull:                  "OTHER",
		LazyLoadTriggerMethods:           []string{"equals", "clone", "hashCode", "toString"},
		UseActualParamName:               true,
	}
}

type setting struct {
	set func(s *Settings, value string) error
	get func(s *Settings) string
}

func boolSetting(field func(s *Settings) *bool) setting {
	return setting{
		set: func(s *Settings, value string) error {
			b, err := cast.ToBoolE(strings.TrimSpace(value))
			if err != nil {
				return err
			}

			*field(s) = b

			return nil
		},
		get: func(s *Settings) string { return strconv.FormatBool(*field(s)) },
	}
}

func optionalIntSetting(field func(s *Settings) **int) setting {
	return setting{
		set: func(s *Settings, value string) error {
			n, err := cast.ToIntE(strings.TrimSpace(value))
			if err != nil {
				return err
			}

			*field(s) = &n

			return nil
		},
		get: func(s *Settings) string {
			if p := *field(s); p != nil {
				return strconv.Itoa(*p)
			}

			return ""
		},
	}
}

func stringSetting(field func(s *Settings) *string) setting {
	return setting{
		set: func(s *Settings, value string) error {
			*field(s) = value
			return nil
		},
		get: func(s *Settings) string { return *field(s) },
	}
}

func enumSetting[T ~string](field func(s *Settings) *T, allowed ...T) setting {
	return setting{
		set: func(s *Settings, value string) error {
			v := T(strings.ToUpper(strings.TrimSpace(value)))
			for _, a := range allowed {
				if v == a {
					*field(s) = v
					return nil
				}
			}

			return fmt.Errorf("expected one of %v", allowed)
		},
		get: func(s *Settings) string { return string(*field(s)) },
	}
}

var settingTable = map[string]setting{
	"cacheEnabled":              boolSetting(func(s *Settings) *bool { return &s.CacheEnabled }),
	"lazyLoadingEnabled":        boolSetting(func(s *Settings) *bool { return &s.LazyLoadingEnabled }),
	"aggressiveLazyLoading":     boolSetting(func(s *Settings) *bool { return &s.AggressiveLazyLoading }),
	"multipleResultSetsEnabled": boolSetting(func(s *Settings) *bool { return &s.MultipleResultSetsEnabled }),
	"useColumnLabel":            boolSetting(func(s *Settings) *bool { return &s.UseColumnLabel }),
	"useGeneratedKeys":          boolSetting(func(s *Settings) *bool { return &s.UseGeneratedKeys }),
	"autoMappingBehavior": enumSetting(func(s *Settings) *AutoMappingBehavior { return &s.AutoMappingBehavior },
		AutoMappingNone, AutoMappingPartial, AutoMappingFull),
	"autoMappingUnknownColumnBehavior": enumSetting(
		func(s *Settings) *UnknownColumnBehavior { return &s.AutoMappingUnknownColumnBehavior },
		UnknownColumnNone, UnknownColumnWarning, UnknownColumnFailing),
	"defaultExecutorType": enumSetting(func(s *Settings) *ExecutorType { return &s.DefaultExecutorType },
		ExecutorSimple, ExecutorReuse, ExecutorBatch),
	"defaultStatementTimeout": optionalIntSetting(func(s *Settings) **int { return &s.DefaultStatementTimeout }),
	"defaultFetchSize":        optionalIntSetting(func(s *Settings) **int { return &s.DefaultFetchSize }),
	"defaultResultSetType": enumSetting(func(s *Settings) *ResultSetType { return &s.DefaultResultSetType },
		ResultSetDefault, ResultSetForwardOnly, ResultSetScrollInsensitive, ResultSetScrollSensitive),
	"mapUnderscoreToCamelCase": boolSetting(func(s *Settings) *bool { return &s.MapUnderscoreToCamelCase }),
	"safeRowBoundsEnabled":     boolSetting(func(s *Settings) *bool { return &s.SafeRowBoundsEnabled }),
	"safeResultHandlerEnabled": boolSetting(func(s *Settings) *bool { return &s.SafeResultHandlerEnabled }),
	"localCacheScope": enumSetting(func(s *Settings) *LocalCacheScope { return &s.LocalCacheScope },
		LocalCacheSession, LocalCacheStatement),
	"jdbcTypeForNull": {
		set: func(s *Settings, value string) error {
			t, err := ParseJdbcType(strings.TrimSpace(value))
			if err != nil {
				return err
			}

			s.JdbcTypeForNull = t

			return nil
		},
		get: func(s *Settings) string { return string(s.JdbcTypeForNull) },
	},
	"lazyLoadTriggerMethods": {
		set: func(s *Settings, value string) error {
			var methods []string
			for _, m := range strings.Split(value, ",") {
				if m = strings.TrimSpace(m); m != "" {
					methods = append(methods, m)
				}
			}

			s.LazyLoadTriggerMethods = methods

			return nil
		},
		get: func(s *Settings) string { return strings.Join(s.LazyLoadTriggerMethods, ",") },
	},
	"callSettersOnNulls":        boolSetting(func(s *Settings) *bool { return &s.CallSettersOnNulls }),
	"useActualParamName":        boolSetting(func(s *Settings) *bool { return &s.UseActualParamName }),
	"returnInstanceForEmptyRow": boolSetting(func(s *Settings) *bool { return &s.ReturnInstanceForEmptyRow }),
	"logPrefix":                 stringSetting(func(s *Settings) *string { return &s.LogPrefix }),
	"logImpl":                   stringSetting(func(s *Settings) *string { return &s.LogImpl }),
	"shrinkWhitespacesInSql":    boolSetting(func(s *Settings) *bool { return &s.ShrinkWhitespacesInSQL }),
	"nullableOnForEach":         boolSetting(func(s *Settings) *bool { return &s.NullableOnForEach }),
	"argNameBasedConstructorAutoMapping": boolSetting(
		func(s *Settings) *bool { return &s.ArgNameBasedConstructorAutoMap }),
	"defaultScriptingLanguage": stringSetting(func(s *Settings) *string { return &s.DefaultScriptingLanguage }),
	"defaultEnumTypeHandler":   stringSetting(func(s *Settings) *string { return &s.DefaultEnumTypeHandler }),
}

// SettingNames returns every recognized setting name, sorted.
func SettingNames() []string {
	names := make([]string, 0, len(settingTable))
	for name := range settingTable {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// IsSetting reports whether name is a recognized setting.
func IsSetting(name string) bool {
	_, ok := settingTable[name]
	return ok
}

// Apply sets one setting from its textual value. Names are case-sensitive.
func (s *Settings) Apply(name, value string) error {
	def, ok := settingTable[name]
	if !ok {
		return wrapf(ErrUnknownSetting, "%q", name)
	}

	if err := def.set(s, value); err != nil {
		return wrapf(ErrInvalidSetting, "%s=%q: %v", name, value, err)
	}

	return nil
}

// Get returns the textual value of one setting.
func (s *Settings) Get(name string) (string, bool) {
	def, ok := settingTable[name]
	if !ok {
		return "", false
	}

	return def.get(s), true
}

// Values returns every setting rendered as text, keyed by name.
func (s *Settings) Values() map[string]string {
	out := make(map[string]string, len(settingTable))
	for name, def := range settingTable {
		out[name] = def.get(s)
	}

	return out
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	c := s
	c.LazyLoadTriggerMethods = append([]string(nil), s.LazyLoadTriggerMethods...)

	if s.DefaultStatementTimeout != nil {
		v := *s.DefaultStatementTimeout
		c.DefaultStatementTimeout = &v
	}

	if s.DefaultFetchSize != nil {
		v := *s.DefaultFetchSize
		c.DefaultFetchSize = &v
	}

	return c
}
