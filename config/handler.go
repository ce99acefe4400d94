package config

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"

	"sqlmap-builder/primitive"
)

// JdbcType names a column type as written in mapper documents.
type JdbcType string

// JdbcUndefined marks handlers that apply to any column type.
const JdbcUndefined JdbcType = ""

var jdbcTypes = map[JdbcType]struct{}{
	"ARRAY": {}, "BIT": {}, "TINYINT": {}, "SMALLINT": {}, "INTEGER": {}, "BIGINT": {},
	"FLOAT": {}, "REAL": {}, "DOUBLE": {}, "NUMERIC": {}, "DECIMAL": {}, "CHAR": {},
	"VARCHAR": {}, "LONGVARCHAR": {}, "DATE": {}, "TIME": {}, "TIMESTAMP": {}, "BINARY": {},
	"VARBINARY": {}, "LONGVARBINARY": {}, "NULL": {}, "OTHER": {}, "BLOB": {}, "CLOB": {},
	"BOOLEAN": {}, "CURSOR": {}, "UNDEFINED": {}, "NVARCHAR": {}, "NCHAR": {}, "NCLOB": {},
	"STRUCT": {}, "JAVA_OBJECT": {}, "DISTINCT": {}, "REF": {}, "DATALINK": {}, "ROWID": {},
	"LONGNVARCHAR": {}, "SQLXML": {}, "DATETIMEOFFSET": {}, "TIME_WITH_TIMEZONE": {},
	"TIMESTAMP_WITH_TIMEZONE": {},
}

// ParseJdbcType validates a jdbc type name. The empty string parses to
// JdbcUndefined.
func ParseJdbcType(name string) (JdbcType, error) {
	if name == "" {
		return JdbcUndefined, nil
	}

	t := JdbcType(strings.ToUpper(name))
	if _, ok := jdbcTypes[t]; !ok {
		return JdbcUndefined, fmt.Errorf("unknown jdbc type %q", name)
	}

	return t, nil
}

// JdbcTypeNames returns every known jdbc type name, sorted.
func JdbcTypeNames() []string {
	names := make([]string, 0, len(jdbcTypes))
	for t := range jdbcTypes {
		names = append(names, string(t))
	}

	sort.Strings(names)

	return names
}

// TypeHandler converts between Go values and driver values for one Go type.
type TypeHandler interface {
	// Bind converts a Go value into a driver argument.
	Bind(v any) (driver.Value, error)
	// Scan converts a column value into the handler's Go type.
	Scan(src any) (any, error)
}

// GoTyped is implemented by handlers that know the Go type they serve, so
// they can be registered without an explicit javaType.
type GoTyped interface {
	GoType() reflect.Type
}

type handlerKey struct {
	typeName string
	jdbc     JdbcType
}

// TypeHandlerRegistry maps (Go type, jdbc type) pairs to handlers.
type TypeHandlerRegistry struct {
	frozen   atomic.Bool
	handlers map[handlerKey]TypeHandler
	byJdbc   map[JdbcType]TypeHandler
}

// NewTypeHandlerRegistry returns a registry with a handler for every
// primitive kind.
func NewTypeHandlerRegistry() *TypeHandlerRegistry {
	r := &TypeHandlerRegistry{
		handlers: make(map[handlerKey]TypeHandler),
		byJdbc:   make(map[JdbcType]TypeHandler),
	}

	for _, kind := range primitive.Kinds() {
		rt := kind.ReflectType()
		if rt == nil {
			continue
		}

		r.handlers[handlerKey{typeName: QualifiedTypeName(rt), jdbc: JdbcUndefined}] = PrimitiveHandler(kind)
	}

	return r
}

// Register binds h to the Go type and jdbc type. An empty Go type registers
// h for the jdbc type alone.
func (r *TypeHandlerRegistry) Register(goType TypeRef, jdbc JdbcType, h TypeHandler) error {
	if r.frozen.Load() {
		return ErrFrozen
	}

	if goType.IsZero() {
		if jdbc == JdbcUndefined {
			return fmt.Errorf("type handler %T needs a Go type or a jdbc type", h)
		}

		r.byJdbc[jdbc] = h

		return nil
	}

	r.handlers[handlerKey{typeName: goType.Name, jdbc: jdbc}] = h

	return nil
}

// Lookup finds the handler for a Go type and jdbc type, falling back to the
// handler registered for the Go type alone, then for the jdbc type alone.
func (r *TypeHandlerRegistry) Lookup(goType TypeRef, jdbc JdbcType) (TypeHandler, bool) {
	if h, ok := r.handlers[handlerKey{typeName: goType.Name, jdbc: jdbc}]; ok {
		return h, true
	}

	if h, ok := r.handlers[handlerKey{typeName: goType.Name, jdbc: JdbcUndefined}]; ok {
		return h, true
	}

	if jdbc != JdbcUndefined {
		if h, ok := r.byJdbc[jdbc]; ok {
			return h, true
		}
	}

	return enumHandlerFor(goType.Type)
}

// Len returns the number of registrations.
func (r *TypeHandlerRegistry) Len() int {
	return len(r.handlers) + len(r.byJdbc)
}

func (r *TypeHandlerRegistry) freeze() {
	r.frozen.Store(true)
}

// PrimitiveHandler returns the built-in handler for a primitive kind.
func PrimitiveHandler(kind primitive.KindEnum) TypeHandler {
	return primitiveHandler{kind: kind}
}

type primitiveHandler struct {
	kind primitive.KindEnum
}

func (h primitiveHandler) GoType() reflect.Type {
	return h.kind.ReflectType()
}

func (h primitiveHandler) Bind(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case h.kind.IsSigned():
		return cast.ToInt64E(v)
	case h.kind.IsUnsigned():
		u, err := cast.ToUint64E(v)
		if err != nil {
			return nil, err
		}

		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}

		return int64(u), nil
	case h.kind.IsFloat():
		return cast.ToFloat64E(v)
	}

	switch h.kind {
	case primitive.KindBool:
		return cast.ToBoolE(v)
	case primitive.KindString:
		return cast.ToStringE(v)
	case primitive.KindTime:
		return cast.ToTimeE(v)
	case primitive.KindDuration:
		d, err := cast.ToDurationE(v)
		return int64(d), err
	case primitive.KindBytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}

		s, err := cast.ToStringE(v)

		return []byte(s), err
	default:
		return nil, fmt.Errorf("no primitive conversion for %s", h.kind)
	}
}

func (h primitiveHandler) Scan(src any) (any, error) {
	if src == nil {
		return nil, nil
	}

	if h.kind.IsNumber() {
		return h.scanNumber(src)
	}

	switch h.kind {
	case primitive.KindBool:
		return cast.ToBoolE(src)
	case primitive.KindString:
		if b, ok := src.([]byte); ok {
			return string(b), nil
		}

		return cast.ToStringE(src)
	case primitive.KindTime:
		return cast.ToTimeE(src)
	case primitive.KindDuration:
		if n, ok := src.(int64); ok {
			return time.Duration(n), nil
		}

		return cast.ToDurationE(src)
	case primitive.KindBytes:
		if b, ok := src.([]byte); ok {
			return append([]byte(nil), b...), nil
		}

		s, err := cast.ToStringE(src)

		return []byte(s), err
	default:
		return nil, fmt.Errorf("no primitive conversion for %s", h.kind)
	}
}

// scanNumber converts src through the widest type of its family and rejects
// values that do not fit the handler's kind.
func (h primitiveHandler) scanNumber(src any) (any, error) {
	rt, bits := h.kind.ReflectType(), h.kind.Bits()

	if !h.kind.IsInteger() {
		f, err := cast.ToFloat64E(src)
		if err != nil {
			return nil, err
		}

		if bits == 32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("value %g overflows %s", f, rt)
		}

		return reflect.ValueOf(f).Convert(rt).Interface(), nil
	}

	if h.kind.IsSigned() {
		n, err := cast.ToInt64E(src)
		if err != nil {
			return nil, err
		}

		if bits < 64 && (n < -1<<(bits-1) || n >= 1<<(bits-1)) {
			return nil, fmt.Errorf("value %d overflows %s", n, rt)
		}

		return reflect.ValueOf(n).Convert(rt).Interface(), nil
	}

	u, err := cast.ToUint64E(src)
	if err != nil {
		return nil, err
	}

	if bits < 64 && u >= 1<<bits {
		return nil, fmt.Errorf("value %d overflows %s", u, rt)
	}

	return reflect.ValueOf(u).Convert(rt).Interface(), nil
}

// enumHandler serves named integer and string types through the handler of
// their underlying family.
type enumHandler struct {
	rt   reflect.Type
	base primitiveHandler
}

func enumHandlerFor(rt reflect.Type) (TypeHandler, bool) {
	if primitive.FromReflectType(rt) != primitive.KindPrimitiveEnum {
		return nil, false
	}

	base := primitiveHandler{kind: primitive.KindInt64}
	if rt.Kind() == reflect.String {
		base.kind = primitive.KindString
	}

	return enumHandler{rt: rt, base: base}, true
}

func (h enumHandler) GoType() reflect.Type {
	return h.rt
}

func (h enumHandler) Bind(v any) (driver.Value, error) {
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Type() == h.rt {
		v = rv.Convert(h.base.kind.ReflectType()).Interface()
	}

	return h.base.Bind(v)
}

func (h enumHandler) Scan(src any) (any, error) {
	v, err := h.base.Scan(src)
	if err != nil || v == nil {
		return v, err
	}

	if n, ok := v.(int64); ok && reflect.Zero(h.rt).OverflowInt(n) {
		return nil, fmt.Errorf("value %d overflows %s", n, h.rt)
	}

	return reflect.ValueOf(v).Convert(h.rt).Interface(), nil
}
