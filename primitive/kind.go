package primitive

import (
	"math"
	"reflect"
	"strconv"
	"time"
)

// KindEnum classifies the Go types that have a built-in type handler.
type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindBytes
	KindPrimitiveEnum // alias to any integer number or string

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

var kindNames = [...]string{
	KindInt:           "KindInt",
	KindInt8:          "KindInt8",
	KindInt16:         "KindInt16",
	KindInt32:         "KindInt32",
	KindInt64:         "KindInt64",
	KindUint:          "KindUint",
	KindUint8:         "KindUint8",
	KindUint16:        "KindUint16",
	KindUint32:        "KindUint32",
	KindUint64:        "KindUint64",
	KindFloat32:       "KindFloat32",
	KindFloat64:       "KindFloat64",
	KindBool:          "KindBool",
	KindString:        "KindString",
	KindTime:          "KindTime",
	KindDuration:      "KindDuration",
	KindBytes:         "KindBytes",
	KindPrimitiveEnum: "KindPrimitiveEnum",
}

func (k KindEnum) String() string {
	if k <= 0 || int(k) >= KindTotal {
		return "KindEnum(" + strconv.Itoa(int(k)) + ")"
	}

	return kindNames[k]
}

// IsValid reports whether k is one of the declared kinds.
func (k KindEnum) IsValid() bool {
	return k > 0 && int(k) < KindTotal
}

func (k KindEnum) IsNumber() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint, KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64:
		return true
	}
}

func (k KindEnum) IsInteger() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindFloat32, KindFloat64:
		return true
	}
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
}

func (k KindEnum) IsUnsigned() bool {
	switch k {
	default:
		return false
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

func (k KindEnum) Bits() int {
	switch k {
	default:
		panic("only number kinds has meaningful bits amount, but requested for: " + k.String())
	case KindInt, KindUint:
		power := 0
		for n := uint(math.MaxUint); n > 0; n >>= 1 {
			power++
		}
		return power
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32:
		return 32
	case KindInt64, KindUint64:
		return 64
	case KindFloat32:
		return 32
	case KindFloat64:
		return 64
	}
}

var kindTypes = map[KindEnum]reflect.Type{
	KindInt:      reflect.TypeOf(int(0)),
	KindInt8:     reflect.TypeOf(int8(0)),
	KindInt16:    reflect.TypeOf(int16(0)),
	KindInt32:    reflect.TypeOf(int32(0)),
	KindInt64:    reflect.TypeOf(int64(0)),
	KindUint:     reflect.TypeOf(uint(0)),
	KindUint8:    reflect.TypeOf(uint8(0)),
	KindUint16:   reflect.TypeOf(uint16(0)),
	KindUint32:   reflect.TypeOf(uint32(0)),
	KindUint64:   reflect.TypeOf(uint64(0)),
	KindFloat32:  reflect.TypeOf(float32(0)),
	KindFloat64:  reflect.TypeOf(float64(0)),
	KindBool:     reflect.TypeOf(false),
	KindString:   reflect.TypeOf(""),
	KindTime:     reflect.TypeOf(time.Time{}),
	KindDuration: reflect.TypeOf(time.Duration(0)),
	KindBytes:    reflect.TypeOf([]byte(nil)),
}

// ReflectType returns the canonical Go type of a kind, or nil for
// KindPrimitiveEnum and invalid kinds.
func (k KindEnum) ReflectType() reflect.Type {
	return kindTypes[k]
}

func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	// check if true primitive type
	for kind, t := range kindTypes {
		if t == rtype {
			return kind
		}
	}

	// check if it's a primitive enum type
	switch rtype.Kind() {
	default:
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.String:
		return KindPrimitiveEnum
	}
}

// Kinds returns every valid kind in declaration order.
func Kinds() []KindEnum {
	kinds := make([]KindEnum, 0, KindTotal-1)
	for k := KindEnum(1); int(k) < KindTotal; k++ {
		kinds = append(kinds, k)
	}

	return kinds
}
