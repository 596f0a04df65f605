// Package infer provides value classification and column type inference.
// Given raw text values with no declared schema, it determines the most
// specific type in a closed lattice that a column's values fit, under a
// configurable acceptance threshold.
package infer

import (
	"github.com/ajitpratap0/quasar/pkg/errors"
)

// ColumnType is the closed set of types a column can take. The zero value
// is TypeUtf8, the universal fallback, so an unset type is always safe.
type ColumnType int

const (
	// TypeUtf8 is free text, the universal fallback
	TypeUtf8 ColumnType = iota
	// TypeBool is a boolean from a closed literal set
	TypeBool
	// TypeInt64 is a signed 64-bit integer
	TypeInt64
	// TypeUInt64 is an unsigned 64-bit integer
	TypeUInt64
	// TypeFloat64 is a 64-bit float
	TypeFloat64
	// TypeDateTime is a timestamp, stored as epoch seconds in UTC
	TypeDateTime
	// TypeIPAddr is an IPv4 or IPv6 address
	TypeIPAddr
	// TypeEnum is dictionary-encoded categorical text with bounded cardinality
	TypeEnum
	// TypeBinary is an opaque byte sequence
	TypeBinary
)

// String returns the snake_case name of the type.
func (t ColumnType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeUInt64:
		return "uint64"
	case TypeFloat64:
		return "float64"
	case TypeDateTime:
		return "datetime"
	case TypeIPAddr:
		return "ip_addr"
	case TypeEnum:
		return "enum"
	case TypeUtf8:
		return "utf8"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Candidates lists every inferable type in specificity order. Inference
// walks this list and accepts the first candidate whose success ratio
// meets the threshold; the order is the sole tie-break. Binary is absent:
// it classifies anything, so it is never inferred, only requested.
var Candidates = []ColumnType{
	TypeBool,
	TypeInt64,
	TypeUInt64,
	TypeFloat64,
	TypeDateTime,
	TypeIPAddr,
	TypeEnum,
	TypeUtf8,
}

// Ordered reports whether min/max/mean/variance statistics apply to the
// type. Bool, Enum, Utf8, IPAddr and Binary only track counts.
func (t ColumnType) Ordered() bool {
	switch t {
	case TypeInt64, TypeUInt64, TypeFloat64, TypeDateTime:
		return true
	default:
		return false
	}
}

// Widen returns the least upper bound of two column types under the
// widening lattice:
//
//	Bool < Int64 < Float64
//	Bool < UInt64 < Float64
//	everything non-Binary < Utf8 < Binary
//
// Enum joined with Enum stays Enum; the dictionaries are unioned by the
// merger, which falls back to Utf8 on cardinality overflow. Every other
// mixed pair widens to Utf8. The lattice is total: a result exists for
// all pairs, and values of either input always re-classify under it.
func Widen(a, b ColumnType) ColumnType {
	if a == b {
		return a
	}
	// Binary is the top of the lattice
	if a == TypeBinary || b == TypeBinary {
		return TypeBinary
	}
	if a == TypeUtf8 || b == TypeUtf8 {
		return TypeUtf8
	}

	switch {
	case a == TypeBool:
		return widenFromBool(b)
	case b == TypeBool:
		return widenFromBool(a)
	case (a == TypeInt64 || a == TypeUInt64 || a == TypeFloat64) &&
		(b == TypeInt64 || b == TypeUInt64 || b == TypeFloat64):
		// Int64 and UInt64 are incomparable; Float64 covers both.
		return TypeFloat64
	default:
		// DateTime, IPAddr, Enum against anything else
		return TypeUtf8
	}
}

func widenFromBool(other ColumnType) ColumnType {
	switch other {
	case TypeInt64, TypeUInt64, TypeFloat64:
		return other
	default:
		return TypeUtf8
	}
}

// WidenAll folds Widen over a set of types. An empty set yields Utf8.
func WidenAll(types ...ColumnType) ColumnType {
	if len(types) == 0 {
		return TypeUtf8
	}
	widened := types[0]
	for _, t := range types[1:] {
		widened = Widen(widened, t)
	}
	return widened
}

// ParseColumnType parses a snake_case type name.
func ParseColumnType(s string) (ColumnType, error) {
	for _, t := range []ColumnType{
		TypeBool, TypeInt64, TypeUInt64, TypeFloat64,
		TypeDateTime, TypeIPAddr, TypeEnum, TypeUtf8, TypeBinary,
	} {
		if t.String() == s {
			return t, nil
		}
	}
	return TypeUtf8, errors.New(errors.ErrorTypeValidation, "unknown column type: "+s)
}
