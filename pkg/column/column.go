// Package column builds and merges typed columns backed by Arrow arrays.
// A column pairs an inferred type with a contiguous Arrow array, an
// optional dictionary for enum columns, and incrementally tracked
// statistics.
package column

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/quasar/pkg/dictionary"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

// Column is an immutable typed column. Enum columns own their dictionary;
// codes in the array are only meaningful against it. The backing Arrow
// array is reference counted, so callers that are done with a column must
// Release it.
type Column struct {
	name  string
	typ   infer.ColumnType
	data  arrow.Array
	dict  *dictionary.Dictionary
	stats *stats.Aggregator
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column's logical type.
func (c *Column) Type() infer.ColumnType { return c.typ }

// Len returns the number of rows.
func (c *Column) Len() int { return c.data.Len() }

// NullCount returns the number of null rows.
func (c *Column) NullCount() int { return c.data.NullN() }

// Data returns the backing Arrow array without transferring ownership.
func (c *Column) Data() arrow.Array { return c.data }

// Dictionary returns the enum dictionary, nil for non-enum columns.
func (c *Column) Dictionary() *dictionary.Dictionary { return c.dict }

// Stats returns the column's statistics aggregator.
func (c *Column) Stats() *stats.Aggregator { return c.stats }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.data.IsNull(i) }

// Release drops the column's reference on its Arrow array.
func (c *Column) Release() {
	if c.data != nil {
		c.data.Release()
	}
}

// ArrowType maps a logical column type onto its Arrow physical type.
// Enum columns store dense uint32 codes; the dictionary lives on the
// Column, not in the Arrow type, so merge remapping stays in our hands.
// IPAddr is a 4- or 16-byte binary value, DateTime a second-resolution
// UTC timestamp.
func ArrowType(t infer.ColumnType) arrow.DataType {
	switch t {
	case infer.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case infer.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case infer.TypeUInt64:
		return arrow.PrimitiveTypes.Uint64
	case infer.TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case infer.TypeDateTime:
		return &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}
	case infer.TypeEnum:
		return arrow.PrimitiveTypes.Uint32
	case infer.TypeIPAddr, infer.TypeBinary:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

// Value returns the typed value at row i.
func (c *Column) Value(i int) (infer.Value, error) {
	if i < 0 || i >= c.data.Len() {
		return infer.Value{}, errors.New(errors.ErrorTypeValidation,
			"row index out of range: "+strconv.Itoa(i))
	}
	if c.data.IsNull(i) {
		return infer.Value{Type: c.typ, Null: true}, nil
	}

	v := infer.Value{Type: c.typ}
	switch c.typ {
	case infer.TypeBool:
		v.Bool = c.data.(*array.Boolean).Value(i)
	case infer.TypeInt64:
		v.Int = c.data.(*array.Int64).Value(i)
	case infer.TypeUInt64:
		v.Uint = c.data.(*array.Uint64).Value(i)
	case infer.TypeFloat64:
		v.Float = c.data.(*array.Float64).Value(i)
	case infer.TypeDateTime:
		v.Int = int64(c.data.(*array.Timestamp).Value(i))
	case infer.TypeEnum:
		code := c.data.(*array.Uint32).Value(i)
		category, ok := c.dict.Value(code)
		if !ok {
			return infer.Value{}, errors.New(errors.ErrorTypeInternal,
				"enum code not in dictionary: "+strconv.FormatUint(uint64(code), 10))
		}
		v.Uint = uint64(code)
		v.Str = category
	case infer.TypeIPAddr, infer.TypeBinary:
		v.Bytes = c.data.(*array.Binary).Value(i)
	default:
		v.Str = c.data.(*array.String).Value(i)
	}
	return v, nil
}

// ValueString renders row i as canonical text. The second return is
// false for null rows.
func (c *Column) ValueString(i int) (string, bool) {
	if c.data.IsNull(i) {
		return "", false
	}
	v, err := c.Value(i)
	if err != nil {
		return "", false
	}
	return RenderValue(v), true
}

// RenderValue is ValueString for an already-extracted value.
func RenderValue(v infer.Value) string { return v.Render() }
