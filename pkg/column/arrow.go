package column

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/quasar/pkg/dictionary"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

// FromArrow wraps an existing Arrow array as a column, recomputing
// statistics from the data. Enum columns must bring their dictionary;
// every code in the array has to resolve against it. The column retains
// the array.
func FromArrow(name string, typ infer.ColumnType, data arrow.Array, dict *dictionary.Dictionary) (*Column, error) {
	want := ArrowType(typ)
	if !arrow.TypeEqual(data.DataType(), want) {
		return nil, errors.New(errors.ErrorTypeTypeMismatch,
			"array type "+data.DataType().String()+" does not match "+
				typ.String()+" (expects "+want.String()+")")
	}
	if typ == infer.TypeEnum && dict == nil {
		return nil, errors.New(errors.ErrorTypeValidation,
			"enum column "+name+" requires a dictionary")
	}
	if typ != infer.TypeEnum {
		dict = nil
	}

	col := &Column{
		name: name,
		typ:  typ,
		data: data,
		dict: dict,
	}

	agg := stats.NewAggregator(typ, 0)
	for i := 0; i < data.Len(); i++ {
		v, err := col.Value(i)
		if err != nil {
			return nil, err
		}
		if err := agg.Observe(v); err != nil {
			return nil, err
		}
	}
	col.stats = agg

	data.Retain()
	return col, nil
}
