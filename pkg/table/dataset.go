// Package table assembles typed columns into datasets with a uniform row
// count and merges datasets by widening their schemas. It is the top of
// the build pipeline: raw named columns go in, an Arrow-backed dataset
// comes out.
package table

import (
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/quasar/pkg/column"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/json"
	"github.com/ajitpratap0/quasar/pkg/stats"
	stringpool "github.com/ajitpratap0/quasar/pkg/strings"
)

// Metadata keys attached to Arrow schema fields so a dataset's logical
// types and enum dictionaries survive a trip through Arrow IPC.
const (
	MetaTypeKey       = "quasar.type"
	MetaDictionaryKey = "quasar.dictionary"
)

// Dataset is an ordered collection of equal-length columns with unique
// names. Datasets are immutable once constructed.
type Dataset struct {
	columns []*column.Column
	byName  map[string]int
	rows    int
}

// NewDataset validates and wraps a set of columns. Every column must
// have the same length, and names must be unique. The dataset takes
// ownership of the columns; Release frees them.
func NewDataset(columns ...*column.Column) (*Dataset, error) {
	d := &Dataset{
		columns: columns,
		byName:  make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := d.byName[col.Name()]; dup {
			return nil, errors.New(errors.ErrorTypeSchemaConflict,
				"duplicate column name: "+col.Name())
		}
		d.byName[col.Name()] = i
		if i == 0 {
			d.rows = col.Len()
		} else if col.Len() != d.rows {
			return nil, errors.New(errors.ErrorTypeValidation,
				stringpool.Concat("column ", col.Name(), " has ",
					strconv.Itoa(col.Len()), " rows, expected ", strconv.Itoa(d.rows)))
		}
	}
	return d, nil
}

// NumRows returns the uniform row count.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.columns) }

// Columns returns the columns in schema order. The slice is shared.
func (d *Dataset) Columns() []*column.Column { return d.columns }

// Column returns the named column.
func (d *Dataset) Column(name string) (*column.Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Names returns the column names in schema order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name()
	}
	return names
}

// Release frees every column's Arrow array.
func (d *Dataset) Release() {
	for _, col := range d.columns {
		col.Release()
	}
}

// Schema builds the Arrow schema for the dataset. Logical types and enum
// dictionaries ride along as field metadata.
func (d *Dataset) Schema() (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(d.columns))
	for i, col := range d.columns {
		keys := []string{MetaTypeKey}
		values := []string{col.Type().String()}
		if dict := col.Dictionary(); dict != nil {
			buf, err := json.MarshalToBuffer(dict.Snapshot())
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal,
					"encode dictionary for column "+col.Name())
			}
			// The buffered encoder terminates with a newline.
			encoded := strings.TrimSuffix(buf.String(), "\n")
			json.PutBuffer(buf)
			keys = append(keys, MetaDictionaryKey)
			values = append(values, encoded)
		}
		fields[i] = arrow.Field{
			Name:     col.Name(),
			Type:     column.ArrowType(col.Type()),
			Nullable: true,
			Metadata: arrow.NewMetadata(keys, values),
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

// Record exposes the dataset as an Arrow record batch. The record
// retains the column arrays; callers release it independently of the
// dataset.
func (d *Dataset) Record() (arrow.Record, error) {
	schema, err := d.Schema()
	if err != nil {
		return nil, err
	}
	arrays := make([]arrow.Array, len(d.columns))
	for i, col := range d.columns {
		arrays[i] = col.Data()
	}
	return array.NewRecord(schema, arrays, int64(d.rows)), nil
}

// Stats returns a statistics snapshot per column, keyed by name.
func (d *Dataset) Stats() map[string]stats.Snapshot {
	out := make(map[string]stats.Snapshot, len(d.columns))
	for _, col := range d.columns {
		out[col.Name()] = col.Stats().Snapshot()
	}
	return out
}

// Types returns each column's logical type keyed by name.
func (d *Dataset) Types() map[string]infer.ColumnType {
	out := make(map[string]infer.ColumnType, len(d.columns))
	for _, col := range d.columns {
		out[col.Name()] = col.Type()
	}
	return out
}
