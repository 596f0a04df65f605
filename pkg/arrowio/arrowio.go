// Package arrowio serializes datasets through Arrow IPC. Logical types
// and enum dictionaries travel as field metadata, so a dataset survives
// the trip with its semantics intact, not just its physical arrays.
// Dataset files can additionally be compressed with any codec from
// pkg/compression.
package arrowio

import (
	"bytes"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/quasar/pkg/column"
	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/dictionary"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/json"
	"github.com/ajitpratap0/quasar/pkg/pool"
	"github.com/ajitpratap0/quasar/pkg/table"
)

// fileMagic prefixes compressed dataset files, followed by one byte
// naming the codec.
var fileMagic = []byte("QSAR")

var algoCodes = map[compression.Algorithm]byte{
	compression.None:   0,
	compression.Gzip:   1,
	compression.Snappy: 2,
	compression.LZ4:    3,
	compression.Zstd:   4,
}

// WriteDataset streams the dataset to w in Arrow IPC file format as a
// single record batch.
func WriteDataset(w io.Writer, ds *table.Dataset) error {
	rec, err := ds.Record()
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w,
		ipc.WithSchema(rec.Schema()),
		ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "write record batch")
	}
	return fw.Close()
}

// EncodeDataset renders the dataset as Arrow IPC bytes. The encode
// scratch comes from the shared buffer pool; IPC payloads are
// short-lived and sized similarly across batches.
func EncodeDataset(ds *table.Dataset) ([]byte, error) {
	scratch := pool.GlobalBufferPool.Get(64 * 1024)
	defer pool.GlobalBufferPool.Put(scratch)

	buf := bytes.NewBuffer(scratch[:0])
	if err := WriteDataset(buf, ds); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// DecodeDataset reconstructs a dataset from Arrow IPC bytes. Statistics
// are recomputed from the data; enum dictionaries are restored from
// field metadata.
func DecodeDataset(data []byte) (*table.Dataset, error) {
	reader, err := ipc.NewFileReader(bytes.NewReader(data),
		ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "open arrow file")
	}
	defer reader.Close()

	schema := reader.Schema()
	chunks := make([][]arrow.Array, schema.NumFields())
	releaseChunks := func() {
		for _, arrays := range chunks {
			for _, a := range arrays {
				a.Release()
			}
		}
	}

	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			releaseChunks()
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "read record batch")
		}
		for f := 0; f < int(rec.NumCols()); f++ {
			arr := rec.Column(f)
			arr.Retain()
			chunks[f] = append(chunks[f], arr)
		}
		rec.Release()
	}

	columns := make([]*column.Column, 0, schema.NumFields())
	releaseColumns := func() {
		for _, col := range columns {
			col.Release()
		}
	}

	for f := 0; f < schema.NumFields(); f++ {
		field := schema.Field(f)

		typ, dict, err := fieldSemantics(field)
		if err != nil {
			releaseChunks()
			releaseColumns()
			return nil, err
		}

		var data arrow.Array
		switch len(chunks[f]) {
		case 0:
			releaseChunks()
			releaseColumns()
			return nil, errors.New(errors.ErrorTypeValidation,
				"no record batches for column "+field.Name)
		case 1:
			data = chunks[f][0]
			data.Retain()
		default:
			data, err = array.Concatenate(chunks[f], memory.DefaultAllocator)
			if err != nil {
				releaseChunks()
				releaseColumns()
				return nil, errors.Wrap(err, errors.ErrorTypeInternal,
					"concatenate batches for column "+field.Name)
			}
		}

		col, err := column.FromArrow(field.Name, typ, data, dict)
		data.Release()
		if err != nil {
			releaseChunks()
			releaseColumns()
			return nil, err
		}
		columns = append(columns, col)
	}
	releaseChunks()

	ds, err := table.NewDataset(columns...)
	if err != nil {
		releaseColumns()
		return nil, err
	}
	return ds, nil
}

// fieldSemantics recovers a field's logical type and dictionary from its
// metadata. A field without our metadata falls back to the physical
// type's natural logical type.
func fieldSemantics(field arrow.Field) (infer.ColumnType, *dictionary.Dictionary, error) {
	name, ok := field.Metadata.GetValue(table.MetaTypeKey)
	if !ok {
		return physicalFallback(field.Type), nil, nil
	}
	typ, err := infer.ParseColumnType(name)
	if err != nil {
		return infer.TypeUtf8, nil, errors.Wrap(err, errors.ErrorTypeValidation,
			"column "+field.Name)
	}

	var dict *dictionary.Dictionary
	if typ == infer.TypeEnum {
		encoded, ok := field.Metadata.GetValue(table.MetaDictionaryKey)
		if !ok {
			return infer.TypeUtf8, nil, errors.New(errors.ErrorTypeValidation,
				"enum column "+field.Name+" is missing its dictionary")
		}
		var snap dictionary.Snapshot
		if err := json.Unmarshal([]byte(encoded), &snap); err != nil {
			return infer.TypeUtf8, nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"decode dictionary for column "+field.Name)
		}
		if dict, err = dictionary.FromSnapshot(snap); err != nil {
			return infer.TypeUtf8, nil, err
		}
	}
	return typ, dict, nil
}

func physicalFallback(dt arrow.DataType) infer.ColumnType {
	switch dt.ID() {
	case arrow.BOOL:
		return infer.TypeBool
	case arrow.INT64:
		return infer.TypeInt64
	case arrow.UINT64:
		return infer.TypeUInt64
	case arrow.FLOAT64:
		return infer.TypeFloat64
	case arrow.TIMESTAMP:
		return infer.TypeDateTime
	case arrow.BINARY:
		return infer.TypeBinary
	default:
		return infer.TypeUtf8
	}
}

// WriteFile writes a dataset to a file, compressed with the given codec.
// The file starts with a four-byte magic and a codec byte, then carries
// the compressed Arrow IPC payload.
func WriteFile(path string, ds *table.Dataset, algorithm compression.Algorithm) error {
	code, ok := algoCodes[algorithm]
	if !ok {
		return errors.New(errors.ErrorTypeValidation,
			"unknown compression algorithm: "+string(algorithm))
	}
	comp, err := compression.New(algorithm)
	if err != nil {
		return err
	}

	payload, err := EncodeDataset(ds)
	if err != nil {
		return err
	}
	compressed, err := comp.Compress(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "compress dataset")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "create dataset file")
	}
	defer f.Close()

	if _, err := f.Write(fileMagic); err != nil {
		return err
	}
	if _, err := f.Write([]byte{code}); err != nil {
		return err
	}
	if _, err := f.Write(compressed); err != nil {
		return err
	}
	return f.Sync()
}

// ReadFile loads a dataset file written by WriteFile.
func ReadFile(path string) (*table.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "read dataset file")
	}
	if len(data) < len(fileMagic)+1 || !bytes.Equal(data[:len(fileMagic)], fileMagic) {
		return nil, errors.New(errors.ErrorTypeValidation,
			"not a dataset file: "+path)
	}

	var algorithm compression.Algorithm
	code := data[len(fileMagic)]
	for a, c := range algoCodes {
		if c == code {
			algorithm = a
		}
	}
	if algorithm == "" {
		return nil, errors.New(errors.ErrorTypeValidation,
			"unknown compression code in dataset file")
	}

	comp, err := compression.New(algorithm)
	if err != nil {
		return nil, err
	}
	payload, err := comp.Decompress(data[len(fileMagic)+1:])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "decompress dataset")
	}
	return DecodeDataset(payload)
}
