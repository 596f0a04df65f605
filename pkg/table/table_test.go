package table

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
)

func raws(texts ...string) []infer.RawValue {
	values := make([]infer.RawValue, len(texts))
	for i, t := range texts {
		values[i] = infer.Raw(t)
	}
	return values
}

func sampleRaw() []RawColumn {
	return []RawColumn{
		{Name: "id", Values: raws("1", "2", "3")},
		{Name: "score", Values: raws("1.5", "2.0", "0.25")},
		{Name: "proto", Values: raws("tcp", "udp", "tcp")},
		{Name: "src", Values: raws("10.0.0.1", "10.0.0.2", "192.168.1.1")},
	}
}

func TestAssemble(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.EnumCardinalityCap = 2

	a := NewAssembler(nil, nil)
	ds, err := a.Assemble(context.Background(), sampleRaw(), cfg)
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 4, ds.NumCols())
	assert.Equal(t, []string{"id", "score", "proto", "src"}, ds.Names())

	types := ds.Types()
	assert.Equal(t, infer.TypeInt64, types["id"])
	assert.Equal(t, infer.TypeFloat64, types["score"])
	assert.Equal(t, infer.TypeEnum, types["proto"])
	assert.Equal(t, infer.TypeIPAddr, types["src"])
}

func TestAssembleRaggedInput(t *testing.T) {
	raw := []RawColumn{
		{Name: "a", Values: raws("1", "2")},
		{Name: "b", Values: raws("1")},
	}

	_, err := NewAssembler(nil, nil).Assemble(context.Background(), raw, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAssembleDuplicateNames(t *testing.T) {
	raw := []RawColumn{
		{Name: "a", Values: raws("1")},
		{Name: "a", Values: raws("2")},
	}

	_, err := NewAssembler(nil, nil).Assemble(context.Background(), raw, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaConflict))
}

func TestAssembleStrictFailureSurfaces(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.AcceptanceThreshold = 0.5
	cfg.EnumCardinalityCap = 2

	raw := []RawColumn{
		{Name: "ok", Values: raws("1", "2", "3", "4")},
		{Name: "bad", Values: raws("1", "2", "x", "y")},
	}

	_, err := NewAssembler(nil, nil).Assemble(context.Background(), raw, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
}

func TestAssembleManyColumns(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.Workers = 4

	raw := make([]RawColumn, 32)
	for i := range raw {
		raw[i] = RawColumn{
			Name:   "col_" + string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Values: raws("1", "2", "3"),
		}
	}

	ds, err := NewAssembler(nil, nil).Assemble(context.Background(), raw, cfg)
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 32, ds.NumCols())
	for _, col := range ds.Columns() {
		assert.Equal(t, infer.TypeInt64, col.Type())
	}
}

func TestDatasetSchemaAndRecord(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.EnumCardinalityCap = 2

	ds, err := NewAssembler(nil, nil).Assemble(context.Background(), sampleRaw(), cfg)
	require.NoError(t, err)
	defer ds.Release()

	schema, err := ds.Schema()
	require.NoError(t, err)
	assert.Equal(t, 4, schema.NumFields())

	proto, ok := schema.FieldsByName("proto")
	require.True(t, ok)
	typ, ok := proto[0].Metadata.GetValue(MetaTypeKey)
	require.True(t, ok)
	assert.Equal(t, "enum", typ)
	_, ok = proto[0].Metadata.GetValue(MetaDictionaryKey)
	assert.True(t, ok)

	rec, err := ds.Record()
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(1), rec.Column(0).(*array.Int64).Value(0))
}

func TestDatasetStats(t *testing.T) {
	ds, err := NewAssembler(nil, nil).Assemble(context.Background(), sampleRaw(), nil)
	require.NoError(t, err)
	defer ds.Release()

	snap := ds.Stats()
	require.Contains(t, snap, "id")
	assert.Equal(t, int64(3), snap["id"].Rows)
	require.NotNil(t, snap["id"].Mean)
	assert.InDelta(t, 2.0, *snap["id"].Mean, 1e-9)
}

func TestMergeDatasets(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.EnumCardinalityCap = 4

	a := NewAssembler(nil, nil)

	left, err := a.Assemble(context.Background(), []RawColumn{
		{Name: "n", Values: raws("1", "2")},
		{Name: "proto", Values: raws("tcp", "udp")},
	}, cfg)
	require.NoError(t, err)
	defer left.Release()

	right, err := a.Assemble(context.Background(), []RawColumn{
		{Name: "n", Values: raws("3.5")},
		{Name: "proto", Values: raws("icmp")},
	}, cfg)
	require.NoError(t, err)
	defer right.Release()

	merged, err := a.Merge(context.Background(), left, right, cfg)
	require.NoError(t, err)
	defer merged.Release()

	assert.Equal(t, 3, merged.NumRows())

	n, ok := merged.Column("n")
	require.True(t, ok)
	assert.Equal(t, infer.TypeFloat64, n.Type())

	proto, ok := merged.Column("proto")
	require.True(t, ok)
	assert.Equal(t, infer.TypeEnum, proto.Type())
	assert.Equal(t, []string{"tcp", "udp", "icmp"}, proto.Dictionary().Categories())
}

func TestMergeDatasetsPadsMissingColumns(t *testing.T) {
	a := NewAssembler(nil, nil)

	left, err := a.Assemble(context.Background(), []RawColumn{
		{Name: "shared", Values: raws("1", "2")},
		{Name: "only_left", Values: raws("x1", "x2")},
	}, nil)
	require.NoError(t, err)
	defer left.Release()

	right, err := a.Assemble(context.Background(), []RawColumn{
		{Name: "shared", Values: raws("3")},
		{Name: "only_right", Values: raws("7")},
	}, nil)
	require.NoError(t, err)
	defer right.Release()

	merged, err := a.Merge(context.Background(), left, right, nil)
	require.NoError(t, err)
	defer merged.Release()

	assert.Equal(t, 3, merged.NumRows())
	assert.Equal(t, []string{"shared", "only_left", "only_right"}, merged.Names())

	onlyLeft, _ := merged.Column("only_left")
	assert.False(t, onlyLeft.IsNull(0))
	assert.True(t, onlyLeft.IsNull(2))

	onlyRight, _ := merged.Column("only_right")
	assert.True(t, onlyRight.IsNull(0))
	assert.True(t, onlyRight.IsNull(1))
	assert.False(t, onlyRight.IsNull(2))
}

func TestNewDatasetValidation(t *testing.T) {
	b := NewAssembler(nil, nil)
	ds, err := b.Assemble(context.Background(), []RawColumn{{Name: "a", Values: raws("1")}}, nil)
	require.NoError(t, err)
	defer ds.Release()

	col, _ := ds.Column("a")
	_, err = NewDataset(col, col)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaConflict))
}
