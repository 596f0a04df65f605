package column

import (
	"context"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/dictionary"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/metrics"
	"github.com/ajitpratap0/quasar/pkg/pool"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

// cancelCheckInterval is how many rows pass between context checks in
// the append loop.
const cancelCheckInterval = 1024

// Builder constructs columns from raw values. It is stateless across
// columns and safe for concurrent use; per-column state lives on the
// stack of each Build call.
type Builder struct {
	mem    memory.Allocator
	inf    *infer.Inferencer
	logger *zap.Logger
}

// NewBuilder creates a Builder. Nil arguments fall back to the default
// allocator and a no-op logger.
func NewBuilder(mem memory.Allocator, logger *zap.Logger) *Builder {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		mem:    mem,
		inf:    infer.NewInferencer(logger),
		logger: logger,
	}
}

// Build infers the column's type from the raw values and constructs it.
// Inference and construction see the same decoded values and the same
// config, so every stored value classifies under the column's type.
func (b *Builder) Build(ctx context.Context, name string, values []infer.RawValue, cfg *config.BuildConfig) (*Column, error) {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}
	decoded := infer.DecodeValues(values, cfg)
	typ := b.inf.Infer(decoded, cfg)
	return b.buildDecoded(ctx, name, typ, decoded, cfg)
}

// BuildTyped constructs a column with a caller-chosen type, skipping
// inference. Values that fail to classify follow the failure policy.
func (b *Builder) BuildTyped(ctx context.Context, name string, typ infer.ColumnType, values []infer.RawValue, cfg *config.BuildConfig) (*Column, error) {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}
	return b.buildDecoded(ctx, name, typ, infer.DecodeValues(values, cfg), cfg)
}

func (b *Builder) buildDecoded(ctx context.Context, name string, typ infer.ColumnType, values []infer.RawValue, cfg *config.BuildConfig) (col *Column, err error) {
	timer := metrics.NewBuildTimer(typ.String())
	defer func() {
		timer.Stop()
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.ColumnsBuilt.WithLabelValues(typ.String(), outcome).Inc()
	}()

	// Column names repeat heavily across chunked builds of one source.
	name = pool.InternString(name)

	// Scope the build's context and logs to this column.
	ctx = context.WithValue(ctx, logger.ColumnKey, name)
	log := logger.WithContext(ctx, b.logger)

	app := newAppender(b.mem, typ)
	defer app.release()

	agg := stats.NewAggregator(typ, 0)
	var dict *dictionary.Dictionary
	if typ == infer.TypeEnum {
		dict = dictionary.New(cfg.EnumCardinalityCap)
	}

	for i, raw := range values {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal,
					"column build canceled").WithDetail("column", name)
			}
		}

		v, err := infer.Classify(raw, typ, cfg)
		if err == nil && typ == infer.TypeEnum && !v.Null {
			var code uint32
			code, err = dict.Intern(v.Str)
			if err != nil {
				if cfg.DisableEnumFallback {
					return nil, errors.Wrap(err, errors.ErrorTypeDictionaryOverflow,
						"enum cardinality cap exceeded while building").
						WithDetail("column", name).
						WithDetail("row", strconv.Itoa(i))
				}
				// Cardinality blew the cap past the inference sample.
				// Rebuild the whole column as plain text.
				log.Debug("enum overflow, falling back to utf8", zap.Int("row", i))
				metrics.DictionaryOverflows.Inc()
				return b.buildDecoded(ctx, name, infer.TypeUtf8, values, cfg)
			}
			v.Uint = uint64(code)
		}
		if err != nil {
			if cfg.FailurePolicy == config.FailureStrict {
				return nil, errors.Wrap(err, errors.ErrorTypeTypeMismatch,
					"value does not classify as "+typ.String()).
					WithDetail("column", name).
					WithDetail("row", strconv.Itoa(i)).
					WithDetail("value", raw.Text)
			}
			app.appendNull()
			agg.ObserveCoercedNull()
			continue
		}

		app.append(v)
		if err := agg.Observe(v); err != nil {
			return nil, err
		}
	}

	col = &Column{
		name:  name,
		typ:   typ,
		data:  app.finish(),
		dict:  dict,
		stats: agg,
	}
	metrics.RowsProcessed.Add(float64(col.Len()))
	if n := agg.CoercedNulls(); n > 0 {
		metrics.CoercedNulls.WithLabelValues(typ.String()).Add(float64(n))
	}
	log.Debug("column built",
		zap.String("type", typ.String()),
		zap.Int("rows", col.Len()),
		zap.Int64("coerced_nulls", agg.CoercedNulls()))
	return col, nil
}

// appender wraps the per-type Arrow array builder behind one interface.
type appender struct {
	typ  infer.ColumnType
	bldr array.Builder
}

func newAppender(mem memory.Allocator, typ infer.ColumnType) *appender {
	var bldr array.Builder
	switch typ {
	case infer.TypeBool:
		bldr = array.NewBooleanBuilder(mem)
	case infer.TypeInt64:
		bldr = array.NewInt64Builder(mem)
	case infer.TypeUInt64:
		bldr = array.NewUint64Builder(mem)
	case infer.TypeFloat64:
		bldr = array.NewFloat64Builder(mem)
	case infer.TypeDateTime:
		bldr = array.NewTimestampBuilder(mem, ArrowType(typ).(*arrow.TimestampType))
	case infer.TypeEnum:
		bldr = array.NewUint32Builder(mem)
	case infer.TypeIPAddr, infer.TypeBinary:
		bldr = array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	default:
		bldr = array.NewStringBuilder(mem)
	}
	return &appender{typ: typ, bldr: bldr}
}

func (a *appender) appendNull() { a.bldr.AppendNull() }

func (a *appender) append(v infer.Value) {
	if v.Null {
		a.bldr.AppendNull()
		return
	}
	switch b := a.bldr.(type) {
	case *array.BooleanBuilder:
		b.Append(v.Bool)
	case *array.Int64Builder:
		b.Append(v.Int)
	case *array.Uint64Builder:
		b.Append(v.Uint)
	case *array.Float64Builder:
		b.Append(v.Float)
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(v.Int))
	case *array.Uint32Builder:
		b.Append(uint32(v.Uint))
	case *array.BinaryBuilder:
		b.Append(v.Bytes)
	case *array.StringBuilder:
		b.Append(v.Str)
	}
}

// finish builds the array and hands ownership to the caller.
func (a *appender) finish() arrow.Array {
	return a.bldr.NewArray()
}

func (a *appender) release() { a.bldr.Release() }
