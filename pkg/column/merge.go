package column

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/metrics"
)

// Merger concatenates columns, widening types where they differ. The
// inputs are left untouched; the result is a fresh column.
type Merger struct {
	mem    memory.Allocator
	logger *zap.Logger
}

// NewMerger creates a Merger. Nil arguments fall back to the default
// allocator and a no-op logger.
func NewMerger(mem memory.Allocator, logger *zap.Logger) *Merger {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{mem: mem, logger: logger}
}

// Merge concatenates two same-named columns. The result's type is the
// lattice join of the input types; a's rows come first. Enum columns
// union their dictionaries, preserving a's codes exactly and remapping
// b's; if the union blows the cardinality cap the merge falls back to
// plain text unless the config forbids it.
func (m *Merger) Merge(ctx context.Context, a, b *Column, cfg *config.BuildConfig) (*Column, error) {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}
	if a.name != b.name {
		return nil, errors.New(errors.ErrorTypeSchemaConflict,
			"cannot merge columns with different names: "+a.name+" vs "+b.name)
	}

	target := infer.Widen(a.typ, b.typ)

	if target == infer.TypeEnum {
		merged, err := m.mergeEnums(ctx, a, b, cfg)
		if err == nil || cfg.DisableEnumFallback || !errors.IsType(err, errors.ErrorTypeDictionaryOverflow) {
			return merged, err
		}
		m.logger.Debug("dictionary union overflow, widening to utf8",
			zap.String("column", a.name))
		metrics.DictionaryOverflows.Inc()
		target = infer.TypeUtf8
	}

	m.logger.Debug("merging columns",
		zap.String("column", a.name),
		zap.String("from", a.typ.String()),
		zap.String("with", b.typ.String()),
		zap.String("to", target.String()))
	metrics.Merges.WithLabelValues(a.typ.String(), b.typ.String(), target.String()).Inc()

	app := newAppender(m.mem, target)
	defer app.release()

	for _, src := range []*Column{a, b} {
		if err := appendConverted(ctx, app, src, target, nil); err != nil {
			return nil, err
		}
	}

	// Statistics fold associatively from the inputs' aggregators rather
	// than being recomputed from the concatenated rows.
	agg := a.stats.WidenTo(target)
	if err := agg.Combine(b.stats.WidenTo(target)); err != nil {
		return nil, err
	}

	return &Column{
		name:  a.name,
		typ:   target,
		data:  app.finish(),
		stats: agg,
	}, nil
}

// mergeEnums handles the enum-enum case where codes must be remapped
// against the unioned dictionary.
func (m *Merger) mergeEnums(ctx context.Context, a, b *Column, cfg *config.BuildConfig) (*Column, error) {
	merged, remap, err := a.dict.Union(b.dict)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDictionaryOverflow,
			"dictionary union exceeds cardinality cap").WithDetail("column", a.name)
	}

	app := newAppender(m.mem, infer.TypeEnum)
	defer app.release()

	if err := appendConverted(ctx, app, a, infer.TypeEnum, nil); err != nil {
		return nil, err
	}
	if err := appendConverted(ctx, app, b, infer.TypeEnum, remap); err != nil {
		return nil, err
	}

	agg := a.stats.WidenTo(infer.TypeEnum)
	if err := agg.Combine(b.stats.WidenTo(infer.TypeEnum)); err != nil {
		return nil, err
	}
	metrics.Merges.WithLabelValues(a.typ.String(), b.typ.String(), infer.TypeEnum.String()).Inc()

	return &Column{
		name:  a.name,
		typ:   infer.TypeEnum,
		data:  app.finish(),
		dict:  merged,
		stats: agg,
	}, nil
}

// appendConverted copies every row of src into the appender, widening to
// the target type. For enum targets, remap translates src's codes into
// the merged dictionary; a nil remap keeps codes as they are.
func appendConverted(ctx context.Context, app *appender, src *Column, target infer.ColumnType, remap []uint32) error {
	for i := 0; i < src.Len(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal,
					"column merge canceled").WithDetail("column", src.name)
			}
		}

		v, err := src.Value(i)
		if err != nil {
			return err
		}
		converted, err := widenValue(v, target, remap)
		if err != nil {
			return err
		}
		app.append(converted)
	}
	return nil
}

// widenValue converts a typed value to a wider type from the lattice.
func widenValue(v infer.Value, target infer.ColumnType, remap []uint32) (infer.Value, error) {
	if v.Null {
		return infer.Value{Type: target, Null: true}, nil
	}
	if v.Type == target {
		if target == infer.TypeEnum && remap != nil {
			if v.Uint >= uint64(len(remap)) {
				return infer.Value{}, errors.New(errors.ErrorTypeInternal,
					"enum code outside remap table")
			}
			v.Uint = uint64(remap[v.Uint])
		}
		return v, nil
	}

	out := infer.Value{Type: target}
	switch target {
	case infer.TypeInt64:
		if v.Type == infer.TypeBool {
			if v.Bool {
				out.Int = 1
			}
			return out, nil
		}
	case infer.TypeUInt64:
		if v.Type == infer.TypeBool {
			if v.Bool {
				out.Uint = 1
			}
			return out, nil
		}
	case infer.TypeFloat64:
		switch v.Type {
		case infer.TypeBool:
			if v.Bool {
				out.Float = 1
			}
			return out, nil
		case infer.TypeInt64:
			out.Float = float64(v.Int)
			return out, nil
		case infer.TypeUInt64:
			out.Float = float64(v.Uint)
			return out, nil
		}
	case infer.TypeUtf8:
		out.Str = RenderValue(v)
		return out, nil
	case infer.TypeBinary:
		if v.Type == infer.TypeIPAddr {
			out.Bytes = v.Bytes
			return out, nil
		}
		out.Bytes = []byte(RenderValue(v))
		return out, nil
	}
	return infer.Value{}, errors.New(errors.ErrorTypeUnsupportedWidening,
		"cannot widen "+v.Type.String()+" value to "+target.String())
}

// Concat merges any number of same-named columns left to right.
func (m *Merger) Concat(ctx context.Context, cfg *config.BuildConfig, cols ...*Column) (*Column, error) {
	if len(cols) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no columns to merge")
	}
	merged := cols[0]
	for i, next := range cols[1:] {
		result, err := m.Merge(ctx, merged, next, cfg)
		// Intermediate results are ours to release; the caller's inputs
		// are not.
		if i > 0 {
			merged.Release()
		}
		if err != nil {
			return nil, err
		}
		merged = result
	}
	return merged, nil
}
