package table

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/column"
	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/pool"
)

// RawColumn is one named, untyped input column.
type RawColumn struct {
	Name   string
	Values []infer.RawValue
}

// Assembler builds datasets from raw columns, fanning independent column
// builds across a worker pool.
type Assembler struct {
	builder *column.Builder
	merger  *column.Merger
	logger  *zap.Logger
}

// NewAssembler creates an Assembler. A nil allocator falls back to the
// default allocator, a nil logger to the process-wide logger.
func NewAssembler(mem memory.Allocator, log *zap.Logger) *Assembler {
	if log == nil {
		log = logger.Get()
	}
	return &Assembler{
		builder: column.NewBuilder(mem, log),
		merger:  column.NewMerger(mem, log),
		logger:  log,
	}
}

// Assemble infers and builds every raw column and wraps the results into
// a dataset. Columns build concurrently, cfg.Workers at a time; the
// first failure cancels the rest. Input validation happens up front so
// a ragged input fails before any build work starts.
func (a *Assembler) Assemble(ctx context.Context, raw []RawColumn, cfg *config.BuildConfig) (*Dataset, error) {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}
	if err := validateRaw(raw); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		col   *column.Column
		err   error
	}

	jobs := make(chan int)
	results := make(chan result, len(raw))

	workers := cfg.GetWorkers()
	if workers > len(raw) {
		workers = len(raw)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				col, err := a.builder.Build(ctx, raw[i].Name, raw[i].Values, cfg)
				results <- result{index: i, col: col, err: err}
				if err != nil {
					cancel()
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range raw {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	columns := make([]*column.Column, len(raw))
	var firstErr error
	for res := range results {
		if res.err != nil {
			// Keep the root cause, not a cancellation echo from a
			// sibling build.
			if firstErr == nil || (stderrors.Is(firstErr, context.Canceled) && !stderrors.Is(res.err, context.Canceled)) {
				firstErr = res.err
			}
			continue
		}
		columns[res.index] = res.col
	}
	if firstErr != nil {
		for _, col := range columns {
			if col != nil {
				col.Release()
			}
		}
		return nil, firstErr
	}

	dataset, err := NewDataset(columns...)
	if err != nil {
		for _, col := range columns {
			col.Release()
		}
		return nil, err
	}
	a.logger.Info("dataset assembled",
		zap.Int("columns", dataset.NumCols()),
		zap.Int("rows", dataset.NumRows()))
	return dataset, nil
}

func validateRaw(raw []RawColumn) error {
	if len(raw) == 0 {
		return errors.New(errors.ErrorTypeValidation, "no columns to assemble")
	}
	seen := make(map[string]struct{}, len(raw))
	rows := len(raw[0].Values)
	for _, rc := range raw {
		if rc.Name == "" {
			return errors.New(errors.ErrorTypeValidation, "column with empty name")
		}
		if _, dup := seen[rc.Name]; dup {
			return errors.New(errors.ErrorTypeSchemaConflict,
				"duplicate column name: "+rc.Name)
		}
		seen[rc.Name] = struct{}{}
		if len(rc.Values) != rows {
			return errors.New(errors.ErrorTypeValidation,
				"column "+rc.Name+" has "+strconv.Itoa(len(rc.Values))+
					" rows, expected "+strconv.Itoa(rows))
		}
	}
	return nil
}

// Merge concatenates two datasets, left's rows first. Columns are
// aligned by name: shared columns merge with type widening, and a column
// missing from one side is padded with nulls for that side's rows.
// Column order follows left, then right's extra columns in right's order.
func (a *Assembler) Merge(ctx context.Context, left, right *Dataset, cfg *config.BuildConfig) (*Dataset, error) {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}

	names := pool.GetStringSlice()
	defer func() { pool.PutStringSlice(names) }()
	for _, col := range left.Columns() {
		names = append(names, col.Name())
	}
	for _, name := range right.Names() {
		if _, shared := left.Column(name); !shared {
			names = append(names, name)
		}
	}

	merged := make([]*column.Column, 0, len(names))
	release := func() {
		for _, col := range merged {
			col.Release()
		}
	}

	for _, name := range names {
		lcol, inLeft := left.Column(name)
		rcol, inRight := right.Column(name)

		var padded *column.Column
		var err error
		switch {
		case !inRight:
			padded, err = a.nullColumn(ctx, name, lcol.Type(), right.NumRows(), cfg)
			if err == nil {
				rcol = padded
			}
		case !inLeft:
			padded, err = a.nullColumn(ctx, name, rcol.Type(), left.NumRows(), cfg)
			if err == nil {
				lcol = padded
			}
		}
		if err != nil {
			release()
			return nil, err
		}

		col, err := a.merger.Merge(ctx, lcol, rcol, cfg)
		if padded != nil {
			padded.Release()
		}
		if err != nil {
			release()
			return nil, err
		}
		merged = append(merged, col)
	}

	dataset, err := NewDataset(merged...)
	if err != nil {
		release()
		return nil, err
	}
	return dataset, nil
}

// nullColumn builds an all-null column of the given type for padding.
func (a *Assembler) nullColumn(ctx context.Context, name string, typ infer.ColumnType, rows int, cfg *config.BuildConfig) (*column.Column, error) {
	values := make([]infer.RawValue, rows)
	for i := range values {
		values[i] = infer.NullValue
	}
	return a.builder.BuildTyped(ctx, name, typ, values, cfg)
}
