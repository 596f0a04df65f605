// Package quasar infers typed columns from untyped text and builds them
// into Arrow-backed datasets.
//
// Given raw string values with no declared schema, quasar classifies
// them against a closed type lattice (bool, signed and unsigned
// integers, floats, datetimes, IP addresses, dictionary-encoded enums,
// text and binary), picks the most specific type the values fit, and
// constructs columnar arrays with incrementally tracked statistics.
// Datasets merge by name with automatic type widening, and serialize
// through Arrow IPC with optional compression.
//
// # Quick Start
//
//	cfg := config.NewBuildConfig()
//	asm := table.NewAssembler(nil, logger.Get())
//
//	ds, err := asm.Assemble(ctx, []table.RawColumn{
//	    {Name: "id", Values: values("1", "2", "3")},
//	    {Name: "proto", Values: values("tcp", "udp", "tcp")},
//	}, cfg)
//	if err != nil {
//	    return err
//	}
//	defer ds.Release()
//
//	// ds.Types() -> id: int64, proto: enum
//	err = arrowio.WriteFile("out.qsar", ds, compression.Zstd)
//
// # Packages
//
//   - pkg/infer: value classification and type inference
//   - pkg/dictionary: bounded dictionary encoding for enum columns
//   - pkg/stats: streaming per-column statistics
//   - pkg/column: column construction and widening merges
//   - pkg/table: dataset assembly and dataset merges
//   - pkg/arrowio: Arrow IPC serialization with compression
//   - pkg/config: the shared build configuration
package quasar
