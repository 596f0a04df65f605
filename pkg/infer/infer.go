package infer

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
)

// Inferencer picks the most specific column type a sequence of raw values
// fits. It holds no per-column state; one Inferencer can serve concurrent
// columns.
type Inferencer struct {
	logger *zap.Logger
}

// NewInferencer creates an Inferencer. A nil logger disables logging.
func NewInferencer(logger *zap.Logger) *Inferencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inferencer{logger: logger}
}

// Infer walks the candidate types in specificity order and returns the
// first whose success ratio over non-null sampled values meets the
// acceptance threshold. An all-null or empty sequence yields Utf8. Utf8
// itself classifies everything, so the walk always terminates with a
// result and Infer cannot fail.
func (in *Inferencer) Infer(values []RawValue, cfg *config.BuildConfig) ColumnType {
	if cfg == nil {
		cfg = config.NewBuildConfig()
	}

	sample := values
	if cfg.SampleSize > 0 && len(sample) > cfg.SampleSize {
		// Deterministic prefix sample: the same inputs always see the
		// same sample, so inference is reproducible.
		sample = sample[:cfg.SampleSize]
	}

	nonNull := 0
	for _, raw := range sample {
		if !raw.Null {
			nonNull++
		}
	}
	if nonNull == 0 {
		return TypeUtf8
	}

	for _, candidate := range Candidates {
		var matched int
		if candidate == TypeEnum {
			distinct, ok := enumQualifies(sample, cfg.EnumCardinalityCap)
			if !ok {
				in.logger.Debug("enum candidate disqualified",
					zap.Int("cardinality_cap", cfg.EnumCardinalityCap))
				continue
			}
			in.logger.Debug("candidate accepted",
				zap.String("type", candidate.String()),
				zap.Int("distinct", distinct))
			return TypeEnum
		}

		for _, raw := range sample {
			if raw.Null {
				continue
			}
			if _, err := Classify(raw, candidate, cfg); err == nil {
				matched++
			}
		}

		ratio := float64(matched) / float64(nonNull)
		if ratio >= cfg.AcceptanceThreshold {
			in.logger.Debug("candidate accepted",
				zap.String("type", candidate.String()),
				zap.Int("matched", matched),
				zap.Int("non_null", nonNull))
			return candidate
		}
	}

	// Unreachable with a valid threshold: Utf8 matches every value.
	return TypeUtf8
}

// enumQualifies scans for distinct non-null values and reports whether
// the count stays within the cap. The scan stops as soon as the cap is
// exceeded; once a column has blown the cap it can never re-qualify.
func enumQualifies(sample []RawValue, maxDistinct int) (int, bool) {
	seen := make(map[string]struct{}, maxDistinct)
	for _, raw := range sample {
		if raw.Null {
			continue
		}
		if _, ok := seen[raw.Text]; ok {
			continue
		}
		if len(seen) >= maxDistinct {
			return len(seen), false
		}
		seen[raw.Text] = struct{}{}
	}
	return len(seen), true
}

// Infer is a convenience wrapper around a log-free Inferencer.
func Infer(values []RawValue, cfg *config.BuildConfig) ColumnType {
	return NewInferencer(nil).Infer(values, cfg)
}

// CheckWiden verifies that a widening step is legal, returning an
// UnsupportedWidening error when the requested target is not the lattice
// join of the two types. Used by the merger before re-encoding values.
func CheckWiden(from, to, target ColumnType) error {
	if Widen(from, to) != target {
		return errors.New(errors.ErrorTypeUnsupportedWidening,
			"cannot widen "+from.String()+" and "+to.String()+" to "+target.String())
	}
	return nil
}
