// Package stats tracks per-column statistics incrementally during
// construction. Counts apply to every type; min, max, mean and variance
// only to ordered types. Aggregators combine associatively so columns
// built in parallel chunks report the same statistics as a single pass.
package stats

import (
	"math"
	"net/netip"
	"strconv"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/infer"
	stringpool "github.com/ajitpratap0/quasar/pkg/strings"
)

// DefaultDistinctCap bounds the memory spent tracking exact distinct
// counts. Beyond it the count is reported as not exact.
const DefaultDistinctCap = 4096

// Aggregator accumulates statistics for one column in a single pass.
// Not safe for concurrent use; parallel builders each own an Aggregator
// and Combine them afterwards.
type Aggregator struct {
	typ infer.ColumnType

	rows         int64
	nulls        int64
	coercedNulls int64

	// Welford accumulators, ordered types only. DateTime is tracked in
	// epoch seconds.
	count int64
	mean  float64
	m2    float64
	min   float64
	max   float64

	distinct    map[string]struct{}
	distinctCap int
	overflowed  bool
}

// NewAggregator creates an aggregator for the given column type. A
// distinctCap of zero uses DefaultDistinctCap.
func NewAggregator(typ infer.ColumnType, distinctCap int) *Aggregator {
	if distinctCap <= 0 {
		distinctCap = DefaultDistinctCap
	}
	return &Aggregator{
		typ:         typ,
		min:         math.Inf(1),
		max:         math.Inf(-1),
		distinct:    make(map[string]struct{}),
		distinctCap: distinctCap,
	}
}

// Type returns the column type the aggregator was created for.
func (a *Aggregator) Type() infer.ColumnType { return a.typ }

// Observe records a classified value. The value's type must match the
// aggregator's.
func (a *Aggregator) Observe(v infer.Value) error {
	if v.Type != a.typ {
		return errors.New(errors.ErrorTypeTypeMismatch,
			stringpool.Concat("aggregator for ", a.typ.String(), " observed ", v.Type.String()))
	}
	a.rows++
	if v.Null {
		a.nulls++
		return nil
	}

	// Bool tracks 0/1 moments too. Snapshot hides them for unordered
	// types, but WidenTo needs them when a bool column merges into a
	// numeric one.
	if a.typ.Ordered() || a.typ == infer.TypeBool {
		a.observeNumeric(numericOf(v))
	}
	a.observeDistinct(distinctKey(v))
	return nil
}

// ObserveCoercedNull records a value nulled out by the lenient failure
// policy. It counts as a row and a null and bumps the coercion counter.
func (a *Aggregator) ObserveCoercedNull() {
	a.rows++
	a.nulls++
	a.coercedNulls++
}

func (a *Aggregator) observeNumeric(x float64) {
	// Welford's update keeps mean and M2 numerically stable in one pass.
	a.count++
	delta := x - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (x - a.mean)

	if x < a.min {
		a.min = x
	}
	if x > a.max {
		a.max = x
	}
}

func (a *Aggregator) observeDistinct(key string) {
	if a.overflowed {
		return
	}
	if _, ok := a.distinct[key]; ok {
		return
	}
	if len(a.distinct) >= a.distinctCap {
		a.overflowed = true
		return
	}
	a.distinct[key] = struct{}{}
}

// Combine folds another aggregator of the same type into this one. The
// operation is associative and commutative up to float rounding, so any
// chunking of a column produces the same statistics.
func (a *Aggregator) Combine(other *Aggregator) error {
	if other.typ != a.typ {
		return errors.New(errors.ErrorTypeTypeMismatch,
			stringpool.Concat("cannot combine ", a.typ.String(), " stats with ", other.typ.String()))
	}

	a.rows += other.rows
	a.nulls += other.nulls
	a.coercedNulls += other.coercedNulls

	if other.count > 0 {
		if a.count == 0 {
			a.count = other.count
			a.mean = other.mean
			a.m2 = other.m2
		} else {
			// Chan's parallel variance combination.
			n1, n2 := float64(a.count), float64(other.count)
			delta := other.mean - a.mean
			total := n1 + n2
			a.mean += delta * n2 / total
			a.m2 += other.m2 + delta*delta*n1*n2/total
			a.count += other.count
		}
		if other.min < a.min {
			a.min = other.min
		}
		if other.max > a.max {
			a.max = other.max
		}
	}

	if other.overflowed {
		a.overflowed = true
	}
	if !a.overflowed {
		for key := range other.distinct {
			a.observeDistinct(key)
		}
	}
	return nil
}

// Rows returns the number of observed rows, nulls included.
func (a *Aggregator) Rows() int64 { return a.rows }

// Nulls returns the number of null rows, coerced nulls included.
func (a *Aggregator) Nulls() int64 { return a.nulls }

// CoercedNulls returns how many values the lenient policy nulled out.
func (a *Aggregator) CoercedNulls() int64 { return a.coercedNulls }

// WidenTo projects the aggregator onto a wider type from the lattice,
// so a merger can fold the inputs' statistics with Combine instead of
// replaying every concatenated row. Counts always carry over; moments
// carry over where the target stays ordered; distinct keys are
// re-rendered into the target's canonical form.
func (a *Aggregator) WidenTo(target infer.ColumnType) *Aggregator {
	out := NewAggregator(target, a.distinctCap)
	out.rows = a.rows
	out.nulls = a.nulls
	out.coercedNulls = a.coercedNulls

	if target.Ordered() && (a.typ.Ordered() || a.typ == infer.TypeBool) {
		out.count = a.count
		out.mean = a.mean
		out.m2 = a.m2
		out.min = a.min
		out.max = a.max
	}

	out.overflowed = a.overflowed
	for key := range a.distinct {
		out.distinct[widenKey(key, a.typ, target)] = struct{}{}
	}
	return out
}

// widenKey re-renders a distinct key into the form the target type would
// have produced for the same value. Most renderings are already stable
// across widening; the exceptions are spelled out here.
func widenKey(key string, from, to infer.ColumnType) string {
	if from == to {
		return key
	}
	switch {
	case from == infer.TypeBool && to != infer.TypeUtf8 && to != infer.TypeBinary:
		// Bools widen to 0/1 in numeric columns, not "true"/"false".
		if key == "true" {
			return "1"
		}
		return "0"
	case from == infer.TypeInt64 && to == infer.TypeFloat64:
		if n, err := strconv.ParseInt(key, 10, 64); err == nil {
			return strconv.FormatFloat(float64(n), 'g', -1, 64)
		}
	case from == infer.TypeUInt64 && to == infer.TypeFloat64:
		if n, err := strconv.ParseUint(key, 10, 64); err == nil {
			return strconv.FormatFloat(float64(n), 'g', -1, 64)
		}
	case from == infer.TypeIPAddr && to == infer.TypeBinary:
		// Binary columns key on the raw bytes, not the textual address.
		if addr, err := netip.ParseAddr(key); err == nil {
			return string(addr.AsSlice())
		}
	}
	return key
}

// Distinct returns the distinct non-null count and whether it is exact.
// Once the cap is exceeded the count stops being exact and freezes.
func (a *Aggregator) Distinct() (int, bool) {
	return len(a.distinct), !a.overflowed
}

// Snapshot is the serializable summary of a column's statistics. The
// ordered fields are nil for unordered types.
type Snapshot struct {
	Type         string   `json:"type"`
	Rows         int64    `json:"rows"`
	Nulls        int64    `json:"nulls"`
	CoercedNulls int64    `json:"coerced_nulls"`
	Distinct     int      `json:"distinct"`
	DistinctOk   bool     `json:"distinct_exact"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Mean         *float64 `json:"mean,omitempty"`
	Variance     *float64 `json:"variance,omitempty"`
}

// Snapshot summarizes the aggregator. Variance is the population
// variance M2/n.
func (a *Aggregator) Snapshot() Snapshot {
	s := Snapshot{
		Type:         a.typ.String(),
		Rows:         a.rows,
		Nulls:        a.nulls,
		CoercedNulls: a.coercedNulls,
	}
	s.Distinct, s.DistinctOk = a.Distinct()

	if a.typ.Ordered() && a.count > 0 {
		variance := a.m2 / float64(a.count)
		s.Min = ptr(a.min)
		s.Max = ptr(a.max)
		s.Mean = ptr(a.mean)
		s.Variance = ptr(variance)
	}
	return s
}

func ptr(f float64) *float64 { return &f }

// numericOf projects an ordered value onto float64 for moment tracking.
func numericOf(v infer.Value) float64 {
	switch v.Type {
	case infer.TypeBool:
		if v.Bool {
			return 1
		}
		return 0
	case infer.TypeInt64, infer.TypeDateTime:
		return float64(v.Int)
	case infer.TypeUInt64:
		return float64(v.Uint)
	case infer.TypeFloat64:
		return v.Float
	default:
		return 0
	}
}

// distinctKey is the canonical rendering of a value, except for binary
// values where the raw bytes already are the canonical key.
func distinctKey(v infer.Value) string {
	if v.Type == infer.TypeBinary {
		return string(v.Bytes)
	}
	return v.Render()
}
