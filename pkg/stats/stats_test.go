package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/infer"
)

func observeInts(t *testing.T, a *Aggregator, values ...int64) {
	t.Helper()
	for _, n := range values {
		require.NoError(t, a.Observe(infer.Value{Type: infer.TypeInt64, Int: n}))
	}
}

func TestObserveCounts(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, a, 1, 2, 3)
	require.NoError(t, a.Observe(infer.Value{Type: infer.TypeInt64, Null: true}))

	assert.Equal(t, int64(4), a.Rows())
	assert.Equal(t, int64(1), a.Nulls())
	assert.Equal(t, int64(0), a.CoercedNulls())
}

func TestObserveTypeMismatch(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 0)
	err := a.Observe(infer.Value{Type: infer.TypeFloat64, Float: 1.5})
	require.Error(t, err)
}

func TestOrderedMoments(t *testing.T) {
	a := NewAggregator(infer.TypeFloat64, 0)
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		require.NoError(t, a.Observe(infer.Value{Type: infer.TypeFloat64, Float: x}))
	}

	s := a.Snapshot()
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 5.0, *s.Mean, 1e-9)
	assert.InDelta(t, 4.0, *s.Variance, 1e-9)
	assert.Equal(t, 2.0, *s.Min)
	assert.Equal(t, 9.0, *s.Max)
}

func TestUnorderedHasNoMoments(t *testing.T) {
	a := NewAggregator(infer.TypeUtf8, 0)
	require.NoError(t, a.Observe(infer.Value{Type: infer.TypeUtf8, Str: "x"}))

	s := a.Snapshot()
	assert.Nil(t, s.Mean)
	assert.Nil(t, s.Min)
	assert.Equal(t, int64(1), s.Rows)
}

func TestCoercedNulls(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, a, 7)
	a.ObserveCoercedNull()

	assert.Equal(t, int64(2), a.Rows())
	assert.Equal(t, int64(1), a.Nulls())
	assert.Equal(t, int64(1), a.CoercedNulls())
}

func TestDistinctExactUnderCap(t *testing.T) {
	a := NewAggregator(infer.TypeUtf8, 10)
	for _, s := range []string{"a", "b", "a", "c", "b"} {
		require.NoError(t, a.Observe(infer.Value{Type: infer.TypeUtf8, Str: s}))
	}

	distinct, exact := a.Distinct()
	assert.Equal(t, 3, distinct)
	assert.True(t, exact)
}

func TestDistinctOverflow(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 2)
	observeInts(t, a, 1, 2, 3, 4)

	_, exact := a.Distinct()
	assert.False(t, exact)
}

func TestCombineMatchesSinglePass(t *testing.T) {
	values := []int64{1, 5, 9, 12, 2, 8, 4, 11, 6, 3}

	single := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, single, values...)

	left := NewAggregator(infer.TypeInt64, 0)
	right := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, left, values[:4]...)
	observeInts(t, right, values[4:]...)
	require.NoError(t, left.Combine(right))

	want, got := single.Snapshot(), left.Snapshot()
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Distinct, got.Distinct)
	assert.InDelta(t, *want.Mean, *got.Mean, 1e-9)
	assert.InDelta(t, *want.Variance, *got.Variance, 1e-9)
	assert.Equal(t, *want.Min, *got.Min)
	assert.Equal(t, *want.Max, *got.Max)
}

func TestCombineWithEmpty(t *testing.T) {
	a := NewAggregator(infer.TypeFloat64, 0)
	require.NoError(t, a.Observe(infer.Value{Type: infer.TypeFloat64, Float: 3}))

	empty := NewAggregator(infer.TypeFloat64, 0)
	require.NoError(t, a.Combine(empty))
	require.NoError(t, empty.Combine(a))

	s := empty.Snapshot()
	assert.Equal(t, int64(1), s.Rows)
	assert.Equal(t, 3.0, *s.Mean)
}

func TestCombineTypeMismatch(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 0)
	b := NewAggregator(infer.TypeFloat64, 0)
	assert.Error(t, a.Combine(b))
}

func TestWidenToCombineMatchesSinglePass(t *testing.T) {
	ints := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, ints, 1, 2, 1000000)

	floats := NewAggregator(infer.TypeFloat64, 0)
	for _, x := range []float64{3.5, 4, 1e6} {
		require.NoError(t, floats.Observe(infer.Value{Type: infer.TypeFloat64, Float: x}))
	}

	merged := ints.WidenTo(infer.TypeFloat64)
	require.NoError(t, merged.Combine(floats.WidenTo(infer.TypeFloat64)))

	direct := NewAggregator(infer.TypeFloat64, 0)
	for _, x := range []float64{1, 2, 1e6, 3.5, 4, 1e6} {
		require.NoError(t, direct.Observe(infer.Value{Type: infer.TypeFloat64, Float: x}))
	}

	want, got := direct.Snapshot(), merged.Snapshot()
	assert.Equal(t, want.Rows, got.Rows)
	// The int 1000000 and the float 1e6 must land on the same key.
	assert.Equal(t, want.Distinct, got.Distinct)
	assert.InDelta(t, *want.Mean, *got.Mean, 1e-9)
	assert.InDelta(t, *want.Variance, *got.Variance, 1e-6)
	assert.Equal(t, *want.Min, *got.Min)
	assert.Equal(t, *want.Max, *got.Max)
}

func TestWidenToCarriesBoolMoments(t *testing.T) {
	bools := NewAggregator(infer.TypeBool, 0)
	for _, b := range []bool{true, false, true} {
		require.NoError(t, bools.Observe(infer.Value{Type: infer.TypeBool, Bool: b}))
	}

	s := bools.WidenTo(infer.TypeInt64).Snapshot()
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 2.0/3.0, *s.Mean, 1e-9)
	assert.Equal(t, 0.0, *s.Min)
	assert.Equal(t, 1.0, *s.Max)
	assert.Equal(t, 2, s.Distinct)
}

func TestWidenToUnorderedTargetDropsMoments(t *testing.T) {
	ints := NewAggregator(infer.TypeInt64, 0)
	observeInts(t, ints, 1, 2)
	ints.ObserveCoercedNull()

	s := ints.WidenTo(infer.TypeUtf8).Snapshot()
	assert.Nil(t, s.Mean)
	assert.Equal(t, int64(3), s.Rows)
	assert.Equal(t, int64(1), s.CoercedNulls)
	assert.Equal(t, 2, s.Distinct)
}

func TestCombineDistinctOverflowPropagates(t *testing.T) {
	a := NewAggregator(infer.TypeInt64, 2)
	b := NewAggregator(infer.TypeInt64, 2)
	observeInts(t, a, 1, 2)
	observeInts(t, b, 3, 4, 5)

	_, exact := b.Distinct()
	require.False(t, exact)

	require.NoError(t, a.Combine(b))
	_, exact = a.Distinct()
	assert.False(t, exact)
}
