package infer

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
)

func TestClassifyNullAlwaysSucceeds(t *testing.T) {
	cfg := config.NewBuildConfig()
	for _, candidate := range Candidates {
		v, err := Classify(NullValue, candidate, cfg)
		require.NoError(t, err, "null must classify as %s", candidate)
		assert.True(t, v.Null)
		assert.Equal(t, candidate, v.Type)
	}
}

func TestClassifyBool(t *testing.T) {
	cfg := config.NewBuildConfig()

	tests := []struct {
		in   string
		want bool
		ok   bool
	}{
		{"true", true, true},
		{"False", false, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"0", false, true},
		{"yes", false, false},
		{"t", false, false},
		{"01", false, false},
		{"", false, false},
	}

	for _, test := range tests {
		v, err := Classify(Raw(test.in), TypeBool, cfg)
		if test.ok {
			require.NoError(t, err, "input %q", test.in)
			assert.Equal(t, test.want, v.Bool, "input %q", test.in)
		} else {
			assert.ErrorIs(t, err, errors.ErrClassifyMismatch, "input %q", test.in)
		}
	}
}

func TestClassifyInt64(t *testing.T) {
	cfg := config.NewBuildConfig()

	v, err := Classify(Raw("-42"), TypeInt64, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v.Int)

	for _, bad := range []string{"4.0", "4e2", " 4", "4 ", "1,000", "", "0x10"} {
		_, err := Classify(Raw(bad), TypeInt64, cfg)
		assert.ErrorIs(t, err, errors.ErrClassifyMismatch, "input %q", bad)
	}
}

func TestClassifyUInt64(t *testing.T) {
	cfg := config.NewBuildConfig()

	v, err := Classify(Raw("18446744073709551615"), TypeUInt64, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v.Uint)

	_, err = Classify(Raw("-1"), TypeUInt64, cfg)
	assert.ErrorIs(t, err, errors.ErrClassifyMismatch)
}

func TestClassifyFloat64(t *testing.T) {
	cfg := config.NewBuildConfig()

	for in, want := range map[string]float64{
		"3.5":    3.5,
		"-0.25":  -0.25,
		"1e3":    1000,
		"2.5E-1": 0.25,
		"7":      7,
	} {
		v, err := Classify(Raw(in), TypeFloat64, cfg)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, v.Float, "input %q", in)
	}

	for _, bad := range []string{"NaN", "Inf", "-inf", "0x1p2", "1_000", "", "nan"} {
		_, err := Classify(Raw(bad), TypeFloat64, cfg)
		assert.ErrorIs(t, err, errors.ErrClassifyMismatch, "input %q", bad)
	}
}

func TestClassifyDateTime(t *testing.T) {
	cfg := config.NewBuildConfig()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-06-01 13:45:00", time.Date(2024, 6, 1, 13, 45, 0, 0, time.UTC)},
		{"2024-06-01T13:45:00", time.Date(2024, 6, 1, 13, 45, 0, 0, time.UTC)},
		{"2024-06-01T13:45:00Z", time.Date(2024, 6, 1, 13, 45, 0, 0, time.UTC)},
		{"2024-06-01 13:45:00 +0200", time.Date(2024, 6, 1, 11, 45, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		v, err := Classify(Raw(test.in), TypeDateTime, cfg)
		require.NoError(t, err, "input %q", test.in)
		assert.Equal(t, test.want.Unix(), v.Int, "input %q", test.in)
	}

	for _, bad := range []string{"01/06/2024", "2024-13-01", "noon", ""} {
		_, err := Classify(Raw(bad), TypeDateTime, cfg)
		assert.ErrorIs(t, err, errors.ErrClassifyMismatch, "input %q", bad)
	}
}

func TestClassifyDateTimeCustomFormats(t *testing.T) {
	cfg := config.NewBuildConfig()
	cfg.DateTimeFormats = []string{"02/01/2006"}

	v, err := Classify(Raw("01/06/2024"), TypeDateTime, cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Unix(), v.Int)

	_, err = Classify(Raw("2024-06-01"), TypeDateTime, cfg)
	assert.ErrorIs(t, err, errors.ErrClassifyMismatch)
}

func TestClassifyIPAddr(t *testing.T) {
	cfg := config.NewBuildConfig()

	v, err := Classify(Raw("192.168.0.1"), TypeIPAddr, cfg)
	require.NoError(t, err)
	assert.Len(t, v.Bytes, 4)

	v, err = Classify(Raw("2001:db8::1"), TypeIPAddr, cfg)
	require.NoError(t, err)
	assert.Len(t, v.Bytes, 16)

	for _, bad := range []string{"192.168.0.256", "host.example.com", "fe80::1%eth0", ""} {
		_, err := Classify(Raw(bad), TypeIPAddr, cfg)
		assert.ErrorIs(t, err, errors.ErrClassifyMismatch, "input %q", bad)
	}
}

func TestClassifyUniversalTypes(t *testing.T) {
	cfg := config.NewBuildConfig()

	for _, in := range []string{"", "anything", "123", "\x00\xff"} {
		v, err := Classify(Raw(in), TypeUtf8, cfg)
		require.NoError(t, err)
		assert.Equal(t, in, v.Str)

		v, err = Classify(Raw(in), TypeEnum, cfg)
		require.NoError(t, err)
		assert.Equal(t, in, v.Str)

		v, err = Classify(Raw(in), TypeBinary, cfg)
		require.NoError(t, err)
		assert.Equal(t, []byte(in), v.Bytes)
	}
}

func TestClassifyMismatchIsSentinel(t *testing.T) {
	cfg := config.NewBuildConfig()
	_, err := Classify(Raw("abc"), TypeInt64, cfg)
	assert.True(t, stderrors.Is(err, errors.ErrClassifyMismatch))
}

func TestDecodeValues(t *testing.T) {
	cfg := config.NewBuildConfig()
	values := []RawValue{Raw("a%20b"), NullValue, Raw("plain")}

	// Disabled by default: values pass through untouched.
	assert.Equal(t, values, DecodeValues(values, cfg))

	cfg.PercentDecode = true
	decoded := DecodeValues(values, cfg)
	assert.Equal(t, "a b", decoded[0].Text)
	assert.True(t, decoded[1].Null)
	assert.Equal(t, "plain", decoded[2].Text)

	// Malformed escapes keep the raw text.
	bad := DecodeValues([]RawValue{Raw("50%")}, cfg)
	assert.Equal(t, "50%", bad[0].Text)
}
