package infer

import (
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/errors"
)

// RawValue is a single untyped cell before classification. Null marks an
// explicitly missing value; Text is the raw field content otherwise.
type RawValue struct {
	Null bool
	Text string
}

// Raw wraps a string into a non-null RawValue.
func Raw(text string) RawValue { return RawValue{Text: text} }

// NullValue is the missing-value marker. A null classifies successfully
// against every candidate type.
var NullValue = RawValue{Null: true}

// Value is a classified cell. Exactly one payload field is meaningful,
// selected by Type; Null values carry no payload at all.
type Value struct {
	Type ColumnType
	Null bool

	Int   int64   // Int64, DateTime (epoch seconds, UTC)
	Uint  uint64  // UInt64, Enum code once assigned
	Float float64 // Float64
	Bool  bool    // Bool
	Str   string  // Utf8, Enum category text before encoding
	Bytes []byte  // Binary, IPAddr (4 or 16 bytes)
}

// Classify attempts to interpret a raw value as the candidate type. Nulls
// always succeed. On mismatch it returns ErrClassifyMismatch, a bare
// sentinel: classification failure is an expected, frequent outcome during
// inference and must not pay for stack capture.
//
// Classification is deterministic and total over the candidate set: the
// same raw value and candidate always produce the same result, and
// TypeUtf8 and TypeBinary accept everything.
func Classify(raw RawValue, candidate ColumnType, cfg *config.BuildConfig) (Value, error) {
	if raw.Null {
		return Value{Type: candidate, Null: true}, nil
	}

	v := Value{Type: candidate}
	s := raw.Text

	switch candidate {
	case TypeBool:
		b, ok := parseBool(s)
		if !ok {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Bool = b

	case TypeInt64:
		// strconv.ParseInt is already strict: no whitespace, no decimal
		// point, no exponent, no thousands separators.
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Int = n

	case TypeUInt64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Uint = n

	case TypeFloat64:
		if !floatShaped(s) {
			return Value{}, errors.ErrClassifyMismatch
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Float = f

	case TypeDateTime:
		formats := config.DefaultDateTimeFormats
		if cfg != nil && len(cfg.DateTimeFormats) > 0 {
			formats = cfg.DateTimeFormats
		}
		t, ok := parseDateTime(s, formats)
		if !ok {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Int = t.Unix()

	case TypeIPAddr:
		addr, err := netip.ParseAddr(s)
		if err != nil || addr.Zone() != "" {
			return Value{}, errors.ErrClassifyMismatch
		}
		v.Bytes = addr.AsSlice()

	case TypeEnum:
		// Any text is a valid category; the cardinality cap is enforced
		// by the inferencer and the dictionary, not per value.
		v.Str = s

	case TypeUtf8:
		v.Str = s

	case TypeBinary:
		v.Bytes = []byte(s)

	default:
		return Value{}, errors.New(errors.ErrorTypeInternal,
			"classify: unknown candidate type "+candidate.String())
	}

	return v, nil
}

// parseBool recognizes the closed literal set: "true" and "false" in any
// case, plus the exact digits "1" and "0". Nothing else ("yes", "t",
// "on") qualifies; those stay text.
func parseBool(s string) (bool, bool) {
	switch s {
	case "1":
		return true, true
	case "0":
		return false, true
	}
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// floatShaped rejects inputs ParseFloat would accept but that are not
// decimal or scientific literals: "Inf", "NaN", hex floats, underscores.
func floatShaped(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == '.' || c == 'e' || c == 'E':
		case c == '+' || c == '-':
		default:
			return false
		}
	}
	return true
}

// parseDateTime tries each layout in order and returns the first match.
// Layouts without an explicit zone are interpreted as UTC.
func parseDateTime(s string, formats []string) (time.Time, bool) {
	for _, layout := range formats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeValues applies percent-decoding to every non-null value when the
// config enables it, returning the input slice untouched otherwise. Both
// inference and construction must see the same decoded text, so callers
// decode once up front rather than inside Classify.
func DecodeValues(values []RawValue, cfg *config.BuildConfig) []RawValue {
	if cfg == nil || !cfg.PercentDecode {
		return values
	}
	decoded := make([]RawValue, len(values))
	for i, raw := range values {
		if raw.Null {
			decoded[i] = raw
			continue
		}
		// PathUnescape, not QueryUnescape: '+' is a literal plus in field
		// data, not an encoded space.
		text, err := url.PathUnescape(raw.Text)
		if err != nil {
			// Malformed escapes keep the raw text; a bad "%" sequence is
			// data, not an error.
			text = raw.Text
		}
		decoded[i] = RawValue{Text: text}
	}
	return decoded
}
