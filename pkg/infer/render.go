package infer

import (
	"net/netip"
	"strconv"
	"time"
)

// canonicalDateTime is the rendering layout for datetime values. It is
// also the second entry of the default accepted layouts, so rendered
// values re-classify as DateTime.
const canonicalDateTime = "2006-01-02 15:04:05"

// Render produces the canonical text form of a value. The rendering is
// chosen so that a rendered value classifies successfully under Utf8
// trivially and under the value's own type where it round-trips.
func (v Value) Render() string {
	switch v.Type {
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeInt64:
		return strconv.FormatInt(v.Int, 10)
	case TypeUInt64:
		return strconv.FormatUint(v.Uint, 10)
	case TypeFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeDateTime:
		return time.Unix(v.Int, 0).UTC().Format(canonicalDateTime)
	case TypeIPAddr:
		addr, ok := netip.AddrFromSlice(v.Bytes)
		if !ok {
			return string(v.Bytes)
		}
		return addr.String()
	case TypeBinary:
		return string(v.Bytes)
	default:
		// Enum carries its category text, Utf8 its value.
		return v.Str
	}
}
