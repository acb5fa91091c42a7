package metric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MissingMarker is the placeholder upstream payloads and spreadsheet cells use for "no data".
const MissingMarker = "--"

// Value is a number that may be MISSING. The zero value is MISSING.
type Value struct {
	n  float64
	ok bool
}

// Missing is the MISSING value. It is distinct from Of(0).
var Missing = Value{}

// Of returns a present value. NaN and infinities collapse to Missing.
func Of(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Missing
	}
	return Value{n: n, ok: true}
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.n, v.ok }

// IsMissing reports whether v carries no number.
func (v Value) IsMissing() bool { return !v.ok }

// Float returns the number, or 0 when missing. Callers that care must check IsMissing first.
func (v Value) Float() float64 { return v.n }

// Int64 truncates the value towards zero.
func (v Value) Int64() (int64, bool) {
	if !v.ok {
		return 0, false
	}
	return int64(v.n), true
}

// NonNegative turns negative numbers into Missing. Counts and TVL are never negative upstream,
// so a negative reading is treated as malformed.
func (v Value) NonNegative() Value {
	if v.ok && v.n < 0 {
		return Missing
	}
	return v
}

// Add sums two values. Missing on either side yields Missing.
func (v Value) Add(o Value) Value {
	if !v.ok || !o.ok {
		return Missing
	}
	return Of(v.n + o.n)
}

func (v Value) String() string {
	if !v.ok {
		return "MISSING"
	}
	return strconv.FormatFloat(v.n, 'f', -1, 64)
}

// MarshalJSON encodes Missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.n)
}

// UnmarshalJSON accepts numbers, numeric strings, null and the missing marker.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = ToNumericOrMissing(raw)
	return nil
}

// ToNumericOrMissing converts a raw upstream value into a Value. Strings are trimmed and parsed;
// nil, empty strings, the missing marker, non-numeric input, NaN and infinities return Missing.
// It never panics.
func ToNumericOrMissing(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Missing
	case Value:
		return t
	case *Value:
		if t == nil {
			return Missing
		}
		return *t
	case float64:
		return Of(t)
	case float32:
		return Of(float64(t))
	case int:
		return Of(float64(t))
	case int8:
		return Of(float64(t))
	case int16:
		return Of(float64(t))
	case int32:
		return Of(float64(t))
	case int64:
		return Of(float64(t))
	case uint:
		return Of(float64(t))
	case uint8:
		return Of(float64(t))
	case uint16:
		return Of(float64(t))
	case uint32:
		return Of(float64(t))
	case uint64:
		return Of(float64(t))
	case json.Number:
		return parseNumeric(string(t))
	case string:
		return parseNumeric(t)
	case *string:
		if t == nil {
			return Missing
		}
		return parseNumeric(*t)
	default:
		return Missing
	}
}

func parseNumeric(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == MissingMarker {
		return Missing
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing
	}
	return Of(n)
}
