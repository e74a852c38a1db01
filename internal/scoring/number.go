package scoring

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric field as found in attempt payloads.
// It accepts JSON numbers, numeric strings, booleans and null. Null leaves the
// field absent; anything that does not parse is kept as present-but-invalid
// so callers can tell "missing" from "garbage".
type Number struct {
	Value   float64
	Present bool
	Valid   bool
}

// Of returns a present, valid Number.
func Of(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Present: true}
	}
	return Number{Value: v, Present: true, Valid: true}
}

// Invalid returns a present Number that failed to parse.
func Invalid() Number { return Number{Present: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	*n = Number{Present: true}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			n.Valid = true
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Of(f)
		}
	case 't':
		*n = Of(1)
	case 'f':
		*n = Of(0)
	case '{', '[':
		// objects and arrays are never numeric
	default:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			*n = Of(f)
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Present || !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}
