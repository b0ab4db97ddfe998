package device

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric request field that accepts either a JSON number or a
// string holding one. Decoding never fails on a bad value; instead the
// Number is marked unusable and validation rejects it.
type Number struct {
	value  float64
	raw    string
	set    bool
	parsed bool
}

// NumberOf returns a Number holding f.
func NumberOf(f float64) Number {
	return Number{
		value:  f,
		raw:    strconv.FormatFloat(f, 'g', -1, 64),
		set:    true,
		parsed: true,
	}
}

// ParseNumber interprets s the same way a JSON string value is interpreted.
func ParseNumber(s string) Number {
	n := Number{raw: s, set: true}
	n.value, n.parsed = parseFloat(s)
	return n
}

// Float64 returns the value and whether it is present, numeric and finite.
func (n Number) Float64() (float64, bool) {
	if !n.set || !n.parsed || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		return 0, false
	}
	return n.value, true
}

// IsSet reports whether the field appeared in the input.
func (n Number) IsSet() bool {
	return n.set
}

// String returns the value as it was supplied.
func (n Number) String() string {
	return n.raw
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = ParseNumber(s)
		return nil
	}

	// Numbers, booleans, objects and arrays all land here; only the first parse.
	*n = ParseNumber(string(data))
	return nil
}

// MarshalJSON implements json.Marshaler. Usable values are written as JSON
// numbers, anything else as the original text.
func (n Number) MarshalJSON() ([]byte, error) {
	if v, ok := n.Float64(); ok {
		return json.Marshal(v)
	}
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
