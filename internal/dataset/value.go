package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
)

// Value is a single cell: missing, text or number
type Value struct {
	kind Kind
	text string
	num  float64
}

// Missing returns the explicit "no value" marker
func Missing() Value {
	return Value{}
}

// Text returns a text value. The empty string is treated as missing.
func Text(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{kind: KindText, text: s}
}

// Number returns a numeric value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Int returns a numeric value holding n
func Int(n int) Value {
	return Number(float64(n))
}

// Kind reports the variant held by v
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether v is the missing marker
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Float returns the numeric content of v
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Int returns the numeric content of v when it is a whole number
func (v Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// String renders v the way it appeared in the source: "" for missing,
// the text itself, or the shortest decimal form of a number.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes missing as null, numbers as JSON numbers and text as strings
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*v = Missing()
	case strings.HasPrefix(s, `"`):
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = Text(text)
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decoding value %s: %w", s, err)
		}
		*v = Number(f)
	}
	return nil
}

// parseNumber accepts plain decimal notation only ("40", "-1.5", "4.52", "1e3").
// Hex, digit separators and words such as "Inf" are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && !strings.ContainsRune("+-.eE", r) {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
