package space

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface over the scalar types a hyperparameter may
// take. Only Int, Float, Str, and Bool implement it. Keeping the set closed
// guarantees every Configuration can be canonically serialized and
// fingerprinted.
type Value interface {
	value() // Sealed - only these types implement it

	// Canonical returns the canonical string form used for fingerprinting
	// and display. The form round-trips exactly.
	Canonical() string
}

// Int represents an integer parameter value. Always int64.
type Int int64

func (Int) value() {}

// Canonical returns the base-10 form.
func (v Int) Canonical() string { return strconv.FormatInt(int64(v), 10) }

// Float represents a floating-point parameter value.
//
// NaN and infinities are rejected at validation time; they have no canonical
// JSON form and would break fingerprint stability.
type Float float64

func (Float) value() {}

// Canonical returns the shortest form that round-trips through ParseFloat.
func (v Float) Canonical() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// Str represents a string parameter value.
type Str string

func (Str) value() {}

// Canonical returns the JSON-quoted form.
// json.Marshal of a string cannot fail, so the error is discarded.
func (v Str) Canonical() string {
	b, _ := json.Marshal(string(v))
	return string(b)
}

// Bool represents a boolean parameter value.
type Bool bool

func (Bool) value() {}

// Canonical returns "true" or "false".
func (v Bool) Canonical() string { return strconv.FormatBool(bool(v)) }

// FromAny converts a dynamically typed scalar (as produced by YAML or JSON
// decoding) into a Value. Integral floats decode as Int so a YAML "10" and a
// JSON 10.0 fingerprint identically.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case int:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case string:
		return Str(x), nil
	case bool:
		return Bool(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// validateValue rejects values without a stable canonical form.
func validateValue(v Value) error {
	f, ok := v.(Float)
	if !ok {
		return nil
	}
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return fmt.Errorf("non-finite float value %v", float64(f))
	}
	return nil
}
