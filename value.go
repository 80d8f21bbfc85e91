package askit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind identifies which variant of a Value is populated.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt64
	ValueFloat64
	ValueString
	ValueArray
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueBool:
		return "boolean"
	case ValueInt64:
		return "integer"
	case ValueFloat64:
		return "number"
	case ValueString:
		return "string"
	case ValueArray:
		return "array"
	case ValueObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged union payload: Null, Bool, Int64, Float64, String,
// Array, or Object. The zero Value is Null. Array and Object variants
// share their backing slice/map by reference; treat them as immutable
// once handed to a Value (copy-on-write: callers that mutate a slice/map
// after wrapping it must clone first).
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

func NullValue() Value                { return Value{kind: ValueNull} }
func BoolValue(v bool) Value          { return Value{kind: ValueBool, b: v} }
func Int64Value(v int64) Value        { return Value{kind: ValueInt64, i: v} }
func Float64Value(v float64) Value    { return Value{kind: ValueFloat64, f: v} }
func StringValue(v string) Value      { return Value{kind: ValueString, s: v} }
func ArrayValue(items []Value) Value  { return Value{kind: ValueArray, arr: items} }
func ObjectValue(m map[string]Value) Value {
	return Value{kind: ValueObject, obj: m}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != ValueBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Int64() (int64, bool) {
	if v.kind != ValueInt64 {
		return 0, false
	}
	return v.i, true
}

func (v Value) Float64() (float64, bool) {
	if v.kind != ValueFloat64 {
		return 0, false
	}
	return v.f, true
}

func (v Value) String() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.s, true
}

// Array returns the underlying slice without copying; callers must not
// mutate it.
func (v Value) Array() ([]Value, bool) {
	if v.kind != ValueArray {
		return nil, false
	}
	return v.arr, true
}

// Object returns the underlying map without copying; callers must not
// mutate it.
func (v Value) Object() (map[string]Value, bool) {
	if v.kind != ValueObject {
		return nil, false
	}
	return v.obj, true
}

// Equal reports structural equality. Floats compare bitwise-unordered:
// NaN is never equal to anything, including another NaN.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.b == other.b
	case ValueInt64:
		return v.i == other.i
	case ValueFloat64:
		if math.IsNaN(v.f) || math.IsNaN(other.f) {
			return false
		}
		return v.f == other.f
	case ValueString:
		return v.s == other.s
	case ValueArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case ValueObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, lv := range v.obj {
			rv, ok := other.obj[k]
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON renders the value as plain JSON (no kind tag); see Data for
// the kind-tagged wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueBool:
		return json.Marshal(v.b)
	case ValueInt64:
		return json.Marshal(v.i)
	case ValueFloat64:
		return json.Marshal(v.f)
	case ValueString:
		return json.Marshal(v.s)
	case ValueArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case ValueObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return nil, &Error{Kind: KindInvalidValue, Message: fmt.Sprintf("unknown value kind %d", v.kind)}
	}
}

// UnmarshalJSON reconstructs a Value from plain JSON, preferring Int64
// for numbers with no fractional or exponent part so integer round-trips
// survive without a kind hint. Callers that need kind-aware coercion
// against a Data.Kind tag should decode into a Data instead (see
// coerceToKind).
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	out, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(x), nil
	case json.Number:
		return valueFromNumber(x)
	case string:
		return StringValue(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			val, err := valueFromAny(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = val
		}
		return ArrayValue(items), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			val, err := valueFromAny(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = val
		}
		return ObjectValue(m), nil
	default:
		return Value{}, &Error{Kind: KindInvalidValue, Message: fmt.Sprintf("unsupported JSON type %T", raw)}
	}
}

func valueFromNumber(n json.Number) (Value, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int64Value(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, &Error{Kind: KindInvalidValue, Message: "invalid number " + s, Err: err}
	}
	return Float64Value(f), nil
}
