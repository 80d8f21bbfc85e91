package askit

import "encoding/json"

// Data is the payload carried on every edge: a free-form Kind tag plus the
// Value it describes. For primitive variants Kind matches the variant
// name (unit|boolean|integer|number|string); for arrays Kind is the
// element kind (an empty array has Kind "array"); for objects Kind is
// either "object" or a caller-supplied custom tag such as "message".
type Data struct {
	Kind  string
	Value Value
}

// NewData infers Kind from v's variant and wraps it.
func NewData(v Value) Data {
	return Data{Kind: inferKind(v), Value: v}
}

// NewDataWithKind wraps v under an explicit, possibly custom, Kind tag
// (e.g. an object tagged "message").
func NewDataWithKind(kind string, v Value) Data {
	return Data{Kind: kind, Value: v}
}

func inferKind(v Value) string {
	switch v.Kind() {
	case ValueNull:
		return "unit"
	case ValueBool:
		return "boolean"
	case ValueInt64:
		return "integer"
	case ValueFloat64:
		return "number"
	case ValueString:
		return "string"
	case ValueArray:
		arr, _ := v.Array()
		if len(arr) == 0 {
			return "array"
		}
		return inferKind(arr[0])
	case ValueObject:
		return "object"
	default:
		return "unit"
	}
}

type dataWire struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders {"kind": "...", "value": <jsonValue>}.
func (d Data) MarshalJSON() ([]byte, error) {
	valueJSON, err := json.Marshal(d.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dataWire{Kind: d.Kind, Value: valueJSON})
}

// UnmarshalJSON reconstructs Value from (kind, jsonValue) using the
// kind-aware coercion rules: arrays tagged with a scalar kind coerce
// each element to that kind (e.g. an "integer" array truncates floats
// to int64). When kind is empty, kind is inferred from the decoded value.
func (d *Data) UnmarshalJSON(b []byte) error {
	var w dataWire
	if err := json.Unmarshal(b, &w); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	if len(w.Value) == 0 {
		w.Value = []byte("null")
	}
	var raw Value
	if err := json.Unmarshal(w.Value, &raw); err != nil {
		return err
	}
	coerced, err := coerceToKind(w.Kind, raw)
	if err != nil {
		return err
	}
	kind := w.Kind
	if kind == "" {
		kind = inferKind(coerced)
	}
	*d = Data{Kind: kind, Value: coerced}
	return nil
}

// coerceToKind applies kind-aware coercion: a scalar kind tag on an array
// value coerces every element to that kind. Integer coercion truncates
// floats toward zero.
func coerceToKind(kind string, v Value) (Value, error) {
	switch kind {
	case "integer":
		return coerceScalar(v, coerceToInt64)
	case "number":
		return coerceScalar(v, coerceToFloat64)
	case "boolean":
		return coerceScalar(v, func(v Value) (Value, error) { return v, nil })
	case "string":
		return coerceScalar(v, func(v Value) (Value, error) { return v, nil })
	default:
		return v, nil
	}
}

func coerceScalar(v Value, elemCoerce func(Value) (Value, error)) (Value, error) {
	if v.Kind() != ValueArray {
		return elemCoerce(v)
	}
	arr, _ := v.Array()
	out := make([]Value, len(arr))
	for i, el := range arr {
		c, err := elemCoerce(el)
		if err != nil {
			return Value{}, err
		}
		out[i] = c
	}
	return ArrayValue(out), nil
}

func coerceToInt64(v Value) (Value, error) {
	switch v.Kind() {
	case ValueInt64:
		return v, nil
	case ValueFloat64:
		f, _ := v.Float64()
		return Int64Value(int64(f)), nil
	case ValueNull:
		return v, nil
	default:
		return Value{}, &Error{Kind: KindInvalidArrayValue, Message: "cannot coerce " + v.Kind().String() + " to integer"}
	}
}

func coerceToFloat64(v Value) (Value, error) {
	switch v.Kind() {
	case ValueFloat64:
		return v, nil
	case ValueInt64:
		i, _ := v.Int64()
		return Float64Value(float64(i)), nil
	case ValueNull:
		return v, nil
	default:
		return Value{}, &Error{Kind: KindInvalidArrayValue, Message: "cannot coerce " + v.Kind().String() + " to number"}
	}
}
