package askit

import (
	"encoding/json"
	"testing"
)

func TestNewDataInfersKind(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(), "unit"},
		{"bool", BoolValue(true), "boolean"},
		{"int", Int64Value(1), "integer"},
		{"float", Float64Value(1.5), "number"},
		{"string", StringValue("x"), "string"},
		{"empty array", ArrayValue(nil), "array"},
		{"int array", ArrayValue([]Value{Int64Value(1)}), "integer"},
		{"object", ObjectValue(map[string]Value{"a": Int64Value(1)}), "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewData(tt.v).Kind; got != tt.want {
				t.Errorf("NewData(%v).Kind = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestDataJSONRoundTrip(t *testing.T) {
	d := NewData(Int64Value(42))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var out Data
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Kind != d.Kind || !out.Value.Equal(d.Value) {
		t.Errorf("round-trip mismatch: %+v -> %s -> %+v", d, b, out)
	}
}

func TestDataCustomKind(t *testing.T) {
	d := NewDataWithKind("message", ObjectValue(map[string]Value{"role": StringValue("user")}))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var out Data
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Kind != "message" {
		t.Errorf("Kind = %q, want %q", out.Kind, "message")
	}
}

func TestDataIntegerArrayCoercesFloats(t *testing.T) {
	raw := []byte(`{"kind":"integer","value":[1,2.9,3]}`)
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatal(err)
	}
	arr, ok := d.Value.Array()
	if !ok {
		t.Fatal("expected array value")
	}
	want := []int64{1, 2, 3}
	for i, el := range arr {
		got, ok := el.Int64()
		if !ok {
			t.Fatalf("element %d not integer: %v", i, el)
		}
		if got != want[i] {
			t.Errorf("element %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestDataKindInferredWhenOmitted(t *testing.T) {
	raw := []byte(`{"value":"hello"}`)
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatal(err)
	}
	if d.Kind != "string" {
		t.Errorf("Kind = %q, want %q", d.Kind, "string")
	}
}
