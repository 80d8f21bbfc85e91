package askit

import "testing"

func TestContextWithPort(t *testing.T) {
	c := NewContext("in").WithVar("x", Int64Value(1))
	c2 := c.WithPort("out")
	if c2.Port != "out" {
		t.Errorf("Port = %q, want %q", c2.Port, "out")
	}
	if c.Port != "in" {
		t.Errorf("original Port mutated: got %q", c.Port)
	}
	v, ok := c2.Var("x")
	if !ok || !v.Equal(Int64Value(1)) {
		t.Errorf("expected var x to carry over, got %v, %v", v, ok)
	}
}

func TestContextWithVarDoesNotMutateOriginal(t *testing.T) {
	c := NewContext("in")
	c2 := c.WithVar("a", StringValue("1"))
	if _, ok := c.Var("a"); ok {
		t.Error("original context should not see var added via WithVar")
	}
	if _, ok := c2.Var("a"); !ok {
		t.Error("new context should see the added var")
	}
}

func TestContextWithCorrID(t *testing.T) {
	c := NewContext("in").WithCorrID(42)
	if c.CorrID == nil || *c.CorrID != 42 {
		t.Errorf("CorrID = %v, want 42", c.CorrID)
	}
}
