package ir

import "testing"

func TestFactValue_Hash64_DeterministicAcrossObjectKeyOrder(t *testing.T) {
	t.Parallel()

	a := NewObjectValue(map[string]FactValue{
		"alpha": NewStringValue("x"),
		"beta":  NewNumberValue(1),
	})
	b := NewObjectValue(map[string]FactValue{
		"beta":  NewNumberValue(1),
		"alpha": NewStringValue("x"),
	})

	if a.Hash64() != b.Hash64() {
		t.Fatalf("expected equal hash regardless of map iteration order")
	}
	if !a.Equal(b) {
		t.Fatalf("expected a.Equal(b) for equivalent objects")
	}
}

func TestFactValue_Hash64_DiffersForDifferentValues(t *testing.T) {
	t.Parallel()

	a := NewStringValue("x")
	b := NewStringValue("y")

	if a.Hash64() == b.Hash64() {
		t.Fatalf("expected different hashes for different string values")
	}
}

func TestFactValue_Equal_Array(t *testing.T) {
	t.Parallel()

	a := NewArrayValue([]FactValue{NewNumberValue(1), NewNumberValue(2)})
	b := NewArrayValue([]FactValue{NewNumberValue(1), NewNumberValue(2)})
	c := NewArrayValue([]FactValue{NewNumberValue(2), NewNumberValue(1)})

	if !a.Equal(b) {
		t.Fatalf("expected equal arrays to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected differently ordered arrays to compare unequal")
	}
}

func TestNullValue_Equal(t *testing.T) {
	t.Parallel()

	if !NullValue.Equal(NullValue) {
		t.Fatalf("expected NullValue.Equal(NullValue)")
	}
	if NullValue.Equal(NewStringValue("")) {
		t.Fatalf("expected NullValue to differ from empty string")
	}
}
