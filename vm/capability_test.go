package vm

import "testing"

func TestSupportsIsTotal(t *testing.T) {
	// rows: holder, columns: value (Immutable, Isolate, AliasedIsolate, Local, Unsafe)
	want := map[Capability][NumCapabilities]bool{
		Immutable:      {true, true, false, false, false},
		Isolate:        {true, true, false, false, false},
		AliasedIsolate: {true, true, false, false, false},
		Local:          {true, true, true, true, false},
		Unsafe:         {true, true, true, true, true},
	}

	pairs := 0
	for _, holder := range AllCapabilities() {
		for _, value := range AllCapabilities() {
			pairs++
			if got := holder.Supports(value); got != want[holder][value] {
				t.Errorf("%s.Supports(%s) = %v, want %v", holder, value, got, want[holder][value])
			}
		}
	}
	if pairs != 25 {
		t.Errorf("checked %d pairs, want 25", pairs)
	}
}

func TestSupportsNamedPairs(t *testing.T) {
	if !Immutable.Supports(Immutable) {
		t.Error("immutable should support immutable")
	}
	if !Immutable.Supports(Isolate) {
		t.Error("immutable should support isolate")
	}
	if Isolate.Supports(Local) {
		t.Error("isolate should not support local")
	}
	for _, c := range AllCapabilities() {
		if !Unsafe.Supports(c) {
			t.Errorf("unsafe should support %s", c)
		}
	}
}

func TestSupportsUndefinedCapability(t *testing.T) {
	bogus := Capability(42)
	for _, c := range AllCapabilities() {
		if bogus.Supports(c) {
			t.Errorf("undefined holder should not support %s", c)
		}
		if c != Unsafe && c.Supports(bogus) {
			t.Errorf("%s should not support an undefined value", c)
		}
	}
}

func TestCapabilityNames(t *testing.T) {
	for _, c := range AllCapabilities() {
		parsed, err := ParseCapability(c.String())
		if err != nil {
			t.Fatalf("ParseCapability(%q): %v", c.String(), err)
		}
		if parsed != c {
			t.Errorf("ParseCapability(%q) = %s, want %s", c.String(), parsed, c)
		}
	}
	if _, err := ParseCapability("shared"); err == nil {
		t.Error("expected error for unknown capability name")
	}
	if got := Capability(9).String(); got != "capability(9)" {
		t.Errorf("String() = %q, want capability(9)", got)
	}
}

func TestCapabilityOf(t *testing.T) {
	cls := NewClass("Point", nil, "x", "y")
	obj := NewObject(cls, Local)

	tests := []struct {
		name string
		v    Value
		want Capability
	}{
		{"int", SmallInt(3), Immutable},
		{"string", String("s"), Immutable},
		{"nil", Nil, Immutable},
		{"object", obj, Local},
	}
	for _, tt := range tests {
		if got := CapabilityOf(tt.v); got != tt.want {
			t.Errorf("CapabilityOf(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
