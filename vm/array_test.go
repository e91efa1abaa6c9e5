package vm

import (
	"errors"
	"testing"
)

func TestArraySpecialize(t *testing.T) {
	tests := []struct {
		name   string
		values []Value
		want   StorageKind
	}{
		{"empty", nil, StorageEmpty},
		{"nils", []Value{Nil, Nil}, StorageEmpty},
		{"ints", []Value{SmallInt(1), SmallInt(2)}, StorageInt},
		{"floats", []Value{Float(1), Float(2)}, StorageFloat},
		{"bools", []Value{True, False}, StorageBool},
		{"mixed", []Value{SmallInt(1), String("a")}, StorageObject},
		{"holes", []Value{SmallInt(1), Nil}, StoragePartial},
	}
	for _, tt := range tests {
		a := NewArrayFrom(nil, Local, tt.values)
		if got := a.Storage().Kind(); got != tt.want {
			t.Errorf("%s: storage = %s, want %s", tt.name, got, tt.want)
		}
		if a.Len() != len(tt.values) {
			t.Errorf("%s: len = %d, want %d", tt.name, a.Len(), len(tt.values))
		}
	}
}

func TestArrayStorageTransitions(t *testing.T) {
	a := NewArray(nil, Local, 2)
	if a.Storage().Kind() != StorageEmpty {
		t.Fatalf("new array storage = %s, want empty", a.Storage().Kind())
	}

	if _, err := a.AtPut(0, String("x"), testLoc); err != nil {
		t.Fatalf("AtPut: %v", err)
	}
	if a.Storage().Kind() != StoragePartial {
		t.Errorf("after one write storage = %s, want partial", a.Storage().Kind())
	}

	if _, err := a.AtPut(1, String("y"), testLoc); err != nil {
		t.Fatalf("AtPut: %v", err)
	}
	if a.Storage().Kind() != StorageObject {
		t.Errorf("after filling storage = %s, want object", a.Storage().Kind())
	}
	if a.At(0) != String("x") || a.At(1) != String("y") {
		t.Errorf("elements = %v", a.Elements())
	}
}

func TestArrayPrimitiveGeneralizes(t *testing.T) {
	a := NewArrayFrom(nil, Local, []Value{SmallInt(1), SmallInt(2)})
	if _, err := a.AtPut(1, Float(2.5), testLoc); err != nil {
		t.Fatalf("AtPut: %v", err)
	}
	if a.Storage().Kind() != StorageObject {
		t.Errorf("storage = %s, want object", a.Storage().Kind())
	}
	if a.At(0) != SmallInt(1) || a.At(1) != Float(2.5) {
		t.Errorf("elements = %v", a.Elements())
	}

	b := NewArrayFrom(nil, Local, []Value{SmallInt(1), SmallInt(2)})
	b.store(0, Nil)
	if b.Storage().Kind() != StoragePartial {
		t.Errorf("storage = %s, want partial", b.Storage().Kind())
	}
}

func TestArrayAtPutGuard(t *testing.T) {
	cls := newCellClass()
	arr := NewArray(NewTransferClass("Array", nil), Isolate, 2)
	a := NewObject(cls, Isolate)
	b := NewObject(cls, Isolate)

	if _, err := arr.AtPut(0, a, testLoc); err != nil {
		t.Fatalf("AtPut: %v", err)
	}
	if a.Capability() != AliasedIsolate {
		t.Errorf("a = %s, want aliased-isolate", a.Capability())
	}
	if _, err := arr.AtPut(1, a, testLoc); !errors.Is(err, ErrStillAliased) {
		t.Errorf("err = %v, want ErrStillAliased", err)
	}
	if _, err := arr.AtPut(0, b, testLoc); err != nil {
		t.Fatalf("AtPut overwrite: %v", err)
	}
	if a.Capability() != Isolate {
		t.Errorf("overwritten element = %s, want isolate", a.Capability())
	}

	local := NewObject(NewClass("Thing", nil, "x"), Local)
	if _, err := arr.AtPut(1, local, testLoc); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}

	frozen := NewArray(nil, Immutable, 1)
	if _, err := frozen.AtPut(0, SmallInt(1), testLoc); !errors.Is(err, ErrImmutableHolder) {
		t.Errorf("err = %v, want ErrImmutableHolder", err)
	}
}

func TestArrayAtOutOfRange(t *testing.T) {
	a := NewArray(nil, Local, 1)
	defer func() {
		if recover() == nil {
			t.Error("At(1) should panic")
		}
	}()
	a.At(1)
}
