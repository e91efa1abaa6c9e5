package vm

import (
	"fmt"
	"strconv"
)

// Value represents any value the object model can store in a slot.
//
// The set of implementations is closed:
//   - Primitives: SmallInt, Float, Boolean, String, Symbol and the Nil sentinel
//   - Heap objects: *Object, *FieldlessObject, *Array
//
// Primitives carry no capability tag and are treated as Immutable.
type Value interface {
	isValue()
}

// SmallInt is an integer primitive.
type SmallInt int64

// Float is a floating point primitive.
type Float float64

// Boolean is a boolean primitive.
type Boolean bool

// String is an immutable string primitive.
type String string

// Symbol is an interned name.
type Symbol string

type nilValue struct{}

// Nil is the canonical nil sentinel. Empty slots and array holes hold Nil.
var Nil Value = nilValue{}

// Pre-defined boolean values
const (
	True  = Boolean(true)
	False = Boolean(false)
)

func (SmallInt) isValue() {}
func (Float) isValue()    {}
func (Boolean) isValue()  {}
func (String) isValue()   {}
func (Symbol) isValue()   {}
func (nilValue) isValue() {}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNil returns true if v is the Nil sentinel (or a Go nil).
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(nilValue)
	return ok
}

// IsPrimitive returns true if v carries no heap identity.
func IsPrimitive(v Value) bool {
	switch v.(type) {
	case SmallInt, Float, Boolean, String, Symbol, nilValue, nil:
		return true
	}
	return false
}

// AsHeapObject returns v as a heap object, or nil if v is a primitive.
func AsHeapObject(v Value) HeapObject {
	h, _ := v.(HeapObject)
	return h
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

// FormatValue renders a value for diagnostics.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil, nilValue:
		return "nil"
	case SmallInt:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(bool(x))
	case String:
		return strconv.Quote(string(x))
	case Symbol:
		return "#" + string(x)
	case HeapObject:
		return fmt.Sprintf("a %s<%s>", className(x.Class()), x.Capability())
	}
	return fmt.Sprintf("%v", v)
}
