package vm

// HeapObject is implemented by every value that participates in the
// capability scheme. The set of implementations is closed: *Object,
// *FieldlessObject and *Array.
type HeapObject interface {
	Value
	Class() *Class
	Capability() Capability
	SetCapability(c Capability)
	objectHeader() *header
}

// header is the common prefix of every heap object. The capability tag is
// a single mutable field read and written without synchronisation; only
// the actor holding the Isolate reference may touch it.
type header struct {
	class      *Class
	capability Capability
}

func (h *header) Class() *Class              { return h.class }
func (h *header) Capability() Capability     { return h.capability }
func (h *header) SetCapability(c Capability) { h.capability = c }
func (h *header) objectHeader() *header      { return h }

// ---------------------------------------------------------------------------
// Object: plain object with slots
// ---------------------------------------------------------------------------

// Object is a heap object with instance variable slots.
//
// Objects use a hybrid slot layout optimized for common cases:
//   - 4 inline slots for objects with ≤4 instance variables (most objects)
//   - Overflow slice for objects with >4 instance variables
type Object struct {
	header

	numSlots int

	slot0 Value
	slot1 Value
	slot2 Value
	slot3 Value

	// Overflow for objects with >4 instance variables.
	// Only allocated when needed.
	overflow []Value
}

// NumInlineSlots is the number of slots stored directly in the Object struct.
const NumInlineSlots = 4

func (*Object) isValue() {}

// NewObject creates a new Object of the given class with capability c.
// All slots are initialized to Nil.
func NewObject(class *Class, c Capability) *Object {
	n := 0
	if class != nil {
		n = class.NumSlots
	}
	return newObjectWithSlotCount(class, c, n)
}

func newObjectWithSlotCount(class *Class, c Capability, numSlots int) *Object {
	obj := &Object{
		header:   header{class: class, capability: c},
		numSlots: numSlots,
		slot0:    Nil,
		slot1:    Nil,
		slot2:    Nil,
		slot3:    Nil,
	}
	if numSlots > NumInlineSlots {
		obj.overflow = make([]Value, numSlots-NumInlineSlots)
		for i := range obj.overflow {
			obj.overflow[i] = Nil
		}
	}
	return obj
}

// NewObjectWithSlots creates a new Object and initializes its slots without
// consulting the guard. Used by the object model itself (cloning, loaders
// that have already checked their input).
func NewObjectWithSlots(class *Class, c Capability, slots []Value) *Object {
	obj := newObjectWithSlotCount(class, c, len(slots))
	for i, v := range slots {
		obj.SetSlot(i, v)
	}
	return obj
}

// ---------------------------------------------------------------------------
// Slot access
// ---------------------------------------------------------------------------

// Slot returns the value at the given slot index.
// Panics if index is out of range.
func (obj *Object) Slot(index int) Value {
	obj.checkIndex(index, "Object.Slot")
	switch index {
	case 0:
		return obj.slot0
	case 1:
		return obj.slot1
	case 2:
		return obj.slot2
	case 3:
		return obj.slot3
	default:
		return obj.overflow[index-NumInlineSlots]
	}
}

// SetSlot sets the value at the given slot index without consulting the
// guard. Panics if index is out of range.
func (obj *Object) SetSlot(index int, value Value) {
	obj.checkIndex(index, "Object.SetSlot")
	if value == nil {
		value = Nil
	}
	switch index {
	case 0:
		obj.slot0 = value
	case 1:
		obj.slot1 = value
	case 2:
		obj.slot2 = value
	case 3:
		obj.slot3 = value
	default:
		obj.overflow[index-NumInlineSlots] = value
	}
}

func (obj *Object) checkIndex(index int, op string) {
	if index < 0 || index >= obj.numSlots {
		panic(op + ": index out of range")
	}
}

// NumSlots returns the number of slots in this object.
func (obj *Object) NumSlots() int {
	return obj.numSlots
}

// ForEachSlot calls fn for each slot in the object.
func (obj *Object) ForEachSlot(fn func(index int, value Value)) {
	for i := 0; i < obj.numSlots; i++ {
		fn(i, obj.Slot(i))
	}
}

// AllSlots returns all slot values as a slice.
// This allocates; use ForEachSlot for allocation-free iteration.
func (obj *Object) AllSlots() []Value {
	slots := make([]Value, obj.numSlots)
	obj.ForEachSlot(func(i int, v Value) { slots[i] = v })
	return slots
}

// ReadField returns the value of the named instance variable.
func (obj *Object) ReadField(name string) (Value, bool) {
	if obj.class == nil {
		return nil, false
	}
	idx := obj.class.InstVarIndex(name)
	if idx < 0 || idx >= obj.numSlots {
		return nil, false
	}
	return obj.Slot(idx), true
}

// cloneBasics returns a shallow copy with a fresh identity: same class,
// same capability, same slot contents.
func (obj *Object) cloneBasics() *Object {
	clone := *obj
	if obj.overflow != nil {
		clone.overflow = make([]Value, len(obj.overflow))
		copy(clone.overflow, obj.overflow)
	}
	return &clone
}

// ---------------------------------------------------------------------------
// Guarded writes
// ---------------------------------------------------------------------------

// WriteField stores value into slot index after consulting the guard with
// this object as the holder. Objects tagged Immutable reject field writes.
// Returns the previous slot value.
func (obj *Object) WriteField(index int, value Value, loc SourceLocation) (Value, error) {
	old := obj.Slot(index)
	plan, err := planBind(obj.capability, old, value, loc)
	if err != nil {
		return old, err
	}
	if obj.capability == Immutable {
		return old, newCapabilityError(KindImmutableHolder, obj.capability, CapabilityOf(value), loc)
	}
	plan.commit()
	obj.SetSlot(index, value)
	return old, nil
}

// InitField stores value into slot index as part of object initialization.
// Unlike WriteField it is permitted on Immutable holders.
func (obj *Object) InitField(index int, value Value, loc SourceLocation) error {
	old := obj.Slot(index)
	plan, err := planBind(obj.capability, old, value, loc)
	if err != nil {
		return err
	}
	plan.commit()
	obj.SetSlot(index, value)
	return nil
}

// WriteNamedField is WriteField addressed by instance variable name.
func (obj *Object) WriteNamedField(name string, value Value, loc SourceLocation) (Value, error) {
	idx := -1
	if obj.class != nil {
		idx = obj.class.InstVarIndex(name)
	}
	if idx < 0 || idx >= obj.numSlots {
		return nil, &FieldError{Class: className(obj.class), Field: name, Location: loc}
	}
	return obj.WriteField(idx, value, loc)
}

// ---------------------------------------------------------------------------
// FieldlessObject
// ---------------------------------------------------------------------------

// FieldlessObject is a heap object without instance variables. It still
// carries identity, class and capability.
type FieldlessObject struct {
	header
}

func (*FieldlessObject) isValue() {}

// NewFieldlessObject creates a fieldless instance of class tagged c.
func NewFieldlessObject(class *Class, c Capability) *FieldlessObject {
	return &FieldlessObject{header: header{class: class, capability: c}}
}

func (obj *FieldlessObject) cloneBasics() *FieldlessObject {
	clone := *obj
	return &clone
}

// ClassName returns the name of the heap object's class, or "?" if unset.
func ClassName(h HeapObject) string {
	return className(h.Class())
}
