package vm

import "fmt"

// ---------------------------------------------------------------------------
// Array storage representations
// ---------------------------------------------------------------------------

// ArrayStorage is the physical representation of an array's elements. The
// set of implementations is closed; code switching over it handles every
// case and treats anything else as a defect.
type ArrayStorage interface {
	Len() int
	Kind() StorageKind
}

// StorageKind names an ArrayStorage representation.
type StorageKind int

const (
	StorageEmpty StorageKind = iota
	StorageInt
	StorageFloat
	StorageBool
	StorageObject
	StoragePartial
)

func (k StorageKind) String() string {
	switch k {
	case StorageEmpty:
		return "empty"
	case StorageInt:
		return "int"
	case StorageFloat:
		return "float"
	case StorageBool:
		return "bool"
	case StorageObject:
		return "object"
	case StoragePartial:
		return "partial"
	default:
		return fmt.Sprintf("storage(%d)", int(k))
	}
}

// IsPrimitive reports whether the storage provably holds no references.
func (k StorageKind) IsPrimitive() bool {
	return k == StorageEmpty || k == StorageInt || k == StorageFloat || k == StorageBool
}

// EmptyStorage is an array whose every element is Nil.
type EmptyStorage struct{ Length int }

// IntStorage holds only SmallInt elements.
type IntStorage []int64

// FloatStorage holds only Float elements.
type FloatStorage []float64

// BoolStorage holds only Boolean elements.
type BoolStorage []bool

// ObjectStorage holds arbitrary values.
type ObjectStorage []Value

// PartialStorage holds arbitrary values with Nil holes. Empty counts the
// holes; once it reaches zero the array switches to ObjectStorage.
type PartialStorage struct {
	Items []Value
	Empty int
}

func (s EmptyStorage) Len() int    { return s.Length }
func (s IntStorage) Len() int      { return len(s) }
func (s FloatStorage) Len() int    { return len(s) }
func (s BoolStorage) Len() int     { return len(s) }
func (s ObjectStorage) Len() int   { return len(s) }
func (s *PartialStorage) Len() int { return len(s.Items) }

func (EmptyStorage) Kind() StorageKind    { return StorageEmpty }
func (IntStorage) Kind() StorageKind      { return StorageInt }
func (FloatStorage) Kind() StorageKind    { return StorageFloat }
func (BoolStorage) Kind() StorageKind     { return StorageBool }
func (ObjectStorage) Kind() StorageKind   { return StorageObject }
func (*PartialStorage) Kind() StorageKind { return StoragePartial }

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// Array is a homogeneous indexable heap object with specialised storage.
type Array struct {
	header
	storage ArrayStorage
}

func (*Array) isValue() {}

// NewArray creates an array of length Nil elements.
func NewArray(class *Class, c Capability, length int) *Array {
	return &Array{
		header:  header{class: class, capability: c},
		storage: EmptyStorage{Length: length},
	}
}

// NewArrayFrom creates an array holding values, choosing the most specific
// storage. The guard is not consulted.
func NewArrayFrom(class *Class, c Capability, values []Value) *Array {
	return &Array{
		header:  header{class: class, capability: c},
		storage: specialize(values),
	}
}

func specialize(values []Value) ArrayStorage {
	var ints, floats, bools, nils int
	for _, v := range values {
		switch v.(type) {
		case SmallInt:
			ints++
		case Float:
			floats++
		case Boolean:
			bools++
		case nil, nilValue:
			nils++
		}
	}
	n := len(values)
	switch {
	case nils == n:
		return EmptyStorage{Length: n}
	case ints == n:
		s := make(IntStorage, n)
		for i, v := range values {
			s[i] = int64(v.(SmallInt))
		}
		return s
	case floats == n:
		s := make(FloatStorage, n)
		for i, v := range values {
			s[i] = float64(v.(Float))
		}
		return s
	case bools == n:
		s := make(BoolStorage, n)
		for i, v := range values {
			s[i] = bool(v.(Boolean))
		}
		return s
	}
	items := make([]Value, n)
	for i, v := range values {
		if v == nil {
			v = Nil
		}
		items[i] = v
	}
	if nils > 0 {
		return &PartialStorage{Items: items, Empty: nils}
	}
	return ObjectStorage(items)
}

// Storage returns the current storage representation.
func (a *Array) Storage() ArrayStorage {
	return a.storage
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return a.storage.Len()
}

// At returns the element at index i. Panics if i is out of range.
func (a *Array) At(i int) Value {
	if i < 0 || i >= a.storage.Len() {
		panic("Array.At: index out of range")
	}
	switch s := a.storage.(type) {
	case EmptyStorage:
		return Nil
	case IntStorage:
		return SmallInt(s[i])
	case FloatStorage:
		return Float(s[i])
	case BoolStorage:
		return Boolean(s[i])
	case ObjectStorage:
		return s[i]
	case *PartialStorage:
		return s.Items[i]
	}
	panic(fmt.Sprintf("Array.At: unknown storage %T", a.storage))
}

// Elements returns a copy of all elements.
func (a *Array) Elements() []Value {
	out := make([]Value, a.Len())
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// AtPut stores v at index i after consulting the guard with the array as
// holder. Arrays tagged Immutable reject element writes. Returns the
// previous element.
func (a *Array) AtPut(i int, v Value, loc SourceLocation) (Value, error) {
	old := a.At(i)
	plan, err := planBind(a.capability, old, v, loc)
	if err != nil {
		return old, err
	}
	if a.capability == Immutable {
		return old, newCapabilityError(KindImmutableHolder, a.capability, CapabilityOf(v), loc)
	}
	plan.commit()
	a.store(i, v)
	return old, nil
}

// InitAt stores v at index i as part of array initialization. Unlike AtPut
// it is permitted on Immutable arrays.
func (a *Array) InitAt(i int, v Value, loc SourceLocation) error {
	old := a.At(i)
	plan, err := planBind(a.capability, old, v, loc)
	if err != nil {
		return err
	}
	plan.commit()
	a.store(i, v)
	return nil
}

// store writes without consulting the guard, generalising the storage when
// the value does not fit the current representation.
func (a *Array) store(i int, v Value) {
	if v == nil {
		v = Nil
	}
	switch s := a.storage.(type) {
	case EmptyStorage:
		if IsNil(v) {
			return
		}
		items := make([]Value, s.Length)
		for j := range items {
			items[j] = Nil
		}
		items[i] = v
		if s.Length == 1 {
			a.storage = ObjectStorage(items)
		} else {
			a.storage = &PartialStorage{Items: items, Empty: s.Length - 1}
		}
		return
	case IntStorage:
		if x, ok := v.(SmallInt); ok {
			s[i] = int64(x)
			return
		}
	case FloatStorage:
		if x, ok := v.(Float); ok {
			s[i] = float64(x)
			return
		}
	case BoolStorage:
		if x, ok := v.(Boolean); ok {
			s[i] = bool(x)
			return
		}
	case ObjectStorage:
		s[i] = v
		return
	case *PartialStorage:
		wasNil := IsNil(s.Items[i])
		s.Items[i] = v
		switch {
		case wasNil && !IsNil(v):
			s.Empty--
		case !wasNil && IsNil(v):
			s.Empty++
		}
		if s.Empty == 0 {
			a.storage = ObjectStorage(s.Items)
		}
		return
	default:
		panic(fmt.Sprintf("Array.store: unknown storage %T", a.storage))
	}

	// Primitive storage receiving a value of another type.
	items := a.Elements()
	items[i] = v
	a.storage = specialize(items)
}

// cloneBasics copies the array with a fresh identity and fresh backing
// storage; element references are shared until the transfer rewrites them.
func (a *Array) cloneBasics() *Array {
	clone := &Array{header: a.header}
	switch s := a.storage.(type) {
	case EmptyStorage:
		clone.storage = s
	case IntStorage:
		clone.storage = append(IntStorage(nil), s...)
	case FloatStorage:
		clone.storage = append(FloatStorage(nil), s...)
	case BoolStorage:
		clone.storage = append(BoolStorage(nil), s...)
	case ObjectStorage:
		clone.storage = append(ObjectStorage(nil), s...)
	case *PartialStorage:
		clone.storage = &PartialStorage{Items: append([]Value(nil), s.Items...), Empty: s.Empty}
	default:
		panic(&TransferError{Kind: UnsupportedStorage, Detail: fmt.Sprintf("%T", a.storage)})
	}
	return clone
}
