package vm

import "fmt"

// ---------------------------------------------------------------------------
// Graph transfer
//
// Transfer produces an independent copy of the reference graph reachable
// from an isolate-owned root, for delivery to another actor. Structural
// sharing and cycles inside the copied graph are preserved through the
// transfer map, and every copy is stamped with the destination capability.
// ---------------------------------------------------------------------------

// TransferMap maps an original heap object to its copy within one transfer
// operation (typically one message send). It is never shared between
// goroutines.
type TransferMap map[HeapObject]HeapObject

// NewTransferMap creates an empty transfer map.
func NewTransferMap() TransferMap {
	return make(TransferMap)
}

// Lookup returns the copy already produced for original, if any.
func (tm TransferMap) Lookup(original Value) (Value, bool) {
	h, ok := original.(HeapObject)
	if !ok {
		return nil, false
	}
	c, ok := tm[h]
	return c, ok
}

// TransferClass is the messaging layer's view of a value.
type TransferClass int

const (
	// NoTransfer values are passed by reference.
	NoTransfer TransferClass = iota
	// RequiresTransfer values are deep copied when crossing actors.
	RequiresTransfer
)

func (c TransferClass) String() string {
	if c == RequiresTransfer {
		return "requires-transfer"
	}
	return "no-op"
}

// ClassifyForTransfer reports whether v is an instance of a transfer type.
func ClassifyForTransfer(v Value) TransferClass {
	switch x := v.(type) {
	case *Object:
		if x.class != nil && x.class.Transfer {
			return RequiresTransfer
		}
	case *FieldlessObject:
		if x.class != nil && x.class.Transfer {
			return RequiresTransfer
		}
	case *Array:
		if x.class != nil && x.class.Transfer {
			return RequiresTransfer
		}
	}
	return NoTransfer
}

// Transfer copies the graph reachable from root for an actor whose objects
// are tagged dest. Values that are not transfer types are returned
// unchanged. If tm is nil a fresh map is used; passing a map lets several
// transfers of one send share copies.
//
// Transfer assumes root has already passed the guard. It panics with a
// *TransferError if root is already present in tm or if it meets a storage
// representation it does not know.
func Transfer(root Value, dest Capability, tm TransferMap) Value {
	if ClassifyForTransfer(root) == NoTransfer {
		return root
	}
	if tm == nil {
		tm = NewTransferMap()
	}

	t := &transfer{dest: dest, tm: tm}
	before := len(tm)
	clone := t.copy(root.(HeapObject))
	for len(t.stack) > 0 {
		item := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.walk(item)
	}
	log.Debugf("transferred a %s as %s: %d objects copied", ClassName(clone), dest, len(tm)-before)
	return clone
}

// pending is a clone whose reference children still point at originals.
type pending struct {
	clone HeapObject
}

type transfer struct {
	dest  Capability
	tm    TransferMap
	stack []pending
}

// copy clones the basics of h, registers the clone and schedules its
// children. Objects without references are stamped immediately.
func (t *transfer) copy(h HeapObject) HeapObject {
	switch x := h.(type) {
	case *Object:
		clone := x.cloneBasics()
		t.register(x, clone)
		t.stack = append(t.stack, pending{clone: clone})
		return clone
	case *FieldlessObject:
		clone := x.cloneBasics()
		t.register(x, clone)
		clone.capability = t.dest
		return clone
	case *Array:
		clone := x.cloneBasics()
		t.register(x, clone)
		if clone.storage.Kind().IsPrimitive() {
			clone.capability = t.dest
			return clone
		}
		t.stack = append(t.stack, pending{clone: clone})
		return clone
	}
	panic(&TransferError{Kind: UnsupportedStorage, Detail: fmt.Sprintf("%T", h)})
}

func (t *transfer) register(original, clone HeapObject) {
	if _, dup := t.tm[original]; dup {
		panic(&TransferError{
			Kind:   DoubleTransfer,
			Detail: fmt.Sprintf("a %s was already copied by this transfer", ClassName(original)),
		})
	}
	t.tm[original] = clone
}

// resolve returns the value to store in a clone in place of v.
func (t *transfer) resolve(v Value) Value {
	if ClassifyForTransfer(v) == NoTransfer {
		return v
	}
	h := v.(HeapObject)
	if c, ok := t.tm[h]; ok {
		return c
	}
	return t.copy(h)
}

// walk rewrites the reference children of a clone and stamps it.
func (t *transfer) walk(p pending) {
	switch clone := p.clone.(type) {
	case *Object:
		for i := 0; i < clone.numSlots; i++ {
			clone.SetSlot(i, t.resolve(clone.Slot(i)))
		}
		clone.capability = t.dest
	case *Array:
		switch s := clone.storage.(type) {
		case ObjectStorage:
			for i, v := range s {
				s[i] = t.resolve(v)
			}
		case *PartialStorage:
			for i, v := range s.Items {
				if IsNil(v) {
					continue
				}
				s.Items[i] = t.resolve(v)
			}
		case EmptyStorage, IntStorage, FloatStorage, BoolStorage:
		default:
			panic(&TransferError{Kind: UnsupportedStorage, Detail: fmt.Sprintf("%T", clone.storage)})
		}
		clone.capability = t.dest
	default:
		panic(&TransferError{Kind: UnsupportedStorage, Detail: fmt.Sprintf("%T", p.clone)})
	}
}
