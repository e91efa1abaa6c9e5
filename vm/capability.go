package vm

import "fmt"

// Capability constrains how references to a heap object may be stored,
// aliased and passed between actors.
type Capability uint8

const (
	// Immutable objects are deeply frozen and shared across actors freely.
	Immutable Capability = iota
	// Isolate objects are uniquely owned by one actor.
	Isolate
	// AliasedIsolate marks an isolate whose reference has been bound
	// somewhere else, suspending the unique-owner guarantee.
	AliasedIsolate
	// Local objects belong to one actor's local heap.
	Local
	// Unsafe objects escape all checks.
	Unsafe
)

// NumCapabilities is the number of defined capability values.
const NumCapabilities = 5

var capabilityNames = [NumCapabilities]string{
	Immutable:      "immutable",
	Isolate:        "isolate",
	AliasedIsolate: "aliased-isolate",
	Local:          "local",
	Unsafe:         "unsafe",
}

// String returns the lowercase name used in manifests and error messages.
func (c Capability) String() string {
	if int(c) < len(capabilityNames) {
		return capabilityNames[c]
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// Valid returns true if c is one of the defined capability values.
func (c Capability) Valid() bool {
	return c < NumCapabilities
}

// ParseCapability converts a capability name back to its value.
func ParseCapability(name string) (Capability, error) {
	for i, n := range capabilityNames {
		if n == name {
			return Capability(i), nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// AllCapabilities returns every capability value in declaration order.
func AllCapabilities() []Capability {
	return []Capability{Immutable, Isolate, AliasedIsolate, Local, Unsafe}
}

// Supports reports whether a reference tagged value may be stored inside a
// holder tagged c. Undefined capability values support nothing and are
// supported by nothing except Unsafe.
func (c Capability) Supports(value Capability) bool {
	if !value.Valid() {
		return c == Unsafe
	}
	switch c {
	case Isolate, AliasedIsolate, Immutable:
		return value == Isolate || value == Immutable
	case Local:
		return value != Unsafe
	case Unsafe:
		return true
	}
	return false
}

// CapabilityOf returns the capability of a value. Primitives are Immutable.
func CapabilityOf(v Value) Capability {
	if h, ok := v.(HeapObject); ok {
		return h.Capability()
	}
	return Immutable
}
