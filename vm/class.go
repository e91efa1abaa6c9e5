package vm

// ---------------------------------------------------------------------------
// Class: shape and isolation policy shared by instances
// ---------------------------------------------------------------------------

// Class describes the shape of its instances and whether they opt into
// isolation semantics.
type Class struct {
	Name       string   // Class name
	Superclass *Class   // Parent class (nil for a root class)
	InstVars   []string // Instance variables declared by this class
	NumSlots   int      // Total number of slots including inherited ones

	// Transfer marks a "transfer type": instances crossing an actor
	// boundary are deep copied rather than passed by reference.
	Transfer bool

	// DefaultCapability is stamped on new instances.
	DefaultCapability Capability
}

// NewClass creates a class with the given superclass and instance variables.
// The class inherits Transfer and DefaultCapability from its superclass.
func NewClass(name string, superclass *Class, instVars ...string) *Class {
	c := &Class{
		Name:              name,
		Superclass:        superclass,
		InstVars:          instVars,
		DefaultCapability: Local,
	}
	if superclass != nil {
		c.NumSlots = superclass.NumSlots
		c.Transfer = superclass.Transfer
		c.DefaultCapability = superclass.DefaultCapability
	}
	c.NumSlots += len(instVars)
	return c
}

// NewTransferClass creates a transfer-type class whose instances start out
// as Isolate.
func NewTransferClass(name string, superclass *Class, instVars ...string) *Class {
	c := NewClass(name, superclass, instVars...)
	c.Transfer = true
	c.DefaultCapability = Isolate
	return c
}

// InstVarIndex returns the slot index for an instance variable by name.
// Returns -1 if the variable is not found.
func (c *Class) InstVarIndex(name string) int {
	for i, n := range c.InstVars {
		if n == name {
			return c.instVarOffset() + i
		}
	}
	if c.Superclass != nil {
		return c.Superclass.InstVarIndex(name)
	}
	return -1
}

// instVarOffset returns the starting slot index for this class's instance
// variables, accounting for inherited ones.
func (c *Class) instVarOffset() int {
	if c.Superclass == nil {
		return 0
	}
	return c.Superclass.NumSlots
}

// AllInstVarNames returns all instance variable names including inherited ones.
func (c *Class) AllInstVarNames() []string {
	if c.Superclass == nil {
		return c.InstVars
	}
	inherited := c.Superclass.AllInstVarNames()
	result := make([]string, len(inherited)+len(c.InstVars))
	copy(result, inherited)
	copy(result[len(inherited):], c.InstVars)
	return result
}

// IsSubclassOf returns true if c is a subclass of other (or is the same class).
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

// NewInstance creates an instance tagged with the class default capability.
// Classes without slots produce fieldless objects.
func (c *Class) NewInstance() HeapObject {
	if c.NumSlots == 0 {
		return NewFieldlessObject(c, c.DefaultCapability)
	}
	return NewObject(c, c.DefaultCapability)
}

func className(c *Class) string {
	if c == nil {
		return "?"
	}
	return c.Name
}
