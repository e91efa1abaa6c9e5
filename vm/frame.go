package vm

// Frame holds the argument and variable slots of one activation. Frames
// nest lexically: variable lookups that miss the current frame continue in
// the outer one (non-local variables). Every binding into a frame slot goes
// through the guard with the frame's capability as the holder.
type Frame struct {
	capability Capability
	outer      *Frame
	args       []Value
	names      []string
	locals     []Value
}

// NewFrame creates an activation with the given arguments (argument init on
// call entry). Each argument is checked against the frame capability; an
// aliased isolate is rejected. Arguments keep their capability: the
// argument slot takes over the caller's reference, and reading it out
// aliases or consumes it. Either every argument is accepted or none is.
func NewFrame(c Capability, outer *Frame, args []Value, loc SourceLocation) (*Frame, error) {
	for _, a := range args {
		vc := CapabilityOf(a)
		if vc == AliasedIsolate {
			return nil, reject(KindStillAliased, c, vc, loc)
		}
		if !c.Supports(vc) {
			return nil, reject(KindUnsupported, c, vc, loc)
		}
	}
	f := &Frame{capability: c, outer: outer, args: make([]Value, len(args))}
	for i, a := range args {
		if a == nil {
			a = Nil
		}
		f.args[i] = a
	}
	return f, nil
}

// Capability returns the holder capability of the frame's slots.
func (f *Frame) Capability() Capability {
	return f.capability
}

// Outer returns the lexically enclosing frame, or nil.
func (f *Frame) Outer() *Frame {
	return f.outer
}

// NumArgs returns the number of argument slots.
func (f *Frame) NumArgs() int {
	return len(f.args)
}

// ---------------------------------------------------------------------------
// Arguments
// ---------------------------------------------------------------------------

// Argument reads argument i without consuming it. An Isolate argument
// becomes AliasedIsolate; reading an aliased argument is rejected.
func (f *Frame) Argument(i int, loc SourceLocation) (Value, error) {
	v := f.args[i]
	if err := GuardRead(f.capability, v, loc); err != nil {
		return nil, err
	}
	return v, nil
}

// TakeArgument destructively reads argument i: the slot is cleared and an
// aliased isolate returns to Isolate.
func (f *Frame) TakeArgument(i int) Value {
	return ConsumeSlot(&f.args[i])
}

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

// Define declares name in this frame and binds v to it. Redefining a name
// overwrites the existing binding.
func (f *Frame) Define(name string, v Value, loc SourceLocation) error {
	if idx := f.index(name); idx >= 0 {
		_, err := f.bind(idx, v, loc)
		return err
	}
	if err := GuardBind(f.capability, Nil, v, loc); err != nil {
		return err
	}
	if v == nil {
		v = Nil
	}
	f.names = append(f.names, name)
	f.locals = append(f.locals, v)
	return nil
}

// Write binds v to an existing variable, searching outer frames for
// non-local variables. The holder is the frame that owns the variable.
// Returns the previous value.
func (f *Frame) Write(name string, v Value, loc SourceLocation) (Value, error) {
	owner, idx := f.lookup(name)
	if owner == nil {
		return nil, &VariableError{Name: name, Location: loc}
	}
	return owner.bind(idx, v, loc)
}

// Read returns the value of a variable without any transition.
func (f *Frame) Read(name string) (Value, bool) {
	owner, idx := f.lookup(name)
	if owner == nil {
		return nil, false
	}
	return owner.locals[idx], true
}

// Take destructively reads a variable: it is reset to Nil and an aliased
// isolate returns to Isolate.
func (f *Frame) Take(name string) (Value, bool) {
	owner, idx := f.lookup(name)
	if owner == nil {
		return nil, false
	}
	return ConsumeSlot(&owner.locals[idx]), true
}

// Names returns the variables declared directly in this frame.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

func (f *Frame) bind(idx int, v Value, loc SourceLocation) (Value, error) {
	old := f.locals[idx]
	if err := GuardBind(f.capability, old, v, loc); err != nil {
		return old, err
	}
	if v == nil {
		v = Nil
	}
	f.locals[idx] = v
	return old, nil
}

func (f *Frame) index(name string) int {
	for i, n := range f.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (f *Frame) lookup(name string) (*Frame, int) {
	for cur := f; cur != nil; cur = cur.outer {
		if idx := cur.index(name); idx >= 0 {
			return cur, idx
		}
	}
	return nil, -1
}
