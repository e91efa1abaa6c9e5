package manifest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/capsule/vm"
	"github.com/chazu/capsule/vm/actor"
)

// Heap is the live object graph built from a manifest.
type Heap struct {
	Classes map[string]*vm.Class
	Objects map[string]vm.HeapObject

	ids []string // declaration order
}

// Object returns the heap object declared with id.
func (h *Heap) Object(id string) (vm.HeapObject, bool) {
	obj, ok := h.Objects[id]
	return obj, ok
}

// IDs returns object ids in declaration order.
func (h *Heap) IDs() []string {
	return append([]string(nil), h.ids...)
}

// Build creates the declared classes and objects, then wires every field
// and element through the guard. Guard errors carry the location
// "<manifest> [<object>,<slot>]", both 1-based in declaration order and
// class slot order. Every failed binding is reported; the heap is only
// returned when all of them succeed.
func (m *Manifest) Build() (*Heap, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	classes, err := m.ResolveClasses()
	if err != nil {
		return nil, err
	}

	h := &Heap{
		Classes: classes,
		Objects: make(map[string]vm.HeapObject, len(m.Objects)),
	}
	for _, d := range m.Objects {
		obj, err := d.instantiate(classes[d.Class])
		if err != nil {
			return nil, err
		}
		h.Objects[d.ID] = obj
		h.ids = append(h.ids, d.ID)
	}

	var errs []error
	for i, d := range m.Objects {
		errs = append(errs, m.wire(h, i, d)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	log.Infof("built %d objects from %s", len(h.ids), m.Path)
	return h, nil
}

func (d ObjectDecl) instantiate(class *vm.Class) (vm.HeapObject, error) {
	c := class.DefaultCapability
	if d.Capability != "" {
		var err error
		if c, err = vm.ParseCapability(d.Capability); err != nil {
			return nil, fmt.Errorf("object %q: %w", d.ID, err)
		}
	}

	if d.Kind == KindArray {
		n := d.Length
		if n < len(d.Elements) {
			n = len(d.Elements)
		}
		return vm.NewArray(class, c, n), nil
	}
	if class.NumSlots == 0 {
		return vm.NewFieldlessObject(class, c), nil
	}
	return vm.NewObject(class, c), nil
}

func (m *Manifest) wire(h *Heap, index int, d ObjectDecl) []error {
	var errs []error
	loc := func(slot int) vm.SourceLocation {
		return vm.Loc(m.Path, index+1, slot+1)
	}

	switch obj := h.Objects[d.ID].(type) {
	case *vm.Object:
		for slot, name := range obj.Class().AllInstVarNames() {
			lit, ok := d.Fields[name]
			if !ok {
				continue
			}
			v, err := h.literal(lit)
			if err != nil {
				errs = append(errs, fmt.Errorf("object %q field %q: %w", d.ID, name, err))
				continue
			}
			if err := obj.InitField(slot, v, loc(slot)); err != nil {
				errs = append(errs, fmt.Errorf("object %q field %q: %w", d.ID, name, err))
			}
		}
	case *vm.Array:
		for i, lit := range d.Elements {
			v, err := h.literal(lit)
			if err != nil {
				errs = append(errs, fmt.Errorf("object %q element %d: %w", d.ID, i, err))
				continue
			}
			if err := obj.InitAt(i, v, loc(i)); err != nil {
				errs = append(errs, fmt.Errorf("object %q element %d: %w", d.ID, i, err))
			}
		}
	case *vm.FieldlessObject:
		if len(d.Fields) > 0 {
			errs = append(errs, fmt.Errorf("object %q: class %s has no fields", d.ID, vm.ClassName(obj)))
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// literal converts a decoded TOML or YAML value to a vm value. References
// are resolved against the heap.
func (h *Heap) literal(lit any) (vm.Value, error) {
	if ref, ok := refName(lit); ok {
		obj, found := h.Objects[ref]
		if !found {
			return nil, fmt.Errorf("unknown object @%s", ref)
		}
		return obj, nil
	}
	return primitive(lit)
}

func checkLiteral(lit any, ids map[string]bool) error {
	if ref, ok := refName(lit); ok {
		if !ids[ref] {
			return fmt.Errorf("unknown object @%s", ref)
		}
		return nil
	}
	_, err := primitive(lit)
	return err
}

func refName(lit any) (string, bool) {
	s, ok := lit.(string)
	if !ok || !strings.HasPrefix(s, "@") {
		return "", false
	}
	return s[1:], true
}

func primitive(lit any) (vm.Value, error) {
	switch x := lit.(type) {
	case nil:
		return vm.Nil, nil
	case int64:
		return vm.SmallInt(x), nil
	case int:
		return vm.SmallInt(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer literal %d overflows a small integer", x)
		}
		return vm.SmallInt(int64(x)), nil
	case float64:
		return vm.Float(x), nil
	case bool:
		return vm.Boolean(x), nil
	case string:
		if sym, ok := strings.CutPrefix(x, "#"); ok && sym != "" {
			return vm.Symbol(sym), nil
		}
		return vm.String(x), nil
	}
	return nil, fmt.Errorf("unsupported literal %v (%T)", lit, lit)
}

// ---------------------------------------------------------------------------
// Actors
// ---------------------------------------------------------------------------

// SpawnActors registers every declared actor with sys, all running
// behavior.
func (m *Manifest) SpawnActors(sys *actor.System, behavior actor.Behavior) ([]*actor.Actor, error) {
	spawned := make([]*actor.Actor, 0, len(m.Actors))
	for _, d := range m.Actors {
		c := vm.Isolate
		if d.Capability != "" {
			var err error
			if c, err = vm.ParseCapability(d.Capability); err != nil {
				return nil, fmt.Errorf("actor %q: %w", d.Name, err)
			}
		}
		opts := []actor.Option{actor.WithCapability(c)}
		if d.Mailbox > 0 {
			opts = append(opts, actor.WithMailboxSize(d.Mailbox))
		}
		a, err := sys.Spawn(d.Name, behavior, opts...)
		if err != nil {
			return nil, err
		}
		spawned = append(spawned, a)
	}
	return spawned, nil
}
