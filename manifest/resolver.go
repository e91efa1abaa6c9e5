package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/capsule/vm"
)

// classOrder returns the class declarations sorted so that every
// superclass precedes its subclasses. Declarations naming an unknown
// superclass are ordered as roots; Validate reports them separately.
func classOrder(decls []ClassDecl) ([]ClassDecl, error) {
	byName := make(map[string]ClassDecl, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(decls))
	order := make([]ClassDecl, 0, len(decls))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("class hierarchy cycle: %s", strings.Join(append(path, name), " -> "))
		}
		d, ok := byName[name]
		if !ok {
			return nil
		}
		state[name] = visiting
		if d.Superclass != "" {
			if err := visit(d.Superclass, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, d)
		return nil
	}

	// Deterministic order regardless of declaration position.
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ResolveClasses creates the vm classes declared by the manifest, resolving
// superclasses first.
func (m *Manifest) ResolveClasses() (map[string]*vm.Class, error) {
	order, err := classOrder(m.Classes)
	if err != nil {
		return nil, err
	}

	classes := make(map[string]*vm.Class, len(order))
	for _, d := range order {
		var super *vm.Class
		if d.Superclass != "" {
			super = classes[d.Superclass]
			if super == nil {
				return nil, fmt.Errorf("class %q: unknown superclass %q", d.Name, d.Superclass)
			}
		}

		c := vm.NewClass(d.Name, super, d.Fields...)
		if d.Transfer {
			c.Transfer = true
			c.DefaultCapability = vm.Isolate
		}
		if d.Capability != "" {
			dc, err := vm.ParseCapability(d.Capability)
			if err != nil {
				return nil, fmt.Errorf("class %q: %w", d.Name, err)
			}
			if (dc == vm.Isolate || dc == vm.AliasedIsolate) && !c.Transfer {
				return nil, fmt.Errorf("class %q: %s instances must be a transfer type", d.Name, dc)
			}
			c.DefaultCapability = dc
		}
		classes[d.Name] = c
		log.Debugf("class %s: %d slots, transfer=%t, default %s", c.Name, c.NumSlots, c.Transfer, c.DefaultCapability)
	}
	return classes, nil
}
