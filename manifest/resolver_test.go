package manifest

import (
	"strings"
	"testing"

	"github.com/chazu/capsule/vm"
	"github.com/chazu/capsule/vm/actor"
)

func TestClassOrder(t *testing.T) {
	decls := []ClassDecl{
		{Name: "Leaf", Superclass: "Mid"},
		{Name: "Mid", Superclass: "Root"},
		{Name: "Root"},
		{Name: "Other"},
	}
	order, err := classOrder(decls)
	if err != nil {
		t.Fatalf("classOrder: %v", err)
	}

	pos := make(map[string]int)
	for i, d := range order {
		pos[d.Name] = i
	}
	if len(order) != len(decls) {
		t.Fatalf("order has %d classes, want %d", len(order), len(decls))
	}
	if !(pos["Root"] < pos["Mid"] && pos["Mid"] < pos["Leaf"]) {
		t.Errorf("superclasses must precede subclasses: %v", pos)
	}
}

func TestClassOrderCycle(t *testing.T) {
	_, err := classOrder([]ClassDecl{
		{Name: "A", Superclass: "B"},
		{Name: "B", Superclass: "C"},
		{Name: "C", Superclass: "A"},
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestResolveClasses(t *testing.T) {
	m := &Manifest{Classes: []ClassDecl{
		{Name: "Sub", Superclass: "Node", Fields: []string{"extra"}},
		{Name: "Node", Fields: []string{"value", "next"}, Transfer: true},
		{Name: "Frozen", Fields: []string{"x"}, Capability: "immutable"},
		{Name: "Plain", Fields: []string{"x"}},
	}}

	classes, err := m.ResolveClasses()
	if err != nil {
		t.Fatalf("ResolveClasses: %v", err)
	}

	tests := []struct {
		name     string
		slots    int
		transfer bool
		cap      vm.Capability
	}{
		{"Node", 2, true, vm.Isolate},
		{"Sub", 3, true, vm.Isolate},
		{"Frozen", 1, false, vm.Immutable},
		{"Plain", 1, false, vm.Local},
	}
	for _, tt := range tests {
		c := classes[tt.name]
		if c == nil {
			t.Errorf("class %s missing", tt.name)
			continue
		}
		if c.NumSlots != tt.slots {
			t.Errorf("%s.NumSlots = %d, want %d", tt.name, c.NumSlots, tt.slots)
		}
		if c.Transfer != tt.transfer {
			t.Errorf("%s.Transfer = %t, want %t", tt.name, c.Transfer, tt.transfer)
		}
		if c.DefaultCapability != tt.cap {
			t.Errorf("%s.DefaultCapability = %s, want %s", tt.name, c.DefaultCapability, tt.cap)
		}
	}

	if classes["Sub"].Superclass != classes["Node"] {
		t.Error("Sub should inherit from Node")
	}
	if idx := classes["Sub"].InstVarIndex("extra"); idx != 2 {
		t.Errorf("Sub extra index = %d, want 2", idx)
	}
}

func TestResolveClassesRejectsIsolateWithoutTransfer(t *testing.T) {
	m := &Manifest{Classes: []ClassDecl{
		{Name: "Plain", Fields: []string{"x"}, Capability: "isolate"},
	}}
	_, err := m.ResolveClasses()
	if err == nil || !strings.Contains(err.Error(), `class "Plain": isolate instances must be a transfer type`) {
		t.Fatalf("err = %v", err)
	}

	// An inherited transfer flag is enough.
	m = &Manifest{Classes: []ClassDecl{
		{Name: "Node", Fields: []string{"v"}, Transfer: true},
		{Name: "Sub", Superclass: "Node", Capability: "isolate"},
	}}
	classes, err := m.ResolveClasses()
	if err != nil {
		t.Fatalf("ResolveClasses: %v", err)
	}
	if classes["Sub"].DefaultCapability != vm.Isolate {
		t.Errorf("Sub default = %s, want isolate", classes["Sub"].DefaultCapability)
	}
}

func TestSpawnActors(t *testing.T) {
	m := &Manifest{Actors: []ActorDecl{
		{Name: "I1"},
		{Name: "I2", Capability: "local", Mailbox: 2},
	}}
	sys := actor.NewSystem()
	defer sys.Close()

	actors, err := m.SpawnActors(sys, nil)
	if err != nil {
		t.Fatalf("SpawnActors: %v", err)
	}
	if len(actors) != 2 {
		t.Fatalf("spawned %d actors, want 2", len(actors))
	}
	if actors[0].Capability() != vm.Isolate {
		t.Errorf("I1 capability = %s, want isolate", actors[0].Capability())
	}
	if actors[1].Capability() != vm.Local {
		t.Errorf("I2 capability = %s, want local", actors[1].Capability())
	}
	if _, ok := sys.Lookup("I2"); !ok {
		t.Error("I2 not registered")
	}

	if _, err := m.SpawnActors(sys, nil); err == nil {
		t.Error("spawning the same names twice should fail")
	}
}
