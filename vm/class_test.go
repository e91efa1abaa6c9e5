package vm

import "testing"

// ---------------------------------------------------------------------------
// Class creation tests
// ---------------------------------------------------------------------------

func TestNewClass(t *testing.T) {
	c := NewClass("Object", nil)
	if c == nil {
		t.Fatal("NewClass returned nil")
	}
	if c.Name != "Object" {
		t.Errorf("Name = %q, want %q", c.Name, "Object")
	}
	if c.Superclass != nil {
		t.Error("root class should have nil superclass")
	}
	if c.NumSlots != 0 {
		t.Errorf("NumSlots = %d, want 0", c.NumSlots)
	}
	if c.Transfer {
		t.Error("plain classes are not transfer types")
	}
	if c.DefaultCapability != Local {
		t.Errorf("DefaultCapability = %s, want local", c.DefaultCapability)
	}
}

func TestNewClassWithInstVars(t *testing.T) {
	object := NewClass("Object", nil)
	point := NewClass("Point", object, "x", "y")
	point3D := NewClass("Point3D", point, "z")

	if point.NumSlots != 2 {
		t.Errorf("Point NumSlots = %d, want 2", point.NumSlots)
	}
	if point3D.NumSlots != 3 {
		t.Errorf("Point3D NumSlots = %d, want 3", point3D.NumSlots)
	}
	if point3D.Superclass != point {
		t.Error("superclass should be Point")
	}
}

func TestNewTransferClassIsInherited(t *testing.T) {
	node := NewTransferClass("Node", nil, "value")
	leaf := NewClass("Leaf", node, "extra")

	if !node.Transfer || node.DefaultCapability != Isolate {
		t.Errorf("Node: transfer=%t default=%s, want true isolate", node.Transfer, node.DefaultCapability)
	}
	if !leaf.Transfer || leaf.DefaultCapability != Isolate {
		t.Errorf("Leaf: transfer=%t default=%s, want inherited", leaf.Transfer, leaf.DefaultCapability)
	}
}

func TestInstVarIndex(t *testing.T) {
	point := NewClass("Point", nil, "x", "y")
	point3D := NewClass("Point3D", point, "z")

	tests := []struct {
		class *Class
		name  string
		want  int
	}{
		{point, "x", 0},
		{point, "y", 1},
		{point, "z", -1},
		{point3D, "x", 0},
		{point3D, "z", 2},
		{point3D, "w", -1},
	}
	for _, tt := range tests {
		if got := tt.class.InstVarIndex(tt.name); got != tt.want {
			t.Errorf("%s.InstVarIndex(%q) = %d, want %d", tt.class.Name, tt.name, got, tt.want)
		}
	}
}

func TestAllInstVarNames(t *testing.T) {
	point := NewClass("Point", nil, "x", "y")
	point3D := NewClass("Point3D", point, "z")

	names := point3D.AllInstVarNames()
	want := []string{"x", "y", "z"}
	if len(names) != len(want) {
		t.Fatalf("AllInstVarNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("AllInstVarNames[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestIsSubclassOf(t *testing.T) {
	object := NewClass("Object", nil)
	collection := NewClass("Collection", object)
	array := NewClass("Array", collection)
	other := NewClass("Other", object)

	if !array.IsSubclassOf(object) || !array.IsSubclassOf(collection) {
		t.Error("Array should be a subclass of Collection and Object")
	}
	if !array.IsSubclassOf(array) {
		t.Error("a class is a subclass of itself")
	}
	if array.IsSubclassOf(other) {
		t.Error("Array is not a subclass of Other")
	}
	if object.IsSubclassOf(array) {
		t.Error("Object is not a subclass of Array")
	}
}

func TestNewInstance(t *testing.T) {
	marker := NewTransferClass("Marker", nil)
	if _, ok := marker.NewInstance().(*FieldlessObject); !ok {
		t.Error("a class without slots should produce a fieldless object")
	}

	cell := NewTransferClass("Cell", nil, "value", "next")
	inst, ok := cell.NewInstance().(*Object)
	if !ok {
		t.Fatal("a class with slots should produce an Object")
	}
	if inst.NumSlots() != 2 {
		t.Errorf("NumSlots = %d, want 2", inst.NumSlots())
	}
	if inst.Capability() != Isolate {
		t.Errorf("capability = %s, want isolate", inst.Capability())
	}
	if !IsNil(inst.Slot(1)) {
		t.Error("new slots should be nil")
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkNewInstance(b *testing.B) {
	c := NewTransferClass("Cell", nil, "value", "next")
	for i := 0; i < b.N; i++ {
		_ = c.NewInstance()
	}
}

func BenchmarkInstVarIndex(b *testing.B) {
	base := NewClass("Base", nil, "a", "b", "c")
	c := NewClass("Derived", base, "d", "e", "f")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.InstVarIndex("b")
	}
}
