// Package snapshot captures reachable object graphs as plain data for
// inspection. Heap identity is replaced by node ids, so sharing and cycles
// remain visible after encoding.
package snapshot

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/capsule/vm"
)

// FormatVersion is written into every encoded graph.
const FormatVersion = 1

// SlotKind identifies what a Slot holds.
type SlotKind uint8

const (
	SlotNil SlotKind = iota
	SlotInt
	SlotFloat
	SlotBool
	SlotString
	SlotSymbol
	SlotRef
)

// Slot is one field or element: a primitive inline, or a reference to a node.
type Slot struct {
	Kind  SlotKind `cbor:"k"`
	Int   int64    `cbor:"i,omitempty"`
	Float float64  `cbor:"f,omitempty"`
	Bool  bool     `cbor:"b,omitempty"`
	Str   string   `cbor:"s,omitempty"`
	Ref   int      `cbor:"r,omitempty"`
}

// NodeKind names the heap object representation.
type NodeKind string

const (
	KindObject    NodeKind = "object"
	KindFieldless NodeKind = "fieldless"
	KindArray     NodeKind = "array"
)

// Node is one heap object.
type Node struct {
	ID         int      `cbor:"id"`
	Class      string   `cbor:"class"`
	Kind       NodeKind `cbor:"kind"`
	Capability string   `cbor:"cap"`
	Transfer   bool     `cbor:"transfer,omitempty"`
	Storage    string   `cbor:"storage,omitempty"`
	Fields     []string `cbor:"fields,omitempty"`
	Slots      []Slot   `cbor:"slots,omitempty"`
}

// Graph is the reachable heap below a root value, in discovery order.
type Graph struct {
	Version int    `cbor:"v"`
	Root    Slot   `cbor:"root"`
	Nodes   []Node `cbor:"nodes"`
}

// Capture records every heap object reachable from root. Node ids are
// assigned breadth first, so two graphs of the same shape capture to the
// same ids.
func Capture(root vm.Value) *Graph {
	c := &capturer{ids: make(map[vm.HeapObject]int)}
	g := &Graph{Version: FormatVersion}
	g.Root = c.slot(root)
	for i := 0; i < len(c.queue); i++ {
		g.Nodes = append(g.Nodes, c.node(i, c.queue[i]))
	}
	return g
}

type capturer struct {
	ids   map[vm.HeapObject]int
	queue []vm.HeapObject
}

func (c *capturer) slot(v vm.Value) Slot {
	switch x := v.(type) {
	case vm.SmallInt:
		return Slot{Kind: SlotInt, Int: int64(x)}
	case vm.Float:
		return Slot{Kind: SlotFloat, Float: float64(x)}
	case vm.Boolean:
		return Slot{Kind: SlotBool, Bool: bool(x)}
	case vm.String:
		return Slot{Kind: SlotString, Str: string(x)}
	case vm.Symbol:
		return Slot{Kind: SlotSymbol, Str: string(x)}
	case vm.HeapObject:
		id, ok := c.ids[x]
		if !ok {
			id = len(c.queue)
			c.ids[x] = id
			c.queue = append(c.queue, x)
		}
		return Slot{Kind: SlotRef, Ref: id}
	}
	return Slot{Kind: SlotNil}
}

func (c *capturer) node(id int, h vm.HeapObject) Node {
	n := Node{
		ID:         id,
		Class:      vm.ClassName(h),
		Capability: h.Capability().String(),
	}
	if cls := h.Class(); cls != nil {
		n.Transfer = cls.Transfer
	}
	switch x := h.(type) {
	case *vm.Object:
		n.Kind = KindObject
		if cls := x.Class(); cls != nil {
			n.Fields = cls.AllInstVarNames()
		}
		x.ForEachSlot(func(_ int, v vm.Value) {
			n.Slots = append(n.Slots, c.slot(v))
		})
	case *vm.FieldlessObject:
		n.Kind = KindFieldless
	case *vm.Array:
		n.Kind = KindArray
		n.Storage = x.Storage().Kind().String()
		for _, v := range x.Elements() {
			n.Slots = append(n.Slots, c.slot(v))
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func (s Slot) String() string {
	switch s.Kind {
	case SlotInt:
		return fmt.Sprintf("%d", s.Int)
	case SlotFloat:
		return fmt.Sprintf("%g", s.Float)
	case SlotBool:
		return fmt.Sprintf("%t", s.Bool)
	case SlotString:
		return fmt.Sprintf("%q", s.Str)
	case SlotSymbol:
		return "#" + s.Str
	case SlotRef:
		return fmt.Sprintf("@%d", s.Ref)
	}
	return "nil"
}

// Render writes one line per node:
//
//	root @0
//	@0 Cell<isolate> value=42 next=@1
//	@1 Array<isolate> [partial] nil @0
func (g *Graph) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "root %s\n", g.Root); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		var b strings.Builder
		fmt.Fprintf(&b, "@%d %s<%s>", n.ID, n.Class, n.Capability)
		if n.Storage != "" {
			fmt.Fprintf(&b, " [%s]", n.Storage)
		}
		for i, s := range n.Slots {
			b.WriteByte(' ')
			if i < len(n.Fields) {
				b.WriteString(n.Fields[i])
				b.WriteByte('=')
			}
			b.WriteString(s.String())
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// String renders the graph.
func (g *Graph) String() string {
	var b strings.Builder
	_ = g.Render(&b)
	return b.String()
}
