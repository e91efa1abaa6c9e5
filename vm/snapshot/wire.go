package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Graph to CBOR bytes.
func Marshal(g *Graph) ([]byte, error) {
	return cborEncMode.Marshal(g)
}

// Unmarshal deserializes a Graph from CBOR bytes.
func Unmarshal(data []byte) (*Graph, error) {
	var g Graph
	if err := cbor.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal graph: %w", err)
	}
	if g.Version != FormatVersion {
		return nil, fmt.Errorf("snapshot: unsupported format version %d", g.Version)
	}
	if g.Root.Kind == SlotRef && (g.Root.Ref < 0 || g.Root.Ref >= len(g.Nodes)) {
		return nil, fmt.Errorf("snapshot: root references missing node %d", g.Root.Ref)
	}
	for _, n := range g.Nodes {
		for _, s := range n.Slots {
			if s.Kind == SlotRef && (s.Ref < 0 || s.Ref >= len(g.Nodes)) {
				return nil, fmt.Errorf("snapshot: node %d references missing node %d", n.ID, s.Ref)
			}
		}
	}
	return &g, nil
}
