package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Node is a mesh vertex
type Node struct {
	X r3.Vec

	IsBoundaryEdgeNode bool
	IsLeadingEdgeNode  bool
	IsTrailingEdgeNode bool

	ComponentID int
	SurfaceID   int
	GeomID      int

	// DGamma is the change of the node averaged loop circulation over the last solve
	DGamma float64

	// Weak links between grid levels, -1 when absent
	CoarseNode, FineNode int
}

func NewNode(x r3.Vec) Node {
	return Node{X: x, CoarseNode: -1, FineNode: -1}
}
