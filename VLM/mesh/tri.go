package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Tri is a surface triangle, nodes are counter-clockwise seen from the side the
// normal points to. Edge[k] joins Node[k] and Node[(k+1)%3].
type Tri struct {
	Node [3]int
	Edge [3]int

	EdgeIsUpwind     [3]bool
	EdgeUpwindWeight [3]float64

	SurfaceID   int
	ComponentID int
	VortexLoop  int
	SpanStation int // 1-based, 0 when unassigned

	Area         float64
	Normal       r3.Vec
	CamberNormal r3.Vec
	Centroid     r3.Vec

	Gamma    float64
	Velocity r3.Vec
	DCp      float64
}

// EdgeNodes returns the directed node pair of local edge k
func (t *Tri) EdgeNodes(k int) (a, b int) {
	return t.Node[k], t.Node[(k+1)%3]
}
