package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/types"
)

/*
Edge is a unique mesh edge. Node[0] < Node[1] and the direction Node[0]->Node[1]
is the reference direction for Gamma, Force uses the same direction.

Tri[0] is the triangle that traverses the edge in the reference direction,
Tri[1] the one that traverses it backwards; either is -1 when absent.
*/
type Edge struct {
	Key  types.EdgeKey
	Node [2]int
	Tri  [2]int
	Loop [2]int

	SurfaceID int

	IsBoundaryEdge bool
	IsTrailingEdge bool

	Gamma        float64
	WakeGamma    float64 // Bound strength the wake carries past a trailing edge
	Velocity     r3.Vec  // Induced velocity at the midpoint
	Force        r3.Vec
	TrefftzForce r3.Vec
}

// VortexEdge is the sort key used to order edge work by the lowest adjacent loop
func (e *Edge) VortexEdge() int {
	switch {
	case e.Loop[0] < 0:
		return e.Loop[1]
	case e.Loop[1] < 0:
		return e.Loop[0]
	}
	return min(e.Loop[0], e.Loop[1])
}

// IsInterior is true for edges inside a loop, they carry no net circulation
func (e *Edge) IsInterior() bool {
	return e.Loop[0] >= 0 && e.Loop[0] == e.Loop[1]
}

func (e *Edge) ZeroForces() {
	e.Force = r3.Vec{}
	e.TrefftzForce = r3.Vec{}
}
