package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// VortexLoop is a ring of edges around one or more triangles carrying one
// circulation unknown
type VortexLoop struct {
	Tris []int
	// Edges is the ring, EdgeSign is +1 where the ring runs in the edge's
	// reference direction
	Edges    []int
	EdgeSign []float64

	SurfaceID   int
	ComponentID int
	Sheet       int // 1-based vortex sheet of the owning surface, 0 for none
	SpanStation int

	IsTrailingEdge bool
	OverLapping    bool

	Area     float64
	Centroid r3.Vec
	Normal   r3.Vec

	Gamma    float64
	DCp      float64
	Force    r3.Vec
	Velocity r3.Vec
}

// Length is the characteristic size of the loop
func (l *VortexLoop) Length() float64 {
	return math.Sqrt(l.Area)
}
