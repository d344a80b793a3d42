package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/types"
)

// PlanformParameters describe a straight tapered lifting surface or a flat body
// panel. Angles are in degrees.
type PlanformParameters struct {
	Name        string
	Type        types.SurfaceType
	ComponentID int
	GeomID      int

	Origin    r3.Vec // Root leading edge
	RootChord float64
	TipChord  float64
	Span      float64 // Semi-span when Mirror is set
	Sweep     float64 // Leading edge sweep
	Dihedral  float64
	Incidence float64

	NChord, NSpan int
	Mirror        bool
}

func (pp PlanformParameters) Validate() error {
	switch {
	case pp.NChord < 1 || pp.NSpan < 1:
		return fmt.Errorf("planform %q: need at least one chordwise and one spanwise panel, have %d x %d",
			pp.Name, pp.NChord, pp.NSpan)
	case pp.RootChord <= 0 || pp.TipChord <= 0:
		return fmt.Errorf("planform %q: chords must be positive, have root %g tip %g",
			pp.Name, pp.RootChord, pp.TipChord)
	case pp.Span <= 0:
		return fmt.Errorf("planform %q: span must be positive, have %g", pp.Name, pp.Span)
	case pp.Type == types.Surface_None:
		return fmt.Errorf("planform %q: surface type is not set", pp.Name)
	}
	return nil
}

/*
NewPlanform generates a structured surface of NChord x NSpan quadrilateral loops,
each split into two triangles. Span stations run from the left (or root) end:

	node (i, j) = j*(NChord+1) + i, i chordwise from the leading edge
	loop (i, j) = j*NChord + i, span station j+1 on wings

Wing surfaces flag leading and trailing edge nodes, body surfaces get neither
and no span stations.
*/
func NewPlanform(pp PlanformParameters) (m *Mesh, err error) {
	if err = pp.Validate(); err != nil {
		return
	}
	var (
		NC, NS     = pp.NChord, pp.NSpan
		etaMin     = 0.
		isWing     = pp.Type == types.Surface_Wing
		tanSweep   = math.Tan(pp.Sweep * math.Pi / 180)
		tanDihed   = math.Tan(pp.Dihedral * math.Pi / 180)
		inc        = pp.Incidence * math.Pi / 180
		cInc, sInc = math.Cos(inc), math.Sin(inc)
	)
	if pp.Mirror {
		NS *= 2
		etaMin = -1
	}
	nodes := make([]Node, 0, (NC+1)*(NS+1))
	for j := 0; j <= NS; j++ {
		var (
			eta   = etaMin + (1-etaMin)*float64(j)/float64(NS)
			y     = eta * pp.Span
			ay    = math.Abs(y)
			chord = pp.RootChord + (pp.TipChord-pp.RootChord)*math.Abs(eta)
			le    = r3.Vec{X: ay * tanSweep, Y: y, Z: ay * tanDihed}
		)
		for i := 0; i <= NC; i++ {
			var (
				s  = chord * float64(i) / float64(NC)
				nd = NewNode(r3.Add(pp.Origin, r3.Add(le, r3.Vec{X: s * cInc, Z: -s * sInc})))
			)
			nd.ComponentID, nd.GeomID = pp.ComponentID, pp.GeomID
			nd.IsLeadingEdgeNode = isWing && i == 0
			nd.IsTrailingEdgeNode = isWing && i == NC
			nodes = append(nodes, nd)
		}
	}
	var (
		tris = make([]Tri, 0, 2*NC*NS)
		node = func(i, j int) int { return j*(NC+1) + i }
	)
	for j := 0; j < NS; j++ {
		station := 0
		if isWing {
			station = j + 1
		}
		for i := 0; i < NC; i++ {
			var (
				p00, p10   = node(i, j), node(i+1, j)
				p11, p01   = node(i+1, j+1), node(i, j+1)
				loop       = j*NC + i
				tri1, tri2 = Tri{Node: [3]int{p00, p10, p11}}, Tri{Node: [3]int{p00, p11, p01}}
			)
			for _, tri := range []*Tri{&tri1, &tri2} {
				tri.ComponentID = pp.ComponentID
				tri.VortexLoop = loop
				tri.SpanStation = station
			}
			tris = append(tris, tri1, tri2)
		}
	}
	surfaces := []Surface{{Name: pp.Name, Type: pp.Type, ComponentID: pp.ComponentID}}
	return NewMesh(nodes, tris, surfaces)
}

// Merge joins meshes into one, offsetting node, loop and surface indices.
// Nodes are not shared between the inputs.
func Merge(meshes ...*Mesh) (m *Mesh, err error) {
	var (
		nodes    []Node
		tris     []Tri
		surfaces []Surface
	)
	for _, mm := range meshes {
		var (
			nodeOff, loopOff, surfOff = len(nodes), 0, len(surfaces)
		)
		for _, t := range tris {
			loopOff = max(loopOff, t.VortexLoop+1)
		}
		for _, nd := range mm.Nodes {
			nd.IsBoundaryEdgeNode = false
			nd.SurfaceID += surfOff
			nodes = append(nodes, nd)
		}
		for _, t := range mm.Tris {
			for k := range t.Node {
				t.Node[k] += nodeOff
			}
			t.VortexLoop += loopOff
			t.SurfaceID += surfOff
			tris = append(tris, t)
		}
		for _, s := range mm.Surfaces {
			surfaces = append(surfaces, Surface{Name: s.Name, Type: s.Type, ComponentID: s.ComponentID})
		}
	}
	return NewMesh(nodes, tris, surfaces)
}
