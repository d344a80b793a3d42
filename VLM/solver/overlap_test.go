package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/types"
)

type panelBuilder struct {
	nodes []mesh.Node
	tris  []mesh.Tri
	loop  int
}

// quad adds a single loop panel with corners o, o+u, o+u+v, o+v on surface is
func (pb *panelBuilder) quad(o, u, v r3.Vec, is int) {
	n0 := len(pb.nodes)
	for _, x := range []r3.Vec{o, r3.Add(o, u), r3.Add(o, r3.Add(u, v)), r3.Add(o, v)} {
		pb.nodes = append(pb.nodes, mesh.NewNode(x))
	}
	for _, tn := range [][3]int{{0, 1, 2}, {0, 2, 3}} {
		pb.tris = append(pb.tris, mesh.Tri{
			Node:       [3]int{n0 + tn[0], n0 + tn[1], n0 + tn[2]},
			SurfaceID:  is,
			VortexLoop: pb.loop,
		})
	}
	pb.loop++
}

func (pb *panelBuilder) mesh(t *testing.T) *mesh.Mesh {
	m, err := mesh.NewMesh(pb.nodes, pb.tris, []mesh.Surface{
		{Name: "fuselage", Type: types.Surface_Body},
		{Name: "wing", Type: types.Surface_Wing},
	})
	require.NoError(t, err)
	return m
}

func TestOverLap(t *testing.T) {
	var (
		x, y, z = r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	)
	{ // Coincident unit panels, one on the body and one on the wing
		var pb panelBuilder
		pb.quad(r3.Vec{}, x, y, 0)
		pb.quad(r3.Vec{Z: 0.005}, x, y, 1)
		// A wing panel well away from the body
		pb.quad(r3.Vec{Y: 5}, x, y, 1)
		m := pb.mesh(t)
		s, err := NewSolver(m, DefaultParameters())
		require.NoError(t, err)
		assert.True(t, s.LoopsOverLap(0, 1))
		assert.True(t, s.LoopsOverLap(1, 0))
		assert.False(t, s.LoopsOverLap(0, 2))
		for il := range m.Loops {
			m.Loops[il].DCp = 1
		}
		for ie := range m.Edges {
			m.Edges[ie].Force = r3.Vec{Z: 1}
			m.Edges[ie].TrefftzForce = r3.Vec{X: 1}
		}
		require.Equal(t, 1, s.FindOverLappingSurfaces())
		assert.Equal(t, []LoopPair{{Body: 0, Wing: 1}}, s.OverLaps)
		for _, il := range []int{0, 1} {
			l := &m.Loops[il]
			assert.True(t, l.OverLapping)
			assert.Equal(t, 0., l.DCp)
			for _, ie := range l.Edges {
				assert.Equal(t, r3.Vec{}, m.Edges[ie].Force)
				assert.Equal(t, r3.Vec{}, m.Edges[ie].TrefftzForce)
			}
		}
		l := &m.Loops[2]
		assert.False(t, l.OverLapping)
		assert.Equal(t, 1., l.DCp)
		for _, ie := range l.Edges {
			assert.Equal(t, r3.Vec{Z: 1}, m.Edges[ie].Force)
		}
		// Detection is repeatable
		require.Equal(t, 1, s.FindOverLappingSurfaces())
	}
	{ // Only the first loop's normal is used for the offset
		var pb panelBuilder
		pb.quad(r3.Vec{}, x, y, 0)
		// Vertical wing panel in the plane x = 1, centred on z = 0
		pb.quad(r3.Vec{X: 1, Z: -0.5}, y, z, 1)
		m := pb.mesh(t)
		s, err := NewSolver(m, DefaultParameters())
		require.NoError(t, err)
		assert.True(t, s.LoopsOverLap(0, 1))
		assert.False(t, s.LoopsOverLap(1, 0))
		assert.Equal(t, 1, s.FindOverLappingSurfaces())
	}
	{ // Panels further apart than twice the smaller length
		var pb panelBuilder
		pb.quad(r3.Vec{}, x, y, 0)
		pb.quad(r3.Vec{X: 2.5}, r3.Scale(0.1, x), r3.Scale(0.1, y), 1)
		m := pb.mesh(t)
		s, err := NewSolver(m, DefaultParameters())
		require.NoError(t, err)
		assert.False(t, s.LoopsOverLap(0, 1))
		assert.Equal(t, 0, s.FindOverLappingSurfaces())
	}
}
