package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/types"
	"github.com/notargets/govlm/utils"
)

// Mesh is a triangulated surface mesh grouped into vortex loops. All indices
// are 0-based.
type Mesh struct {
	Nodes    []Node
	Tris     []Tri
	Edges    []Edge
	Loops    []VortexLoop
	Surfaces []Surface

	EdgeMap map[types.EdgeKey]int
	// NodeLoops lists the loops touching each node
	NodeLoops [][]int
}

/*
NewMesh builds edges and loops from nodes, triangles and surfaces.

Each triangle names its surface and its vortex loop; loop indices must be dense
from zero. Edges are found through packed vertex pair keys, an edge shared by two
triangles of the same loop is interior and not part of the loop's ring. Wing
surfaces are numbered into vortex sheets 1, 2, ... in surface order.
*/
func NewMesh(nodes []Node, tris []Tri, surfaces []Surface) (m *Mesh, err error) {
	m = &Mesh{
		Nodes:    nodes,
		Tris:     tris,
		Surfaces: surfaces,
		EdgeMap:  make(map[types.EdgeKey]int),
	}
	var (
		NNodes = len(nodes)
		NLoops int
	)
	for k := range m.Tris {
		tri := &m.Tris[k]
		for _, n := range tri.Node {
			if n < 0 || n >= NNodes {
				return nil, fmt.Errorf("triangle %d: node index %d out of range [0,%d)", k, n, NNodes)
			}
		}
		if tri.Node[0] == tri.Node[1] || tri.Node[1] == tri.Node[2] || tri.Node[0] == tri.Node[2] {
			return nil, fmt.Errorf("triangle %d: repeated node in %v", k, tri.Node)
		}
		if tri.SurfaceID < 0 || tri.SurfaceID >= len(surfaces) {
			return nil, fmt.Errorf("triangle %d: surface %d out of range [0,%d)", k, tri.SurfaceID, len(surfaces))
		}
		if tri.VortexLoop < 0 {
			return nil, fmt.Errorf("triangle %d: no vortex loop assigned", k)
		}
		NLoops = max(NLoops, tri.VortexLoop+1)
	}
	var sheet int
	for i := range m.Surfaces {
		s := &m.Surfaces[i]
		s.ID = i
		s.Loops = nil
		s.Sheet = 0
		if s.IsWing() {
			sheet++
			s.Sheet = sheet
		}
	}
	if err = m.buildEdges(); err != nil {
		return nil, err
	}
	if err = m.buildLoops(NLoops); err != nil {
		return nil, err
	}
	m.UpdateGeometry()
	return
}

func (m *Mesh) buildEdges() (err error) {
	m.Edges = m.Edges[:0]
	for k := range m.Tris {
		tri := &m.Tris[k]
		for j := 0; j < 3; j++ {
			a, b := tri.EdgeNodes(j)
			key := types.NewEdgeKey([2]int{a, b})
			side := 1
			if key.SameDirection(a, b) {
				side = 0
			}
			ie, found := m.EdgeMap[key]
			if !found {
				ie = len(m.Edges)
				m.EdgeMap[key] = ie
				m.Edges = append(m.Edges, Edge{
					Key:       key,
					Node:      key.GetVertices(false),
					Tri:       [2]int{-1, -1},
					Loop:      [2]int{-1, -1},
					SurfaceID: tri.SurfaceID,
				})
			}
			e := &m.Edges[ie]
			if e.Tri[side] != -1 {
				return fmt.Errorf("edge %v: traversed in the same direction by triangles %d and %d, "+
					"the mesh is non-manifold or inconsistently oriented", e.Node, e.Tri[side], k)
			}
			e.Tri[side] = k
			e.Loop[side] = tri.VortexLoop
			tri.Edge[j] = ie
		}
	}
	for ie := range m.Edges {
		e := &m.Edges[ie]
		e.IsBoundaryEdge = e.Tri[0] < 0 || e.Tri[1] < 0
		if !e.IsBoundaryEdge {
			continue
		}
		n0, n1 := &m.Nodes[e.Node[0]], &m.Nodes[e.Node[1]]
		n0.IsBoundaryEdgeNode, n1.IsBoundaryEdgeNode = true, true
		e.IsTrailingEdge = m.Surfaces[e.SurfaceID].IsWing() &&
			n0.IsTrailingEdgeNode && n1.IsTrailingEdgeNode
	}
	return
}

func (m *Mesh) buildLoops(NLoops int) (err error) {
	m.Loops = make([]VortexLoop, NLoops)
	for k := range m.Tris {
		tri := &m.Tris[k]
		l := &m.Loops[tri.VortexLoop]
		if len(l.Tris) == 0 {
			l.SurfaceID = tri.SurfaceID
			l.ComponentID = tri.ComponentID
			l.SpanStation = tri.SpanStation
		} else if l.SurfaceID != tri.SurfaceID {
			return fmt.Errorf("loop %d: triangles on surfaces %d and %d",
				tri.VortexLoop, l.SurfaceID, tri.SurfaceID)
		}
		l.Tris = append(l.Tris, k)
	}
	for il := range m.Loops {
		l := &m.Loops[il]
		if len(l.Tris) == 0 {
			return fmt.Errorf("loop %d has no triangles", il)
		}
		s := &m.Surfaces[l.SurfaceID]
		s.Loops = append(s.Loops, il)
		l.Sheet = s.Sheet
		for _, k := range l.Tris {
			for _, ie := range m.Tris[k].Edge {
				e := &m.Edges[ie]
				if e.IsInterior() {
					continue
				}
				sign := 1.
				if e.Loop[1] == il {
					sign = -1
				}
				l.Edges = append(l.Edges, ie)
				l.EdgeSign = append(l.EdgeSign, sign)
				if e.IsTrailingEdge {
					l.IsTrailingEdge = true
				}
			}
		}
	}
	m.NodeLoops = make([][]int, len(m.Nodes))
	for il := range m.Loops {
		seen := make(map[int]bool)
		for _, k := range m.Loops[il].Tris {
			for _, n := range m.Tris[k].Node {
				if !seen[n] {
					seen[n] = true
					m.NodeLoops[n] = append(m.NodeLoops[n], il)
				}
			}
		}
	}
	return
}

// UpdateGeometry refreshes triangle and loop geometry from node positions
func (m *Mesh) UpdateGeometry() {
	for k := range m.Tris {
		m.updateTri(k)
	}
	for il := range m.Loops {
		m.updateLoop(il)
	}
}

// UpdateLoops refreshes the geometry of the listed loops and their triangles only
func (m *Mesh) UpdateLoops(loops []int) {
	for _, il := range loops {
		for _, k := range m.Loops[il].Tris {
			m.updateTri(k)
		}
		m.updateLoop(il)
	}
}

func (m *Mesh) updateTri(k int) {
	tri := &m.Tris[k]
	camberFromGeometry := tri.CamberNormal == tri.Normal
	tri.Centroid, tri.Area, tri.Normal = utils.Triangle(
		m.Nodes[tri.Node[0]].X, m.Nodes[tri.Node[1]].X, m.Nodes[tri.Node[2]].X)
	if camberFromGeometry || tri.CamberNormal == (r3.Vec{}) {
		tri.CamberNormal = tri.Normal
	}
}

func (m *Mesh) updateLoop(il int) {
	var (
		l        = &m.Loops[il]
		centroid r3.Vec
		normal   r3.Vec
		area     float64
	)
	for _, k := range l.Tris {
		tri := &m.Tris[k]
		area += tri.Area
		centroid = r3.Add(centroid, r3.Scale(tri.Area, tri.Centroid))
		normal = r3.Add(normal, r3.Scale(tri.Area, tri.Normal))
	}
	l.Area = area
	if area > 0 {
		l.Centroid = r3.Scale(1/area, centroid)
	}
	l.Normal = utils.UnitOrZero(normal)
}

// CheckConnectivity verifies that triangle, edge and loop tables agree
func (m *Mesh) CheckConnectivity() error {
	for k := range m.Tris {
		tri := &m.Tris[k]
		for j := 0; j < 3; j++ {
			ie := tri.Edge[j]
			if ie < 0 || ie >= len(m.Edges) {
				return fmt.Errorf("triangle %d: edge %d out of range", k, ie)
			}
			a, b := tri.EdgeNodes(j)
			e := &m.Edges[ie]
			if e.Key != types.NewEdgeKey([2]int{a, b}) {
				return fmt.Errorf("triangle %d: edge %d joins %v, expected nodes %d and %d",
					k, ie, e.Node, a, b)
			}
			side := 1
			if e.Key.SameDirection(a, b) {
				side = 0
			}
			if e.Tri[side] != k {
				return fmt.Errorf("triangle %d: edge %d does not list it on side %d", k, ie, side)
			}
		}
	}
	for ie := range m.Edges {
		e := &m.Edges[ie]
		for side, k := range e.Tri {
			if k < 0 {
				continue
			}
			tri := &m.Tris[k]
			if tri.Edge[0] != ie && tri.Edge[1] != ie && tri.Edge[2] != ie {
				return fmt.Errorf("edge %d: triangle %d does not reference it", ie, k)
			}
			if e.Loop[side] != tri.VortexLoop {
				return fmt.Errorf("edge %d: loop %d on side %d, triangle %d is in loop %d",
					ie, e.Loop[side], side, k, tri.VortexLoop)
			}
		}
	}
	for il := range m.Loops {
		l := &m.Loops[il]
		if len(l.Edges) != len(l.EdgeSign) {
			return fmt.Errorf("loop %d: %d edges but %d edge signs", il, len(l.Edges), len(l.EdgeSign))
		}
		// Every ring node is entered and left equally often
		balance := make(map[int]int)
		for i, ie := range l.Edges {
			a, b := m.Edges[ie].Node[0], m.Edges[ie].Node[1]
			if l.EdgeSign[i] < 0 {
				a, b = b, a
			}
			balance[a]++
			balance[b]--
		}
		for n, c := range balance {
			if c != 0 {
				return fmt.Errorf("loop %d: ring is open at node %d", il, n)
			}
		}
	}
	return nil
}

// RingEdge returns the ends of the i-th ring edge of loop il in ring direction
func (m *Mesh) RingEdge(il, i int) (a, b r3.Vec) {
	var (
		l = &m.Loops[il]
		e = &m.Edges[l.Edges[i]]
	)
	a, b = m.Nodes[e.Node[0]].X, m.Nodes[e.Node[1]].X
	if l.EdgeSign[i] < 0 {
		a, b = b, a
	}
	return
}

// EdgeVector is Node[1] - Node[0]
func (m *Mesh) EdgeVector(ie int) r3.Vec {
	e := &m.Edges[ie]
	return r3.Sub(m.Nodes[e.Node[1]].X, m.Nodes[e.Node[0]].X)
}

func (m *Mesh) EdgeMidpoint(ie int) r3.Vec {
	e := &m.Edges[ie]
	return utils.Midpoint(m.Nodes[e.Node[0]].X, m.Nodes[e.Node[1]].X)
}

func (m *Mesh) Translate(d r3.Vec) {
	for i := range m.Nodes {
		m.Nodes[i].X = r3.Add(m.Nodes[i].X, d)
	}
	m.UpdateGeometry()
}

// Rotate turns the mesh rigidly about origin
func (m *Mesh) Rotate(rot r3.Rotation, origin r3.Vec) {
	for i := range m.Nodes {
		m.Nodes[i].X = r3.Add(origin, rot.Rotate(r3.Sub(m.Nodes[i].X, origin)))
	}
	for k := range m.Tris {
		tri := &m.Tris[k]
		if tri.CamberNormal != tri.Normal {
			tri.CamberNormal = rot.Rotate(tri.CamberNormal)
		}
	}
	m.UpdateGeometry()
}

/*
SetUpwind flags the edges through which the stream vinf enters each triangle
and weights them by the normalised flux |vinf . n_edge|, the weights of a
triangle sum to one. Edge normals lie in the triangle plane and point out.
*/
func (m *Mesh) SetUpwind(vinf r3.Vec) {
	for k := range m.Tris {
		var (
			tri   = &m.Tris[k]
			flux  [3]float64
			total float64
			count int
		)
		for j := 0; j < 3; j++ {
			a, b := tri.EdgeNodes(j)
			var (
				xa, xb = m.Nodes[a].X, m.Nodes[b].X
				out    = utils.UnitOrZero(r3.Cross(r3.Sub(xb, xa), tri.Normal))
			)
			tri.EdgeIsUpwind[j] = r3.Dot(r3.Sub(utils.Midpoint(xa, xb), tri.Centroid), vinf) < 0
			tri.EdgeUpwindWeight[j] = 0
			if tri.EdgeIsUpwind[j] {
				flux[j] = math.Abs(r3.Dot(vinf, out))
				total += flux[j]
				count++
			}
		}
		for j := 0; j < 3; j++ {
			switch {
			case !tri.EdgeIsUpwind[j]:
			case total > 0:
				tri.EdgeUpwindWeight[j] = flux[j] / total
			default:
				tri.EdgeUpwindWeight[j] = 1 / float64(count)
			}
		}
	}
}

// TrailingEdges returns the trailing edges of surface is
func (m *Mesh) TrailingEdges(is int) (edges []int) {
	for ie := range m.Edges {
		if e := &m.Edges[ie]; e.IsTrailingEdge && e.SurfaceID == is {
			edges = append(edges, ie)
		}
	}
	return
}

// LinkGrids connects coincident nodes of a fine and a coarse mesh through their
// CoarseNode and FineNode links and returns the number of links made
func LinkGrids(fine, coarse *Mesh, tol float64) (links int) {
	var (
		cell = func(x r3.Vec) [3]int64 {
			return [3]int64{
				int64(math.Round(x.X / tol)),
				int64(math.Round(x.Y / tol)),
				int64(math.Round(x.Z / tol)),
			}
		}
		buckets = make(map[[3]int64][]int)
	)
	for i := range coarse.Nodes {
		c := cell(coarse.Nodes[i].X)
		buckets[c] = append(buckets[c], i)
	}
	for i := range fine.Nodes {
		var (
			x     = fine.Nodes[i].X
			c     = cell(x)
			found = -1
		)
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range buckets[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if utils.Distance(x, coarse.Nodes[j].X) <= tol {
							found = j
							break search
						}
					}
				}
			}
		}
		if found >= 0 {
			fine.Nodes[i].CoarseNode = found
			coarse.Nodes[found].FineNode = i
			links++
		}
	}
	return
}
