// Package wake models the trailing vortex sheets shed from wing trailing edges
// and the hierarchical interaction lists used to evaluate them.
package wake

import (
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/vortex"
	"github.com/notargets/govlm/utils"
)

type Parameters struct {
	WakeLength     float64 // Downstream length of every trailing vortex
	Segments       int     // Filaments per trailing vortex
	Theta          float64 // Opening criterion, zero evaluates everything exactly
	Mach           float64
	ParallelDegree int // Zero uses every CPU
}

func (p Parameters) Validate() error {
	switch {
	case p.WakeLength <= 0:
		return fmt.Errorf("wake length must be positive, have %g", p.WakeLength)
	case p.Segments < 1:
		return fmt.Errorf("need at least one wake segment, have %d", p.Segments)
	case p.Theta < 0:
		return fmt.Errorf("opening criterion must not be negative, have %g", p.Theta)
	}
	return nil
}

// TrailingVortex leaves a trailing edge node and runs downstream along +x
type TrailingVortex struct {
	Node     int
	Points   []r3.Vec
	Strength float64
}

func (tv *TrailingVortex) Start() r3.Vec { return tv.Points[0] }

// TrailingSegment is the trailing edge between trailing vortices k and k+1
type TrailingSegment struct {
	Edge, Loop int
	// Forward is set when the loop ring runs from vortex k to vortex k+1
	Forward bool
}

/*
Aggregate stands in for the trailing vortices [First, Last) at a coarse level.
Positive and negative strengths are lumped separately at their strength
weighted positions, so a group whose strengths cancel still keeps its pair field.
*/
type Aggregate struct {
	First, Last int
	Center      r3.Vec
	Width       float64

	XPos, XNeg r3.Vec
	SPos, SNeg float64
}

type VortexSheet struct {
	ID          int // 1-based
	SurfaceID   int
	ComponentID int

	TrailingVortices []TrailingVortex
	Segments         []TrailingSegment
	// Levels[L-1] groups 2^(L-1) consecutive trailing vortices
	Levels [][]Aggregate

	wakeLength float64
}

// NewSheets builds one sheet per wing surface, with its trailing edge ordered
// into a single chain starting at the free end with the lowest node index
func NewSheets(m *mesh.Mesh, p Parameters) (sheets []*VortexSheet, err error) {
	if err = p.Validate(); err != nil {
		return
	}
	for is := range m.Surfaces {
		s := &m.Surfaces[is]
		if s.Sheet == 0 {
			continue
		}
		sh := &VortexSheet{
			ID:          s.Sheet,
			SurfaceID:   is,
			ComponentID: s.ComponentID,
			wakeLength:  p.WakeLength,
		}
		var (
			chain []int
			start int
		)
		if chain, start, err = chainTrailingEdges(m, m.TrailingEdges(is)); err != nil {
			return nil, fmt.Errorf("surface %q: %w", s.Name, err)
		}
		if len(chain) > 0 {
			nodes := make([]int, 0, len(chain)+1)
			nodes = append(nodes, start)
			for _, ie := range chain {
				e := &m.Edges[ie]
				var (
					a    = nodes[len(nodes)-1]
					b    = e.Node[0] + e.Node[1] - a
					loop = e.Loop[0]
					sign = 1.
				)
				if loop < 0 {
					loop, sign = e.Loop[1], -1
				}
				// Ring direction along the edge, relative to the chain direction a->b
				forward := (sign > 0) == (e.Node[0] == a)
				sh.Segments = append(sh.Segments, TrailingSegment{Edge: ie, Loop: loop, Forward: forward})
				nodes = append(nodes, b)
			}
			for _, n := range nodes {
				sh.TrailingVortices = append(sh.TrailingVortices, TrailingVortex{
					Node:   n,
					Points: make([]r3.Vec, p.Segments+1),
				})
			}
		}
		sh.buildLevels()
		sh.Update(m)
		sheets = append(sheets, sh)
	}
	return
}

func chainTrailingEdges(m *mesh.Mesh, edges []int) (chain []int, start int, err error) {
	if len(edges) == 0 {
		return
	}
	nodeEdges := make(map[int][]int)
	for _, ie := range edges {
		for _, n := range m.Edges[ie].Node {
			nodeEdges[n] = append(nodeEdges[n], ie)
			if len(nodeEdges[n]) > 2 {
				return nil, 0, fmt.Errorf("trailing edge branches at node %d", n)
			}
		}
	}
	start = -1
	for n, ee := range nodeEdges {
		if len(ee) == 1 && (start < 0 || n < start) {
			start = n
		}
	}
	if start < 0 {
		// Closed trailing edge
		for n := range nodeEdges {
			if start < 0 || n < start {
				start = n
			}
		}
	}
	var (
		used = make(map[int]bool)
		n    = start
	)
	for {
		next := -1
		for _, ie := range nodeEdges[n] {
			if !used[ie] {
				next = ie
				break
			}
		}
		if next < 0 {
			break
		}
		used[next] = true
		chain = append(chain, next)
		n = m.Edges[next].Node[0] + m.Edges[next].Node[1] - n
	}
	if len(chain) != len(edges) {
		return nil, 0, fmt.Errorf("trailing edge is not a single chain, walked %d of %d edges",
			len(chain), len(edges))
	}
	return
}

func (sh *VortexSheet) NumLevels() int {
	return len(sh.Levels)
}

func (sh *VortexSheet) buildLevels() {
	Nt := len(sh.TrailingVortices)
	if Nt == 0 {
		sh.Levels = nil
		return
	}
	NLevels := 1 + bits.Len(uint(Nt-1))
	sh.Levels = make([][]Aggregate, NLevels)
	for L := 1; L <= NLevels; L++ {
		size := 1 << (L - 1)
		for first := 0; first < Nt; first += size {
			sh.Levels[L-1] = append(sh.Levels[L-1], Aggregate{First: first, Last: min(first+size, Nt)})
		}
	}
}

// Width is the largest group extent at level L
func (sh *VortexSheet) Width(L int) (w float64) {
	for _, ag := range sh.Levels[L-1] {
		w = math.Max(w, ag.Width)
	}
	return
}

// Update moves the trailing vortices onto the current trailing edge nodes
func (sh *VortexSheet) Update(m *mesh.Mesh) {
	Ns := 0
	for i := range sh.TrailingVortices {
		var (
			tv = &sh.TrailingVortices[i]
			x  = m.Nodes[tv.Node].X
		)
		Ns = len(tv.Points) - 1
		for s := range tv.Points {
			tv.Points[s] = r3.Add(x, r3.Vec{X: sh.wakeLength * float64(s) / float64(Ns)})
		}
	}
	for L := range sh.Levels {
		for ia := range sh.Levels[L] {
			ag := &sh.Levels[L][ia]
			var center r3.Vec
			for i := ag.First; i < ag.Last; i++ {
				center = r3.Add(center, sh.TrailingVortices[i].Start())
			}
			ag.Center = r3.Scale(1/float64(ag.Last-ag.First), center)
			ag.Width = 0
			for i := ag.First; i < ag.Last; i++ {
				ag.Width = math.Max(ag.Width, 2*utils.Distance(ag.Center, sh.TrailingVortices[i].Start()))
			}
		}
	}
	sh.aggregateStrengths()
}

// UpdateStrengths sets each trailing vortex to the net circulation shed by the
// trailing edge loops on either side of it
func (sh *VortexSheet) UpdateStrengths(m *mesh.Mesh) {
	for i := range sh.TrailingVortices {
		sh.TrailingVortices[i].Strength = 0
	}
	for k, seg := range sh.Segments {
		gamma := m.Loops[seg.Loop].Gamma
		if !seg.Forward {
			gamma = -gamma
		}
		sh.TrailingVortices[k].Strength += gamma
		sh.TrailingVortices[k+1].Strength -= gamma
	}
	sh.aggregateStrengths()
}

func (sh *VortexSheet) aggregateStrengths() {
	for L := range sh.Levels {
		for ia := range sh.Levels[L] {
			ag := &sh.Levels[L][ia]
			var xp, xn r3.Vec
			ag.SPos, ag.SNeg = 0, 0
			for i := ag.First; i < ag.Last; i++ {
				tv := &sh.TrailingVortices[i]
				if tv.Strength >= 0 {
					ag.SPos += tv.Strength
					xp = r3.Add(xp, r3.Scale(tv.Strength, tv.Start()))
				} else {
					ag.SNeg += tv.Strength
					xn = r3.Add(xn, r3.Scale(tv.Strength, tv.Start()))
				}
			}
			ag.XPos, ag.XNeg = ag.Center, ag.Center
			if ag.SPos != 0 {
				ag.XPos = r3.Scale(1/ag.SPos, xp)
			}
			if ag.SNeg != 0 {
				ag.XNeg = r3.Scale(1/ag.SNeg, xn)
			}
		}
	}
}

// Distance is the smallest distance from p to any trailing vortex of the sheet
func (sh *VortexSheet) Distance(p r3.Vec) (d float64) {
	d = math.Inf(1)
	for i := range sh.TrailingVortices {
		var (
			tv   = &sh.TrailingVortices[i]
			a    = tv.Start()
			dx   = math.Min(math.Max(p.X-a.X, 0), sh.wakeLength)
			foot = r3.Add(a, r3.Vec{X: dx})
		)
		d = math.Min(d, utils.Distance(p, foot))
	}
	return
}

// MinX is the most upstream trailing vortex start
func (sh *VortexSheet) MinX() (x float64) {
	x = math.Inf(1)
	for i := range sh.TrailingVortices {
		x = math.Min(x, sh.TrailingVortices[i].Start().X)
	}
	return
}

// Velocity evaluates the sheet at p, exactly at level 1 and through the
// aggregates at coarser levels
func (sh *VortexSheet) Velocity(p r3.Vec, level int, mach float64) (q r3.Vec) {
	if level <= 1 {
		for i := range sh.TrailingVortices {
			tv := &sh.TrailingVortices[i]
			if tv.Strength == 0 {
				continue
			}
			q = r3.Add(q, vortex.PolylineVelocity(tv.Points, p, mach, tv.Strength))
		}
		return
	}
	downstream := r3.Vec{X: sh.wakeLength}
	for _, ag := range sh.Levels[level-1] {
		if ag.SPos != 0 {
			q = r3.Add(q, vortex.Velocity(ag.XPos, r3.Add(ag.XPos, downstream), p, mach, ag.SPos))
		}
		if ag.SNeg != 0 {
			q = r3.Add(q, vortex.Velocity(ag.XNeg, r3.Add(ag.XNeg, downstream), p, mach, ag.SNeg))
		}
	}
	return
}

// SelectLevel returns the coarsest level whose group width seen from distance d
// is below theta
func (sh *VortexSheet) SelectLevel(d, theta float64) (level int) {
	level = 1
	if d <= 0 || theta <= 0 {
		return
	}
	for L := 2; L <= sh.NumLevels(); L++ {
		if sh.Width(L)/d >= theta {
			break
		}
		level = L
	}
	return
}
