package solver

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OverLapTolerance bounds the normal offset between coincident loops
const OverLapTolerance = 0.01

// LoopPair is a body loop found lying on a wing loop
type LoopPair struct {
	Body, Wing int
}

/*
LoopsOverLap reports whether loops body and wing coincide: the centroid offset
measured along the body loop's normal is below OverLapTolerance, and the
centroids are no further apart than twice the smaller loop length.

Only the first loop's normal is used, so swapping the arguments can change the
answer for loops that are not parallel.
*/
func (s *Solver) LoopsOverLap(body, wing int) bool {
	var (
		lb = &s.Mesh.Loops[body]
		lw = &s.Mesh.Loops[wing]
		d  = r3.Sub(lw.Centroid, lb.Centroid)
	)
	if math.Abs(r3.Dot(d, lb.Normal)) >= OverLapTolerance {
		return false
	}
	return r3.Norm(d) <= 2*math.Min(lb.Length(), lw.Length())
}

// FindOverLappingSurfaces pairs the loops of every body surface with those of
// every wing surface, marks the overlapping loops and zeroes their loads. The
// pairs are kept and reapplied after each load update.
func (s *Solver) FindOverLappingSurfaces() int {
	m := s.Mesh
	s.OverLaps = s.OverLaps[:0]
	for il := range m.Loops {
		m.Loops[il].OverLapping = false
	}
	for ib := range m.Surfaces {
		if !m.Surfaces[ib].IsBody() {
			continue
		}
		for iw := range m.Surfaces {
			if !m.Surfaces[iw].IsWing() {
				continue
			}
			for _, lb := range m.Surfaces[ib].Loops {
				for _, lw := range m.Surfaces[iw].Loops {
					if s.LoopsOverLap(lb, lw) {
						s.OverLaps = append(s.OverLaps, LoopPair{Body: lb, Wing: lw})
						m.Loops[lb].OverLapping = true
						m.Loops[lw].OverLapping = true
					}
				}
			}
		}
	}
	s.applyOverLaps()
	return len(s.OverLaps)
}

func (s *Solver) applyOverLaps() {
	m := s.Mesh
	for _, pr := range s.OverLaps {
		for _, il := range []int{pr.Body, pr.Wing} {
			l := &m.Loops[il]
			l.DCp = 0
			l.Force = r3.Vec{}
			for _, ie := range l.Edges {
				m.Edges[ie].ZeroForces()
			}
			for _, k := range l.Tris {
				m.Tris[k].DCp = 0
			}
		}
	}
}

// overLapped is true for edges whose loads are zeroed by an overlap
func (s *Solver) overLapped(ie int) bool {
	for _, il := range s.Mesh.Edges[ie].Loop {
		if il >= 0 && s.Mesh.Loops[il].OverLapping {
			return true
		}
	}
	return false
}
