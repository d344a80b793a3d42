package solver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/wake"
)

// Result summarises one solve
type Result struct {
	RunID uuid.UUID
	Parameters
	Coefficients
	SpanLoads SpanLoadTable
	Gamma     []float64
}

func (s *Solver) Result() *Result {
	m := s.Mesh
	r := &Result{
		RunID:        s.RunID,
		Parameters:   s.Params,
		Coefficients: s.Coefficients,
		SpanLoads:    s.SpanLoads,
		Gamma:        make([]float64, len(m.Loops)),
	}
	for il := range m.Loops {
		r.Gamma[il] = m.Loops[il].Gamma
	}
	return r
}

/*
UpdateLoads recomputes every load from the current loop circulations:

	edge circulation and induced velocity (exact rings plus the wake sheets)
	Kutta-Joukowski edge forces and Trefftz plane forces on trailing edges
	triangle and loop velocities, loop forces and DCp
	overlap zeroing, span loads and integrated coefficients
*/
func (s *Solver) UpdateLoads(ctx context.Context) (err error) {
	var (
		m    = s.Mesh
		vinf = s.Params.FreeStream()
		rho  = 1.
		mach = s.Params.Mach
	)
	for ie := range m.Edges {
		e := &m.Edges[ie]
		e.Gamma, e.WakeGamma = s.edgeGamma(ie), 0
		if e.IsTrailingEdge {
			for side, il := range e.Loop {
				if il < 0 {
					continue
				}
				sign := 1.
				if side == 1 {
					sign = -1
				}
				e.WakeGamma -= sign * m.Loops[il].Gamma
			}
		}
	}
	// Edges are visited in loop order so neighbouring work shares cache lines
	err = s.parallel(ctx, len(s.EdgeOrder), func(r int) {
		var (
			ie  = s.EdgeOrder[r]
			e   = &m.Edges[ie]
			mid = m.EdgeMidpoint(ie)
			q   r3.Vec
		)
		for j := range m.Loops {
			if g := m.Loops[j].Gamma; g != 0 {
				q = r3.Add(q, r3.Scale(g, s.loopVelocity(j, mid, false)))
			}
		}
		if il := e.VortexEdge(); il >= 0 && il < len(s.LoopEntries) {
			q = r3.Add(q, wake.InducedVelocity(mid, s.LoopEntries[il].Entries, s.Sheets, mach))
		}
		e.Velocity = q
		e.ZeroForces()
		if e.Gamma != 0 {
			e.Force = r3.Scale(rho, r3.Cross(r3.Add(vinf, q), r3.Scale(e.Gamma, m.EdgeVector(ie))))
		}
		if ts, ok := s.trefftz[ie]; ok && e.WakeGamma != 0 {
			var (
				set  = &s.VortexSets[ts[0]][ts[1]]
				half = r3.Vec{X: 0.5 * s.Params.WakeLength * s.Params.Bref}
				wT   = wake.InducedVelocity(r3.Add(mid, half), set.Entries, s.Sheets, mach)
			)
			e.TrefftzForce = r3.Scale(0.5*rho*e.WakeGamma, r3.Cross(wT, m.EdgeVector(ie)))
		}
	})
	if err != nil {
		return fmt.Errorf("edge loads: %w", err)
	}
	for k := range m.Tris {
		tri := &m.Tris[k]
		tri.Velocity = r3.Vec{}
		for j := 0; j < 3; j++ {
			if w := tri.EdgeUpwindWeight[j]; w != 0 {
				tri.Velocity = r3.Add(tri.Velocity, r3.Scale(w, m.Edges[tri.Edge[j]].Velocity))
			}
		}
	}
	s.applyOverLaps()
	q := s.Params.DynamicPressure()
	for il := range m.Loops {
		l := &m.Loops[il]
		l.Force, l.Velocity = r3.Vec{}, r3.Vec{}
		for _, k := range l.Tris {
			tri := &m.Tris[k]
			l.Velocity = r3.Add(l.Velocity, r3.Scale(tri.Area, tri.Velocity))
		}
		if l.Area > 0 {
			l.Velocity = r3.Scale(1/l.Area, l.Velocity)
		}
		for _, ie := range l.Edges {
			var (
				e     = &m.Edges[ie]
				share = 1.
			)
			if e.Loop[0] >= 0 && e.Loop[1] >= 0 && e.Loop[0] != e.Loop[1] {
				share = 0.5
			}
			l.Force = r3.Add(l.Force, r3.Scale(share, e.Force))
		}
		l.DCp = 0
		if l.Area > 0 && !l.OverLapping {
			l.DCp = r3.Dot(l.Force, l.Normal) / (q * l.Area)
		}
		for _, k := range l.Tris {
			m.Tris[k].DCp = l.DCp
		}
	}
	s.SpanLoads = s.spanLoads()
	s.Coefficients = s.integrate()
	return
}

// edgeGamma is the net circulation of edge ie in its reference direction,
// trailing edges shed theirs into the wake and carry none
func (s *Solver) edgeGamma(ie int) (g float64) {
	e := &s.Mesh.Edges[ie]
	if e.IsTrailingEdge || e.IsInterior() {
		return 0
	}
	if e.Loop[0] >= 0 {
		g += s.Mesh.Loops[e.Loop[0]].Gamma
	}
	if e.Loop[1] >= 0 {
		g -= s.Mesh.Loops[e.Loop[1]].Gamma
	}
	return
}

func (s *Solver) spanLoads() SpanLoadTable {
	var (
		m        = s.Mesh
		sheets   = make([]SpanSheet, len(s.Sheets))
		stations = make([]int, len(s.Sheets)+1)
	)
	stations[0] = 1
	for is, sh := range s.Sheets {
		sheets[is].ComponentID = sh.ComponentID
		for i := range sh.TrailingVortices {
			sheets[is].TrailingEdge = append(sheets[is].TrailingEdge, sh.TrailingVortices[i].Start())
		}
		stations[is+1] = max(1, len(sh.TrailingVortices)-1)
	}
	// Loops whose station falls outside their sheet are collected on sheet 0
	place := func(il int) (sheet, station int) {
		l := &m.Loops[il]
		sheet, station = l.Sheet, l.SpanStation
		if sheet < 0 || sheet >= len(stations) || station > stations[sheet] {
			return 0, 1
		}
		return
	}
	b := NewSpanLoadBuilder(sheets)
	for il := range m.Loops {
		sheet, station := place(il)
		b.AccumulateGeometry(sheet, station, m.Loops[il].Centroid)
	}
	p := b.Normalize()
	for il := range m.Loops {
		sheet, station := place(il)
		p.AccumulateArea(sheet, station, m.Loops[il].Area)
		p.AccumulateForce(sheet, station, m.Loops[il].Force)
	}
	return p.Finalize(s.Params.DynamicPressure(), s.Params.LiftDirection(), s.Params.DragDirection())
}

// integrate sums edge forces into coefficients, moments are taken about Xcg
func (s *Solver) integrate() (c Coefficients) {
	var (
		m      = s.Mesh
		p      = s.Params
		qS     = p.DynamicPressure() * p.Sref
		force  r3.Vec
		moment r3.Vec
		drag   r3.Vec
	)
	for ie := range m.Edges {
		e := &m.Edges[ie]
		force = r3.Add(force, e.Force)
		moment = r3.Add(moment, r3.Cross(r3.Sub(m.EdgeMidpoint(ie), p.Xcg), e.Force))
		drag = r3.Add(drag, e.TrefftzForce)
	}
	c.CFx, c.CFy, c.CFz = force.X/qS, force.Y/qS, force.Z/qS
	c.CL = r3.Dot(force, p.LiftDirection()) / qS
	c.CS = r3.Dot(force, p.SideDirection()) / qS
	c.CDi = r3.Dot(drag, p.DragDirection()) / qS
	c.CMx = moment.X / (qS * p.Bref)
	c.CMy = moment.Y / (qS * p.Cref)
	c.CMz = moment.Z / (qS * p.Bref)
	return
}
