package solver

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/optimization"
)

// LiftFunctional is the linearised Kutta-Joukowski lift coefficient
//
//	J = sum_e Gamma_e (Vinf x dl_e) . lift / (q Sref)
//
// over edges that carry bound circulation and are not zeroed by an overlap
func (s *Solver) LiftFunctional() (J float64) {
	var (
		m    = s.Mesh
		axis = s.liftAxis()
	)
	for ie := range m.Edges {
		if !s.liftEdge(ie) {
			continue
		}
		J += s.edgeGamma(ie) * r3.Dot(m.EdgeVector(ie), axis)
	}
	return
}

// liftAxis is (lift x Vinf)/(q Sref), so that (Vinf x dl).lift/(q Sref) = dl.liftAxis
func (s *Solver) liftAxis() r3.Vec {
	p := s.Params
	return r3.Scale(1/(p.DynamicPressure()*p.Sref), r3.Cross(p.LiftDirection(), p.FreeStream()))
}

func (s *Solver) liftEdge(ie int) bool {
	e := &s.Mesh.Edges[ie]
	return !e.IsTrailingEdge && !e.IsInterior() && !s.overLapped(ie)
}

// liftGradient is dJ/dGamma per loop
func (s *Solver) liftGradient() (g []float64) {
	var (
		m    = s.Mesh
		axis = s.liftAxis()
	)
	g = make([]float64, len(m.Loops))
	for il := range m.Loops {
		l := &m.Loops[il]
		for i, ie := range l.Edges {
			if s.liftEdge(ie) {
				g[il] += l.EdgeSign[i] * r3.Dot(m.EdgeVector(ie), axis)
			}
		}
	}
	return
}

/*
ComputeSensitivities fills OptNodes with the gradient of the lift functional
with respect to every node position

	dJ/dx = dJ/dx|Gamma - Psi . dR/dx,   A^T Psi = dJ/dGamma

where R = A Gamma + Vinf . n is the tangency residual. dR/dx is central
differenced; a node moves only the loops it belongs to, so only their rows
and columns of A are recomputed.
*/
func (s *Solver) ComputeSensitivities(ctx context.Context) (err error) {
	if !s.solved {
		return fmt.Errorf("sensitivities need a solved system")
	}
	var (
		m     = s.Mesh
		NL    = len(m.Loops)
		axis  = s.liftAxis()
		vinf  = s.Params.FreeStream()
		h     = 1.e-6 * s.Params.Cref
		gamma = make([]float64, NL)
	)
	if s.OptNodes == nil {
		s.OptNodes = optimization.NewOptNodes(len(m.Nodes))
	}
	s.OptNodes.SizeList(len(m.Nodes))
	for il := range m.Loops {
		gamma[il] = m.Loops[il].Gamma
	}
	psi := mat.NewVecDense(NL, nil)
	if err = s.lu.SolveVecTo(psi, true, mat.NewVecDense(NL, s.liftGradient())); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("solving adjoint system: %w", err)
		}
		s.log.Warnf("adjoint system is ill conditioned: %v", err)
		err = nil
	}
	Psi := psi.RawVector().Data
	nodeEdges := make([][]int, len(m.Nodes))
	for ie := range m.Edges {
		for _, n := range m.Edges[ie].Node {
			nodeEdges[n] = append(nodeEdges[n], ie)
		}
	}
	// residual evaluates psi . R over the rows and columns touched by loops
	residual := func(loops []int, affected map[int]bool) (r float64) {
		for i := 0; i < NL; i++ {
			if affected[i] {
				l := &m.Loops[i]
				ri := r3.Dot(vinf, l.Normal)
				for j := 0; j < NL; j++ {
					ri += s.aicEntry(i, j) * gamma[j]
				}
				r += Psi[i] * ri
				continue
			}
			var ri float64
			for _, j := range loops {
				ri += s.aicEntry(i, j) * gamma[j]
			}
			r += Psi[i] * ri
		}
		return
	}
	for k := range m.Nodes {
		if err = ctx.Err(); err != nil {
			return
		}
		var (
			nd       = &m.Nodes[k]
			x0       = nd.X
			loops    = m.NodeLoops[k]
			affected = make(map[int]bool, len(loops))
			grad     r3.Vec
			psiAvg   float64
		)
		for _, il := range loops {
			affected[il] = true
			psiAvg += Psi[il]
		}
		if len(loops) > 0 {
			psiAvg /= float64(len(loops))
		}
		// Explicit dependence through the edge vectors
		for _, ie := range nodeEdges[k] {
			if !s.liftEdge(ie) {
				continue
			}
			dir := 1.
			if m.Edges[ie].Node[0] == k {
				dir = -1
			}
			grad = r3.Add(grad, r3.Scale(dir*s.edgeGamma(ie), axis))
		}
		var dR [3]float64
		for d := 0; d < 3; d++ {
			var dx r3.Vec
			switch d {
			case 0:
				dx.X = h
			case 1:
				dx.Y = h
			case 2:
				dx.Z = h
			}
			nd.X = r3.Add(x0, dx)
			m.UpdateLoops(loops)
			rp := residual(loops, affected)
			nd.X = r3.Sub(x0, dx)
			m.UpdateLoops(loops)
			rm := residual(loops, affected)
			nd.X = x0
			m.UpdateLoops(loops)
			dR[d] = (rp - rm) / (2 * h)
		}
		grad = r3.Sub(grad, r3.Vec{X: dR[0], Y: dR[1], Z: dR[2]})
		s.OptNodes.SetPosition(k+1, x0)
		s.OptNodes.SetGradient(k+1, grad)
		s.OptNodes.Psi[k+1] = psiAvg
	}
	s.log.Debugf("run %s: lift sensitivity norm %.6g", s.RunID, s.OptNodes.GradientNorm())
	return
}
