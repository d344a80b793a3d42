// Package optimization holds per node design sensitivities. It is only
// allocated when a solve is asked for gradients.
package optimization

import (
	"fmt"

	"github.com/brunoga/deep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// OptNodes stores node positions, the gradient of the objective with respect
// to each position and the node averaged adjoint variable as parallel 1-based
// arrays, entry 0 is unused
type OptNodes struct {
	X, Y, Z          []float64
	DFDx, DFDy, DFDz []float64
	Psi              []float64
}

func NewOptNodes(n int) (on *OptNodes) {
	on = &OptNodes{}
	on.SizeList(n)
	return
}

// SizeList reallocates every array for n nodes, previous contents are dropped
func (on *OptNodes) SizeList(n int) {
	on.X, on.Y, on.Z = make([]float64, n+1), make([]float64, n+1), make([]float64, n+1)
	on.DFDx, on.DFDy, on.DFDz = make([]float64, n+1), make([]float64, n+1), make([]float64, n+1)
	on.Psi = make([]float64, n+1)
}

func (on *OptNodes) Len() int {
	if len(on.X) == 0 {
		return 0
	}
	return len(on.X) - 1
}

func (on *OptNodes) Copy() *OptNodes {
	c := deep.MustCopy(*on)
	return &c
}

func (on *OptNodes) SetPosition(i int, x r3.Vec) {
	on.X[i], on.Y[i], on.Z[i] = x.X, x.Y, x.Z
}

func (on *OptNodes) Position(i int) r3.Vec {
	return r3.Vec{X: on.X[i], Y: on.Y[i], Z: on.Z[i]}
}

func (on *OptNodes) SetGradient(i int, g r3.Vec) {
	on.DFDx[i], on.DFDy[i], on.DFDz[i] = g.X, g.Y, g.Z
}

func (on *OptNodes) Gradient(i int) r3.Vec {
	return r3.Vec{X: on.DFDx[i], Y: on.DFDy[i], Z: on.DFDz[i]}
}

// GradientNorm is the 2-norm of the whole gradient
func (on *OptNodes) GradientNorm() float64 {
	if on.Len() == 0 {
		return 0
	}
	var all []float64
	all = append(all, on.DFDx[1:]...)
	all = append(all, on.DFDy[1:]...)
	all = append(all, on.DFDz[1:]...)
	return floats.Norm(all, 2)
}

// Step moves every position along the gradient by alpha and returns the moved
// positions, 0-based
func (on *OptNodes) Step(alpha float64) (x []r3.Vec, err error) {
	if on.Len() == 0 {
		return nil, fmt.Errorf("no sensitivities allocated")
	}
	x = make([]r3.Vec, on.Len())
	for i := 1; i <= on.Len(); i++ {
		x[i-1] = r3.Add(on.Position(i), r3.Scale(alpha, on.Gradient(i)))
	}
	return
}
