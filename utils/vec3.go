package utils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// UnitOrZero returns the unit vector along v, or the zero vector when |v| is
// below NODETOL
func UnitOrZero(v r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l < NODETOL {
		return r3.Vec{}
	}
	return r3.Scale(1./l, v)
}

// Triangle returns the centroid, area and unit normal of a triangle with
// counter-clockwise vertices a, b, c
func Triangle(a, b, c r3.Vec) (centroid r3.Vec, area float64, normal r3.Vec) {
	var (
		cross = r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		l     = r3.Norm(cross)
	)
	centroid = r3.Scale(1./3., r3.Add(r3.Add(a, b), c))
	area = 0.5 * l
	if l > NODETOL {
		normal = r3.Scale(1./l, cross)
	}
	return
}

// Near compares with a relative tolerance that becomes absolute near zero
func Near(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

func NearVec(a, b r3.Vec, tol float64) bool {
	return Near(a.X, b.X, tol) && Near(a.Y, b.Y, tol) && Near(a.Z, b.Z, tol)
}
