// Package vortex evaluates the velocity induced by straight vortex filaments in
// linearised compressible flow. The freestream runs along +x.
package vortex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/utils"
)

const (
	SubsonicMachLimit   = 0.95
	SupersonicMachLimit = 1.05
	// CoreTolerance is the relative size of the Gram determinant below which the
	// evaluation point is taken to lie on the filament axis
	CoreTolerance = 1.e-10
)

type Filament struct {
	A, B  r3.Vec
	Gamma float64
}

func (f Filament) Velocity(p r3.Vec, mach float64) r3.Vec {
	return Velocity(f.A, f.B, p, mach, f.Gamma)
}

// ClampMach keeps the compressibility factor away from the sonic singularity
func ClampMach(mach float64) float64 {
	switch {
	case mach > SubsonicMachLimit && mach < 1:
		return SubsonicMachLimit
	case mach >= 1 && mach < SupersonicMachLimit:
		return SupersonicMachLimit
	}
	return mach
}

// Kappa is 2 for subsonic and 1 for supersonic flow, the filament prefactor is
// Gamma/(2 Pi Kappa)
func Kappa(mach float64) float64 {
	if 1-mach*mach < 0 {
		return 1
	}
	return 2
}

/*
Velocity returns the velocity induced at p by a filament running from a to b
with circulation gamma.

The filament is rotated about the x axis by atan2(dz, dy) so that it lies in a
constant-z plane of the local frame. In that frame the endpoint vectors are
stretched laterally by beta = sqrt(|1-M^2|):

	subsonic:   |r|^2 = x^2 + beta^2 (y^2 + z^2)
	supersonic: |r|^2 = x^2 - beta^2 (y^2 + z^2), an endpoint only contributes
	            when p is inside its downstream Mach cone

and the two endpoint limits of the line integral are combined through the Gram
determinant D = |r1|^2 |r2|^2 - (r1.r2)^2. A vanishing D (p on the filament
axis) or a vanishing endpoint radius yields zero.
*/
func Velocity(a, b, p r3.Vec, mach, gamma float64) (q r3.Vec) {
	var (
		M          = ClampMach(mach)
		beta2      = 1 - M*M
		supersonic = beta2 < 0
		kappa      = Kappa(M)
		beta       = math.Sqrt(math.Abs(beta2))
		d          = r3.Sub(b, a)
		theta      = math.Atan2(d.Z, d.Y)
		ct, st     = math.Cos(theta), math.Sin(theta)
	)
	toLocal := func(v r3.Vec) r3.Vec {
		return r3.Vec{X: v.X, Y: ct*v.Y + st*v.Z, Z: -st*v.Y + ct*v.Z}
	}
	fromLocal := func(v r3.Vec) r3.Vec {
		return r3.Vec{X: v.X, Y: ct*v.Y - st*v.Z, Z: st*v.Y + ct*v.Z}
	}
	dot := func(u, v r3.Vec) float64 {
		if supersonic {
			return u.X*v.X - u.Y*v.Y - u.Z*v.Z
		}
		return u.X*v.X + u.Y*v.Y + u.Z*v.Z
	}
	var (
		aL, bL, pL = toLocal(a), toLocal(b), toLocal(p)
		// The filament has no z extent in the local frame, so both endpoint
		// vectors share the lateral offset zL
		zL = beta * (pL.Z - aL.Z)
		r1 = r3.Vec{X: pL.X - aL.X, Y: beta * (pL.Y - aL.Y), Z: zL}
		r2 = r3.Vec{X: pL.X - bL.X, Y: beta * (pL.Y - bL.Y), Z: zL}
		r0 = r3.Vec{X: bL.X - aL.X, Y: beta * (bL.Y - aL.Y)}
		n1 = dot(r1, r1)
		n2 = dot(r2, r2)
		c  = dot(r1, r2)
		D  = n1*n2 - c*c
	)
	if !supersonic {
		// Same quantity without the cancellation in n1*n2 - c*c
		D = r3.Norm2(r3.Cross(r1, r2))
	}
	if math.Abs(D) <= CoreTolerance*math.Abs(n1*n2) || math.Abs(D) < utils.NODETOL*utils.NODETOL {
		return
	}
	limit := func(r r3.Vec, n float64) float64 {
		if n <= 0 || (supersonic && r.X <= 0) {
			return 0
		}
		return dot(r0, r) / math.Sqrt(n)
	}
	bracket := limit(r1, n1) - limit(r2, n2)
	if bracket == 0 {
		return
	}
	var (
		scale = gamma / (2 * math.Pi * kappa) * bracket / D
		qs    = r3.Scale(scale, r3.Cross(r1, r2))
	)
	// Undo the lateral stretching: the potential is invariant, the lateral
	// derivatives pick up a factor of beta
	q = fromLocal(r3.Vec{X: qs.X, Y: beta * qs.Y, Z: beta * qs.Z})
	return
}

// PolylineVelocity sums the velocity of consecutive filaments through pts, all
// carrying the same circulation
func PolylineVelocity(pts []r3.Vec, p r3.Vec, mach, gamma float64) (q r3.Vec) {
	for i := 0; i+1 < len(pts); i++ {
		q = r3.Add(q, Velocity(pts[i], pts[i+1], p, mach, gamma))
	}
	return
}
