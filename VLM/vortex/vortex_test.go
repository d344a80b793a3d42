package vortex

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/utils"
)

func TestMachClamp(t *testing.T) {
	assert.Equal(t, 0.5, ClampMach(0.5))
	assert.Equal(t, 0.95, ClampMach(0.97))
	assert.Equal(t, 1.05, ClampMach(1))
	assert.Equal(t, 1.05, ClampMach(1.02))
	assert.Equal(t, 2., ClampMach(2))
	assert.Equal(t, 2., Kappa(0.3))
	assert.Equal(t, 1., Kappa(1.5))
}

func TestVelocity(t *testing.T) {
	var (
		Gamma = 2.5
		L     = 1.e4
		h     = 0.5
	)
	{ // Long filament along +y, incompressible: Gamma/(2 Pi h) along +x
		q := Velocity(r3.Vec{Y: -L}, r3.Vec{Y: L}, r3.Vec{Z: h}, 0, Gamma)
		assert.InDelta(t, Gamma/(2*math.Pi*h), q.X, 1.e-8)
		assert.InDelta(t, 0, q.Y, 1.e-10)
		assert.InDelta(t, 0, q.Z, 1.e-10)
	}
	{ // Long filament along +z exercises the frame rotation: z cross y = -x
		q := Velocity(r3.Vec{Z: -L}, r3.Vec{Z: L}, r3.Vec{Y: h}, 0, Gamma)
		assert.InDelta(t, -Gamma/(2*math.Pi*h), q.X, 1.e-8)
		assert.InDelta(t, 0, q.Y, 1.e-10)
		assert.InDelta(t, 0, q.Z, 1.e-10)
	}
	{ // Oblique filament in the y-z plane, point on the perpendicular through its midpoint
		var (
			dir = utils.UnitOrZero(r3.Vec{Y: 1, Z: 1})
			a   = r3.Scale(-L, dir)
			b   = r3.Scale(L, dir)
			off = r3.Vec{Y: -h / math.Sqrt2, Z: h / math.Sqrt2}
		)
		q := Velocity(a, b, off, 0, Gamma)
		assert.InDelta(t, Gamma/(2*math.Pi*h), r3.Norm(q), 1.e-8)
	}
	{ // Finite segment, classical Biot-Savart: Gamma/(4 Pi h) (cos t1 - cos t2)
		var (
			a = r3.Vec{Y: -1}
			b = r3.Vec{Y: 1}
			p = r3.Vec{Z: 1}
		)
		q := Velocity(a, b, p, 0, 1)
		expected := 1 / (4 * math.Pi) * 2 / math.Sqrt2
		assert.InDelta(t, expected, q.X, 1.e-12)
	}
	{ // Prandtl-Glauert: lateral offset is stretched by beta
		var (
			M    = 0.6
			beta = math.Sqrt(1 - M*M)
		)
		q := Velocity(r3.Vec{Y: -L}, r3.Vec{Y: L}, r3.Vec{Z: h}, M, Gamma)
		assert.InDelta(t, Gamma/(2*math.Pi*beta*h), q.X, 1.e-8)
	}
}

func TestVelocitySingularities(t *testing.T) {
	var (
		a = r3.Vec{X: 1, Y: 2, Z: 3}
		b = r3.Vec{X: 2, Y: 4, Z: 5}
	)
	for _, mach := range []float64{0, 0.5, 0.97, 1, 1.5} {
		// On the filament, on its extension, and at the endpoints
		for _, s := range []float64{0, 0.25, 0.5, 1, 1.7, -0.3} {
			p := r3.Add(a, r3.Scale(s, r3.Sub(b, a)))
			q := Velocity(a, b, p, mach, 1)
			assert.Equal(t, r3.Vec{}, q, "mach %v s %v", mach, s)
		}
		// Degenerate filament
		assert.Equal(t, r3.Vec{}, Velocity(a, a, r3.Vec{}, mach, 1))
	}
}

func TestVelocityProperties(t *testing.T) {
	var (
		rnd  = rand.New(rand.NewSource(1))
		rvec = func() r3.Vec {
			return r3.Vec{X: 4*rnd.Float64() - 2, Y: 4*rnd.Float64() - 2, Z: 4*rnd.Float64() - 2}
		}
	)
	for _, mach := range []float64{0, 0.3, 0.8, 0.99, 1, 1.3, 2.2} {
		for i := 0; i < 200; i++ {
			a, b, p := rvec(), rvec(), rvec()
			q := Velocity(a, b, p, mach, 1.3)
			assert.False(t, utils.IsNan(q))
			// Reversing the filament reverses the velocity
			qr := Velocity(b, a, p, mach, 1.3)
			assert.InDelta(t, -q.X, qr.X, 1.e-9*math.Max(1, math.Abs(q.X)))
			assert.InDelta(t, -q.Y, qr.Y, 1.e-9*math.Max(1, math.Abs(q.Y)))
			assert.InDelta(t, -q.Z, qr.Z, 1.e-9*math.Max(1, math.Abs(q.Z)))
			// Linear in the circulation
			q2 := Velocity(a, b, p, mach, 2.6)
			assert.InDelta(t, 2*q.X, q2.X, 1.e-9*math.Max(1, math.Abs(q.X)))
		}
	}
}

func TestSupersonicZoneOfInfluence(t *testing.T) {
	var (
		a = r3.Vec{Y: -1}
		b = r3.Vec{Y: 1}
	)
	// Upstream of both endpoints nothing is felt
	assert.Equal(t, r3.Vec{}, Velocity(a, b, r3.Vec{X: -1, Z: 0.1}, 2, 1))
	// Downstream but outside both Mach cones
	assert.Equal(t, r3.Vec{}, Velocity(a, b, r3.Vec{X: 0.1, Z: 3}, 2, 1))
	// Inside the cones the result is finite and non-zero
	q := Velocity(a, b, r3.Vec{X: 4, Z: 0.1}, 2, 1)
	assert.False(t, utils.IsNan(q))
	assert.NotEqual(t, r3.Vec{}, q)
}

func TestPolyline(t *testing.T) {
	var (
		pts = []r3.Vec{{Y: -1}, {Y: 0}, {Y: 1}}
		p   = r3.Vec{X: 0.3, Z: 0.7}
	)
	q := PolylineVelocity(pts, p, 0.4, 1)
	qs := Velocity(pts[0], pts[2], p, 0.4, 1)
	assert.True(t, utils.NearVec(q, qs, 1.e-12))
	f := Filament{A: pts[0], B: pts[2], Gamma: 1}
	assert.Equal(t, qs, f.Velocity(p, 0.4))
	assert.Equal(t, r3.Vec{}, PolylineVelocity(pts[:1], p, 0.4, 1))
}
