package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/wake"
)

// Parameters set the flight condition and reference quantities. The free
// stream has unit speed and unit density, angles are in degrees.
type Parameters struct {
	Mach  float64
	Alpha float64
	Beta  float64

	Sref, Cref, Bref float64
	Xcg              r3.Vec

	WakeLength     float64 // In units of Bref
	WakeSegments   int
	Theta          float64 // Far field opening criterion
	ParallelDegree int     // Zero uses every CPU

	Optimize bool // Allocate and compute adjoint sensitivities
}

// MaxMach bounds the free stream Mach number of a solve. Mach numbers between
// vortex.SubsonicMachLimit and 1 are solved at the limit.
const MaxMach = 1.

func DefaultParameters() Parameters {
	return Parameters{
		Sref: 1, Cref: 1, Bref: 1,
		WakeLength:   25,
		WakeSegments: 1,
		Theta:        0.5,
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.Mach < 0:
		return fmt.Errorf("mach number must not be negative, have %g", p.Mach)
	case p.Mach >= MaxMach:
		return fmt.Errorf("mach number %g is not below %g, the lattice is solved for subsonic flow only", p.Mach, MaxMach)
	case p.Sref <= 0 || p.Cref <= 0 || p.Bref <= 0:
		return fmt.Errorf("reference area, chord and span must be positive, have %g %g %g",
			p.Sref, p.Cref, p.Bref)
	}
	return p.WakeParameters().Validate()
}

func (p Parameters) WakeParameters() wake.Parameters {
	return wake.Parameters{
		WakeLength:     p.WakeLength * p.Bref,
		Segments:       p.WakeSegments,
		Theta:          p.Theta,
		Mach:           p.Mach,
		ParallelDegree: p.ParallelDegree,
	}
}

func (p Parameters) angles() (ca, sa, cb, sb float64) {
	var (
		alpha = p.Alpha * math.Pi / 180
		beta  = p.Beta * math.Pi / 180
	)
	return math.Cos(alpha), math.Sin(alpha), math.Cos(beta), math.Sin(beta)
}

// FreeStream is the unit free stream velocity in body axes
func (p Parameters) FreeStream() r3.Vec {
	ca, sa, cb, sb := p.angles()
	return r3.Vec{X: ca * cb, Y: -sb, Z: sa * cb}
}

// Drag, side force and lift directions form a right handed set
func (p Parameters) DragDirection() r3.Vec { return p.FreeStream() }

func (p Parameters) LiftDirection() r3.Vec {
	ca, sa, _, _ := p.angles()
	return r3.Vec{X: -sa, Z: ca}
}

func (p Parameters) SideDirection() r3.Vec {
	return r3.Cross(p.LiftDirection(), p.DragDirection())
}

// DynamicPressure for unit density and speed
func (p Parameters) DynamicPressure() float64 { return 0.5 }
