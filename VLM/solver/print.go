package solver

import (
	"fmt"
	"time"

	"github.com/notargets/govlm/utils"
)

func (s *Solver) PrintInitialization() {
	var (
		m = s.Mesh
		p = s.Params
	)
	fmt.Printf("Vortex Lattice Solver, run %s\n", s.RunID)
	fmt.Printf("Using %d go routines in parallel, BLAS from %s\n", s.Partitions.ParallelDegree, utils.BLASBackend)
	fmt.Printf("Mach Infinity = %8.5f, Angle of Attack = %8.5f, Sideslip = %8.5f\n", p.Mach, p.Alpha, p.Beta)
	fmt.Printf("Sref = %8.5f, Cref = %8.5f, Bref = %8.5f\n", p.Sref, p.Cref, p.Bref)
	fmt.Printf("Nodes = %d, Triangles = %d, Edges = %d, Vortex Loops = %d\n",
		len(m.Nodes), len(m.Tris), len(m.Edges), len(m.Loops))
	fmt.Printf("Vortex Sheets = %d, Wake Length = %8.3f, Opening Criterion = %6.3f\n",
		len(s.Sheets), p.WakeLength*p.Bref, p.Theta)
	fmt.Printf("Far field wake interactions = %5.1f%%\n", 100*s.FarField)
	if len(s.OverLaps) > 0 {
		fmt.Printf("\tZeroed loads on %d overlapping body/wing loop pairs\n", len(s.OverLaps))
	}
	fmt.Printf("\n")
}

func (s *Solver) PrintFinal(elapsed time.Duration) {
	format := "%11.6f"
	fmt.Printf("         CL        CDi         CS        CMx        CMy        CMz\n")
	for _, c := range []float64{s.CL, s.CDi, s.CS, s.CMx, s.CMy, s.CMz} {
		fmt.Printf(format, c)
	}
	fmt.Printf("\n")
	if s.CL != 0 && s.CDi != 0 {
		fmt.Printf("L/Di = %8.3f\n", s.CL/s.CDi)
	}
	rate := float64(elapsed.Microseconds()) / float64(len(s.Mesh.Loops)*len(s.Mesh.Loops))
	fmt.Printf("\nRate of execution = %8.5f us/(loop*loop) for %d loops\n", rate, len(s.Mesh.Loops))
	fmt.Printf("%s\n", utils.GetMemUsage())
}
