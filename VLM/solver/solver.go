package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/optimization"
	"github.com/notargets/govlm/VLM/sorting"
	"github.com/notargets/govlm/VLM/vortex"
	"github.com/notargets/govlm/VLM/wake"
	"github.com/notargets/govlm/logger"
	"github.com/notargets/govlm/utils"
)

/*
Solver finds the loop circulations of a mesh in a steady free stream.

Each vortex loop is a ring of its boundary edges. The ring of a loop on a
trailing edge leaves out the trailing edge itself and continues as a
horseshoe: the wake of that loop is a pair of trailing filaments of length
WakeLength*Bref running downstream along +x from the ends of the trailing edge.
Flow tangency at the loop centroids gives a dense system for the circulations.
*/
type Solver struct {
	Mesh   *mesh.Mesh
	Params Parameters
	RunID  uuid.UUID

	Sheets      []*wake.VortexSheet
	VortexSets  [][]wake.VortexToVortexInteractionSet
	LoopEntries []wake.LoopInteractionEntry
	// FarField is the share of loop to sheet interactions using aggregates
	FarField float64
	// EdgeOrder lists the edges by their lowest adjacent loop
	EdgeOrder  []int
	OverLaps   []LoopPair
	Partitions *utils.PartitionMap

	OptNodes *optimization.OptNodes

	SpanLoads SpanLoadTable
	Coefficients

	log     *logger.Logger
	verbose bool

	trefftz   map[int][2]int // trailing edge -> sheet index, segment
	nodeGamma []float64
	aic       utils.Matrix
	lu        *mat.LU
	rhs       *mat.VecDense
	isSetup   bool
	solved    bool
}

type Coefficients struct {
	CL, CDi, CS   float64
	CFx, CFy, CFz float64
	CMx, CMy, CMz float64
}

type Option func(*Solver)

func WithLogger(l *logger.Logger) Option {
	return func(s *Solver) { s.log = l }
}

func WithVerbose(verbose bool) Option {
	return func(s *Solver) { s.verbose = verbose }
}

func WithRunID(id uuid.UUID) Option {
	return func(s *Solver) { s.RunID = id }
}

func NewSolver(m *mesh.Mesh, p Parameters, opts ...Option) (s *Solver, err error) {
	if err = p.Validate(); err != nil {
		return nil, fmt.Errorf("solver parameters: %w", err)
	}
	if len(m.Loops) == 0 {
		return nil, fmt.Errorf("mesh has no vortex loops")
	}
	if err = m.CheckConnectivity(); err != nil {
		return nil, fmt.Errorf("mesh connectivity: %w", err)
	}
	s = &Solver{
		Mesh:   m,
		Params: p,
		RunID:  uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return
}

// Setup orders the edges, flags upwind edges, detects overlapping surfaces and
// builds the wake sheets with their interaction lists
func (s *Solver) Setup(ctx context.Context) (err error) {
	var (
		m  = s.Mesh
		NL = len(m.Loops)
	)
	list := make([]sorting.Keyed, len(m.Edges))
	for ie := range m.Edges {
		list[ie] = &m.Edges[ie]
	}
	iperm := sorting.MergeSort(list)
	s.EdgeOrder = make([]int, len(m.Edges))
	for r := range s.EdgeOrder {
		s.EdgeOrder[r] = iperm[r+1] - 1
	}
	m.SetUpwind(s.Params.FreeStream())
	s.Partitions = utils.NewPartitionMap(utils.GetParallelDegree(s.Params.ParallelDegree, NL), NL)
	s.FindOverLappingSurfaces()
	wp := s.Params.WakeParameters()
	if s.Sheets, err = wake.NewSheets(m, wp); err != nil {
		return fmt.Errorf("building wake: %w", err)
	}
	s.trefftz = make(map[int][2]int)
	for is, sh := range s.Sheets {
		for k, seg := range sh.Segments {
			s.trefftz[seg.Edge] = [2]int{is, k}
		}
	}
	if s.VortexSets, err = wake.BuildVortexInteractionSets(ctx, s.Sheets, wp); err != nil {
		return
	}
	if s.LoopEntries, err = wake.BuildLoopInteractionEntries(ctx, m, s.Sheets, wp); err != nil {
		return
	}
	lists := make([]*wake.EntryList, len(s.LoopEntries))
	for i := range s.LoopEntries {
		lists[i] = &s.LoopEntries[i].EntryList
	}
	s.FarField = wake.FarFieldFraction(wake.LevelMatrix(len(s.Sheets), lists...))
	if s.Params.Optimize {
		s.OptNodes = optimization.NewOptNodes(len(m.Nodes))
	}
	s.isSetup = true
	s.log.Infof("setup run %s: %d nodes, %d triangles, %d loops, %d edges, %d sheets, %d overlapping loop pairs, %.1f%% far field, BLAS %s",
		s.RunID, len(m.Nodes), len(m.Tris), NL, len(m.Edges), len(s.Sheets), len(s.OverLaps), 100*s.FarField,
		utils.BLASBackend)
	if s.verbose {
		s.PrintInitialization()
	}
	return
}

// Solve assembles and solves the influence system then updates loads,
// span loads and coefficients from the new circulations
func (s *Solver) Solve(ctx context.Context) (r *Result, err error) {
	if !s.isSetup {
		if err = s.Setup(ctx); err != nil {
			return
		}
	}
	var (
		start = time.Now()
		m     = s.Mesh
	)
	m.UpdateGeometry()
	for _, sh := range s.Sheets {
		sh.Update(m)
	}
	if err = s.assemble(ctx); err != nil {
		return
	}
	if err = s.factor(); err != nil {
		return
	}
	gamma := mat.NewVecDense(len(m.Loops), nil)
	if err = s.lu.SolveVecTo(gamma, false, s.rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solving for circulation: %w", err)
		}
		s.log.Warnf("influence matrix is ill conditioned: %v", err)
	}
	if utils.IsNan(gamma.RawVector().Data) {
		return nil, fmt.Errorf("circulation is not finite, check the mesh for degenerate loops")
	}
	s.setCirculation(gamma.RawVector().Data)
	if err = s.UpdateLoads(ctx); err != nil {
		return
	}
	s.solved = true
	if s.OptNodes != nil {
		if err = s.ComputeSensitivities(ctx); err != nil {
			return
		}
	}
	elapsed := time.Since(start)
	s.log.Infof("run %s solved in %v: CL %.6f CDi %.6f CMy %.6f", s.RunID, elapsed, s.CL, s.CDi, s.CMy)
	if s.verbose {
		s.PrintFinal(elapsed)
	}
	return s.Result(), nil
}

// ringVelocity is the velocity at p induced by loop j with unit circulation,
// trailing edge loops include their horseshoe wake
func (s *Solver) ringVelocity(j int, p r3.Vec) r3.Vec {
	return s.loopVelocity(j, p, true)
}

func (s *Solver) loopVelocity(j int, p r3.Vec, withWake bool) (q r3.Vec) {
	var (
		m          = s.Mesh
		l          = &m.Loops[j]
		mach       = s.Params.Mach
		downstream = r3.Vec{X: s.Params.WakeLength * s.Params.Bref}
	)
	for i, ie := range l.Edges {
		a, b := m.RingEdge(j, i)
		if m.Edges[ie].IsTrailingEdge {
			if withWake {
				q = r3.Add(q, vortex.Velocity(a, r3.Add(a, downstream), p, mach, 1))
				q = r3.Add(q, vortex.Velocity(r3.Add(b, downstream), b, p, mach, 1))
			}
			continue
		}
		q = r3.Add(q, vortex.Velocity(a, b, p, mach, 1))
	}
	return
}

func (s *Solver) aicEntry(i, j int) float64 {
	l := &s.Mesh.Loops[i]
	return r3.Dot(l.Normal, s.ringVelocity(j, l.Centroid))
}

// assemble fills the influence matrix by row partitions
func (s *Solver) assemble(ctx context.Context) (err error) {
	var (
		m    = s.Mesh
		NL   = len(m.Loops)
		vinf = s.Params.FreeStream()
	)
	s.aic = utils.NewMatrix(NL, NL)
	s.rhs = mat.NewVecDense(NL, nil)
	err = s.Partitions.Run(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		for i := kMin; i < kMax; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := s.aic.RawRowView(i)
			for j := 0; j < NL; j++ {
				row[j] = s.aicEntry(i, j)
			}
			s.rhs.SetVec(i, -r3.Dot(vinf, m.Loops[i].Normal))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("assembling influence matrix: %w", err)
	}
	s.aic.SetReadOnly("InfluenceMatrix")
	return
}

func (s *Solver) factor() (err error) {
	if s.lu, err = s.aic.LU(); err != nil {
		return fmt.Errorf("factoring influence matrix: %w", err)
	}
	return
}

// setCirculation copies loop circulations to loops, triangles and sheets and
// records the change of the node averaged circulation
func (s *Solver) setCirculation(gamma []float64) {
	m := s.Mesh
	for il := range m.Loops {
		m.Loops[il].Gamma = gamma[il]
		for _, k := range m.Loops[il].Tris {
			m.Tris[k].Gamma = gamma[il]
		}
	}
	if len(s.nodeGamma) != len(m.Nodes) {
		s.nodeGamma = make([]float64, len(m.Nodes))
	}
	for n := range m.Nodes {
		var (
			loops = m.NodeLoops[n]
			avg   float64
		)
		for _, il := range loops {
			avg += gamma[il]
		}
		if len(loops) > 0 {
			avg /= float64(len(loops))
		}
		m.Nodes[n].DGamma = avg - s.nodeGamma[n]
		s.nodeGamma[n] = avg
	}
	for _, sh := range s.Sheets {
		sh.UpdateStrengths(m)
	}
}

// parallel runs f over [0,n) in partitions of the solver's parallel degree
func (s *Solver) parallel(ctx context.Context, n int, f func(i int)) error {
	if n == 0 {
		return nil
	}
	pm := utils.NewPartitionMap(utils.GetParallelDegree(s.Params.ParallelDegree, n), n)
	return pm.Run(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		for i := kMin; i < kMax; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			f(i)
		}
		return nil
	})
}
