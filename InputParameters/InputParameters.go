package InputParameters

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/solver"
	"github.com/notargets/govlm/types"
)

// SurfaceParameters describe one trapezoidal lifting surface or flat body
// panel of the case
type SurfaceParameters struct {
	Name        string     `json:"Name"`
	Type        string     `json:"Type"` // wing or body
	ComponentID int        `json:"ComponentID"`
	Origin      [3]float64 `json:"Origin"` // Root leading edge
	RootChord   float64    `json:"RootChord"`
	TipChord    float64    `json:"TipChord"`
	Span        float64    `json:"Span"`
	Sweep       float64    `json:"Sweep"`
	Dihedral    float64    `json:"Dihedral"`
	Incidence   float64    `json:"Incidence"`
	NChord      int        `json:"NChord"`
	NSpan       int        `json:"NSpan"`
	Mirror      bool       `json:"Mirror"`
}

// Parameters obtained from the YAML case file
type CaseParameters struct {
	Title          string              `json:"Title"`
	Mach           float64             `json:"Mach"`
	Alpha          float64             `json:"Alpha"`
	Beta           float64             `json:"Beta"`
	Sref           float64             `json:"Sref"`
	Cref           float64             `json:"Cref"`
	Bref           float64             `json:"Bref"`
	Xcg            [3]float64          `json:"Xcg"`
	WakeLength     float64             `json:"WakeLength"`
	WakeSegments   int                 `json:"WakeSegments"`
	Theta          float64             `json:"Theta"`
	ParallelDegree int                 `json:"ParallelDegree"`
	Optimize       bool                `json:"Optimize"`
	Surfaces       []SurfaceParameters `json:"Surfaces"`
}

// NewCaseParameters starts from the solver defaults, values in the case file
// replace them
func NewCaseParameters() *CaseParameters {
	p := solver.DefaultParameters()
	return &CaseParameters{
		Sref: p.Sref, Cref: p.Cref, Bref: p.Bref,
		WakeLength:   p.WakeLength,
		WakeSegments: p.WakeSegments,
		Theta:        p.Theta,
	}
}

func (cp *CaseParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, cp)
}

func ReadCase(path string) (cp *CaseParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("reading case: %w", err)
	}
	cp = NewCaseParameters()
	if err = cp.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing case %s: %w", path, err)
	}
	if err = cp.Validate(); err != nil {
		return nil, fmt.Errorf("case %s: %w", path, err)
	}
	return
}

func (cp *CaseParameters) Marshal() ([]byte, error) {
	return yaml.Marshal(cp)
}

func (cp *CaseParameters) Validate() (err error) {
	if len(cp.Surfaces) == 0 {
		return fmt.Errorf("no surfaces")
	}
	for i := range cp.Surfaces {
		var pp mesh.PlanformParameters
		if pp, err = cp.Surfaces[i].Planform(i); err != nil {
			return
		}
		if err = pp.Validate(); err != nil {
			return
		}
	}
	return cp.SolverParameters().Validate()
}

func (cp *CaseParameters) SolverParameters() solver.Parameters {
	return solver.Parameters{
		Mach: cp.Mach, Alpha: cp.Alpha, Beta: cp.Beta,
		Sref: cp.Sref, Cref: cp.Cref, Bref: cp.Bref,
		Xcg:            r3.Vec{X: cp.Xcg[0], Y: cp.Xcg[1], Z: cp.Xcg[2]},
		WakeLength:     cp.WakeLength,
		WakeSegments:   cp.WakeSegments,
		Theta:          cp.Theta,
		ParallelDegree: cp.ParallelDegree,
		Optimize:       cp.Optimize,
	}
}

// Planform converts surface number i, an empty type is a wing
func (sp *SurfaceParameters) Planform(i int) (pp mesh.PlanformParameters, err error) {
	st := types.Surface_Wing
	if sp.Type != "" {
		if st, err = types.NewSurfaceType(sp.Type); err != nil {
			return pp, fmt.Errorf("surface %d %q: %w", i, sp.Name, err)
		}
	}
	name := sp.Name
	if name == "" {
		name = fmt.Sprintf("Surface%d", i)
	}
	pp = mesh.PlanformParameters{
		Name: name, Type: st, ComponentID: sp.ComponentID, GeomID: i,
		Origin:    r3.Vec{X: sp.Origin[0], Y: sp.Origin[1], Z: sp.Origin[2]},
		RootChord: sp.RootChord, TipChord: sp.TipChord, Span: sp.Span,
		Sweep: sp.Sweep, Dihedral: sp.Dihedral, Incidence: sp.Incidence,
		NChord: sp.NChord, NSpan: sp.NSpan, Mirror: sp.Mirror,
	}
	if pp.TipChord == 0 {
		pp.TipChord = pp.RootChord
	}
	return
}

// Mesh builds and merges every surface of the case
func (cp *CaseParameters) Mesh() (m *mesh.Mesh, err error) {
	meshes := make([]*mesh.Mesh, len(cp.Surfaces))
	for i := range cp.Surfaces {
		var pp mesh.PlanformParameters
		if pp, err = cp.Surfaces[i].Planform(i); err != nil {
			return
		}
		if meshes[i], err = mesh.NewPlanform(pp); err != nil {
			return
		}
	}
	if len(meshes) == 1 {
		return meshes[0], nil
	}
	return mesh.Merge(meshes...)
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("%8.5f\t\t= Mach\n", cp.Mach)
	fmt.Printf("%8.5f\t\t= Alpha\n", cp.Alpha)
	fmt.Printf("%8.5f\t\t= Beta\n", cp.Beta)
	fmt.Printf("%8.5f\t\t= Sref\n", cp.Sref)
	fmt.Printf("%8.5f\t\t= Cref\n", cp.Cref)
	fmt.Printf("%8.5f\t\t= Bref\n", cp.Bref)
	fmt.Printf("%v\t\t= Xcg\n", cp.Xcg)
	fmt.Printf("%8.5f\t\t= Wake Length [Bref]\n", cp.WakeLength)
	fmt.Printf("[%d]\t\t\t\t= Wake Segments\n", cp.WakeSegments)
	fmt.Printf("[%t]\t\t\t= Optimize\n", cp.Optimize)
	for i, sp := range cp.Surfaces {
		fmt.Printf("Surfaces[%d] = %s %s component %d, %d x %d panels, mirror %t\n",
			i, sp.Name, sp.Type, sp.ComponentID, sp.NChord, sp.NSpan, sp.Mirror)
	}
}
