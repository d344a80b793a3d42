package solver

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/utils"
)

// SpanLoadData holds one span station of one vortex sheet
type SpanLoadData struct {
	Chord        float64
	Svec         r3.Vec // Unit chord direction, towards the trailing edge
	Nvec         r3.Vec // Unit section normal
	TrailingEdge r3.Vec // Trailing edge midpoint of the station
	S            float64
	Area         float64
	ComponentID  int

	Force  r3.Vec
	Cl, Cd float64
}

// SpanLoadTable is indexed [sheet][station], sheet 0 collects loops without a
// sheet and stations are 1-based, entry [s][0] is unused
type SpanLoadTable [][]SpanLoadData

func (st SpanLoadTable) NumberOfStations(sheet int) int {
	return len(st[sheet]) - 1
}

// SpanSheet describes the trailing edge of one vortex sheet, nodes ordered along
// the span
type SpanSheet struct {
	ComponentID  int
	TrailingEdge []r3.Vec
}

/*
SpanLoadBuilder collects span loads in two passes that must run in order:

	b := NewSpanLoadBuilder(sheets)
	b.AccumulateGeometry(...)   for every loop
	p := b.Normalize()
	p.AccumulateArea(...)       for every loop
	p.AccumulateForce(...)
	table := p.Finalize(...)

Calling a pass after it has been closed panics.
*/
type SpanLoadBuilder struct {
	data    SpanLoadTable
	tangent [][]r3.Vec
	sealed  bool
}

func NewSpanLoadBuilder(sheets []SpanSheet) (b *SpanLoadBuilder) {
	b = &SpanLoadBuilder{
		data:    make(SpanLoadTable, len(sheets)+1),
		tangent: make([][]r3.Vec, len(sheets)+1),
	}
	// Sheet 0 has a single station
	b.data[0] = make([]SpanLoadData, 2)
	b.tangent[0] = make([]r3.Vec, 2)
	for is, sh := range sheets {
		var (
			s        = is + 1
			te       = sh.TrailingEdge
			NStation = max(1, len(te)-1)
			arc      float64
		)
		b.data[s] = make([]SpanLoadData, NStation+1)
		b.tangent[s] = make([]r3.Vec, NStation+1)
		for k := 1; k <= NStation; k++ {
			b.data[s][k].ComponentID = sh.ComponentID
		}
		for k := 1; k < len(te); k++ {
			var (
				mid = utils.Midpoint(te[k-1], te[k])
				sd  = &b.data[s][k]
			)
			if k > 1 {
				arc += utils.Distance(mid, b.data[s][k-1].TrailingEdge)
			}
			sd.TrailingEdge = mid
			sd.S = arc
			b.tangent[s][k] = utils.UnitOrZero(r3.Sub(te[k], te[k-1]))
		}
	}
	return
}

func (b *SpanLoadBuilder) station(sheet, station int) int {
	if station < 1 {
		station = 1
	}
	utils.CheckIndex(station, len(b.data[sheet]))
	return station
}

// AccumulateGeometry records a loop centroid against its station, keeping the
// longest chord seen
func (b *SpanLoadBuilder) AccumulateGeometry(sheet, station int, centroid r3.Vec) {
	if b.sealed {
		panic(fmt.Errorf("span load geometry pass is closed"))
	}
	k := b.station(sheet, station)
	var (
		sd    = &b.data[sheet][k]
		chord = r3.Sub(sd.TrailingEdge, centroid)
		c     = r3.Norm(chord)
	)
	if sheet == 0 || c <= sd.Chord {
		return
	}
	sd.Chord = c
	sd.Svec = r3.Scale(1/c, chord)
	sd.Nvec = utils.UnitOrZero(r3.Cross(sd.Svec, b.tangent[sheet][k]))
}

// Normalize rescales the span coordinate of each sheet to [0,1] and closes the
// geometry pass. A sheet with one station or no span gets S = 0 and Chord = 1.
func (b *SpanLoadBuilder) Normalize() *SpanAreaPass {
	if b.sealed {
		panic(fmt.Errorf("span load geometry pass is closed"))
	}
	b.sealed = true
	for s := range b.data {
		var (
			row      = b.data[s]
			NStation = len(row) - 1
			span     = row[NStation].S
		)
		if NStation < 2 || span <= utils.NODETOL {
			for k := 1; k <= NStation; k++ {
				row[k].S = 0
				row[k].Chord = 1
			}
			continue
		}
		for k := 1; k <= NStation; k++ {
			row[k].S /= span
		}
	}
	return &SpanAreaPass{data: b.data}
}

type SpanAreaPass struct {
	data   SpanLoadTable
	sealed bool
}

func (p *SpanAreaPass) check() {
	if p.sealed {
		panic(fmt.Errorf("span load area pass is closed"))
	}
}

func (p *SpanAreaPass) station(sheet, station int) int {
	if station < 1 {
		station = 1
	}
	utils.CheckIndex(station, len(p.data[sheet]))
	return station
}

func (p *SpanAreaPass) AccumulateArea(sheet, station int, area float64) {
	p.check()
	p.data[sheet][p.station(sheet, station)].Area += area
}

func (p *SpanAreaPass) AccumulateForce(sheet, station int, force r3.Vec) {
	p.check()
	sd := &p.data[sheet][p.station(sheet, station)]
	sd.Force = r3.Add(sd.Force, force)
}

// Finalize forms section coefficients on the station areas and closes the pass
func (p *SpanAreaPass) Finalize(q float64, lift, drag r3.Vec) SpanLoadTable {
	p.check()
	p.sealed = true
	for s := range p.data {
		for k := 1; k < len(p.data[s]); k++ {
			sd := &p.data[s][k]
			if sd.Area <= 0 || q <= 0 {
				continue
			}
			sd.Cl = r3.Dot(sd.Force, lift) / (q * sd.Area)
			sd.Cd = r3.Dot(sd.Force, drag) / (q * sd.Area)
		}
	}
	return p.data
}

// Integrate sums a station quantity times station area over one sheet
func (st SpanLoadTable) Integrate(sheet int, f func(sd *SpanLoadData) float64) (sum float64) {
	for k := 1; k < len(st[sheet]); k++ {
		sd := &st[sheet][k]
		sum += f(sd) * sd.Area
	}
	return
}
