package wake

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/vortex"
	"github.com/notargets/govlm/types"
	"github.com/notargets/govlm/utils"
)

func wing(t *testing.T, origin r3.Vec, NC, NS int) *mesh.Mesh {
	m, err := mesh.NewPlanform(mesh.PlanformParameters{
		Name: "wing", Type: types.Surface_Wing, Origin: origin,
		RootChord: 1, TipChord: 1, Span: 3, NChord: NC, NSpan: NS, Mirror: true,
	})
	require.NoError(t, err)
	return m
}

var params = Parameters{WakeLength: 200, Segments: 2, Theta: 0.5, ParallelDegree: 3}

func TestSheets(t *testing.T) {
	m := wing(t, r3.Vec{}, 2, 2)
	sheets, err := NewSheets(m, params)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	sh := sheets[0]
	assert.Equal(t, 1, sh.ID)
	require.Len(t, sh.TrailingVortices, 5)
	require.Len(t, sh.Segments, 4)
	for i, tv := range sh.TrailingVortices {
		// Ordered from the left tip along the span
		assert.InDelta(t, -3+1.5*float64(i), tv.Start().Y, 1.e-14)
		assert.InDelta(t, 1., tv.Start().X, 1.e-14)
		require.Len(t, tv.Points, 3)
		assert.InDelta(t, 201., tv.Points[2].X, 1.e-12)
	}
	for _, seg := range sh.Segments {
		assert.True(t, seg.Forward)
		assert.True(t, m.Loops[seg.Loop].IsTrailingEdge)
	}
	// Uniform circulation sheds a single horseshoe from the tips
	for il := range m.Loops {
		m.Loops[il].Gamma = 1
	}
	sh.UpdateStrengths(m)
	var strengths []float64
	for _, tv := range sh.TrailingVortices {
		strengths = append(strengths, tv.Strength)
	}
	assert.Equal(t, []float64{1, 0, 0, 0, -1}, strengths)
	// 5 vortices: groups of 1, 2, 4, 8
	require.Equal(t, 4, sh.NumLevels())
	assert.Len(t, sh.Levels[1], 3)
	assert.Len(t, sh.Levels[3], 1)
	assert.Equal(t, 0., sh.Width(1))
	assert.InDelta(t, 1.5, sh.Width(2), 1.e-14)
	assert.InDelta(t, 6., sh.Width(4), 1.e-14)
	top := sh.Levels[3][0]
	assert.Equal(t, 1., top.SPos)
	assert.Equal(t, -1., top.SNeg)
	assert.InDelta(t, -3., top.XPos.Y, 1.e-14)
	assert.InDelta(t, 3., top.XNeg.Y, 1.e-14)
	// With only the tip vortices carrying strength every level is exact
	p := r3.Vec{X: 5, Y: 1, Z: 2}
	exact := sh.Velocity(p, 1, 0.3)
	for L := 2; L <= sh.NumLevels(); L++ {
		assert.True(t, utils.NearVec(exact, sh.Velocity(p, L, 0.3), 1.e-12))
	}
	// Moving the mesh moves the sheet
	m.Translate(r3.Vec{Z: 1})
	sh.Update(m)
	assert.Equal(t, 1., sh.TrailingVortices[0].Points[1].Z)
}

func TestLevels(t *testing.T) {
	m := wing(t, r3.Vec{}, 1, 8)
	sheets, err := NewSheets(m, params)
	require.NoError(t, err)
	sh := sheets[0]
	// Elliptic loading
	for il := range m.Loops {
		eta := m.Loops[il].Centroid.Y / 3
		m.Loops[il].Gamma = math.Sqrt(1 - eta*eta)
	}
	sh.UpdateStrengths(m)
	{ // Selection
		assert.Equal(t, 1, sh.SelectLevel(0, 0.5))
		assert.Equal(t, 1, sh.SelectLevel(100, 0))
		assert.Equal(t, sh.NumLevels(), sh.SelectLevel(1.e6, 0.5))
		assert.Equal(t, 1, sh.SelectLevel(0.5, 0.5))
		assert.Equal(t, 2, sh.SelectLevel(1, 0.5))
	}
	{ // Aggregates converge on the exact sum with distance
		var errNear, errFar float64
		for _, d := range []float64{10, 1000} {
			p := r3.Vec{X: 2, Z: d}
			var (
				exact = sh.Velocity(p, 1, 0)
				level = sh.SelectLevel(sh.Distance(p), 0.5)
				rel   = r3.Norm(r3.Sub(exact, sh.Velocity(p, level, 0))) / r3.Norm(exact)
			)
			assert.Greater(t, level, 1)
			if d == 10 {
				errNear = rel
			} else {
				errFar = rel
			}
		}
		assert.Less(t, errNear, 0.1)
		assert.Less(t, errFar, errNear)
	}
	{ // Distance to the semi-infinite lines
		assert.InDelta(t, 2., sh.Distance(r3.Vec{X: 50, Y: 0, Z: 2}), 1.e-12)
		assert.InDelta(t, math.Sqrt(8), sh.Distance(r3.Vec{X: -1, Y: 0, Z: 2}), 1.e-12)
	}
}

func TestChainErrors(t *testing.T) {
	// Two separate trailing edges on one surface
	var nodes []mesh.Node
	for _, x := range []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 5}, {X: 1, Y: 5}, {X: 1, Y: 6}} {
		nd := mesh.NewNode(x)
		nd.IsTrailingEdgeNode = x.X == 1
		nodes = append(nodes, nd)
	}
	tris := []mesh.Tri{{Node: [3]int{0, 1, 2}}, {Node: [3]int{3, 4, 5}, VortexLoop: 1}}
	m, err := mesh.NewMesh(nodes, tris, []mesh.Surface{{Name: "split", Type: types.Surface_Wing}})
	require.NoError(t, err)
	_, err = NewSheets(m, params)
	assert.Error(t, err)
	_, err = NewSheets(m, Parameters{})
	assert.Error(t, err)
}

func TestEntryList(t *testing.T) {
	{ // UseList adopts the slice, SizeList allocates
		var (
			list = []SheetEntry{{Sheet: 1, Level: 1}, {Sheet: 2, Level: 3, Distance: 4}}
			vs   = VortexToVortexInteractionSet{Sheet: 1, TrailingVortex: 2}
		)
		vs.UseList(list)
		list[0].Level = 2
		assert.Equal(t, 2, vs.Entry(0).Level)
		assert.Equal(t, 2, vs.NumberOfEntries())
		c := vs.Copy()
		c.Entry(1).Level = 7
		assert.Equal(t, 3, vs.Entry(1).Level)
		assert.Equal(t, 2, c.TrailingVortex)
		vs.SizeList(3)
		assert.Equal(t, 3, vs.NumberOfEntries())
		assert.Equal(t, SheetEntry{}, *vs.Entry(2))
		assert.Equal(t, 2, list[0].Level)
	}
	{
		le := LoopInteractionEntry{Loop: 4}
		le.SizeList(1)
		le.Entry(0).Sheet = 2
		c := le.Copy()
		c.Entry(0).Sheet = 3
		assert.Equal(t, 2, le.Entry(0).Sheet)
		assert.Equal(t, 4, c.Loop)
	}
	if utils.CheckedIndexing {
		le := LoopInteractionEntry{}
		assert.Panics(t, func() { le.Entry(0) })
	}
}

func TestInteractionSets(t *testing.T) {
	var (
		w1 = wing(t, r3.Vec{}, 2, 4)
		w2 = wing(t, r3.Vec{X: 100, Z: 40}, 1, 4)
	)
	m, err := mesh.Merge(w1, w2)
	require.NoError(t, err)
	sheets, err := NewSheets(m, params)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	for il := range m.Loops {
		m.Loops[il].Gamma = 1 + 0.1*float64(il%3)
	}
	for _, sh := range sheets {
		sh.UpdateStrengths(m)
	}
	ctx := context.Background()
	sets, err := BuildVortexInteractionSets(ctx, sheets, params)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	require.Len(t, sets[0], 9)
	for is, row := range sets {
		for it := range row {
			vs := &row[it]
			assert.Equal(t, is+1, vs.Sheet)
			assert.Equal(t, it, vs.TrailingVortex)
			require.Equal(t, 2, vs.NumberOfEntries())
			for i := 0; i < vs.NumberOfEntries(); i++ {
				e := vs.Entry(i)
				if e.Sheet == vs.Sheet {
					assert.Equal(t, 1, e.Level)
				} else {
					// The other wing is far enough to aggregate
					assert.Greater(t, e.Level, 1)
				}
			}
		}
	}
	loops, err := BuildLoopInteractionEntries(ctx, m, sheets, params)
	require.NoError(t, err)
	require.Len(t, loops, len(m.Loops))
	{ // Same lists whatever the parallel degree
		serial := params
		serial.ParallelDegree = 1
		loops1, err := BuildLoopInteractionEntries(ctx, m, sheets, serial)
		require.NoError(t, err)
		assert.Equal(t, loops1, loops)
	}
	{ // Hierarchical evaluation is close to the exact sum
		var (
			l       = &m.Loops[0]
			approx  = InducedVelocity(l.Centroid, loops[0].Entries, sheets, 0)
			allNear = []SheetEntry{{Sheet: 1, Level: 1}, {Sheet: 2, Level: 1}}
			exact   = InducedVelocity(l.Centroid, allNear, sheets, 0)
		)
		assert.Less(t, r3.Norm(r3.Sub(approx, exact)), 0.02*r3.Norm(exact))
	}
	{ // Level bookkeeping
		var lists []*EntryList
		for il := range loops {
			lists = append(lists, &loops[il].EntryList)
		}
		A := LevelMatrix(len(sheets), lists...)
		nr, nc := A.Dims()
		assert.Equal(t, len(loops), nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, 2*len(loops), A.NNZ())
		f := FarFieldFraction(A)
		assert.Greater(t, f, 0.)
		assert.Less(t, f, 1.)
	}
	{ // Supersonic: nothing upstream of a sheet sees it
		sup := params
		sup.Mach = 2
		entries := NewEntries(r3.Vec{X: -10}, 0, sheets, sup)
		assert.Empty(t, entries)
		entries = NewEntries(r3.Vec{X: 50}, 0, sheets, sup)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, entries[0].Sheet)
	}
	{ // Cancelled builds report the context error
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := BuildLoopInteractionEntries(cctx, m, sheets, params)
		assert.ErrorIs(t, err, context.Canceled)
	}
	// Kernel sanity: a tip vortex alone
	q := vortex.Velocity(r3.Vec{}, r3.Vec{X: 200}, r3.Vec{X: 100, Y: 1}, 0, 1)
	assert.InDelta(t, 1/(2*math.Pi), math.Abs(q.Z), 1.e-4)
}
