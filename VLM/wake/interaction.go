package wake

import (
	"context"
	"fmt"

	"github.com/brunoga/deep"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/vortex"
	"github.com/notargets/govlm/utils"
)

// SheetEntry says that sheet Sheet is evaluated at level Level, it was found
// at Distance from the evaluation point
type SheetEntry struct {
	Sheet    int
	Level    int
	Distance float64
}

/*
EntryList owns a variable length list of sheet entries.

SizeList allocates a fresh list. UseList adopts the caller's slice without
copying, the caller gives it up and must not keep writing to it. Entry does
not check its index unless built with the vlmcheck tag.
*/
type EntryList struct {
	Entries []SheetEntry
}

func (el *EntryList) SizeList(n int) {
	el.Entries = make([]SheetEntry, n)
}

func (el *EntryList) UseList(list []SheetEntry) {
	el.Entries = list
}

func (el *EntryList) NumberOfEntries() int {
	return len(el.Entries)
}

func (el *EntryList) Entry(i int) *SheetEntry {
	utils.CheckIndex(i, len(el.Entries))
	return &el.Entries[i]
}

// VortexToVortexInteractionSet lists the sheets seen by one trailing vortex
type VortexToVortexInteractionSet struct {
	Sheet          int // 1-based
	TrailingVortex int
	EntryList
}

func (vs *VortexToVortexInteractionSet) Copy() *VortexToVortexInteractionSet {
	c := deep.MustCopy(*vs)
	return &c
}

// LoopInteractionEntry lists the sheets seen by one vortex loop
type LoopInteractionEntry struct {
	Loop int
	EntryList
}

func (le *LoopInteractionEntry) Copy() *LoopInteractionEntry {
	c := deep.MustCopy(*le)
	return &c
}

/*
NewEntries picks an evaluation level for every sheet seen from p. The sheet
own is always evaluated exactly. In supersonic flow other sheets lying entirely
downstream of p are left out.
*/
func NewEntries(p r3.Vec, own int, sheets []*VortexSheet, pr Parameters) (entries []SheetEntry) {
	supersonic := vortex.ClampMach(pr.Mach) > 1
	for _, sh := range sheets {
		if len(sh.TrailingVortices) == 0 {
			continue
		}
		if supersonic && sh.ID != own && p.X <= sh.MinX() {
			continue
		}
		var (
			d     = sh.Distance(p)
			level = 1
		)
		if sh.ID != own {
			level = sh.SelectLevel(d, pr.Theta)
		}
		entries = append(entries, SheetEntry{Sheet: sh.ID, Level: level, Distance: d})
	}
	return
}

// InducedVelocity sums the sheets named in entries at p, sheets[i] must have ID i+1
func InducedVelocity(p r3.Vec, entries []SheetEntry, sheets []*VortexSheet, mach float64) (q r3.Vec) {
	for _, e := range entries {
		utils.CheckIndex(e.Sheet-1, len(sheets))
		q = r3.Add(q, sheets[e.Sheet-1].Velocity(p, e.Level, mach))
	}
	return
}

// BuildVortexInteractionSets builds one set per trailing vortex, indexed
// [sheet-1][trailing vortex], evaluated at the trailing vortex start
func BuildVortexInteractionSets(ctx context.Context, sheets []*VortexSheet,
	pr Parameters) (sets [][]VortexToVortexInteractionSet, err error) {
	type ref struct{ sheet, tv int }
	var flat []ref
	sets = make([][]VortexToVortexInteractionSet, len(sheets))
	for is, sh := range sheets {
		if sh.ID != is+1 {
			return nil, fmt.Errorf("sheet %d stored at position %d", sh.ID, is)
		}
		sets[is] = make([]VortexToVortexInteractionSet, len(sh.TrailingVortices))
		for it := range sh.TrailingVortices {
			flat = append(flat, ref{is, it})
		}
	}
	if len(flat) == 0 {
		return
	}
	pm := utils.NewPartitionMap(utils.GetParallelDegree(pr.ParallelDegree, len(flat)), len(flat))
	err = pm.Run(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			var (
				r  = flat[k]
				sh = sheets[r.sheet]
				vs = &sets[r.sheet][r.tv]
			)
			vs.Sheet, vs.TrailingVortex = sh.ID, r.tv
			vs.UseList(NewEntries(sh.TrailingVortices[r.tv].Start(), sh.ID, sheets, pr))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building vortex interaction sets: %w", err)
	}
	return
}

// BuildLoopInteractionEntries builds one entry per loop, evaluated at the loop
// centroid
func BuildLoopInteractionEntries(ctx context.Context, m *mesh.Mesh, sheets []*VortexSheet,
	pr Parameters) (entries []LoopInteractionEntry, err error) {
	NLoops := len(m.Loops)
	entries = make([]LoopInteractionEntry, NLoops)
	if NLoops == 0 {
		return
	}
	pm := utils.NewPartitionMap(utils.GetParallelDegree(pr.ParallelDegree, NLoops), NLoops)
	err = pm.Run(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		for il := kMin; il < kMax; il++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			l := &m.Loops[il]
			entries[il].Loop = il
			entries[il].UseList(NewEntries(l.Centroid, l.Sheet, sheets, pr))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building loop interaction entries: %w", err)
	}
	return
}

// LevelMatrix tabulates the levels of several lists, row i is lists[i] and
// column s is sheet s
func LevelMatrix(NSheets int, lists ...*EntryList) utils.CSR {
	A := utils.NewDOK(max(1, len(lists)), NSheets+1)
	for i, el := range lists {
		for _, e := range el.Entries {
			A.Set(i, e.Sheet, float64(e.Level))
		}
	}
	A.SetReadOnly("LevelMatrix")
	return A.ToCSR()
}

// FarFieldFraction is the share of entries evaluated through aggregates
func FarFieldFraction(A utils.CSR) float64 {
	var (
		nr, _ = A.Dims()
		far   int
		total int
	)
	for i := 0; i < nr; i++ {
		A.Row(i, func(j int, level float64) {
			total++
			if level > 1 {
				far++
			}
		})
	}
	if total == 0 {
		return 0
	}
	return float64(far) / float64(total)
}
