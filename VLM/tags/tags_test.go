package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/types"
)

func TestTagFiles(t *testing.T) {
	dir := t.TempDir()
	{ // Round trip
		tl := &TagList{
			GeomName: "plane",
			Regions: []*TagRegion{
				{Name: "wing", Tris: []int{0, 1, 5}},
				{Name: "tail", Tris: []int{7}},
				{Name: "empty"},
			},
		}
		path := filepath.Join(dir, "plane.taglist")
		require.NoError(t, tl.Write(path))
		text, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "3 plane.wing\n1 plane.tail\n0 plane.empty\n", string(text))
		text, err = os.ReadFile(filepath.Join(dir, "plane.wing.tag"))
		require.NoError(t, err)
		assert.Equal(t, "3\n1\n2\n6\n", string(text))
		read, err := ReadTagList(path)
		require.NoError(t, err)
		assert.Equal(t, "plane", read.GeomName)
		require.Len(t, read.Regions, 3)
		assert.Equal(t, tl.Regions[0], read.Regions[0])
		assert.Equal(t, tl.Regions[1], read.Regions[1])
		assert.Equal(t, "empty", read.Regions[2].Name)
		assert.Empty(t, read.Regions[2].Tris)
	}
	{ // Failures come back as errors
		_, err := ReadTagList(filepath.Join(dir, "missing.taglist"))
		assert.ErrorIs(t, err, os.ErrNotExist)
		_, err = ReadTag(filepath.Join(dir, "missing.tag"))
		assert.ErrorIs(t, err, os.ErrNotExist)

		write := func(name, text string) string {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(text), 0644))
			return path
		}
		_, err = ReadTagList(write("count.taglist", "2 plane.tail\n"))
		assert.Error(t, err)
		_, err = ReadTagList(write("noregion.taglist", "1 plane.fin\n"))
		assert.ErrorIs(t, err, os.ErrNotExist)
		_, err = ReadTagList(write("name.taglist", "1 plane\n"))
		assert.Error(t, err)
		_, err = ReadTagList(write("geoms.taglist", "3 plane.wing\n1 other.tail\n"))
		assert.Error(t, err)
		_, err = ReadTag(write("short.short.tag", "3\n1\n2\n"))
		assert.Error(t, err)
		_, err = ReadTag(write("zero.zero.tag", "1\n0\n"))
		assert.Error(t, err)
		_, err = ReadTag(write("junk.junk.tag", "x\n"))
		assert.Error(t, err)
		tr := &TagRegion{Name: "x"}
		assert.Error(t, tr.Write(filepath.Join(dir, "no", "such", "dir.tag")))
	}
}

func TestAttribute(t *testing.T) {
	var meshes []*mesh.Mesh
	for id, name := range []string{"wing", "tail"} {
		m, err := mesh.NewPlanform(mesh.PlanformParameters{
			Name: name, Type: types.Surface_Wing, ComponentID: id,
			Origin:    r3.Vec{X: 5 * float64(id)},
			RootChord: 1, TipChord: 1, Span: 2, NChord: 1, NSpan: 2,
		})
		require.NoError(t, err)
		meshes = append(meshes, m)
	}
	m, err := mesh.Merge(meshes...)
	require.NoError(t, err)
	tl := NewTagListFromComponents("plane", m)
	require.Len(t, tl.Regions, 2)
	assert.Equal(t, "wing", tl.Regions[0].Name)
	assert.Equal(t, "tail", tl.Regions[1].Name)
	assert.Equal(t, []int{0, 1, 2, 3}, tl.Regions[0].Tris)
	assert.Equal(t, []int{4, 5, 6, 7}, tl.Regions[1].Tris)

	for il := range m.Loops {
		m.Loops[il].Force = r3.Vec{Z: float64(il + 1)}
	}
	// An extra region overlapping both components
	tl.Regions = append(tl.Regions, &TagRegion{Name: "first", Tris: []int{0, 1, 4}})
	loads, err := tl.Attribute(m)
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.InDelta(t, 2., loads[0].Area, 1.e-14)
	assert.InDelta(t, 1.+2., loads[0].Force.Z, 1.e-14)
	assert.InDelta(t, 3.+4., loads[1].Force.Z, 1.e-14)
	// Two halves of loop 0 and half of loop 2
	assert.InDelta(t, 1.5, loads[2].Area, 1.e-14)
	assert.InDelta(t, 1.+1.5, loads[2].Force.Z, 1.e-14)

	tl.Regions = append(tl.Regions, &TagRegion{Name: "bad", Tris: []int{99}})
	_, err = tl.Attribute(m)
	assert.Error(t, err)
}
