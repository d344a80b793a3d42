// Package tags persists named groups of mesh triangles and attributes loads to
// them.
//
// A tag list for geometry "plane" is a text file
//
//	2 plane.wing
//	1 plane.tail
//
// naming one region per line with its triangle count. Region "wing" is stored
// next to it in plane.wing.tag: the triangle count on the first line, then one
// 1-based triangle number per line.
package tags

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/utils"
)

// TagRegion is a named group of 0-based triangle indices
type TagRegion struct {
	Name string
	Tris []int
}

func ReadTag(path string) (tr *TagRegion, err error) {
	var file *os.File
	if file, err = os.Open(path); err != nil {
		return nil, fmt.Errorf("reading tag: %w", err)
	}
	defer file.Close()
	var (
		scanner = bufio.NewScanner(file)
		count   int
		name    = strings.TrimSuffix(filepath.Base(path), ".tag")
	)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	tr = &TagRegion{Name: name}
	if count, err = scanInt(scanner); err != nil {
		return nil, fmt.Errorf("tag %s: triangle count: %w", path, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("tag %s: negative triangle count %d", path, count)
	}
	tr.Tris = make([]int, count)
	for i := 0; i < count; i++ {
		var k int
		if k, err = scanInt(scanner); err != nil {
			return nil, fmt.Errorf("tag %s: triangle %d of %d: %w", path, i+1, count, err)
		}
		if k < 1 {
			return nil, fmt.Errorf("tag %s: triangle number %d is not positive", path, k)
		}
		tr.Tris[i] = k - 1
	}
	return
}

func (tr *TagRegion) Write(path string) (err error) {
	var file *os.File
	if file, err = os.Create(path); err != nil {
		return fmt.Errorf("writing tag: %w", err)
	}
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%d\n", len(tr.Tris))
	for _, k := range tr.Tris {
		fmt.Fprintf(w, "%d\n", k+1)
	}
	if err = w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("writing tag %s: %w", path, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("writing tag %s: %w", path, err)
	}
	return
}

// scanInt reads the next non blank line as one integer
func scanInt(scanner *bufio.Scanner) (i int, err error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err = fmt.Sscanf(line, "%d", &i); err != nil {
			return 0, fmt.Errorf("badly formed line [%s]: %w", line, err)
		}
		return
	}
	if err = scanner.Err(); err != nil {
		return
	}
	return 0, fmt.Errorf("unexpected end of file")
}

type TagList struct {
	GeomName string
	Regions  []*TagRegion
}

func (tl *TagList) regionPath(dir string, tr *TagRegion) string {
	return filepath.Join(dir, tl.GeomName+"."+tr.Name+".tag")
}

// ReadTagList reads a .taglist file and every region file it names from the
// same directory
func ReadTagList(path string) (tl *TagList, err error) {
	var file *os.File
	if file, err = os.Open(path); err != nil {
		return nil, fmt.Errorf("reading tag list: %w", err)
	}
	defer file.Close()
	var (
		scanner = bufio.NewScanner(file)
		dir     = filepath.Dir(path)
	)
	tl = &TagList{}
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var (
			count int
			full  string
		)
		if _, err = fmt.Sscanf(text, "%d %s", &count, &full); err != nil {
			return nil, fmt.Errorf("tag list %s line %d: badly formed [%s]: %w", path, line, text, err)
		}
		i := strings.LastIndex(full, ".")
		if i <= 0 || i == len(full)-1 {
			return nil, fmt.Errorf("tag list %s line %d: expected <geometry>.<tag>, have %q", path, line, full)
		}
		geom, name := full[:i], full[i+1:]
		switch {
		case tl.GeomName == "":
			tl.GeomName = geom
		case tl.GeomName != geom:
			return nil, fmt.Errorf("tag list %s line %d: geometry %q, expected %q", path, line, geom, tl.GeomName)
		}
		tr := &TagRegion{Name: name}
		if tr, err = ReadTag(tl.regionPath(dir, tr)); err != nil {
			return nil, err
		}
		if len(tr.Tris) != count {
			return nil, fmt.Errorf("tag list %s line %d: region %s lists %d triangles, its file has %d",
				path, line, name, count, len(tr.Tris))
		}
		tl.Regions = append(tl.Regions, tr)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tag list %s: %w", path, err)
	}
	return
}

// Write stores the list at path and its regions beside it
func (tl *TagList) Write(path string) (err error) {
	dir := filepath.Dir(path)
	for _, tr := range tl.Regions {
		if err = tr.Write(tl.regionPath(dir, tr)); err != nil {
			return
		}
	}
	var file *os.File
	if file, err = os.Create(path); err != nil {
		return fmt.Errorf("writing tag list: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, tr := range tl.Regions {
		fmt.Fprintf(w, "%d %s.%s\n", len(tr.Tris), tl.GeomName, tr.Name)
	}
	if err = w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("writing tag list %s: %w", path, err)
	}
	return file.Close()
}

// NewTagListFromComponents makes one region per component, named after the
// first surface of the component
func NewTagListFromComponents(geomName string, m *mesh.Mesh) (tl *TagList) {
	tl = &TagList{GeomName: geomName}
	var (
		byComp = make(map[int]*TagRegion)
		ids    []int
	)
	for k := range m.Tris {
		tri := &m.Tris[k]
		tr, ok := byComp[tri.ComponentID]
		if !ok {
			tr = &TagRegion{Name: fmt.Sprintf("Component%d", tri.ComponentID)}
			for is := range m.Surfaces {
				if s := &m.Surfaces[is]; s.ComponentID == tri.ComponentID && s.Name != "" {
					tr.Name = s.Name
					break
				}
			}
			byComp[tri.ComponentID] = tr
			ids = append(ids, tri.ComponentID)
		}
		tr.Tris = append(tr.Tris, k)
	}
	sort.Ints(ids)
	for _, id := range ids {
		tl.Regions = append(tl.Regions, byComp[id])
	}
	return
}

// RegionLoads is the area and force carried by one region
type RegionLoads struct {
	Name  string
	Area  float64
	Force r3.Vec
}

/*
Attribute sums triangle area and force over each region. A triangle carries
the share of its loop's force given by its share of the loop area. Regions
may overlap, a triangle listed in two regions counts in both.
*/
func (tl *TagList) Attribute(m *mesh.Mesh) (loads []RegionLoads, err error) {
	var (
		NR = len(tl.Regions)
		NT = len(m.Tris)
	)
	loads = make([]RegionLoads, NR)
	for ir, tr := range tl.Regions {
		loads[ir].Name = tr.Name
	}
	if NR == 0 || NT == 0 {
		return
	}
	// Region x triangle incidence
	A := utils.NewDOK(NR, NT)
	for ir, tr := range tl.Regions {
		for _, k := range tr.Tris {
			if k < 0 || k >= NT {
				return nil, fmt.Errorf("region %s: triangle %d out of range [0,%d)", tr.Name, k, NT)
			}
			A.Set(ir, k, 1)
		}
	}
	A.SetReadOnly("TagIncidence")
	var (
		inc        = A.ToCSR()
		area       = make([]float64, NT)
		fx, fy, fz = make([]float64, NT), make([]float64, NT), make([]float64, NT)
	)
	for k := range m.Tris {
		var (
			tri = &m.Tris[k]
			l   = &m.Loops[tri.VortexLoop]
		)
		area[k] = tri.Area
		if l.Area > 0 {
			f := r3.Scale(tri.Area/l.Area, l.Force)
			fx[k], fy[k], fz[k] = f.X, f.Y, f.Z
		}
	}
	var (
		ra         = inc.MulVec(area)
		rx, ry, rz = inc.MulVec(fx), inc.MulVec(fy), inc.MulVec(fz)
	)
	for ir := range loads {
		loads[ir].Area = ra[ir]
		loads[ir].Force = r3.Vec{X: rx[ir], Y: ry[ir], Z: rz[ir]}
	}
	return
}
