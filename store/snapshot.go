// Package store keeps solver output: compressed solution snapshots on disk
// and a results database of runs and span loads.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/VLM/mesh"
	"github.com/notargets/govlm/VLM/solver"
)

// Snapshot is enough of a solution to restart from or to post process:
// node positions, loop circulations and the summary of the run
type Snapshot struct {
	RunID   string
	Created time.Time

	Parameters   solver.Parameters
	Coefficients solver.Coefficients
	SpanLoads    solver.SpanLoadTable

	Nodes []r3.Vec
	Gamma []float64
}

func NewSnapshot(r *solver.Result, m *mesh.Mesh) (sn *Snapshot) {
	sn = &Snapshot{
		RunID:        r.RunID.String(),
		Created:      time.Now().UTC(),
		Parameters:   r.Parameters,
		Coefficients: r.Coefficients,
		SpanLoads:    r.SpanLoads,
		Nodes:        make([]r3.Vec, len(m.Nodes)),
		Gamma:        make([]float64, len(r.Gamma)),
	}
	for i := range m.Nodes {
		sn.Nodes[i] = m.Nodes[i].X
	}
	copy(sn.Gamma, r.Gamma)
	return
}

// Restore puts the snapshot's node positions and circulations back on a mesh
// of the same size
func (sn *Snapshot) Restore(m *mesh.Mesh) error {
	if len(sn.Nodes) != len(m.Nodes) || len(sn.Gamma) != len(m.Loops) {
		return fmt.Errorf("snapshot %s has %d nodes and %d loops, mesh has %d and %d",
			sn.RunID, len(sn.Nodes), len(sn.Gamma), len(m.Nodes), len(m.Loops))
	}
	for i := range m.Nodes {
		m.Nodes[i].X = sn.Nodes[i]
	}
	m.UpdateGeometry()
	for il := range m.Loops {
		m.Loops[il].Gamma = sn.Gamma[il]
		for _, k := range m.Loops[il].Tris {
			m.Tris[k].Gamma = sn.Gamma[il]
		}
	}
	return nil
}

// WriteSnapshot stores sn as zstd compressed msgpack
func WriteSnapshot(path string, sn *Snapshot) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	if err = msgpack.NewEncoder(zw).Encode(sn); err != nil {
		zw.Close()
		return fmt.Errorf("encoding snapshot %s: %w", path, err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return f.Close()
}

func ReadSnapshot(path string) (sn *Snapshot, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	defer zr.Close()
	sn = &Snapshot{}
	if err = msgpack.NewDecoder(zr).Decode(sn); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return
}
