package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is a write-friendly sparse matrix used while assembling incidence and
// interaction tables; ToCSR freezes it for row traversal.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, val)
}

func (m DOK) Add(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m *DOK) SetReadOnly(name ...string) {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:    m.M.ToCSR(),
		name: m.name,
	}
}

type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return mat.Transpose{Matrix: m} }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return len(m.RawMatrix().Data) }

// Row calls f for every stored entry of row i, in column order
func (m CSR) Row(i int, f func(j int, val float64)) {
	raw := m.RawMatrix()
	for ii := raw.Indptr[i]; ii < raw.Indptr[i+1]; ii++ {
		f(raw.Ind[ii], raw.Data[ii])
	}
}

// MulVec returns y = M x for a dense x
func (m CSR) MulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
		raw    = m.RawMatrix()
	)
	if len(x) != nc {
		panic(fmt.Errorf("dimension mismatch: matrix has %d columns, vector has %d", nc, len(x)))
	}
	y = make([]float64, nr)
	for i := 0; i < nr; i++ {
		for ii := raw.Indptr[i]; ii < raw.Indptr[i+1]; ii++ {
			y[i] += raw.Data[ii] * x[raw.Ind[ii]]
		}
	}
	return
}
