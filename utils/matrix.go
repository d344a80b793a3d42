package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a named dense matrix, filled row by row and then frozen before it
// is factored
type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return mat.Transpose{Matrix: m} }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

// RawRowView exposes row i for filling in place
func (m Matrix) RawRowView(i int) []float64 {
	m.checkWritable()
	return m.M.RawRowView(i)
}

func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *Matrix) SetWritable() Matrix {
	m.readOnly = false
	return *m
}

func (m Matrix) IsReadOnly() bool { return m.readOnly }

// LU factors the matrix, a zero determinant is an error. An ill conditioned
// factorization is returned and reported when solving.
func (m Matrix) LU() (lu *mat.LU, err error) {
	lu = &mat.LU{}
	lu.Factorize(m.M)
	if lu.Det() == 0 {
		return nil, fmt.Errorf("matrix \"%v\" is singular", m.name)
	}
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
