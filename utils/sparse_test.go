package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparse(t *testing.T) {
	{ // Assemble, freeze and traverse
		A := NewDOK(3, 4)
		A.Set(0, 1, 2)
		A.Set(2, 3, 1)
		A.Add(2, 3, 1)
		A.Set(1, 0, -1)
		C := A.ToCSR()
		nr, nc := C.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 4, nc)
		assert.Equal(t, 3, C.NNZ())
		assert.Equal(t, 2., C.At(2, 3))
		assert.Equal(t, []float64{2, -1, 2}, C.MulVec([]float64{1, 1, 1, 1}))
		var cols []int
		C.Row(2, func(j int, val float64) { cols = append(cols, j) })
		assert.Equal(t, []int{3}, cols)
	}
	{ // Read only matrices refuse writes
		A := NewDOK(2, 2)
		A.SetReadOnly("A")
		assert.Panics(t, func() { A.Set(0, 0, 1) })
	}
}
