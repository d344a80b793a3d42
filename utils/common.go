package utils

const (
	NODETOL = 1.e-12
)

// BLASBackend names the BLAS implementation behind the dense solves
var BLASBackend = "gonum (native Go)"
