//go:build vlmcheck

package utils

import "fmt"

// CheckedIndexing is true when built with the vlmcheck tag.
const CheckedIndexing = true

func CheckIndex(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Errorf("index %d out of range [0,%d)", i, n))
	}
}
