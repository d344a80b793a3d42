//go:build !vlmcheck

package utils

// CheckedIndexing is false unless built with the vlmcheck tag; accessors in
// the inner loops then leave bounds to the caller.
const CheckedIndexing = false

func CheckIndex(i, n int) {}
