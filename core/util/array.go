package util

import (
	"math"
)

// util/ArrayUtil.java

// Maximum length of a slice grown by Oversize.
const MAX_ARRAY_LENGTH = math.MaxInt32

/*
Oversize returns a size >= minTargetSize, over-allocating by 1/8th so
that growing a slice one element at a time costs amortized linear time.
Byte slices are rounded up to a multiple of 8, int32 slices to a
multiple of 2.
*/
func Oversize(minTargetSize int, bytesPerElement int) int {
	assert2(minTargetSize >= 0, "invalid array size %v", minTargetSize)
	if minTargetSize == 0 {
		// wait until at least one element is requested
		return 0
	}

	// for very small arrays, where the constant overhead of realloc is
	// relatively high, we grow faster
	extra := max(minTargetSize>>3, 3)
	newSize := minTargetSize + extra
	if newSize+7 < 0 || newSize+7 > MAX_ARRAY_LENGTH {
		return MAX_ARRAY_LENGTH
	}

	switch bytesPerElement {
	case 4:
		return (newSize + 1) &^ 1
	case 2:
		return (newSize + 3) &^ 3
	case 1:
		return (newSize + 7) &^ 7
	default:
		return newSize
	}
}

/*
GrowByteSlice returns arr resliced to minSize bytes. The content is
kept; a new backing array is allocated when the capacity is short.
*/
func GrowByteSlice(arr []byte, minSize int) []byte {
	assert2(minSize >= 0, "size must be positive (got %v): likely integer overflow?", minSize)
	if cap(arr) < minSize {
		newArr := make([]byte, minSize, Oversize(minSize, 1))
		copy(newArr, arr)
		return newArr
	}
	return arr[:minSize]
}
