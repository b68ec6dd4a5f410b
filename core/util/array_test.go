package util

import (
	"testing"
)

// Oversize must give linear amortized cost of realloc/copy.
func TestGrowth(t *testing.T) {
	currentSize := 0
	var copyCost int64

	// make sure it hits the maximum, if we insist
	for currentSize != MAX_ARRAY_LENGTH {
		nextSize := Oversize(1+currentSize, 8)
		if nextSize <= currentSize {
			t.Fatalf("%v -> %v", currentSize, nextSize)
		}
		if currentSize > 0 {
			copyCost += int64(currentSize)
			if cost := float64(copyCost) / float64(currentSize); cost >= 10 {
				t.Fatalf("cost %v at %v", cost, currentSize)
			}
		}
		currentSize = nextSize
	}
}

func TestOversizeRounding(t *testing.T) {
	assertEquals(t, Oversize(0, 1), 0)
	assertEquals(t, Oversize(1, 1), 8)
	assertEquals(t, Oversize(17, 1), 24)
	assertEquals(t, Oversize(17, 4), 20)
	assertEquals(t, Oversize(17, 8), 20)
}

func TestGrowByteSlice(t *testing.T) {
	arr := []byte("abc")
	grown := GrowByteSlice(arr, 10)
	assertEquals(t, len(grown), 10)
	assertEquals(t, string(grown[:3]), "abc")
	if cap(grown) < 10 {
		t.Errorf("capacity %v too small", cap(grown))
	}
	// shrinking keeps the backing array
	shrunk := GrowByteSlice(grown, 2)
	assertEquals(t, &shrunk[0], &grown[0])
	assertEquals(t, string(shrunk), "ab")
}
