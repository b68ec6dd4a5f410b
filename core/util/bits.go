package util

import (
	"github.com/RoaringBitmap/roaring"
)

// Bits is a read-only bit set over document numbers.
type Bits interface {
	// At returns the bit at index, which should be in [0, Length()).
	At(index int) bool
	Length() int
}

// MutableBits is a Bits that can be updated, used for deleted documents.
type MutableBits interface {
	Bits
	Set(index int)
	Clear(index int)
}

// RoaringBits is a MutableBits over a compressed roaring bitmap.
type RoaringBits struct {
	bitmap *roaring.Bitmap
	length int
}

func NewRoaringBits(length int) *RoaringBits {
	return &RoaringBits{bitmap: roaring.New(), length: length}
}

// NewRoaringBitsOf wraps an existing bitmap, e.g. one decoded from disk.
func NewRoaringBitsOf(bitmap *roaring.Bitmap, length int) *RoaringBits {
	return &RoaringBits{bitmap: bitmap, length: length}
}

func (b *RoaringBits) At(index int) bool {
	return b.bitmap.Contains(uint32(index))
}

func (b *RoaringBits) Length() int {
	return b.length
}

func (b *RoaringBits) Set(index int) {
	assert2(index >= 0 && index < b.length, "bit %v out of range [0,%v)", index, b.length)
	b.bitmap.Add(uint32(index))
}

func (b *RoaringBits) Clear(index int) {
	b.bitmap.Remove(uint32(index))
}

// Count returns the number of set bits.
func (b *RoaringBits) Count() int {
	return int(b.bitmap.GetCardinality())
}

func (b *RoaringBits) Bitmap() *roaring.Bitmap {
	return b.bitmap
}
