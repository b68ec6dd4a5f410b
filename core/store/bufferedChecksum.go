package store

import (
	"github.com/zeebo/xxh3"
)

/*
BufferedChecksum wraps an xxh3 digest with an internal buffer so that
single-byte updates do not hit the hasher one at a time.
*/
type BufferedChecksum struct {
	in     *xxh3.Hasher
	buffer []byte
	upto   int
}

func newBufferedChecksum() *BufferedChecksum {
	return &BufferedChecksum{in: xxh3.New(), buffer: make([]byte, 256)}
}

func (bc *BufferedChecksum) WriteByte(b byte) {
	if bc.upto == len(bc.buffer) {
		bc.flush()
	}
	bc.buffer[bc.upto] = b
	bc.upto++
}

func (bc *BufferedChecksum) Write(p []byte) {
	if len(p) >= len(bc.buffer) {
		bc.flush()
		bc.in.Write(p)
		return
	}
	if bc.upto+len(p) > len(bc.buffer) {
		bc.flush()
	}
	bc.upto += copy(bc.buffer[bc.upto:], p)
}

func (bc *BufferedChecksum) Sum64() uint64 {
	bc.flush()
	return bc.in.Sum64()
}

func (bc *BufferedChecksum) Reset() {
	bc.upto = 0
	bc.in.Reset()
}

func (bc *BufferedChecksum) flush() {
	if bc.upto > 0 {
		bc.in.Write(bc.buffer[:bc.upto])
	}
	bc.upto = 0
}
