package store

import (
	"errors"
	"fmt"
)

// ErrCorruptIndex is wrapped by every error reporting inconsistent
// on-disk data.
var ErrCorruptIndex = errors.New("corrupt index")

// ChecksumIndexInput is an IndexInput computing a checksum as it goes.
type ChecksumIndexInput interface {
	IndexInput
	Checksum() int64
}

// ChecksumIndexOutput digests every byte written through it.
type ChecksumIndexOutput struct {
	main   IndexOutput
	*IndexOutputImpl
	digest *BufferedChecksum
}

func NewChecksumIndexOutput(main IndexOutput) *ChecksumIndexOutput {
	ans := &ChecksumIndexOutput{main: main, digest: newBufferedChecksum()}
	ans.IndexOutputImpl = newIndexOutput(ans)
	return ans
}

func (out *ChecksumIndexOutput) WriteByte(b byte) error {
	out.digest.WriteByte(b)
	return out.main.WriteByte(b)
}

func (out *ChecksumIndexOutput) WriteBytes(p []byte) error {
	out.digest.Write(p)
	return out.main.WriteBytes(p)
}

func (out *ChecksumIndexOutput) Checksum() int64 {
	return int64(out.digest.Sum64())
}

func (out *ChecksumIndexOutput) FilePointer() int64 {
	return out.main.FilePointer()
}

func (out *ChecksumIndexOutput) Length() int64 {
	return out.main.Length()
}

func (out *ChecksumIndexOutput) Seek(pos int64) error {
	panic("not supported")
}

func (out *ChecksumIndexOutput) Close() error {
	return out.main.Close()
}

func (out *ChecksumIndexOutput) String() string {
	return fmt.Sprintf("ChecksumIndexOutput(%v)", out.main)
}
