package store

import (
	"fmt"

	"github.com/balzaczyy/gotis/core/util"
)

/*
BufferedChecksumIndexInput wraps another input and digests every byte
read through it. It can only seek forward.
*/
type BufferedChecksumIndexInput struct {
	*util.DataInputImpl
	main   IndexInput
	digest *BufferedChecksum
}

func NewBufferedChecksumIndexInput(main IndexInput) *BufferedChecksumIndexInput {
	ans := &BufferedChecksumIndexInput{main: main, digest: newBufferedChecksum()}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (in *BufferedChecksumIndexInput) ReadByte() (b byte, err error) {
	if b, err = in.main.ReadByte(); err == nil {
		in.digest.WriteByte(b)
	}
	return
}

func (in *BufferedChecksumIndexInput) ReadBytes(p []byte) (err error) {
	if err = in.main.ReadBytes(p); err == nil {
		in.digest.Write(p)
	}
	return
}

func (in *BufferedChecksumIndexInput) Checksum() int64 {
	return int64(in.digest.Sum64())
}

func (in *BufferedChecksumIndexInput) Close() error {
	return in.main.Close()
}

func (in *BufferedChecksumIndexInput) FilePointer() int64 {
	return in.main.FilePointer()
}

// Seek skips forward to pos, digesting the skipped bytes.
func (in *BufferedChecksumIndexInput) Seek(pos int64) error {
	skip := pos - in.FilePointer()
	assert2(skip >= 0, "%v: can only seek forward (%v < %v)", in, pos, in.FilePointer())
	return in.SkipBytes(skip)
}

func (in *BufferedChecksumIndexInput) Length() int64 {
	return in.main.Length()
}

func (in *BufferedChecksumIndexInput) Clone() IndexInput {
	panic("not supported")
}

func (in *BufferedChecksumIndexInput) String() string {
	return fmt.Sprintf("BufferedChecksumIndexInput(%v)", in.main)
}
