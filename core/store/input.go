package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/balzaczyy/gotis/core/util"
)

// ErrEndOfStream is returned when a read would go beyond the end of its
// stream. Such a read never fills the destination partially.
var ErrEndOfStream = errors.New("read past EOF")

/*
IndexInput is a random-access DataInput. It is not safe for concurrent
use; each goroutine must work on its own Clone().
*/
type IndexInput interface {
	io.Closer
	util.DataInput
	ReadBytesBuffered(buf []byte, useBuffer bool) error
	FilePointer() int64
	// Seek sets the position where the next read will occur.
	Seek(pos int64) error
	Length() int64
	// Clone returns an independent cursor over the same content, positioned
	// at this input's file pointer. The clone must be closed by its owner.
	Clone() IndexInput
}

// Default read buffer size in bytes.
const BUFFER_SIZE = 1024

// ByteArrayDataInput is a DataInput over a byte slice. It checks only the
// end of the slice.
type ByteArrayDataInput struct {
	*util.DataInputImpl
	bytes []byte
	Pos   int
}

func NewByteArrayDataInput(bytes []byte) *ByteArrayDataInput {
	ans := &ByteArrayDataInput{}
	ans.DataInputImpl = util.NewDataInput(ans)
	ans.Reset(bytes)
	return ans
}

func (in *ByteArrayDataInput) Reset(bytes []byte) {
	in.bytes = bytes
	in.Pos = 0
}

func (in *ByteArrayDataInput) Length() int {
	return len(in.bytes)
}

func (in *ByteArrayDataInput) EOF() bool {
	return in.Pos >= len(in.bytes)
}

func (in *ByteArrayDataInput) ReadByte() (b byte, err error) {
	if in.Pos >= len(in.bytes) {
		return 0, fmt.Errorf("%w: byte array of %v bytes", ErrEndOfStream, len(in.bytes))
	}
	in.Pos++
	return in.bytes[in.Pos-1], nil
}

func (in *ByteArrayDataInput) ReadBytes(buf []byte) error {
	if in.Pos+len(buf) > len(in.bytes) {
		return fmt.Errorf("%w: byte array of %v bytes", ErrEndOfStream, len(in.bytes))
	}
	in.Pos += copy(buf, in.bytes[in.Pos:])
	return nil
}
