package store

import (
	"io"

	"github.com/balzaczyy/gotis/core/util"
)

// IndexOutput is a sequential DataOutput that can go back to patch
// bytes it already wrote, e.g. a header field known only at the end.
type IndexOutput interface {
	io.Closer
	util.DataOutput
	FilePointer() int64
	Seek(pos int64) error
	Length() int64
}

type IndexOutputImpl struct {
	*util.DataOutputImpl
}

func newIndexOutput(part util.DataWriter) *IndexOutputImpl {
	return &IndexOutputImpl{util.NewDataOutput(part)}
}

// store/ByteArrayDataOutput.java

// ByteArrayDataOutput writes into a fixed byte slice.
type ByteArrayDataOutput struct {
	*util.DataOutputImpl
	data []byte
	Pos  int
}

func NewByteArrayDataOutput(data []byte) *ByteArrayDataOutput {
	ans := &ByteArrayDataOutput{data: data}
	ans.DataOutputImpl = util.NewDataOutput(ans)
	return ans
}

func (o *ByteArrayDataOutput) WriteByte(b byte) error {
	assert2(o.Pos < len(o.data), "write past end of %v bytes", len(o.data))
	o.data[o.Pos] = b
	o.Pos++
	return nil
}

func (o *ByteArrayDataOutput) WriteBytes(b []byte) error {
	assert2(o.Pos+len(b) <= len(o.data), "write past end of %v bytes", len(o.data))
	o.Pos += copy(o.data[o.Pos:], b)
	return nil
}
