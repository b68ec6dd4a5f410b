package util

/*
DataOutput writes the low-level data types of the index format.

DataOutput may only be used from one goroutine because it keeps internal
state such as its file position.
*/
type DataOutput interface {
	DataWriter
	WriteInt(i int32) error
	WriteVInt(i int32) error
	WriteLong(i int64) error
	WriteVLong(i int64) error
	WriteString(s string) error
	CopyBytes(input DataInput, numBytes int64) error
}

type DataWriter interface {
	WriteByte(b byte) error
	WriteBytes(buf []byte) error
}

type DataOutputImpl struct {
	Writer     DataWriter
	copyBuffer []byte
}

func NewDataOutput(part DataWriter) *DataOutputImpl {
	assert(part != nil)
	return &DataOutputImpl{Writer: part}
}

// WriteInt writes an int as four bytes, high-order bytes first.
func (out *DataOutputImpl) WriteInt(i int32) error {
	for shift := 24; shift >= 0; shift -= 8 {
		if err := out.Writer.WriteByte(byte(i >> uint(shift))); err != nil {
			return err
		}
	}
	return nil
}

/*
WriteVInt writes an int in a variable-length format. Writes between one
and five bytes. Smaller values take fewer bytes. Negative numbers are
written as their unsigned 32-bit value and always take five bytes.

	| Value  | Byte 1   | Byte 2   | Byte 3   |
	| 0      | 00000000 |
	| 127    | 01111111 |
	| 128    | 10000000 | 00000001 |
	| 16,383 | 11111111 | 01111111 |
	| 16,384 | 10000000 | 10000000 | 00000001 |
*/
func (out *DataOutputImpl) WriteVInt(i int32) error {
	for (i & ^0x7F) != 0 {
		if err := out.Writer.WriteByte(byte(i&0x7F) | 0x80); err != nil {
			return err
		}
		i = int32(uint32(i) >> 7)
	}
	return out.Writer.WriteByte(byte(i))
}

// WriteLong writes a long as eight bytes, high-order bytes first.
func (out *DataOutputImpl) WriteLong(i int64) error {
	err := out.WriteInt(int32(i >> 32))
	if err == nil {
		err = out.WriteInt(int32(i))
	}
	return err
}

// WriteVLong writes a non-negative long in the format described by
// WriteVInt, using between one and nine bytes.
func (out *DataOutputImpl) WriteVLong(i int64) error {
	assert2(i >= 0, "vLong must be non-negative (got %v)", i)
	for (i & ^0x7F) != 0 {
		if err := out.Writer.WriteByte(byte((i & 0x7F) | 0x80)); err != nil {
			return err
		}
		i = int64(uint64(i) >> 7)
	}
	return out.Writer.WriteByte(byte(i))
}

// WriteString writes the UTF-8 bytes of s prefixed by their count as a VInt.
func (out *DataOutputImpl) WriteString(s string) error {
	err := out.WriteVInt(int32(len(s)))
	if err == nil {
		err = out.Writer.WriteBytes([]byte(s))
	}
	return err
}

const DATA_OUTPUT_COPY_BUFFER_SIZE = 16384

func (out *DataOutputImpl) CopyBytes(input DataInput, numBytes int64) error {
	assert(numBytes >= 0)
	if out.copyBuffer == nil {
		out.copyBuffer = make([]byte, DATA_OUTPUT_COPY_BUFFER_SIZE)
	}
	for left := numBytes; left > 0; {
		toCopy := int64(DATA_OUTPUT_COPY_BUFFER_SIZE)
		if left < toCopy {
			toCopy = left
		}
		if err := input.ReadBytes(out.copyBuffer[:toCopy]); err != nil {
			return err
		}
		if err := out.Writer.WriteBytes(out.copyBuffer[:toCopy]); err != nil {
			return err
		}
		left -= toCopy
	}
	return nil
}
