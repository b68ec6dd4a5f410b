package util

import (
	"errors"
	"fmt"
)

// ErrInvalidVInt is returned when a variable-length integer carries more
// bits than its declared width allows.
var ErrInvalidVInt = errors.New("invalid variable-length integer")

/*
DataInput reads the low-level data types of the index format.

A DataInput may only be used from one goroutine at a time because it keeps
internal state such as its file position. Concurrent readers must Clone()
the owning IndexInput first.
*/
type DataInput interface {
	ReadByte() (b byte, err error)
	ReadBytes(buf []byte) error
	ReadShort() (n int16, err error)
	ReadInt() (n int32, err error)
	ReadVInt() (n int32, err error)
	ReadLong() (n int64, err error)
	ReadVLong() (n int64, err error)
	ReadString() (s string, err error)
}

// DataReader is the byte-level primitive DataInputImpl builds on.
type DataReader interface {
	ReadByte() (b byte, err error)
	ReadBytes(buf []byte) error
}

const SKIP_BUFFER_SIZE = 1024

/*
DataInputImpl decodes fixed and variable-length integers on top of a
DataReader. Buffered inputs override the hot paths and fall back to these
implementations near a window boundary.
*/
type DataInputImpl struct {
	Reader     DataReader
	skipBuffer []byte
}

func NewDataInput(spi DataReader) *DataInputImpl {
	return &DataInputImpl{Reader: spi}
}

func (in *DataInputImpl) ReadBytesBuffered(buf []byte, useBuffer bool) error {
	return in.Reader.ReadBytes(buf)
}

func (in *DataInputImpl) ReadShort() (n int16, err error) {
	var b1, b2 byte
	if b1, err = in.Reader.ReadByte(); err != nil {
		return 0, err
	}
	if b2, err = in.Reader.ReadByte(); err != nil {
		return 0, err
	}
	return (int16(b1) << 8) | int16(b2), nil
}

func (in *DataInputImpl) ReadInt() (n int32, err error) {
	var b byte
	for i := 0; i < 4; i++ {
		if b, err = in.Reader.ReadByte(); err != nil {
			return 0, err
		}
		n = (n << 8) | int32(b)
	}
	return n, nil
}

/*
ReadVInt reads an int stored in the variable-length format: seven data
bits per byte, least significant group first, high bit set on every byte
but the last. Between one and five bytes are consumed.
*/
func (in *DataInputImpl) ReadVInt() (n int32, err error) {
	var b byte
	for shift := uint(0); shift < 28; shift += 7 {
		if b, err = in.Reader.ReadByte(); err != nil {
			return 0, err
		}
		n |= int32(b&0x7F) << shift
		if b < 128 {
			return n, nil
		}
	}
	if b, err = in.Reader.ReadByte(); err != nil {
		return 0, err
	}
	// Warning: the next ands use 0x0F / 0xF0 - beware copy/paste errors:
	n |= int32(b&0x0F) << 28
	if b&0xF0 == 0 {
		return n, nil
	}
	return 0, fmt.Errorf("%w: vInt has too many bits", ErrInvalidVInt)
}

func (in *DataInputImpl) ReadLong() (n int64, err error) {
	d1, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	d2, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	return (int64(d1) << 32) | int64(d2)&0xFFFFFFFF, nil
}

/*
ReadVLong reads a non-negative long in the variable-length format. At
most nine bytes are consumed; a continuation bit on the ninth byte means
the value would be negative, which the format does not allow.
*/
func (in *DataInputImpl) ReadVLong() (n int64, err error) {
	var b byte
	for shift := uint(0); shift <= 56; shift += 7 {
		if b, err = in.Reader.ReadByte(); err != nil {
			return 0, err
		}
		n |= int64(b&0x7F) << shift
		if b < 128 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: negative vLong", ErrInvalidVInt)
}

func (in *DataInputImpl) ReadString() (s string, err error) {
	length, err := in.ReadVInt()
	if err != nil {
		return "", err
	}
	bytes := make([]byte, length)
	if err = in.Reader.ReadBytes(bytes); err != nil {
		return "", err
	}
	return string(bytes), nil
}

/*
SkipBytes skips over numBytes bytes with the same effect as reading them
into a scratch buffer and discarding the content.
*/
func (in *DataInputImpl) SkipBytes(numBytes int64) (err error) {
	assert2(numBytes >= 0, "numBytes must be >= 0, got %v", numBytes)
	if in.skipBuffer == nil {
		in.skipBuffer = make([]byte, SKIP_BUFFER_SIZE)
	}
	var step int
	for skipped := int64(0); skipped < numBytes; {
		step = int(numBytes - skipped)
		if SKIP_BUFFER_SIZE < step {
			step = SKIP_BUFFER_SIZE
		}
		if err = in.Reader.ReadBytes(in.skipBuffer[:step]); err != nil {
			return
		}
		skipped += int64(step)
	}
	return nil
}

// VIntLength returns the number of bytes the variable-length encoding of
// n occupies.
func VIntLength(n uint64) int {
	length := 1
	for n >= 0x80 {
		n >>= 7
		length++
	}
	return length
}
