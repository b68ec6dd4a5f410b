package store

import (
	"fmt"

	"github.com/balzaczyy/gotis/core/util"
)

/*
BufferedIndexInput serves reads from a window over a ByteSource.

The window covers [bufferStart, bufferStart+bufferLength) and the next
byte is at bufferPosition inside it. The window is refilled lazily on the
first read that runs out of it; the buffer itself is leased from the
memory pool on the first refill and returned on Close.
*/
type BufferedIndexInput struct {
	*util.DataInputImpl
	desc           string
	source         ByteSource
	pool           *util.MemoryPool
	bufferSize     int
	lease          *util.Lease[byte]
	buffer         []byte
	bufferStart    int64
	bufferLength   int
	bufferPosition int
	closed         bool
}

func NewBufferedIndexInput(desc string, source ByteSource, bufferSize int) *BufferedIndexInput {
	return newBufferedIndexInput(desc, source, bufferSize, util.DefaultPool)
}

func newBufferedIndexInput(desc string, source ByteSource, bufferSize int, pool *util.MemoryPool) *BufferedIndexInput {
	checkBufferSize(bufferSize)
	ans := &BufferedIndexInput{desc: desc, source: source, pool: pool, bufferSize: bufferSize}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func checkBufferSize(bufferSize int) {
	assert2(bufferSize > 0, "bufferSize must be positive (got %v)", bufferSize)
}

func (in *BufferedIndexInput) String() string {
	return in.desc
}

func (in *BufferedIndexInput) ensureOpen() {
	assert2(!in.closed, "%v: input already closed", in.desc)
}

func (in *BufferedIndexInput) BufferSize() int {
	return in.bufferSize
}

/*
SetBufferSize changes the window size. Unread bytes of the current
window are carried over into the new buffer, up to its capacity.
*/
func (in *BufferedIndexInput) SetBufferSize(newSize int) {
	in.ensureOpen()
	checkBufferSize(newSize)
	if newSize == in.bufferSize {
		return
	}
	in.bufferSize = newSize
	if in.buffer == nil {
		return
	}
	lease := in.pool.RentBytes(newSize)
	newBuffer := lease.Slice()
	numToCopy := min(in.bufferLength-in.bufferPosition, newSize)
	copy(newBuffer, in.buffer[in.bufferPosition:in.bufferPosition+numToCopy])
	in.bufferStart += int64(in.bufferPosition)
	in.bufferPosition = 0
	in.bufferLength = numToCopy
	in.lease.Release()
	in.lease, in.buffer = lease, newBuffer
}

func (in *BufferedIndexInput) ReadByte() (b byte, err error) {
	if in.bufferPosition >= in.bufferLength {
		if err = in.refill(); err != nil {
			return 0, err
		}
	}
	b = in.buffer[in.bufferPosition]
	in.bufferPosition++
	return
}

func (in *BufferedIndexInput) ReadBytes(buf []byte) error {
	return in.ReadBytesBuffered(buf, true)
}

/*
ReadBytesBuffered fills buf. When the part not served by the current
window is at least as large as the buffer, or useBuffer is false, it is
read straight from the source and the window is dropped.
*/
func (in *BufferedIndexInput) ReadBytesBuffered(buf []byte, useBuffer bool) error {
	available := in.bufferLength - in.bufferPosition
	if len(buf) <= available {
		copy(buf, in.buffer[in.bufferPosition:in.bufferPosition+len(buf)])
		in.bufferPosition += len(buf)
		return nil
	}
	if useBuffer && len(buf)-available < in.bufferSize {
		if in.FilePointer()+int64(len(buf)) > in.Length() {
			return fmt.Errorf("%w: %v", ErrEndOfStream, in)
		}
		if available > 0 {
			copy(buf, in.buffer[in.bufferPosition:in.bufferLength])
			buf = buf[available:]
			in.bufferPosition += available
		}
		if err := in.refill(); err != nil {
			return err
		}
		copy(buf, in.buffer[:len(buf)])
		in.bufferPosition += len(buf)
		return nil
	}

	in.ensureOpen()
	pos := in.FilePointer()
	after := pos + int64(len(buf))
	if after > in.Length() {
		return fmt.Errorf("%w: %v", ErrEndOfStream, in)
	}
	if available > 0 {
		copy(buf, in.buffer[in.bufferPosition:in.bufferLength])
		buf = buf[available:]
		pos += int64(available)
	}
	if err := in.source.SeekInternal(pos); err != nil {
		return err
	}
	if err := in.source.ReadInternal(buf); err != nil {
		return err
	}
	in.bufferStart = after
	in.bufferPosition = 0
	in.bufferLength = 0 // trigger refill() on read
	return nil
}

func (in *BufferedIndexInput) ReadShort() (n int16, err error) {
	if 2 <= in.bufferLength-in.bufferPosition {
		b := in.buffer[in.bufferPosition:]
		in.bufferPosition += 2
		return int16(b[0])<<8 | int16(b[1]), nil
	}
	return in.DataInputImpl.ReadShort()
}

func (in *BufferedIndexInput) ReadInt() (n int32, err error) {
	if 4 <= in.bufferLength-in.bufferPosition {
		b := in.buffer[in.bufferPosition:]
		in.bufferPosition += 4
		return int32(b[0])<<24 | int32(b[1])<<16 | int32(b[2])<<8 | int32(b[3]), nil
	}
	return in.DataInputImpl.ReadInt()
}

func (in *BufferedIndexInput) ReadLong() (n int64, err error) {
	if 8 <= in.bufferLength-in.bufferPosition {
		for _, b := range in.buffer[in.bufferPosition : in.bufferPosition+8] {
			n = n<<8 | int64(b)
		}
		in.bufferPosition += 8
		return n, nil
	}
	return in.DataInputImpl.ReadLong()
}

// ReadVInt decodes straight from the window when a full VInt is
// guaranteed to fit in it.
func (in *BufferedIndexInput) ReadVInt() (n int32, err error) {
	if 5 <= in.bufferLength-in.bufferPosition {
		for shift := uint(0); shift < 28; shift += 7 {
			b := in.buffer[in.bufferPosition]
			in.bufferPosition++
			n |= int32(b&0x7F) << shift
			if b < 128 {
				return n, nil
			}
		}
		b := in.buffer[in.bufferPosition]
		in.bufferPosition++
		// Warning: the next ands use 0x0F / 0xF0 - beware copy/paste errors:
		n |= int32(b&0x0F) << 28
		if b&0xF0 == 0 {
			return n, nil
		}
		return 0, fmt.Errorf("%w: vInt has too many bits", util.ErrInvalidVInt)
	}
	return in.DataInputImpl.ReadVInt()
}

func (in *BufferedIndexInput) ReadVLong() (n int64, err error) {
	if 9 <= in.bufferLength-in.bufferPosition {
		for shift := uint(0); shift <= 56; shift += 7 {
			b := in.buffer[in.bufferPosition]
			in.bufferPosition++
			n |= int64(b&0x7F) << shift
			if b < 128 {
				return n, nil
			}
		}
		return 0, fmt.Errorf("%w: negative vLong", util.ErrInvalidVInt)
	}
	return in.DataInputImpl.ReadVLong()
}

func (in *BufferedIndexInput) refill() error {
	in.ensureOpen()
	start := in.bufferStart + int64(in.bufferPosition)
	end := min(start+int64(in.bufferSize), in.source.Length())
	newLength := int(end - start)
	if newLength <= 0 {
		return fmt.Errorf("%w: %v", ErrEndOfStream, in)
	}
	if in.buffer == nil {
		in.lease = in.pool.RentBytes(in.bufferSize)
		in.buffer = in.lease.Slice()
	}
	if err := in.source.SeekInternal(start); err != nil {
		return err
	}
	if err := in.source.ReadInternal(in.buffer[:newLength]); err != nil {
		return err
	}
	in.bufferLength = newLength
	in.bufferStart = start
	in.bufferPosition = 0
	return nil
}

func (in *BufferedIndexInput) FilePointer() int64 {
	return in.bufferStart + int64(in.bufferPosition)
}

func (in *BufferedIndexInput) Seek(pos int64) error {
	in.ensureOpen()
	if pos >= in.bufferStart && pos < in.bufferStart+int64(in.bufferLength) {
		in.bufferPosition = int(pos - in.bufferStart) // seek within buffer
		return nil
	}
	in.bufferStart = pos
	in.bufferPosition = 0
	in.bufferLength = 0 // trigger refill() on read()
	return nil
}

func (in *BufferedIndexInput) Length() int64 {
	return in.source.Length()
}

func (in *BufferedIndexInput) Clone() IndexInput {
	return in.CloneBuffered()
}

// CloneBuffered returns an unbuffered clone positioned at this input's
// file pointer.
func (in *BufferedIndexInput) CloneBuffered() *BufferedIndexInput {
	in.ensureOpen()
	ans := newBufferedIndexInput(in.desc, in.source.CloneSource(), in.bufferSize, in.pool)
	ans.bufferStart = in.FilePointer()
	return ans
}

// Close returns the buffer to the pool and closes the source. Later calls
// do nothing; later reads panic.
func (in *BufferedIndexInput) Close() error {
	if in == nil || in.closed {
		return nil
	}
	in.closed = true
	if in.lease != nil {
		in.lease.Release()
		in.lease = nil
	}
	in.buffer = nil
	in.bufferStart += int64(in.bufferPosition)
	in.bufferPosition, in.bufferLength = 0, 0
	return in.source.Close()
}
