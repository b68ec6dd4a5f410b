package store

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/balzaczyy/gotis/core/util"
)

func writeBytes(aFile *os.File, size int64) (err error) {
	buf := make([]byte, 0, 4096)
	for i := int64(0); i < size; i++ {
		if i%4096 == 0 && len(buf) > 0 {
			if _, err = aFile.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
		buf = append(buf, byten(i))
	}
	if len(buf) > 0 {
		_, err = aFile.Write(buf)
	}
	return err
}

const TEST_FILE_LENGTH = int64(100 * 1024)

// Call ReadByte() repeatedly, past the buffer boundary, and see that it
// is working as expected.
func TestReadByte(t *testing.T) {
	input := newMyBufferedIndexInput(math.MaxInt64)
	defer input.Close()
	for i := 0; i < BUFFER_SIZE*3; i++ {
		b, err := input.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, b, byten(int64(i)))
	}
}

func assertEquals(t *testing.T, a, b interface{}) {
	t.Helper()
	if a != b {
		t.Errorf("Expected '%v', but '%v'", b, a)
	}
}

// Call ReadBytes() repeatedly, with various chunk sizes (from 1 byte to
// larger than the buffer size), and see that it returns the bytes we
// expect.
func TestReadBytes(t *testing.T) {
	input := newMyBufferedIndexInput(math.MaxInt64)
	if err := runReadBytesAndClose(input, BUFFER_SIZE, random(), t); err != nil {
		t.Error(err)
	}

	inputBufferSize := 128
	path := filepath.Join(t.TempDir(), "IndexInput")
	tmpInputFile, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err = writeBytes(tmpInputFile, TEST_FILE_LENGTH); err != nil {
		t.Fatal(err)
	}
	tmpInputFile.Close()

	dir, err := OpenFSDirectory(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	in, err := dir.OpenInput("IndexInput", inputBufferSize)
	if err != nil {
		t.Fatal(err)
	}
	if err = runReadBytesAndClose(in, inputBufferSize, random(), t); err != nil {
		t.Error(err)
	}
}

func random() *rand.Rand {
	seed := time.Now().Unix()
	fmt.Println("Seed: ", seed)
	return rand.New(rand.NewSource(seed))
}

func runReadBytesAndClose(input IndexInput, bufferSize int, r *rand.Rand, t *testing.T) (err error) {
	defer func() {
		if err2 := input.Close(); err == nil {
			err = err2
		}
	}()
	return runReadBytes(input, bufferSize, r, t)
}

func runReadBytes(input IndexInput, bufferSize int, r *rand.Rand, t *testing.T) (err error) {
	pos := 0
	// gradually increasing size:
	for size := 1; size < bufferSize*10; size += size/200 + 1 {
		if err = checkReadBytes(input, size, pos, t); err != nil {
			return err
		}
		if pos += size; int64(pos) >= TEST_FILE_LENGTH { // wrap
			pos = 0
			input.Seek(0)
		}
	}
	// wildly fluctuating size:
	for i := int64(0); i < 100; i++ {
		size := r.Intn(10000)
		if err = checkReadBytes(input, size+1, pos, t); err != nil {
			return err
		}
		if pos += size + 1; int64(pos) >= TEST_FILE_LENGTH { // wrap
			pos = 0
			input.Seek(0)
		}
	}
	// constant small size (7 bytes):
	for i := 0; i < bufferSize; i++ {
		if err = checkReadBytes(input, 7, pos, t); err != nil {
			return err
		}
		if pos += 7; int64(pos) >= TEST_FILE_LENGTH { // wrap
			pos = 0
			input.Seek(0)
		}
	}
	return nil
}

var buffer = make([]byte, 10)

func grow(buffer []byte, newCap int) []byte {
	if newCap <= cap(buffer) {
		return buffer[0:newCap]
	}
	ans := make([]byte, newCap)
	copy(ans, buffer)
	return ans
}

func checkReadBytes(input IndexInput, size, pos int, t *testing.T) error {
	t.Helper()
	// Just to see that "offset" is treated properly, we add an arbitrary
	// offset at the beginning of the array
	offset := size % 10 // arbitrary
	buffer = grow(buffer, offset+size)
	assertEquals(t, input.FilePointer(), int64(pos))
	left := TEST_FILE_LENGTH - input.FilePointer()
	if left <= 0 {
		return nil
	} else if left < int64(size) {
		size = int(left)
	}
	if err := input.ReadBytes(buffer[offset : offset+size]); err != nil {
		return err
	}
	assertEquals(t, input.FilePointer(), int64(pos+size))
	for i := 0; i < size; i++ {
		assertEquals(t, buffer[offset+i], byten(int64(pos+i)))
	}
	return nil
}

// Reads up to the end succeed, reads past it fail without moving the
// file pointer forward partially.
func TestEOF(t *testing.T) {
	input := newMyBufferedIndexInput(1024)
	defer input.Close()
	buf := make([]byte, 1024)
	if err := input.ReadBytes(buf); err != nil {
		t.Fatal(err)
	}
	if _, err := input.ReadByte(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream, got %v", err)
	}
	for _, size := range []int{11, 50, 100000} {
		pos := input.Length() - 10
		input.Seek(pos)
		if err := input.ReadBytes(make([]byte, size)); !errors.Is(err, ErrEndOfStream) {
			t.Errorf("read of %v bytes at %v: expected ErrEndOfStream, got %v", size, pos, err)
		}
	}
	input.Seek(input.Length() - 10)
	if err := input.ReadBytes(make([]byte, 10)); err != nil {
		t.Error(err)
	}
}

func TestBoundaryReads(t *testing.T) {
	const size = 3000
	data := make([]byte, size)
	for i := range data {
		data[i] = byten(int64(i))
	}
	input := NewBufferedIndexInput("boundary", newRAMSource(data), BUFFER_SIZE)
	defer input.Close()

	// a read spanning the window end
	if _, err := input.ReadByte(); err != nil {
		t.Fatal(err)
	}
	input.Seek(BUFFER_SIZE - 3)
	buf := make([]byte, 10)
	if err := input.ReadBytes(buf); err != nil {
		t.Fatal(err)
	}
	for i, b := range buf {
		assertEquals(t, b, byten(int64(BUFFER_SIZE-3+i)))
	}

	// a read at least as large as the window bypasses it
	input.Seek(5)
	big := make([]byte, 2*BUFFER_SIZE)
	if err := input.ReadBytes(big); err != nil {
		t.Fatal(err)
	}
	for i, b := range big {
		assertEquals(t, b, byten(int64(5+i)))
	}
	assertEquals(t, input.FilePointer(), int64(5+2*BUFFER_SIZE))
	b, err := input.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, b, byten(int64(5+2*BUFFER_SIZE)))

	// unbuffered read of a small range
	input.Seek(100)
	if err := input.ReadBytesBuffered(buf, false); err != nil {
		t.Fatal(err)
	}
	assertEquals(t, buf[0], byten(100))
}

func TestVIntAcrossWindow(t *testing.T) {
	out := NewRAMOutputStreamBuffer()
	values := []int32{0, 1, 127, 128, 16383, 16384, math.MaxInt32}
	for i := 0; i < 400; i++ {
		out.WriteVInt(values[i%len(values)])
		out.WriteVLong(int64(values[i%len(values)]) << 20)
		out.WriteLong(int64(i) - 200)
	}
	input := NewBufferedIndexInput("vints", newRAMSource(out.Bytes()), 16)
	defer input.Close()
	for i := 0; i < 400; i++ {
		n, err := input.ReadVInt()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, n, values[i%len(values)])
		l, err := input.ReadVLong()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, l, int64(values[i%len(values)])<<20)
		l, err = input.ReadLong()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, l, int64(i)-200)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	input := newMyBufferedIndexInput(10000)
	defer input.Close()
	input.Seek(1500)
	clone := input.Clone()
	assertEquals(t, clone.FilePointer(), int64(1500))
	clone.Seek(20)
	b, _ := clone.ReadByte()
	assertEquals(t, b, byten(20))
	b, _ = input.ReadByte()
	assertEquals(t, b, byten(1500))
	assertEquals(t, clone.FilePointer(), int64(21))
	if err := clone.Close(); err != nil {
		t.Error(err)
	}
	b, _ = input.ReadByte()
	assertEquals(t, b, byten(1501))
}

func TestSetBufferSizeKeepsUnreadBytes(t *testing.T) {
	input := newMyBufferedIndexInput(10000)
	defer input.Close()
	for i := 0; i < 10; i++ {
		input.ReadByte()
	}
	input.SetBufferSize(4)
	assertEquals(t, input.FilePointer(), int64(10))
	for i := 10; i < 100; i++ {
		b, err := input.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, b, byten(int64(i)))
	}
	input.SetBufferSize(4096)
	for i := 100; i < 5000; i++ {
		b, err := input.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, b, byten(int64(i)))
	}
}

func TestCloseReleasesBuffer(t *testing.T) {
	pool := util.NewMemoryPool()
	input := newBufferedIndexInput("pooled", &myByteSource{length: 5000}, BUFFER_SIZE, pool)
	input.ReadByte()
	clone := input.CloneBuffered()
	clone.ReadByte()
	assertEquals(t, pool.Outstanding(), int64(2))
	clone.Close()
	input.Close()
	input.Close()
	assertEquals(t, pool.Outstanding(), int64(0))

	defer func() {
		if recover() == nil {
			t.Error("expected read after close to panic")
		}
	}()
	input.ReadByte()
}

func TestInvalidBufferSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero buffer size")
		}
	}()
	NewBufferedIndexInput("bad", newRAMSource(nil), 0)
}

func byten(n int64) byte {
	return byte(n * n % 256)
}

// myByteSource generates byten(pos) for every position below length.
type myByteSource struct {
	pos    int64
	length int64
}

func (s *myByteSource) ReadInternal(buf []byte) error {
	for i := range buf {
		buf[i] = byten(s.pos)
		s.pos++
	}
	return nil
}

func (s *myByteSource) SeekInternal(pos int64) error {
	s.pos = pos
	return nil
}

func (s *myByteSource) Length() int64 {
	return s.length
}

func (s *myByteSource) CloneSource() ByteSource {
	return &myByteSource{s.pos, s.length}
}

func (s *myByteSource) Close() error {
	return nil
}

func newMyBufferedIndexInput(length int64) *BufferedIndexInput {
	return NewBufferedIndexInput(fmt.Sprintf("MyBufferedIndexInput(len=%v)", length),
		&myByteSource{length: length}, BUFFER_SIZE)
}
