package util

import (
	"errors"
	"io"
	"math"
	"testing"
)

type bytesReader struct {
	data []byte
	pos  int
}

func (r *bytesReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *bytesReader) ReadBytes(buf []byte) error {
	if r.pos+len(buf) > len(r.data) {
		return io.EOF
	}
	copy(buf, r.data[r.pos:])
	r.pos += len(buf)
	return nil
}

type bytesWriter struct {
	data []byte
}

func (w *bytesWriter) WriteByte(b byte) error {
	w.data = append(w.data, b)
	return nil
}

func (w *bytesWriter) WriteBytes(buf []byte) error {
	w.data = append(w.data, buf...)
	return nil
}

func assertEquals(t *testing.T, a, b interface{}) {
	t.Helper()
	if a != b {
		t.Errorf("Expected '%v', but '%v'", b, a)
	}
}

func TestVIntEncodedLengths(t *testing.T) {
	for _, c := range []struct {
		value  int32
		length int
	}{
		{0, 1}, {127, 1}, {128, 2}, {16383, 2}, {16384, 3},
		{math.MaxInt32, 5}, {-1, 5},
	} {
		w := &bytesWriter{}
		if err := NewDataOutput(w).WriteVInt(c.value); err != nil {
			t.Fatal(err)
		}
		assertEquals(t, len(w.data), c.length)
		if c.value >= 0 {
			assertEquals(t, VIntLength(uint64(c.value)), c.length)
		}
		got, err := NewDataInput(&bytesReader{data: w.data}).ReadVInt()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, got, c.value)
	}
}

func TestVIntKnownEncodings(t *testing.T) {
	w := &bytesWriter{}
	out := NewDataOutput(w)
	out.WriteVInt(128)
	out.WriteVInt(16384)
	expected := []byte{0x80, 0x01, 0x80, 0x80, 0x01}
	assertEquals(t, len(w.data), len(expected))
	for i, b := range expected {
		assertEquals(t, w.data[i], b)
	}
}

func TestVLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, 127, 128, 1 << 35, math.MaxInt64}
	w := &bytesWriter{}
	out := NewDataOutput(w)
	for _, v := range values {
		if err := out.WriteVLong(v); err != nil {
			t.Fatal(err)
		}
	}
	in := NewDataInput(&bytesReader{data: w.data})
	for _, v := range values {
		got, err := in.ReadVLong()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, got, v)
	}
}

func TestVIntTooManyBits(t *testing.T) {
	in := NewDataInput(&bytesReader{data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}})
	if _, err := in.ReadVInt(); !errors.Is(err, ErrInvalidVInt) {
		t.Errorf("expected ErrInvalidVInt, got %v", err)
	}
	long := make([]byte, 10)
	for i := range long {
		long[i] = 0xFF
	}
	in = NewDataInput(&bytesReader{data: long})
	if _, err := in.ReadVLong(); !errors.Is(err, ErrInvalidVInt) {
		t.Errorf("expected ErrInvalidVInt, got %v", err)
	}
}

func TestFixedWidthAndStrings(t *testing.T) {
	w := &bytesWriter{}
	out := NewDataOutput(w)
	out.WriteInt(-4)
	out.WriteLong(-1234567890123)
	out.WriteString("héllo")
	in := NewDataInput(&bytesReader{data: w.data})
	i, err := in.ReadInt()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, i, int32(-4))
	l, err := in.ReadLong()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, l, int64(-1234567890123))
	s, err := in.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, s, "héllo")
}

func TestTruncatedInput(t *testing.T) {
	in := NewDataInput(&bytesReader{data: []byte{0x80, 0x80}})
	if _, err := in.ReadVInt(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
