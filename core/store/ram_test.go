package store

import (
	"errors"
	"os"
	"testing"
)

func TestIO(t *testing.T) {
	filename := "a.txt"
	testdata := "hello world"

	dir := NewRAMDirectory()
	func() {
		out, err := dir.CreateOutput(filename)
		assert2(err == nil, "%v", err)
		defer out.Close()

		err = out.WriteString(testdata)
		assert2(err == nil, "%v", err)
	}()

	n, err := dir.FileLength(filename)
	assert2(err == nil, "%v", err)
	assertEquals(t, n, int64(len(testdata))+1)

	in, err := dir.OpenInput(filename, BUFFER_SIZE)
	assert2(err == nil, "%v", err)
	defer in.Close()
	s, err := in.ReadString()
	assert2(err == nil, "%v", err)
	assertEquals(t, s, testdata)
}

func TestRAMOutputStreamSeekBack(t *testing.T) {
	out := NewRAMOutputStreamBuffer()
	out.WriteInt(-4)
	out.WriteLong(0)
	out.WriteVInt(300)
	end := out.FilePointer()
	out.Seek(4)
	out.WriteLong(42)
	assertEquals(t, out.Length(), end)

	in := NewByteArrayDataInput(out.Bytes())
	i, _ := in.ReadInt()
	assertEquals(t, i, int32(-4))
	l, _ := in.ReadLong()
	assertEquals(t, l, int64(42))
	v, _ := in.ReadVInt()
	assertEquals(t, v, int32(300))
	assertEquals(t, in.EOF(), true)

	out.Reset()
	assertEquals(t, out.Length(), int64(0))
	assertEquals(t, len(out.Bytes()), 0)
}

func testDirectory(t *testing.T, dir Directory) {
	out, err := dir.CreateOutput("x.bin")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		out.WriteVInt(int32(i))
	}
	if err = out.Close(); err != nil {
		t.Fatal(err)
	}
	assertEquals(t, dir.FileExists("x.bin"), true)
	assertEquals(t, dir.FileExists("y.bin"), false)
	names, err := dir.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, len(names), 1)
	assertEquals(t, names[0], "x.bin")

	in, err := dir.OpenInput("x.bin", 64)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		v, err := in.ReadVInt()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, v, int32(i))
	}
	if err = in.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err = dir.OpenInput("y.bin", 64); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if err = dir.DeleteFile("x.bin"); err != nil {
		t.Fatal(err)
	}
	assertEquals(t, dir.FileExists("x.bin"), false)
}

func TestRAMDirectory(t *testing.T) {
	dir := NewRAMDirectory()
	defer dir.Close()
	testDirectory(t, dir)
}

func TestFSDirectory(t *testing.T) {
	dir, err := OpenFSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer dir.Close()
	testDirectory(t, dir)
}

func TestFSIndexOutputSeekBack(t *testing.T) {
	dir, err := OpenFSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out, err := dir.CreateOutput("h")
	if err != nil {
		t.Fatal(err)
	}
	out.WriteLong(0)
	out.WriteString("tail")
	out.Seek(0)
	out.WriteLong(7)
	assertEquals(t, out.Length(), int64(13))
	if err = out.Close(); err != nil {
		t.Fatal(err)
	}
	in, err := dir.OpenInput("h", BUFFER_SIZE)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	l, _ := in.ReadLong()
	assertEquals(t, l, int64(7))
	s, _ := in.ReadString()
	assertEquals(t, s, "tail")
}

func TestCopy(t *testing.T) {
	src := NewRAMDirectory()
	out, _ := src.CreateOutput("a")
	out.WriteString("copied")
	out.Close()
	dest := NewRAMDirectory()
	if err := src.Copy(dest, "a", "b"); err != nil {
		t.Fatal(err)
	}
	in, err := dest.OpenInput("b", BUFFER_SIZE)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	s, _ := in.ReadString()
	assertEquals(t, s, "copied")
	if err := src.Copy(dest, "missing", "c"); err == nil {
		t.Error("expected copy of missing file to fail")
	}
	assertEquals(t, dest.FileExists("c"), false)
}

func TestFileClonesShareDescriptor(t *testing.T) {
	dir, err := OpenFSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out, _ := dir.CreateOutput("f")
	for i := 0; i < 3000; i++ {
		out.WriteByte(byten(int64(i)))
	}
	out.Close()
	in, err := dir.OpenInput("f", 100)
	if err != nil {
		t.Fatal(err)
	}
	in.Seek(1000)
	clone := in.Clone()
	in.Close()
	// the clone keeps reading after the original is closed
	b, err := clone.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, b, byten(1000))
	clone.Close()
}

func TestChecksumOutputAndInputAgree(t *testing.T) {
	dir := NewRAMDirectory()
	raw, _ := dir.CreateOutput("c")
	out := NewChecksumIndexOutput(raw)
	for i := 0; i < 1000; i++ {
		out.WriteVInt(int32(i * 31))
	}
	out.WriteString("end")
	sum := out.Checksum()
	out.Close()

	in, _ := dir.OpenInput("c", BUFFER_SIZE)
	cin := NewBufferedChecksumIndexInput(in)
	defer cin.Close()
	if err := cin.Seek(in.Length()); err != nil {
		t.Fatal(err)
	}
	assertEquals(t, cin.Checksum(), sum)
}
