package codec

import (
	"errors"
	"testing"

	"github.com/balzaczyy/gotis/core/store"
)

func writeTestFile(t *testing.T, dir store.Directory, name string, body func(out *store.ChecksumIndexOutput)) {
	t.Helper()
	main, err := dir.CreateOutput(name)
	if err != nil {
		t.Fatal(err)
	}
	out := store.NewChecksumIndexOutput(main)
	if err = WriteHeader(out, "TestCodec", 2); err != nil {
		t.Fatal(err)
	}
	body(out)
	if err = WriteFooter(out); err != nil {
		t.Fatal(err)
	}
	if err = out.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestHeaderAndFooter(t *testing.T) {
	dir := store.NewRAMDirectory()
	writeTestFile(t, dir, "a.bin", func(out *store.ChecksumIndexOutput) {
		out.WriteVInt(12345)
		out.WriteString("payload")
	})

	main, err := dir.OpenInput("a.bin", 16)
	if err != nil {
		t.Fatal(err)
	}
	in := store.NewBufferedChecksumIndexInput(main)
	defer in.Close()
	version, err := CheckHeader(in, "TestCodec", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %v", version)
	}
	if in.FilePointer() != int64(HeaderLength("TestCodec")) {
		t.Errorf("header ends at %v, expected %v", in.FilePointer(), HeaderLength("TestCodec"))
	}
	n, _ := in.ReadVInt()
	s, _ := in.ReadString()
	if n != 12345 || s != "payload" {
		t.Errorf("unexpected content %v %v", n, s)
	}
	checksum, err := CheckFooter(in)
	if err != nil {
		t.Fatal(err)
	}

	// the footer is also found without reading the content
	other, err := dir.OpenInput("a.bin", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	retrieved, err := RetrieveChecksum(other)
	if err != nil {
		t.Fatal(err)
	}
	if retrieved != checksum {
		t.Errorf("retrieved checksum %x, expected %x", retrieved, checksum)
	}
	whole, err := ChecksumEntireFile(other)
	if err != nil {
		t.Fatal(err)
	}
	if whole != checksum {
		t.Errorf("whole file checksum %x, expected %x", whole, checksum)
	}
}

func TestCheckHeaderMismatch(t *testing.T) {
	dir := store.NewRAMDirectory()
	writeTestFile(t, dir, "a.bin", func(*store.ChecksumIndexOutput) {})

	for _, c := range []struct {
		codec    string
		min, max int32
	}{
		{"OtherCodec", 0, 3},
		{"TestCodec", 3, 4},
		{"TestCodec", 0, 1},
	} {
		in, err := dir.OpenInput("a.bin", 16)
		if err != nil {
			t.Fatal(err)
		}
		_, err = CheckHeader(in, c.codec, c.min, c.max)
		if !errors.Is(err, store.ErrCorruptIndex) {
			t.Errorf("%v [%v, %v]: expected corrupt index, got %v", c.codec, c.min, c.max, err)
		}
		in.Close()
	}
}

func TestCorruptFooter(t *testing.T) {
	dir := store.NewRAMDirectory()
	writeTestFile(t, dir, "a.bin", func(out *store.ChecksumIndexOutput) {
		out.WriteBytes(make([]byte, 100))
	})
	in, err := dir.OpenInput("a.bin", 16)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]byte, in.Length())
	if err = in.ReadBytes(data); err != nil {
		t.Fatal(err)
	}
	in.Close()

	rewrite := func(name string, data []byte) {
		out, err := dir.CreateOutput(name)
		if err != nil {
			t.Fatal(err)
		}
		out.WriteBytes(data)
		if err = out.Close(); err != nil {
			t.Fatal(err)
		}
	}
	check := func(name string) error {
		in, err := dir.OpenInput(name, 16)
		if err != nil {
			t.Fatal(err)
		}
		defer in.Close()
		_, err = ChecksumEntireFile(in)
		return err
	}

	// content
	flipped := append([]byte(nil), data...)
	flipped[50] ^= 1
	rewrite("content.bin", flipped)
	if err = check("content.bin"); !errors.Is(err, store.ErrCorruptIndex) {
		t.Errorf("expected checksum failure, got %v", err)
	}

	// footer magic
	flipped = append([]byte(nil), data...)
	flipped[len(flipped)-FOOTER_LENGTH] ^= 1
	rewrite("magic.bin", flipped)
	if err = check("magic.bin"); !errors.Is(err, store.ErrCorruptIndex) {
		t.Errorf("expected footer mismatch, got %v", err)
	}

	// too short to hold a footer
	rewrite("short.bin", data[:FOOTER_LENGTH-1])
	if err = check("short.bin"); !errors.Is(err, store.ErrCorruptIndex) {
		t.Errorf("expected short file, got %v", err)
	}

	// intact
	if err = check("a.bin"); err != nil {
		t.Error(err)
	}
}
