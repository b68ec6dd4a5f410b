package codec

import (
	"fmt"

	"github.com/balzaczyy/gotis/core/store"
)

// codecs/CodecUtil.java

/* Constant to identify the start of a codec header. */
const CODEC_MAGIC = 0x3fd76c17

/* Constant to identify the start of a codec footer. */
const FOOTER_MAGIC = ^CODEC_MAGIC

const FOOTER_LENGTH = 16

// Checksum algorithm recorded in footers.
const FOOTER_ALGORITHM_XXH3 = 1

type DataOutput interface {
	WriteInt(n int32) error
	WriteString(s string) error
}

/*
Writes a codec header, which records both a string to identify the
file and a version number. This header can be parsed and validated
with CheckHeader().

CodecHeader --> Magic,CodecName,Version
	Magic --> uint32. This identifies the start of the header. It is
	always CODEC_MAGIC.
	CodecName --> string. This is a string to identify this file.
	Version --> uint32. Records the version of the file.
*/
func WriteHeader(out DataOutput, codec string, version int) error {
	assert(out != nil)
	assert2(len(codec) < 128, "codec must be less than 128 characters in length [got %v]", codec)
	for _, c := range codec {
		assert2(c < 128, "codec must be simple ASCII [got %v]", codec)
	}
	err := out.WriteInt(CODEC_MAGIC)
	if err == nil {
		err = out.WriteString(codec)
		if err == nil {
			err = out.WriteInt(int32(version))
		}
	}
	return err
}

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}

/* Computes the length of a codec header */
func HeaderLength(codec string) int {
	return 9 + len(codec)
}

type DataInput interface {
	ReadInt() (int32, error)
	ReadString() (string, error)
}

func CheckHeader(in DataInput, codec string, minVersion, maxVersion int32) (v int32, err error) {
	actualHeader, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if actualHeader != CODEC_MAGIC {
		return 0, fmt.Errorf("%w: codec header mismatch: actual header=%v vs expected header=%v (resource: %v)",
			store.ErrCorruptIndex, actualHeader, CODEC_MAGIC, in)
	}
	actualCodec, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	if actualCodec != codec {
		return 0, fmt.Errorf("%w: codec mismatch: actual codec=%v vs expected codec=%v (resource: %v)",
			store.ErrCorruptIndex, actualCodec, codec, in)
	}
	actualVersion, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if actualVersion < minVersion || actualVersion > maxVersion {
		return 0, fmt.Errorf("%w: format version is not supported (resource: %v): %v (needs to be between %v and %v)",
			store.ErrCorruptIndex, in, actualVersion, minVersion, maxVersion)
	}
	return actualVersion, nil
}

/*
Writes a codec footer, which records both a checksum algorithm ID and
a checksum. This footer can be parsed and validated with CheckFooter().

CodecFooter --> Magic,AlgorithmID,Checksum
	- Magic --> uint32. This identifies the start of the footer. It is
		always FOOTER_MAGIC.
	- AlgorithmID --> uint32. This indicates the checksum algorithm
		used. Currently this is always 1, for xxh3.
	- Checksum --> uint64. The actual checksum value for all previous
		bytes in the stream, including the bytes from Magic and AlgorithmID.
*/
func WriteFooter(out *store.ChecksumIndexOutput) (err error) {
	if err = out.WriteInt(FOOTER_MAGIC); err == nil {
		if err = out.WriteInt(FOOTER_ALGORITHM_XXH3); err == nil {
			err = out.WriteLong(out.Checksum())
		}
	}
	return
}

/* Validates the codec footer previously written by WriteFooter(). */
func CheckFooter(in store.ChecksumIndexInput) (cs int64, err error) {
	if err = validateFooter(in); err == nil {
		cs = in.Checksum()
		var cs2 int64
		if cs2, err = in.ReadLong(); err == nil {
			if cs != cs2 {
				return 0, fmt.Errorf("%w: checksum failed: expected=%x actual=%x (resource=%v)",
					store.ErrCorruptIndex, uint64(cs2), uint64(cs), in)
			}
			err = CheckEOF(in)
		}
	}
	return
}

/* Returns (but does not validate) the checksum previously written by WriteFooter. */
func RetrieveChecksum(in store.IndexInput) (int64, error) {
	var err error
	if err = in.Seek(in.Length() - FOOTER_LENGTH); err != nil {
		return 0, err
	}
	if err = validateFooter(in); err != nil {
		return 0, err
	}
	return in.ReadLong()
}

func validateFooter(in store.IndexInput) error {
	magic, err := in.ReadInt()
	if err != nil {
		return err
	}
	if magic != FOOTER_MAGIC {
		return fmt.Errorf("%w: codec footer mismatch: actual footer=%v vs expected footer=%v (resource: %v)",
			store.ErrCorruptIndex, magic, FOOTER_MAGIC, in)
	}
	algorithmId, err := in.ReadInt()
	if err != nil {
		return err
	}
	if algorithmId != FOOTER_ALGORITHM_XXH3 {
		return fmt.Errorf("%w: codec footer mismatch: unknown algorithmID: %v",
			store.ErrCorruptIndex, algorithmId)
	}
	return nil
}

/* Checks that the stream is positioned at the end, and returns error if it is not. */
func CheckEOF(in store.IndexInput) error {
	if in.FilePointer() != in.Length() {
		return fmt.Errorf("%w: did not read all bytes from file: read %v vs size %v (resource: %v)",
			store.ErrCorruptIndex, in.FilePointer(), in.Length(), in)
	}
	return nil
}

/*
ChecksumEntireFile clones the provided input, reads all bytes from the
file, and calls CheckFooter(). The input itself is left untouched.
*/
func ChecksumEntireFile(input store.IndexInput) (hash int64, err error) {
	if input.Length() < FOOTER_LENGTH {
		return 0, fmt.Errorf("%w: file is too short (%v bytes) to contain a footer (resource: %v)",
			store.ErrCorruptIndex, input.Length(), input)
	}
	clone := input.Clone()
	defer clone.Close()
	if err = clone.Seek(0); err != nil {
		return 0, err
	}
	in := store.NewBufferedChecksumIndexInput(clone)
	if err = in.Seek(in.Length() - FOOTER_LENGTH); err != nil {
		return 0, err
	}
	return CheckFooter(in)
}
