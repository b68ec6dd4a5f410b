package lucene29

import (
	"errors"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"
	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

const (
	DELETES_CODEC = "Lucene29Deletes"

	DELETES_VERSION_START   = 0
	DELETES_VERSION_CURRENT = DELETES_VERSION_START
)

/*
WriteDeletedDocs writes the deleted docs of segment to its .del file:

	DelFile (.del) --> Header, MaxDoc, Count, Length, Bitmap, Footer
		MaxDoc, Count, Length --> VInt
		Bitmap --> portable roaring serialization, Length bytes
*/
func WriteDeletedDocs(dir store.Directory, segment string, deleted *util.RoaringBits) (err error) {
	data, err := deleted.Bitmap().ToBytes()
	if err != nil {
		return err
	}
	main, err := dir.CreateOutput(util.SegmentFileName(segment, "", index.DELETES_EXTENSION))
	if err != nil {
		return err
	}
	output := store.NewChecksumIndexOutput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, output)
	}()
	if err = codec.WriteHeader(output, DELETES_CODEC, DELETES_VERSION_CURRENT); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(deleted.Length())); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(deleted.Count())); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(len(data))); err != nil {
		return err
	}
	if err = output.WriteBytes(data); err != nil {
		return err
	}
	return codec.WriteFooter(output)
}

// ReadDeletedDocs loads the .del file of segment. It returns nil if the
// segment has no deletions.
func ReadDeletedDocs(dir store.Directory, segment string, bufferSize int) (deleted *util.RoaringBits, err error) {
	name := util.SegmentFileName(segment, "", index.DELETES_EXTENSION)
	if !dir.FileExists(name) {
		return nil, nil
	}
	main, err := dir.OpenInput(name, bufferSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	input := store.NewBufferedChecksumIndexInput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, input)
	}()
	if _, err = codec.CheckHeader(input, DELETES_CODEC, DELETES_VERSION_START, DELETES_VERSION_CURRENT); err != nil {
		return nil, err
	}
	maxDoc, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	count, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	length, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	if maxDoc < 0 || length < 0 || int64(length) > input.Length()-input.FilePointer() {
		return nil, fmt.Errorf("%w: invalid deletes header maxDoc=%v length=%v (resource=%v)",
			store.ErrCorruptIndex, maxDoc, length, input)
	}
	data := make([]byte, length)
	if err = input.ReadBytes(data); err != nil {
		return nil, err
	}
	if _, err = codec.CheckFooter(input); err != nil {
		return nil, err
	}

	bitmap := roaring.New()
	if err = bitmap.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %v (resource=%v)", store.ErrCorruptIndex, err, input)
	}
	if bitmap.GetCardinality() != uint64(count) {
		return nil, fmt.Errorf("%w: deleted docs count mismatch: %v vs %v (resource=%v)",
			store.ErrCorruptIndex, bitmap.GetCardinality(), count, input)
	}
	if !bitmap.IsEmpty() && bitmap.Maximum() >= uint32(maxDoc) {
		return nil, fmt.Errorf("%w: deleted doc %v out of bounds (maxDoc=%v, resource=%v)",
			store.ErrCorruptIndex, bitmap.Maximum(), maxDoc, input)
	}
	return util.NewRoaringBitsOf(bitmap, int(maxDoc)), nil
}
