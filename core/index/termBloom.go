package index

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/zeebo/xxh3"
)

const (
	TERM_BLOOM_CODEC_NAME      = "TermBloom"
	TERM_BLOOM_VERSION_START   = 0
	TERM_BLOOM_VERSION_CURRENT = TERM_BLOOM_VERSION_START
)

// Bloom filter keys are xxh3 digests of field, 0xff, text. 0xff never
// appears in UTF-8.
func termBloomHash(t Term) uint64 {
	h := xxh3.New()
	h.WriteString(t.Field)
	h.Write([]byte{0xff})
	h.WriteString(t.Text)
	return h.Sum64()
}

func termBloomKey(key *[8]byte, hash uint64) []byte {
	binary.BigEndian.PutUint64(key[:], hash)
	return key[:]
}

// termBloomBuilder collects term digests until the term count is known
// and the filter can be sized.
type termBloomBuilder struct {
	dir     store.Directory
	segment string
	fpRate  float64
	hashes  []uint64
}

func newTermBloomBuilder(dir store.Directory, segment string, fpRate float64) *termBloomBuilder {
	return &termBloomBuilder{dir: dir, segment: segment, fpRate: fpRate}
}

func (b *termBloomBuilder) add(t Term) {
	b.hashes = append(b.hashes, termBloomHash(t))
}

func (b *termBloomBuilder) build() *bloom.BloomFilter {
	filter := bloom.NewWithEstimates(uint(max(len(b.hashes), 1)), b.fpRate)
	var key [8]byte
	for _, h := range b.hashes {
		filter.Add(termBloomKey(&key, h))
	}
	return filter
}

/*
write stores the filter as the segment's .tbf file:

	TermBloom --> Header, K, M, Length, Bytes, Footer
		K --> VInt, number of hash functions
		M --> VLong, number of bits
		Length --> VInt, length of the serialized filter
*/
func (b *termBloomBuilder) write() (err error) {
	filter := b.build()
	var buf bytes.Buffer
	if _, err = filter.WriteTo(&buf); err != nil {
		return err
	}

	main, err := b.dir.CreateOutput(util.SegmentFileName(b.segment, "", TERMS_BLOOM_EXTENSION))
	if err != nil {
		return err
	}
	output := store.NewChecksumIndexOutput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, output)
	}()

	if err = codec.WriteHeader(output, TERM_BLOOM_CODEC_NAME, TERM_BLOOM_VERSION_CURRENT); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(filter.K())); err != nil {
		return err
	}
	if err = output.WriteVLong(int64(filter.Cap())); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(buf.Len())); err != nil {
		return err
	}
	if err = output.WriteBytes(buf.Bytes()); err != nil {
		return err
	}
	if err = codec.WriteFooter(output); err != nil {
		return err
	}
	log.Debugf("Wrote bloom filter of %v terms (k=%v, m=%v) for segment %v",
		len(b.hashes), filter.K(), filter.Cap(), b.segment)
	return nil
}

// readTermBloom loads the segment's .tbf file. It returns nil without
// error when the segment has none.
func readTermBloom(dir store.Directory, segment string, bufferSize int) (filter *bloom.BloomFilter, err error) {
	fileName := util.SegmentFileName(segment, "", TERMS_BLOOM_EXTENSION)
	if !dir.FileExists(fileName) {
		return nil, nil
	}
	main, err := dir.OpenInput(fileName, bufferSize)
	if err != nil {
		return nil, err
	}
	input := store.NewBufferedChecksumIndexInput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, input)
	}()

	if _, err = codec.CheckHeader(input, TERM_BLOOM_CODEC_NAME,
		TERM_BLOOM_VERSION_START, TERM_BLOOM_VERSION_CURRENT); err != nil {
		return nil, err
	}
	k, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	m, err := input.ReadVLong()
	if err != nil {
		return nil, err
	}
	length, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || int64(length) > input.Length()-input.FilePointer() {
		return nil, fmt.Errorf("%w: invalid bloom filter length %v (resource=%v)",
			store.ErrCorruptIndex, length, input)
	}
	data := make([]byte, length)
	if err = input.ReadBytes(data); err != nil {
		return nil, err
	}
	filter = new(bloom.BloomFilter)
	if _, err = filter.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v (resource=%v)", store.ErrCorruptIndex, err, input)
	}
	if filter.K() != uint(k) || filter.Cap() != uint(m) {
		return nil, fmt.Errorf("%w: bloom filter k=%v m=%v does not match header k=%v m=%v (resource=%v)",
			store.ErrCorruptIndex, filter.K(), filter.Cap(), k, m, input)
	}
	if _, err = codec.CheckFooter(input); err != nil {
		return nil, err
	}
	return filter, nil
}

// mayContain reports false only for terms certainly not in the filter.
func mayContain(filter *bloom.BloomFilter, t Term) bool {
	var key [8]byte
	return filter.Test(termBloomKey(&key, termBloomHash(t)))
}
