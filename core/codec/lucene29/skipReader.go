package lucene29

import (
	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/DefaultSkipListReader.java

/*
DefaultSkipListReader reads the skip data written by
DefaultSkipListWriter. It owns skipStream and closes it in Close.
*/
type DefaultSkipListReader struct {
	*codec.MultiLevelSkipListReader

	maxSkipLevels int
	leases        []interface{ Release() }

	currentFieldStoresPayloads bool
	freqPointer                []int64
	proxPointer                []int64
	payloadLength              []int

	lastFreqPointer   int64
	lastProxPointer   int64
	lastPayloadLength int
}

func NewDefaultSkipListReader(skipStream store.IndexInput, maxSkipLevels, skipInterval int) *DefaultSkipListReader {
	pool := util.DefaultPool
	freqPointer := pool.RentLongs(maxSkipLevels)
	proxPointer := pool.RentLongs(maxSkipLevels)
	payloadLength := pool.RentInts(maxSkipLevels, true)
	ans := &DefaultSkipListReader{
		maxSkipLevels: maxSkipLevels,
		leases:        []interface{ Release() }{freqPointer, proxPointer, payloadLength},
		freqPointer:   freqPointer.Slice(),
		proxPointer:   proxPointer.Slice(),
		payloadLength: payloadLength.Slice(),
	}
	ans.MultiLevelSkipListReader = codec.NewMultiLevelSkipListReader(ans, skipStream, maxSkipLevels, skipInterval)
	return ans
}

// Init positions the reader on the skip list of a term with df
// documents whose postings start at freqBasePointer/proxBasePointer.
func (r *DefaultSkipListReader) Init(skipPointer, freqBasePointer, proxBasePointer int64, df int, storesPayloads bool) {
	r.MultiLevelSkipListReader.Init(skipPointer, df)
	r.currentFieldStoresPayloads = storesPayloads
	r.lastFreqPointer = freqBasePointer
	r.lastProxPointer = proxBasePointer
	r.lastPayloadLength = 0
	for i := 0; i < r.maxSkipLevels; i++ {
		r.freqPointer[i] = freqBasePointer
		r.proxPointer[i] = proxBasePointer
		r.payloadLength[i] = 0
	}
}

// FreqPointer returns the freq pointer of the doc to which the last
// call of SkipTo() has skipped.
func (r *DefaultSkipListReader) FreqPointer() int64 {
	return r.lastFreqPointer
}

// ProxPointer returns the prox pointer of the doc to which the last
// call of SkipTo() has skipped.
func (r *DefaultSkipListReader) ProxPointer() int64 {
	return r.lastProxPointer
}

// PayloadLength returns the payload length of the payload stored just
// before the doc to which the last call of SkipTo() has skipped.
func (r *DefaultSkipListReader) PayloadLength() int {
	return r.lastPayloadLength
}

func (r *DefaultSkipListReader) checkLevel(level int) {
	assert2(level < r.maxSkipLevels, "level %v >= maxSkipLevels %v", level, r.maxSkipLevels)
}

func (r *DefaultSkipListReader) SeekChild(level int) {
	r.checkLevel(level)
	r.freqPointer[level] = r.lastFreqPointer
	r.proxPointer[level] = r.lastProxPointer
	r.payloadLength[level] = r.lastPayloadLength
}

func (r *DefaultSkipListReader) SetLastSkipData(level int) {
	r.checkLevel(level)
	r.lastFreqPointer = r.freqPointer[level]
	r.lastProxPointer = r.proxPointer[level]
	r.lastPayloadLength = r.payloadLength[level]
}

func (r *DefaultSkipListReader) ReadSkipData(level int, skipStream store.IndexInput) (int, error) {
	r.checkLevel(level)
	delta, err := skipStream.ReadVInt()
	if err != nil {
		return 0, err
	}
	if r.currentFieldStoresPayloads {
		// the current field stores payloads. if the doc delta is odd
		// then we have to read the current payload length because it
		// differs from the length of the previous payload
		if delta&1 != 0 {
			n, err := skipStream.ReadVInt()
			if err != nil {
				return 0, err
			}
			r.payloadLength[level] = int(n)
		}
		delta = int32(uint32(delta) >> 1)
	}
	n, err := skipStream.ReadVInt()
	if err != nil {
		return 0, err
	}
	r.freqPointer[level] += int64(n)
	if n, err = skipStream.ReadVInt(); err != nil {
		return 0, err
	}
	r.proxPointer[level] += int64(n)
	return int(delta), nil
}

// Close closes the skip streams and releases all per-level state. It is
// idempotent.
func (r *DefaultSkipListReader) Close() error {
	err := r.MultiLevelSkipListReader.Close()
	for _, l := range r.leases {
		l.Release()
	}
	r.leases = nil
	r.freqPointer, r.proxPointer, r.payloadLength = nil, nil, nil
	return err
}
