package lucene29

import (
	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/DefaultSkipListWriter.java

/*
DefaultSkipListWriter writes the skip data of the default postings
format, which stores positions and payloads. Every skip point carries
the freq and prox file pointers of the document it skips to.
*/
type DefaultSkipListWriter struct {
	*codec.MultiLevelSkipListWriter

	maxSkipLevels         int
	leases                []interface{ Release() }
	lastSkipDoc           []int
	lastSkipPayloadLength []int
	lastSkipFreqPointer   []int64
	lastSkipProxPointer   []int64

	freqOutput store.IndexOutput
	proxOutput store.IndexOutput

	curDoc           int
	curStorePayloads bool
	curPayloadLength int
	curFreqPointer   int64
	curProxPointer   int64
}

/*
NewDefaultSkipListWriter creates a writer for posting lists of at most
docCount documents. proxOutput is nil for segments without positions.
*/
func NewDefaultSkipListWriter(skipInterval, maxSkipLevels, docCount int,
	freqOutput, proxOutput store.IndexOutput) *DefaultSkipListWriter {
	pool := util.DefaultPool
	lastSkipDoc := pool.RentInts(maxSkipLevels, true)
	lastSkipPayloadLength := pool.RentInts(maxSkipLevels, false)
	lastSkipFreqPointer := pool.RentLongs(maxSkipLevels)
	lastSkipProxPointer := pool.RentLongs(maxSkipLevels)
	ans := &DefaultSkipListWriter{
		maxSkipLevels:         maxSkipLevels,
		leases:                []interface{ Release() }{lastSkipDoc, lastSkipPayloadLength, lastSkipFreqPointer, lastSkipProxPointer},
		lastSkipDoc:           lastSkipDoc.Slice(),
		lastSkipPayloadLength: lastSkipPayloadLength.Slice(),
		lastSkipFreqPointer:   lastSkipFreqPointer.Slice(),
		lastSkipProxPointer:   lastSkipProxPointer.Slice(),
		freqOutput:            freqOutput,
		proxOutput:            proxOutput,
	}
	ans.MultiLevelSkipListWriter = codec.NewMultiLevelSkipListWriter(ans, skipInterval, maxSkipLevels, docCount)
	return ans
}

func (w *DefaultSkipListWriter) SetFreqOutput(freqOutput store.IndexOutput) {
	w.freqOutput = freqOutput
}

func (w *DefaultSkipListWriter) SetProxOutput(proxOutput store.IndexOutput) {
	w.proxOutput = proxOutput
}

// SetSkipData sets the values for the current skip data.
func (w *DefaultSkipListWriter) SetSkipData(doc int, storePayloads bool, payloadLength int) {
	w.curDoc = doc
	w.curStorePayloads = storePayloads
	w.curPayloadLength = payloadLength
	w.curFreqPointer = w.freqOutput.FilePointer()
	if w.proxOutput != nil {
		w.curProxPointer = w.proxOutput.FilePointer()
	}
}

func (w *DefaultSkipListWriter) ResetSkipData() {
	for i := 0; i < w.maxSkipLevels; i++ {
		w.lastSkipDoc[i] = 0
		// we don't have to write the first length in the skip list
		w.lastSkipPayloadLength[i] = -1
		w.lastSkipFreqPointer[i] = w.freqOutput.FilePointer()
		if w.proxOutput != nil {
			w.lastSkipProxPointer[i] = w.proxOutput.FilePointer()
		}
	}
}

/*
WriteSkipData writes one skip point:

	SkipDatum --> DocSkip, PayloadLength?, FreqSkip, ProxSkip
		DocSkip, FreqSkip, ProxSkip, PayloadLength --> VInt

DocSkip is the doc delta from the previous point of the level. For
fields storing payloads it is doubled; an odd DocSkip means the
payload length changed and follows as VInt, an even one means it is
the same as at the previous point.
*/
func (w *DefaultSkipListWriter) WriteSkipData(level int, skipBuffer store.IndexOutput) (err error) {
	assert2(level < w.maxSkipLevels, "level %v >= maxSkipLevels %v", level, w.maxSkipLevels)
	delta := w.curDoc - w.lastSkipDoc[level]
	if w.curStorePayloads {
		if w.curPayloadLength == w.lastSkipPayloadLength[level] {
			// the current payload length equals the length at the
			// previous skip point, so we don't store the length again
			err = skipBuffer.WriteVInt(int32(delta * 2))
		} else {
			// the payload length is different from the previous one
			if err = skipBuffer.WriteVInt(int32(delta*2 + 1)); err == nil {
				err = skipBuffer.WriteVInt(int32(w.curPayloadLength))
			}
			w.lastSkipPayloadLength[level] = w.curPayloadLength
		}
	} else {
		// current field does not store payloads
		err = skipBuffer.WriteVInt(int32(delta))
	}
	if err != nil {
		return err
	}
	if err = skipBuffer.WriteVInt(int32(w.curFreqPointer - w.lastSkipFreqPointer[level])); err != nil {
		return err
	}
	if err = skipBuffer.WriteVInt(int32(w.curProxPointer - w.lastSkipProxPointer[level])); err != nil {
		return err
	}

	w.lastSkipDoc[level] = w.curDoc
	w.lastSkipFreqPointer[level] = w.curFreqPointer
	w.lastSkipProxPointer[level] = w.curProxPointer
	return nil
}

// Close releases the per-level state. It is idempotent.
func (w *DefaultSkipListWriter) Close() error {
	for _, l := range w.leases {
		l.Release()
	}
	w.leases = nil
	w.lastSkipDoc, w.lastSkipPayloadLength = nil, nil
	w.lastSkipFreqPointer, w.lastSkipProxPointer = nil, nil
	return nil
}
