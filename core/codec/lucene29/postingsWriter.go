package lucene29

import (
	"errors"
	"fmt"
	"io"

	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

const (
	FREQ_CODEC = "Lucene29PostingsFreq"
	PROX_CODEC = "Lucene29PostingsProx"

	POSTINGS_VERSION_START   = 0
	POSTINGS_VERSION_CURRENT = POSTINGS_VERSION_START
)

// ErrDocOrder is returned when documents of a term are not added in
// strictly increasing order.
var ErrDocOrder = errors.New("docs out of order")

/*
PostingsWriter writes the .frq and .prx files of one segment, one term
at a time:

	StartTerm(fi)
	  AddDoc(doc, freq)
	    AddPosition(pos, payload)  x freq
	  ...
	FinishTerm() -> TermInfo for the term dictionary

	FreqFile (.frq) --> Header, <TermFreqs, SkipData?>^TermCount, Footer
		TermFreqs --> <DocDelta[, Freq?]>^DocFreq
	ProxFile (.prx) --> Header, <TermPositions>^TermCount, Footer
		TermPositions --> <<PositionDelta[, PayloadLength?], PayloadData?>^Freq>^DocFreq

For fields with positions DocDelta is shifted left by one; an odd value
means freq is one and Freq is left out. Fields omitting positions write
the raw delta and nothing to the prox file. For fields storing payloads
PositionDelta is shifted left as well; an odd value means a new payload
length follows. The length carries over from the previous position of
the same term, across documents.
*/
type PostingsWriter struct {
	freqOut *store.ChecksumIndexOutput
	proxOut *store.ChecksumIndexOutput

	skipListWriter *DefaultSkipListWriter
	skipInterval   int
	totalNumDocs   int

	fieldInfo     *index.FieldInfo
	omitPositions bool
	storePayloads bool

	df        int
	lastDocID int
	freqStart int64
	proxStart int64

	lastPosition      int
	lastPayloadLength int
	pendingPositions  int
}

/*
NewPostingsWriter creates the postings files of segment. totalNumDocs
bounds the doc ids and the depth of the skip lists.
*/
func NewPostingsWriter(dir store.Directory, segment string, totalNumDocs int, conf index.Config) (w *PostingsWriter, err error) {
	assert2(totalNumDocs >= 0, "invalid totalNumDocs: %v", totalNumDocs)
	w = &PostingsWriter{
		skipInterval: conf.SkipInterval,
		totalNumDocs: totalNumDocs,
	}
	var opened []io.Closer
	success := false
	defer func() {
		if !success {
			util.CloseWhileSuppressingError(opened...)
		}
	}()

	out, err := dir.CreateOutput(util.SegmentFileName(segment, "", index.FREQ_EXTENSION))
	if err != nil {
		return nil, err
	}
	opened = append(opened, out)
	w.freqOut = store.NewChecksumIndexOutput(out)
	if err = codec.WriteHeader(w.freqOut, FREQ_CODEC, POSTINGS_VERSION_CURRENT); err != nil {
		return nil, err
	}
	if out, err = dir.CreateOutput(util.SegmentFileName(segment, "", index.PROX_EXTENSION)); err != nil {
		return nil, err
	}
	opened = append(opened, out)
	w.proxOut = store.NewChecksumIndexOutput(out)
	if err = codec.WriteHeader(w.proxOut, PROX_CODEC, POSTINGS_VERSION_CURRENT); err != nil {
		return nil, err
	}

	w.skipListWriter = NewDefaultSkipListWriter(conf.SkipInterval, conf.MaxSkipLevels,
		totalNumDocs, w.freqOut, w.proxOut)
	success = true
	log.Debugf("Writing postings of segment %v (%v docs)", segment, totalNumDocs)
	return w, nil
}

// StartTerm begins the posting list of a new term of the given field.
func (w *PostingsWriter) StartTerm(fi *index.FieldInfo) {
	assert(fi != nil)
	assert2(w.fieldInfo == nil, "term of field %v not finished", w.fieldInfo)
	w.fieldInfo = fi
	w.omitPositions = fi.OmitPositions
	w.storePayloads = !fi.OmitPositions && fi.StorePayloads

	w.freqStart = w.freqOut.FilePointer()
	w.proxStart = w.proxOut.FilePointer()
	w.df = 0
	w.lastDocID = 0
	w.lastPosition = 0
	w.lastPayloadLength = -1
	w.pendingPositions = 0
	w.skipListWriter.ResetSkip()
}

// AddDoc adds a document with termDocFreq occurrences of the current
// term. For fields with positions exactly termDocFreq calls of
// AddPosition must follow.
func (w *PostingsWriter) AddDoc(docID, termDocFreq int) (err error) {
	assert2(w.fieldInfo != nil, "no term started")
	if w.pendingPositions != 0 {
		return fmt.Errorf("doc %v is missing %v positions", w.lastDocID, w.pendingPositions)
	}
	delta := docID - w.lastDocID
	if docID < 0 || docID >= w.totalNumDocs || (w.df > 0 && delta <= 0) {
		return fmt.Errorf("%w: doc %v after %v (maxDoc=%v)", ErrDocOrder, docID, w.lastDocID, w.totalNumDocs)
	}
	if termDocFreq <= 0 {
		return fmt.Errorf("invalid freq %v for doc %v", termDocFreq, docID)
	}

	if w.df++; w.df%w.skipInterval == 0 {
		w.skipListWriter.SetSkipData(w.lastDocID, w.storePayloads, w.lastPayloadLength)
		if err = w.skipListWriter.BufferSkip(w.df); err != nil {
			return err
		}
	}
	w.lastDocID = docID

	switch {
	case w.omitPositions:
		return w.freqOut.WriteVInt(int32(delta))
	case termDocFreq == 1:
		err = w.freqOut.WriteVInt(int32(delta<<1 | 1))
	default:
		if err = w.freqOut.WriteVInt(int32(delta << 1)); err == nil {
			err = w.freqOut.WriteVInt(int32(termDocFreq))
		}
	}
	w.lastPosition = 0
	w.pendingPositions = termDocFreq
	return err
}

// AddPosition adds the next position of the current document, with an
// optional payload for fields storing payloads.
func (w *PostingsWriter) AddPosition(position int, payload []byte) (err error) {
	assert2(!w.omitPositions, "field %v omits positions", w.fieldInfo)
	if w.pendingPositions == 0 {
		return fmt.Errorf("too many positions for doc %v", w.lastDocID)
	}
	delta := position - w.lastPosition
	if delta < 0 {
		return fmt.Errorf("position %v goes backwards (last=%v)", position, w.lastPosition)
	}
	w.lastPosition = position
	w.pendingPositions--

	if !w.storePayloads {
		assert2(len(payload) == 0, "field %v does not store payloads", w.fieldInfo)
		return w.proxOut.WriteVInt(int32(delta))
	}
	if len(payload) != w.lastPayloadLength {
		w.lastPayloadLength = len(payload)
		if err = w.proxOut.WriteVInt(int32(delta<<1 | 1)); err == nil {
			err = w.proxOut.WriteVInt(int32(len(payload)))
		}
	} else {
		err = w.proxOut.WriteVInt(int32(delta << 1))
	}
	if err == nil && len(payload) > 0 {
		err = w.proxOut.WriteBytes(payload)
	}
	return err
}

// FinishTerm writes the skip data of the current term and returns
// where its postings start.
func (w *PostingsWriter) FinishTerm() (index.TermInfo, error) {
	assert2(w.fieldInfo != nil, "no term started")
	if w.pendingPositions != 0 {
		return index.TermInfo{}, fmt.Errorf("doc %v is missing %v positions", w.lastDocID, w.pendingPositions)
	}
	if w.df == 0 {
		return index.TermInfo{}, fmt.Errorf("term of field %v has no docs", w.fieldInfo.Name)
	}
	ti := index.TermInfo{
		DocFreq:     w.df,
		FreqPointer: w.freqStart,
		ProxPointer: w.proxStart,
	}
	if w.df >= w.skipInterval {
		skipPointer, err := w.skipListWriter.WriteSkip(w.freqOut)
		if err != nil {
			return index.TermInfo{}, err
		}
		ti.SkipOffset = int(skipPointer - w.freqStart)
	}
	w.fieldInfo = nil
	return ti, nil
}

// Close writes the footers and closes both files.
func (w *PostingsWriter) Close() error {
	if w.skipListWriter == nil {
		return nil
	}
	assert2(w.fieldInfo == nil, "term of field %v not finished", w.fieldInfo)
	err := codec.WriteFooter(w.freqOut)
	if err == nil {
		err = codec.WriteFooter(w.proxOut)
	}
	err = util.CloseWhileHandlingError(err, w.freqOut, w.proxOut, w.skipListWriter)
	w.skipListWriter = nil
	return err
}
