package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/TermInfosWriter.java

// ErrTermOrder is returned when terms are not added in strictly
// increasing order.
var ErrTermOrder = errors.New("terms out of order")

/*
TermInfosWriter writes the term dictionary of a segment: every term
goes to the .tis file, every IndexInterval-th one is also sampled into
the .tii file. Terms must be added in Term.Compare order.

	TermInfoFile (.tis) --> Header, TermInfo^TermCount
	TermInfoIndex (.tii) --> Header, IndexTermInfo^IndexTermCount
		Header --> Format, TermCount, IndexInterval, SkipInterval, MaxSkipLevels
			Format --> Int (-4)
			TermCount --> Long, written on Close
			IndexInterval, SkipInterval, MaxSkipLevels --> Int
		TermInfo --> Term, DocFreq, FreqDelta, ProxDelta, SkipOffset
		IndexTermInfo --> TermInfo, IndexDelta
		Term --> PrefixLength, SuffixLength, Suffix, FieldNum
			PrefixLength, SuffixLength, FieldNum --> VInt
			Suffix --> bytes
		DocFreq --> VInt
		FreqDelta, ProxDelta --> VLong. In .tis, ProxDelta is left out for
			fields omitting positions. .tii entries always have it.
		SkipOffset --> VInt, only when DocFreq >= SkipInterval
		IndexDelta --> VLong, delta of the pointer into the .tis file

Entry 0 of the .tii file is the empty term of field -1. Entry k is the
term preceding .tis entry k*IndexInterval together with the pointer to
that entry, so a reader can resume decoding there.
*/
type TermInfosWriter struct {
	fieldInfos *FieldInfos
	output     store.IndexOutput
	lastTi     TermInfo
	size       int64

	indexInterval int
	skipInterval  int
	maxSkipLevels int

	lastIndexPointer int64
	isIndex          bool
	lastTermBytes    []byte
	lastFieldNumber  int

	other *TermInfosWriter
	bloom *termBloomBuilder
}

/*
NewTermInfosWriter creates the .tis and .tii files of the segment, and
collects a bloom filter for the .tbf file when
conf.BloomFalsePositiveRate is positive.
*/
func NewTermInfosWriter(dir store.Directory, segment string, fis *FieldInfos, conf Config) (w *TermInfosWriter, err error) {
	assert2(conf.IndexInterval > 0, "indexInterval must be positive (got %v)", conf.IndexInterval)
	assert2(conf.SkipInterval > 1, "skipInterval must be > 1 (got %v)", conf.SkipInterval)
	w = &TermInfosWriter{}
	if err = w.initialize(dir, segment, fis, conf, false); err != nil {
		return nil, err
	}
	w.other = &TermInfosWriter{}
	if err = w.other.initialize(dir, segment, fis, conf, true); err != nil {
		return nil, util.CloseWhileHandlingError(err, w.output)
	}
	w.other.other = w
	if conf.BloomFalsePositiveRate > 0 {
		w.bloom = newTermBloomBuilder(dir, segment, conf.BloomFalsePositiveRate)
	}
	return w, nil
}

func (w *TermInfosWriter) initialize(dir store.Directory, segment string, fis *FieldInfos, conf Config, isIndex bool) (err error) {
	w.fieldInfos = fis
	w.indexInterval = conf.IndexInterval
	w.skipInterval = conf.SkipInterval
	w.maxSkipLevels = conf.MaxSkipLevels
	w.isIndex = isIndex
	w.lastFieldNumber = -1
	ext := TERMS_EXTENSION
	if isIndex {
		ext = TERMS_INDEX_EXTENSION
	}
	if w.output, err = dir.CreateOutput(util.SegmentFileName(segment, "", ext)); err != nil {
		return err
	}
	if err = w.writeHeader(); err != nil {
		return util.CloseWhileHandlingError(err, w.output)
	}
	return nil
}

func (w *TermInfosWriter) writeHeader() (err error) {
	if err = w.output.WriteInt(TERMS_FORMAT_CURRENT); err != nil {
		return
	}
	// leave space for size
	if err = w.output.WriteLong(0); err != nil {
		return
	}
	if err = w.output.WriteInt(int32(w.indexInterval)); err != nil {
		return
	}
	if err = w.output.WriteInt(int32(w.skipInterval)); err != nil {
		return
	}
	return w.output.WriteInt(int32(w.maxSkipLevels))
}

// Add appends a term and its metadata. Terms must be added in
// strictly increasing order, ErrTermOrder is returned otherwise.
func (w *TermInfosWriter) Add(term Term, ti TermInfo) error {
	fieldNumber := w.fieldInfos.FieldNumber(term.Field)
	if fieldNumber < 0 {
		return fmt.Errorf("field '%v' of term %v is unknown", term.Field, term)
	}
	if w.size > 0 && w.compareToLastTerm(fieldNumber, term.Text) >= 0 {
		return fmt.Errorf("%w: %v after %v:%v", ErrTermOrder,
			term, w.fieldInfos.FieldName(w.lastFieldNumber), string(w.lastTermBytes))
	}
	if w.bloom != nil {
		w.bloom.add(term)
	}
	return w.add(fieldNumber, []byte(term.Text), ti)
}

// compareToLastTerm compares the last term with the given one.
func (w *TermInfosWriter) compareToLastTerm(fieldNumber int, text string) int {
	if w.lastFieldNumber != fieldNumber {
		return strings.Compare(w.fieldInfos.FieldName(w.lastFieldNumber), w.fieldInfos.FieldName(fieldNumber))
	}
	return util.CompareBytesString(w.lastTermBytes, text)
}

func (w *TermInfosWriter) add(fieldNumber int, text []byte, ti TermInfo) (err error) {
	assert2(ti.FreqPointer >= w.lastTi.FreqPointer, "freqPointer out of order (%v < %v)",
		ti.FreqPointer, w.lastTi.FreqPointer)
	// index entries always record the prox pointer, they are not
	// contiguous in the terms stream and cannot carry it forward
	omitPositions := !w.isIndex && omitsPositions(w.fieldInfos, fieldNumber)
	if omitPositions {
		// the prox pointer is not written, readers keep the previous one
		ti.ProxPointer = w.lastTi.ProxPointer
	}
	assert2(ti.ProxPointer >= w.lastTi.ProxPointer, "proxPointer out of order (%v < %v)",
		ti.ProxPointer, w.lastTi.ProxPointer)

	if !w.isIndex && w.size%int64(w.indexInterval) == 0 {
		// add an index term
		if err = w.other.add(w.lastFieldNumber, w.lastTermBytes, w.lastTi); err != nil {
			return err
		}
	}

	// write term
	if err = w.writeTerm(fieldNumber, text); err != nil {
		return err
	}
	// write doc freq
	if err = w.output.WriteVInt(int32(ti.DocFreq)); err != nil {
		return err
	}
	// write pointers
	if err = w.output.WriteVLong(ti.FreqPointer - w.lastTi.FreqPointer); err != nil {
		return err
	}
	if !omitPositions {
		if err = w.output.WriteVLong(ti.ProxPointer - w.lastTi.ProxPointer); err != nil {
			return err
		}
	}
	if ti.DocFreq >= w.skipInterval {
		if err = w.output.WriteVInt(int32(ti.SkipOffset)); err != nil {
			return err
		}
	}

	if w.isIndex {
		pointer := w.other.output.FilePointer()
		if err = w.output.WriteVLong(pointer - w.lastIndexPointer); err != nil {
			return err
		}
		w.lastIndexPointer = pointer
	}

	w.lastFieldNumber = fieldNumber
	w.lastTi = ti
	w.size++
	return nil
}

func (w *TermInfosWriter) writeTerm(fieldNumber int, text []byte) (err error) {
	// compute prefix in common with last term
	start := 0
	for limit := min(len(text), len(w.lastTermBytes)); start < limit; start++ {
		if text[start] != w.lastTermBytes[start] {
			break
		}
	}

	length := len(text) - start
	if err = w.output.WriteVInt(int32(start)); err != nil { // write shared prefix length
		return
	}
	if err = w.output.WriteVInt(int32(length)); err != nil { // write delta length
		return
	}
	if err = w.output.WriteBytes(text[start:]); err != nil { // write delta bytes
		return
	}
	if err = w.output.WriteVInt(int32(fieldNumber)); err != nil { // write field num
		return
	}
	w.lastTermBytes = append(w.lastTermBytes[:0], text...)
	return nil
}

// Size returns the number of terms added so far.
func (w *TermInfosWriter) Size() int64 {
	return w.size
}

// Close back-patches the term counts and closes both files, then
// writes the bloom filter if one was collected.
func (w *TermInfosWriter) Close() error {
	err := w.close()
	if err2 := w.other.close(); err == nil {
		err = err2
	}
	if w.bloom != nil && err == nil {
		err = w.bloom.write()
	}
	return err
}

func (w *TermInfosWriter) close() (err error) {
	if w.output == nil {
		return nil
	}
	defer func() {
		err = util.CloseWhileHandlingError(err, w.output)
		w.output = nil
	}()
	if err = w.output.Seek(4); err != nil { // write size after format
		return err
	}
	return w.output.WriteLong(w.size)
}
