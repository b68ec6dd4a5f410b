package lucene29

import (
	"io"

	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/SegmentTermDocs.java

// Hooks SegmentTermPositions overrides; SkipTo and Next call them
// through the spi so the positions variant sees every doc.
type termDocsSPI interface {
	Seek(ti index.TermInfo, fi *index.FieldInfo) error
	Next() (bool, error)
	skippingDoc()
	skipProx(proxPointer int64, payloadLength int)
}

/*
SegmentTermDocs enumerates the docs of one term, skipping deleted ones.
It is not safe for concurrent use; each goroutine takes its own from
the PostingsReader.
*/
type SegmentTermDocs struct {
	spi    termDocsSPI
	parent *PostingsReader

	freqStream  store.IndexInput
	count       int
	df          int
	deletedDocs util.Bits
	doc         int
	freq        int

	skipInterval   int
	maxSkipLevels  int
	skipListReader *DefaultSkipListReader

	freqBasePointer int64
	proxBasePointer int64
	skipPointer     int64
	haveSkipped     bool

	currentFieldStoresPayloads bool
	currentFieldOmitPositions  bool
}

func newSegmentTermDocs(parent *PostingsReader) *SegmentTermDocs {
	ans := &SegmentTermDocs{
		parent:        parent,
		freqStream:    parent.freqIn.Clone(),
		deletedDocs:   parent.deletedDocs,
		skipInterval:  parent.skipInterval,
		maxSkipLevels: parent.maxSkipLevels,
	}
	ans.spi = ans
	return ans
}

/*
Seek positions on the postings described by ti. A zero TermInfo, as
returned for absent terms, leaves nothing to enumerate. fi may be nil
for an unknown field.
*/
func (d *SegmentTermDocs) Seek(ti index.TermInfo, fi *index.FieldInfo) error {
	d.count = 0
	if fi != nil {
		d.currentFieldOmitPositions = fi.OmitPositions
		d.currentFieldStoresPayloads = fi.StorePayloads
	} else {
		d.currentFieldOmitPositions = false
		d.currentFieldStoresPayloads = false
	}
	if ti.DocFreq == 0 {
		d.df = 0
		return nil
	}
	d.df = ti.DocFreq
	d.doc = 0
	d.freqBasePointer = ti.FreqPointer
	d.proxBasePointer = ti.ProxPointer
	d.skipPointer = d.freqBasePointer + int64(ti.SkipOffset)
	d.haveSkipped = false
	return d.freqStream.Seek(d.freqBasePointer)
}

// SeekTerm looks term up in the term dictionary and positions on its
// postings.
func (d *SegmentTermDocs) SeekTerm(term index.Term) error {
	ti, _, err := d.parent.terms.Get(term)
	if err != nil {
		return err
	}
	return d.spi.Seek(ti, d.parent.fieldInfos.ByName(term.Field))
}

// SeekEnum positions on the postings of the current term of enum,
// without another dictionary lookup.
func (d *SegmentTermDocs) SeekEnum(enum *index.SegmentTermEnum) error {
	term, ok := enum.Term()
	if !ok {
		return d.spi.Seek(index.TermInfo{}, nil)
	}
	return d.spi.Seek(enum.TermInfo(), d.parent.fieldInfos.ByName(term.Field))
}

func (d *SegmentTermDocs) Doc() int {
	return d.doc
}

func (d *SegmentTermDocs) Freq() int {
	return d.freq
}

// DocFreq returns the number of docs of the current term, deleted ones
// included.
func (d *SegmentTermDocs) DocFreq() int {
	return d.df
}

func (d *SegmentTermDocs) skippingDoc() {}

// skipProx is called by SkipTo after the freq stream moved.
func (d *SegmentTermDocs) skipProx(proxPointer int64, payloadLength int) {}

func (d *SegmentTermDocs) readDoc() error {
	docCode, err := d.freqStream.ReadVInt()
	if err != nil {
		return err
	}
	if d.currentFieldOmitPositions {
		d.doc += int(docCode)
		d.freq = 1
	} else {
		d.doc += int(uint32(docCode) >> 1) // shift off low bit
		if docCode&1 != 0 {                // if low bit is set
			d.freq = 1 // freq is one
		} else {
			f, err := d.freqStream.ReadVInt() // else read freq
			if err != nil {
				return err
			}
			d.freq = int(f)
		}
	}
	d.count++
	return nil
}

// Next moves to the next live doc. It returns false at the end.
func (d *SegmentTermDocs) Next() (bool, error) {
	for {
		if d.count == d.df {
			return false, nil
		}
		if err := d.readDoc(); err != nil {
			return false, err
		}
		if d.deletedDocs == nil || !d.deletedDocs.At(d.doc) {
			return true, nil
		}
		d.spi.skippingDoc()
	}
}

/*
Read fills docs and freqs with the next live docs and returns how many
it filled. Zero means the end was reached.
*/
func (d *SegmentTermDocs) Read(docs, freqs []int) (int, error) {
	assert2(len(freqs) >= len(docs), "freqs shorter than docs: %v < %v", len(freqs), len(docs))
	i := 0
	for i < len(docs) && d.count < d.df {
		if err := d.readDoc(); err != nil {
			return i, err
		}
		if d.deletedDocs == nil || !d.deletedDocs.At(d.doc) {
			docs[i] = d.doc
			freqs[i] = d.freq
			i++
		}
	}
	return i, nil
}

/*
SkipTo moves to the first live doc whose number is greater than or
equal to target, and returns false if there is none. Posting lists
with at least skipInterval docs jump through their skip list first,
the rest is a linear scan.
*/
func (d *SegmentTermDocs) SkipTo(target int) (bool, error) {
	if d.df >= d.skipInterval { // optimized case
		if d.skipListReader == nil {
			// lazily clone
			d.skipListReader = NewDefaultSkipListReader(d.freqStream.Clone(), d.maxSkipLevels, d.skipInterval)
			d.skipListReader.SetNumberOfLevelsToBuffer(d.parent.skipLevelsToBuffer)
		}
		if !d.haveSkipped { // lazily initialize skip stream
			d.skipListReader.Init(d.skipPointer, d.freqBasePointer, d.proxBasePointer, d.df, d.currentFieldStoresPayloads)
			d.haveSkipped = true
		}

		newCount, err := d.skipListReader.SkipTo(target)
		if err != nil {
			return false, err
		}
		if newCount > d.count {
			if err = d.freqStream.Seek(d.skipListReader.FreqPointer()); err != nil {
				return false, err
			}
			d.spi.skipProx(d.skipListReader.ProxPointer(), d.skipListReader.PayloadLength())
			d.doc = d.skipListReader.Doc()
			d.count = newCount
		}
	}

	// done skipping, now just scan
	for {
		ok, err := d.spi.Next()
		if err != nil || !ok {
			return false, err
		}
		if target <= d.doc {
			return true, nil
		}
	}
}

// Close closes the streams of this enumeration. It is idempotent.
func (d *SegmentTermDocs) Close() error {
	closers := []io.Closer{d.freqStream}
	if d.skipListReader != nil {
		closers = append(closers, d.skipListReader)
	}
	d.freqStream, d.skipListReader = nil, nil
	return util.Close(closers...)
}
