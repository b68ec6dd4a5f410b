package lucene29

import (
	"fmt"
	"io"

	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

/*
PostingsReader opens the .frq and .prx files of a segment and hands out
SegmentTermDocs and SegmentTermPositions over clones of them. The term
dictionary and the deleted docs are shared, not owned.
*/
type PostingsReader struct {
	freqIn store.IndexInput
	proxIn store.IndexInput

	fieldInfos  *index.FieldInfos
	terms       *index.TermInfosReader
	deletedDocs util.Bits

	skipInterval       int
	maxSkipLevels      int
	skipLevelsToBuffer int
}

/*
OpenPostingsReader opens the postings of segment. deletedDocs is nil
when the segment has no deletions.
*/
func OpenPostingsReader(dir store.Directory, segment string, fis *index.FieldInfos,
	terms *index.TermInfosReader, deletedDocs *util.RoaringBits, conf index.Config) (r *PostingsReader, err error) {

	assert(fis != nil && terms != nil)
	r = &PostingsReader{
		fieldInfos:         fis,
		terms:              terms,
		skipInterval:       terms.SkipInterval(),
		maxSkipLevels:      terms.MaxSkipLevels(),
		skipLevelsToBuffer: conf.SkipLevelsToBuffer,
	}
	if deletedDocs != nil {
		r.deletedDocs = deletedDocs
	}
	var opened []io.Closer
	success := false
	defer func() {
		if !success {
			util.CloseWhileSuppressingError(opened...)
		}
	}()

	if r.freqIn, err = openPostingsFile(dir, segment, index.FREQ_EXTENSION, FREQ_CODEC, conf.ReadBufferSize); err != nil {
		return nil, err
	}
	opened = append(opened, r.freqIn)
	if r.proxIn, err = openPostingsFile(dir, segment, index.PROX_EXTENSION, PROX_CODEC, conf.ReadBufferSize); err != nil {
		return nil, err
	}
	success = true
	log.Debugf("Opened postings of segment %v", segment)
	return r, nil
}

func openPostingsFile(dir store.Directory, segment, ext, codecName string, bufferSize int) (in store.IndexInput, err error) {
	if in, err = dir.OpenInput(util.SegmentFileName(segment, "", ext), bufferSize); err != nil {
		return nil, err
	}
	if _, err = codec.CheckHeader(in, codecName, POSTINGS_VERSION_START, POSTINGS_VERSION_CURRENT); err == nil {
		// NOTE: data file is too costly to verify checksum against all the
		// bytes on open, but for now we at least verify proper structure of
		// the checksum footer
		_, err = codec.RetrieveChecksum(in)
	}
	if err != nil {
		return nil, util.CloseWhileHandlingError(err, in)
	}
	return in, nil
}

// TermDocs returns an unpositioned SegmentTermDocs, to be placed with
// Seek, SeekTerm or SeekEnum.
func (r *PostingsReader) TermDocs() *SegmentTermDocs {
	r.ensureOpen()
	return newSegmentTermDocs(r)
}

// TermDocsFor returns a SegmentTermDocs over the docs of term. An
// absent term gives one without docs.
func (r *PostingsReader) TermDocsFor(term index.Term) (*SegmentTermDocs, error) {
	ans := r.TermDocs()
	if err := ans.SeekTerm(term); err != nil {
		return nil, util.CloseWhileHandlingError(err, ans)
	}
	return ans, nil
}

// TermPositions returns an unpositioned SegmentTermPositions.
func (r *PostingsReader) TermPositions() *SegmentTermPositions {
	r.ensureOpen()
	return newSegmentTermPositions(r)
}

// TermPositionsFor returns a SegmentTermPositions over the docs and
// positions of term.
func (r *PostingsReader) TermPositionsFor(term index.Term) (*SegmentTermPositions, error) {
	ans := r.TermPositions()
	if err := ans.SeekTerm(term); err != nil {
		return nil, util.CloseWhileHandlingError(err, ans)
	}
	return ans, nil
}

// Verify checks the footers of both postings files against their
// content.
func (r *PostingsReader) Verify() error {
	r.ensureOpen()
	if _, err := codec.ChecksumEntireFile(r.freqIn); err != nil {
		return err
	}
	_, err := codec.ChecksumEntireFile(r.proxIn)
	return err
}

func (r *PostingsReader) ensureOpen() {
	assert2(r.freqIn != nil, "postings reader already closed")
}

// Close closes the postings files. Term docs handed out before must be
// closed by their owners.
func (r *PostingsReader) Close() error {
	if r.freqIn == nil {
		return nil
	}
	err := util.Close(r.freqIn, r.proxIn)
	r.freqIn, r.proxIn = nil, nil
	return err
}

func (r *PostingsReader) String() string {
	return fmt.Sprintf("PostingsReader(%v, %v)", r.freqIn, r.proxIn)
}
