package index

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// index/TermInfosReader.java

// ErrIndexNotLoaded is returned by lookups on a reader opened with
// index divisor -1.
var ErrIndexNotLoaded = errors.New("terms index was not loaded when this reader was created")

/*
Cursor is a scan position over the term dictionary owned by one
caller. Lookups through the same cursor in increasing term order scan
forward instead of seeking. A Cursor is not safe for concurrent use
and must be closed by its owner.
*/
type Cursor struct {
	enum *SegmentTermEnum
}

func (c *Cursor) Close() error {
	if c == nil {
		return nil
	}
	return c.enum.Close()
}

/*
TermInfosReader looks up terms in a segment's term dictionary.

The sampled terms index is loaded into pooled memory when the reader
is opened and shared read-only afterwards. Lookups through Get borrow
a cursor from a per-reader pool; callers that want sequential scans to
stay cheap hold their own Cursor and call GetWith instead.
*/
type TermInfosReader struct {
	directory  store.Directory
	segment    string
	fieldInfos *FieldInfos

	origEnum *SegmentTermEnum
	size     int64

	indexLoaded bool
	// number of sampled entries
	indexLength        int
	totalIndexInterval int
	indexTexts         []util.StringHandle
	arena              *util.StringArena
	leases             []interface{ Release() }
	indexFields        []int
	indexDocFreqs      []int
	indexSkipOffsets   []int
	indexFreqPointers  []int64
	indexProxPointers  []int64
	indexPointers      []int64

	cache           *lru.Cache[Term, TermInfo]
	minScansToCache int
	bloom           *bloom.BloomFilter

	cursorLock sync.Mutex
	cursors    []*Cursor // LIFO
	closed     bool
}

/*
OpenTermInfosReader opens the segment's .tis file and, unless
conf.IndexDivisor is -1, loads every IndexDivisor-th entry of its .tii
file. Everything opened so far is closed again when it fails.
*/
func OpenTermInfosReader(dir store.Directory, segment string, fis *FieldInfos, conf Config) (_ *TermInfosReader, err error) {
	assert2(conf.IndexDivisor >= 1 || conf.IndexDivisor == -1,
		"indexDivisor must be -1 (don't load terms index) or greater than 0: got %v", conf.IndexDivisor)
	assert2(conf.TermCacheSize > 0, "termCacheSize must be positive: got %v", conf.TermCacheSize)

	r := &TermInfosReader{
		directory:       dir,
		segment:         segment,
		fieldInfos:      fis,
		minScansToCache: conf.MinScansToCache,
	}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	if r.cache, err = lru.New[Term, TermInfo](conf.TermCacheSize); err != nil {
		return nil, err
	}

	input, err := dir.OpenInput(util.SegmentFileName(segment, "", TERMS_EXTENSION), conf.ReadBufferSize)
	if err != nil {
		return nil, err
	}
	if r.origEnum, err = NewSegmentTermEnum(input, fis, false); err != nil {
		return nil, err
	}
	r.size = r.origEnum.Size()

	if conf.IndexDivisor != -1 {
		r.totalIndexInterval = r.origEnum.IndexInterval() * conf.IndexDivisor
		if err = r.loadIndex(conf.IndexDivisor, conf.ReadBufferSize); err != nil {
			return nil, err
		}
	} else {
		// do not load terms index
		r.totalIndexInterval = -1
	}

	if conf.UseBloomFilter {
		if r.bloom, err = readTermBloom(dir, segment, conf.ReadBufferSize); err != nil {
			return nil, err
		}
	}
	log.Debugf("Opened term dictionary of segment %v: %v terms, %v index entries, bloom=%v",
		segment, r.size, r.indexLength, r.bloom != nil)
	return r, nil
}

func (r *TermInfosReader) loadIndex(divisor, bufferSize int) (err error) {
	input, err := r.directory.OpenInput(util.SegmentFileName(r.segment, "", TERMS_INDEX_EXTENSION), bufferSize)
	if err != nil {
		return err
	}
	indexEnum, err := NewSegmentTermEnum(input, r.fieldInfos, true)
	if err != nil {
		return err
	}
	defer func() {
		err = util.CloseWhileHandlingError(err, indexEnum)
	}()

	indexSize := 0
	if n := indexEnum.Size(); n > 0 {
		indexSize = int(1 + (n-1)/int64(divisor))
	}
	r.allocateIndex(indexSize)

	for i := 0; i < indexSize; i++ {
		ok, err := indexEnum.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if r.indexTexts[i], err = r.arena.Add(indexEnum.termBuffer.text); err != nil {
			return err
		}
		ti := indexEnum.TermInfo()
		r.indexFields[i] = indexEnum.termBuffer.field
		r.indexDocFreqs[i] = ti.DocFreq
		r.indexSkipOffsets[i] = ti.SkipOffset
		r.indexFreqPointers[i] = ti.FreqPointer
		r.indexProxPointers[i] = ti.ProxPointer
		r.indexPointers[i] = indexEnum.IndexPointer()
		r.indexLength = i + 1

		for j := 1; j < divisor; j++ {
			if ok, err = indexEnum.Next(); err != nil {
				return err
			} else if !ok {
				break
			}
		}
	}
	r.arena.Freeze()
	r.indexLoaded = true
	return nil
}

func (r *TermInfosReader) allocateIndex(size int) {
	pool := util.DefaultPool
	fields := pool.RentInts(size, false)
	docFreqs := pool.RentInts(size, false)
	skipOffsets := pool.RentInts(size, false)
	freqPointers := pool.RentLongs(size)
	proxPointers := pool.RentLongs(size)
	pointers := pool.RentLongs(size)
	r.leases = append(r.leases, fields, docFreqs, skipOffsets, freqPointers, proxPointers, pointers)
	r.indexFields = fields.Slice()
	r.indexDocFreqs = docFreqs.Slice()
	r.indexSkipOffsets = skipOffsets.Slice()
	r.indexFreqPointers = freqPointers.Slice()
	r.indexProxPointers = proxPointers.Slice()
	r.indexPointers = pointers.Slice()
	r.indexTexts = make([]util.StringHandle, size)
	r.arena = util.NewStringArena(pool)
}

func (r *TermInfosReader) SkipInterval() int {
	return r.origEnum.SkipInterval()
}

func (r *TermInfosReader) MaxSkipLevels() int {
	return r.origEnum.MaxSkipLevels()
}

// Size returns the number of terms in the dictionary.
func (r *TermInfosReader) Size() int64 {
	return r.size
}

// Close releases the terms index and closes every stream and pooled
// cursor. It is idempotent.
func (r *TermInfosReader) Close() error {
	r.cursorLock.Lock()
	if r.closed {
		r.cursorLock.Unlock()
		return nil
	}
	r.closed = true
	cursors := r.cursors
	r.cursors = nil
	r.cursorLock.Unlock()

	closers := []io.Closer{r.origEnum}
	for _, c := range cursors {
		closers = append(closers, c)
	}
	err := util.Close(closers...)

	for _, l := range r.leases {
		l.Release()
	}
	r.leases = nil
	r.indexFields, r.indexDocFreqs, r.indexSkipOffsets = nil, nil, nil
	r.indexFreqPointers, r.indexProxPointers, r.indexPointers = nil, nil, nil
	r.indexTexts = nil
	r.indexLength = 0
	if r.arena != nil {
		r.arena.Release()
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	log.Debugf("Closed term dictionary of segment %v", r.segment)
	return err
}

func (r *TermInfosReader) ensureOpen() {
	assert2(!r.closed, "term dictionary of segment %v already closed", r.segment)
}

// NewCursor returns a cursor owned by the caller.
func (r *TermInfosReader) NewCursor() *Cursor {
	r.ensureOpen()
	return &Cursor{r.origEnum.Clone()}
}

// borrow hands out the most recently returned cursor, so that a
// goroutine doing sorted lookups tends to get its scan position back.
func (r *TermInfosReader) borrow() *Cursor {
	r.cursorLock.Lock()
	if n := len(r.cursors); n > 0 {
		c := r.cursors[n-1]
		r.cursors = r.cursors[:n-1]
		r.cursorLock.Unlock()
		return c
	}
	r.cursorLock.Unlock()
	return r.NewCursor()
}

func (r *TermInfosReader) giveBack(c *Cursor) {
	r.cursorLock.Lock()
	defer r.cursorLock.Unlock()
	if r.closed {
		c.Close()
		return
	}
	r.cursors = append(r.cursors, c)
}

func (r *TermInfosReader) indexFieldName(i int) string {
	return r.fieldInfos.FieldName(r.indexFields[i])
}

// compareIndexTerm compares term with the i-th index entry.
func (r *TermInfosReader) compareIndexTerm(term Term, i int) int {
	if name := r.indexFieldName(i); term.Field != name {
		return strings.Compare(term.Field, name)
	}
	return -r.arena.CompareBytes(r.indexTexts[i], term.Text)
}

// indexOffset returns the offset of the greatest index entry which is
// less than or equal to term.
func (r *TermInfosReader) indexOffset(term Term) int {
	lo, hi := 0, r.indexLength-1
	for hi >= lo {
		mid := int(uint(lo+hi) >> 1)
		if delta := r.compareIndexTerm(term, mid); delta < 0 {
			hi = mid - 1
		} else if delta > 0 {
			lo = mid + 1
		} else {
			return mid
		}
	}
	return hi
}

func (r *TermInfosReader) seekEnum(enum *SegmentTermEnum, offset int) error {
	termSeeks.Inc()
	return enum.Seek(r.indexPointers[offset],
		int64(offset)*int64(r.totalIndexInterval)-1,
		r.indexFields[offset], r.arena.Bytes(r.indexTexts[offset]),
		TermInfo{
			DocFreq:     r.indexDocFreqs[offset],
			FreqPointer: r.indexFreqPointers[offset],
			ProxPointer: r.indexProxPointers[offset],
			SkipOffset:  r.indexSkipOffsets[offset],
		})
}

func (r *TermInfosReader) ensureIndexIsRead() error {
	if !r.indexLoaded {
		return fmt.Errorf("%w (segment %v)", ErrIndexNotLoaded, r.segment)
	}
	return nil
}

// Get returns the TermInfo of a term, or false if the term is absent.
// A term of an unnamed field never matches the index sentinel entry.
func (r *TermInfosReader) Get(term Term) (TermInfo, bool, error) {
	r.ensureOpen()
	if r.size == 0 {
		return TermInfo{}, false, nil
	}
	if err := r.ensureIndexIsRead(); err != nil {
		return TermInfo{}, false, err
	}
	if ti, found, done := r.quickGet(term); done {
		return ti, found, nil
	}
	c := r.borrow()
	defer r.giveBack(c)
	return r.get(c.enum, term, true)
}

// GetWith looks up a term scanning from, or repositioning, the given
// cursor.
func (r *TermInfosReader) GetWith(c *Cursor, term Term) (TermInfo, bool, error) {
	r.ensureOpen()
	if r.size == 0 {
		return TermInfo{}, false, nil
	}
	if err := r.ensureIndexIsRead(); err != nil {
		return TermInfo{}, false, err
	}
	if ti, found, done := r.quickGet(term); done {
		return ti, found, nil
	}
	return r.get(c.enum, term, true)
}

// quickGet answers a lookup without touching the streams when the term
// is cached or ruled out by the bloom filter.
func (r *TermInfosReader) quickGet(term Term) (ti TermInfo, found, done bool) {
	if ti, found = r.cache.Get(term); found {
		termCacheHits.Inc()
		return ti, true, true
	}
	termCacheMisses.Inc()
	if r.bloom != nil && !mayContain(r.bloom, term) {
		termBloomRejects.Inc()
		return TermInfo{}, false, true
	}
	return TermInfo{}, false, false
}

func (r *TermInfosReader) get(enum *SegmentTermEnum, term Term, useCache bool) (TermInfo, bool, error) {
	// optimize sequential access: first try scanning cached enum w/o seeking
	if enum.termBuffer.valid &&
		((enum.prevBuffer.valid && enum.prevBuffer.compareTo(term) > 0) || enum.termBuffer.compareTo(term) >= 0) {
		enumOffset := int(enum.position/int64(r.totalIndexInterval)) + 1
		if r.indexLength == enumOffset || r.compareIndexTerm(term, enumOffset) < 0 {
			// no need to seek
			numScans, err := enum.ScanTo(term)
			if err != nil {
				return TermInfo{}, false, err
			}
			if enum.termBuffer.matches(term) {
				ti := enum.TermInfo()
				// only cache a term the scan had to skip some entries for,
				// range scans would flush the cache otherwise
				if useCache && numScans > r.minScansToCache {
					r.cache.Add(term, ti)
				}
				return ti, true, nil
			}
			return TermInfo{}, false, nil
		}
	}

	// random-access: must seek
	if err := r.seekEnum(enum, r.indexOffset(term)); err != nil {
		return TermInfo{}, false, err
	}
	if _, err := enum.ScanTo(term); err != nil {
		return TermInfo{}, false, err
	}
	if enum.termBuffer.matches(term) {
		ti := enum.TermInfo()
		if useCache {
			r.cache.Add(term, ti)
		}
		return ti, true, nil
	}
	return TermInfo{}, false, nil
}

// GetPosition returns the ordinal of a term, or -1 if it is absent.
// It never uses the cache.
func (r *TermInfosReader) GetPosition(term Term) (int64, error) {
	r.ensureOpen()
	if r.size == 0 {
		return -1, nil
	}
	if err := r.ensureIndexIsRead(); err != nil {
		return -1, err
	}
	c := r.borrow()
	defer r.giveBack(c)
	return r.getPosition(c.enum, term)
}

// GetPositionWith is GetPosition on a cursor owned by the caller.
func (r *TermInfosReader) GetPositionWith(c *Cursor, term Term) (int64, error) {
	r.ensureOpen()
	if r.size == 0 {
		return -1, nil
	}
	if err := r.ensureIndexIsRead(); err != nil {
		return -1, err
	}
	return r.getPosition(c.enum, term)
}

func (r *TermInfosReader) getPosition(enum *SegmentTermEnum, term Term) (int64, error) {
	if err := r.seekEnum(enum, r.indexOffset(term)); err != nil {
		return -1, err
	}
	for enum.termBuffer.valid && enum.termBuffer.compareTo(term) > 0 {
		ok, err := enum.Next()
		if err != nil {
			return -1, err
		}
		if !ok {
			break
		}
	}
	if enum.termBuffer.matches(term) {
		return enum.Position(), nil
	}
	return -1, nil
}

// Terms returns a cursor over all terms, positioned before the first
// one. The caller owns and must close it.
func (r *TermInfosReader) Terms() *SegmentTermEnum {
	r.ensureOpen()
	return r.origEnum.Clone()
}

// TermsFrom returns a cursor positioned at the first term not less
// than term. The caller owns and must close it.
func (r *TermInfosReader) TermsFrom(term Term) (*SegmentTermEnum, error) {
	r.ensureOpen()
	if r.size == 0 {
		return r.origEnum.Clone(), nil
	}
	if err := r.ensureIndexIsRead(); err != nil {
		return nil, err
	}
	c := r.borrow()
	defer r.giveBack(c)
	// don't use the cache in this call because we want to reposition
	// the enumeration
	if _, _, err := r.get(c.enum, term, false); err != nil {
		return nil, err
	}
	enum := c.enum.Clone()
	if enum.termBuffer.valid && enum.termBuffer.field < 0 {
		// parked on the index sentinel, step onto the first real term
		if _, err := enum.Next(); err != nil {
			return nil, util.CloseWhileHandlingError(err, enum)
		}
	}
	return enum, nil
}

func (r *TermInfosReader) String() string {
	return fmt.Sprintf("TermInfosReader(segment=%v, size=%v)", r.segment, r.size)
}
