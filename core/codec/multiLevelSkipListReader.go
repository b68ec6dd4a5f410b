package codec

import (
	"fmt"
	"math"

	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// SkipFormatReader decodes the payload of skip points.
type SkipFormatReader interface {
	// ReadSkipData reads the next skip point of the given level and
	// returns its document delta.
	ReadSkipData(level int, skipStream store.IndexInput) (int, error)
	// SeekChild is called after the given level was positioned on the
	// point a higher level pointed to.
	SeekChild(level int)
	// SetLastSkipData records the current point of the given level as
	// the last one passed over.
	SetLastSkipData(level int)
}

/*
MultiLevelSkipListReader reads skip lists with multiple levels.

See MultiLevelSkipListWriter for the format. Each level has its own
stream; the top levels are loaded into memory, the others are read
through clones of the base stream. SkipTo walks down from the highest
level that has a point beyond the target.

The reader owns the base stream it is created with and closes it in
Close.
*/
type MultiLevelSkipListReader struct {
	spi SkipFormatReader

	// the maximum number of skip levels possible for this index
	maxNumberOfSkipLevels int
	// number of levels in this skip list
	numberOfSkipLevels int
	// top levels copied into memory on load
	numberOfLevelsToBuffer int

	docCount    int
	haveSkipped bool

	skipStream []store.IndexInput

	leases       []interface{ Release() }
	skipPointer  []int64 // the start pointer of each skip level
	skipInterval []int   // skipInterval of each level
	numSkipped   []int   // number of docs skipped per level
	skipDoc      []int   // doc id of current skip entry per level
	childPointer []int64 // child pointer of current skip entry per level

	lastDoc          int   // doc id of last read skip entry with docId <= target
	lastChildPointer int64 // childPointer of last read skip entry with docId <= target

	inputIsBuffered bool
	closed          bool
}

func NewMultiLevelSkipListReader(spi SkipFormatReader, skipStream store.IndexInput,
	maxSkipLevels, skipInterval int) *MultiLevelSkipListReader {
	assert2(maxSkipLevels > 0, "maxSkipLevels must be positive (got %v)", maxSkipLevels)
	pool := util.DefaultPool
	skipPointer := pool.RentLongs(maxSkipLevels)
	intervals := pool.RentInts(maxSkipLevels, false)
	numSkipped := pool.RentInts(maxSkipLevels, true)
	skipDoc := pool.RentInts(maxSkipLevels, true)
	childPointer := pool.RentLongs(maxSkipLevels)
	ans := &MultiLevelSkipListReader{
		spi:                    spi,
		maxNumberOfSkipLevels:  maxSkipLevels,
		numberOfLevelsToBuffer: 1,
		skipStream:             make([]store.IndexInput, maxSkipLevels),
		leases:                 []interface{ Release() }{skipPointer, intervals, numSkipped, skipDoc, childPointer},
		skipPointer:            skipPointer.Slice(),
		skipInterval:           intervals.Slice(),
		numSkipped:             numSkipped.Slice(),
		skipDoc:                skipDoc.Slice(),
		childPointer:           childPointer.Slice(),
	}
	clear(ans.skipPointer)
	clear(ans.childPointer)
	ans.skipStream[0] = skipStream
	_, ans.inputIsBuffered = skipStream.(*store.BufferedIndexInput)
	ans.skipInterval[0] = skipInterval
	for i := 1; i < maxSkipLevels; i++ {
		// cache skip intervals
		ans.skipInterval[i] = ans.skipInterval[i-1] * skipInterval
	}
	return ans
}

// SetNumberOfLevelsToBuffer sets how many top levels are copied into
// memory when the skip list is loaded.
func (r *MultiLevelSkipListReader) SetNumberOfLevelsToBuffer(n int) {
	assert2(n >= 0, "invalid number of levels to buffer: %v", n)
	r.numberOfLevelsToBuffer = n
}

func (r *MultiLevelSkipListReader) MaxNumberOfSkipLevels() int {
	return r.maxNumberOfSkipLevels
}

// NumberOfSkipLevels returns the number of levels still in use.
func (r *MultiLevelSkipListReader) NumberOfSkipLevels() int {
	return r.numberOfSkipLevels
}

func (r *MultiLevelSkipListReader) checkLevel(level int) {
	assert2(level >= 0 && level < r.maxNumberOfSkipLevels,
		"skip level %v out of range [0,%v)", level, r.maxNumberOfSkipLevels)
}

// SkipInterval returns the skip interval of the given level.
func (r *MultiLevelSkipListReader) SkipInterval(level int) int {
	r.checkLevel(level)
	return r.skipInterval[level]
}

// Doc returns the id of the doc to which the last call of SkipTo() has
// skipped.
func (r *MultiLevelSkipListReader) Doc() int {
	return r.lastDoc
}

/*
SkipTo skips entries to the first beyond the current whose document
number is greater than or equal to target. Returns the number of
documents in the posting list before the point it stopped at, minus
one. The result is -skipInterval-1 while no skip point was loaded.
*/
func (r *MultiLevelSkipListReader) SkipTo(target int) (int, error) {
	r.ensureOpen()
	if !r.haveSkipped {
		// first time, load skip levels
		if err := r.loadSkipLevels(); err != nil {
			return 0, err
		}
		r.haveSkipped = true
	}

	// walk up the levels until highest level is found that has a skip
	// for this target
	level := 0
	for level < r.numberOfSkipLevels-1 && target > r.skipDoc[level+1] {
		level++
	}

	for level >= 0 {
		if target > r.skipDoc[level] {
			ok, err := r.loadNextSkip(level)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
		} else {
			// no more skips on this level, go down one level
			if level > 0 && r.lastChildPointer > r.skipStream[level-1].FilePointer() {
				if err := r.seekChild(level - 1); err != nil {
					return 0, err
				}
			}
			level--
		}
	}

	return r.numSkipped[0] - r.skipInterval[0] - 1, nil
}

func (r *MultiLevelSkipListReader) loadNextSkip(level int) (bool, error) {
	r.checkLevel(level)
	// we have to skip, the target document is greater than the current
	// skip list entry
	r.setLastSkipData(level)

	r.numSkipped[level] += r.skipInterval[level]

	if r.numSkipped[level] > r.docCount {
		// this skip list is exhausted
		r.skipDoc[level] = math.MaxInt32
		if r.numberOfSkipLevels > level {
			r.numberOfSkipLevels = level
		}
		return false, nil
	}

	// read next skip entry
	delta, err := r.spi.ReadSkipData(level, r.skipStream[level])
	if err != nil {
		return false, err
	}
	r.skipDoc[level] += delta

	if level != 0 {
		// read the child pointer if we are not on the leaf level
		p, err := r.skipStream[level].ReadVLong()
		if err != nil {
			return false, err
		}
		r.childPointer[level] = p + r.skipPointer[level-1]
	}
	return true, nil
}

// seekChild positions the given level on the point the level above
// pointed to.
func (r *MultiLevelSkipListReader) seekChild(level int) error {
	r.checkLevel(level)
	if err := r.skipStream[level].Seek(r.lastChildPointer); err != nil {
		return err
	}
	r.numSkipped[level] = r.numSkipped[level+1] - r.skipInterval[level+1]
	r.skipDoc[level] = r.lastDoc
	if level > 0 {
		p, err := r.skipStream[level].ReadVLong()
		if err != nil {
			return err
		}
		r.childPointer[level] = p + r.skipPointer[level-1]
	}
	r.spi.SeekChild(level)
	return nil
}

func (r *MultiLevelSkipListReader) setLastSkipData(level int) {
	r.lastDoc = r.skipDoc[level]
	r.lastChildPointer = r.childPointer[level]
	r.spi.SetLastSkipData(level)
}

// Init positions the reader on a new skip list of a posting list with
// df documents.
func (r *MultiLevelSkipListReader) Init(skipPointer int64, df int) {
	r.ensureOpen()
	r.skipPointer[0] = skipPointer
	r.docCount = df
	clear(r.skipDoc)
	clear(r.numSkipped)
	clear(r.childPointer)

	r.haveSkipped = false
	r.lastDoc = 0
	r.lastChildPointer = 0
	r.closeLevelStreams()
}

func (r *MultiLevelSkipListReader) closeLevelStreams() error {
	var err error
	for i := 1; i < len(r.skipStream); i++ {
		if r.skipStream[i] != nil {
			if err2 := r.skipStream[i].Close(); err == nil {
				err = err2
			}
			r.skipStream[i] = nil
		}
	}
	return err
}

// Loads the skip levels
func (r *MultiLevelSkipListReader) loadSkipLevels() error {
	r.numberOfSkipLevels = NumberOfSkipLevels(r.docCount, r.skipInterval[0], r.maxNumberOfSkipLevels)

	base := r.skipStream[0]
	if err := base.Seek(r.skipPointer[0]); err != nil {
		return err
	}

	toBuffer := r.numberOfLevelsToBuffer

	for i := r.numberOfSkipLevels - 1; i > 0; i-- {
		// the length of the current level
		length, err := base.ReadVLong()
		if err != nil {
			return err
		}

		// the start pointer of the current level
		r.skipPointer[i] = base.FilePointer()
		if toBuffer > 0 {
			// buffer this level
			buf, err := newSkipBuffer(base, int(length))
			if err != nil {
				return err
			}
			r.skipStream[i] = buf
			toBuffer--
		} else {
			// clone this stream, it is already at the start of the current level
			r.skipStream[i] = base.Clone()
			if r.inputIsBuffered && length < store.BUFFER_SIZE {
				r.skipStream[i].(*store.BufferedIndexInput).SetBufferSize(max(1, int(length)))
			}

			// move base stream beyond the current level
			if err = base.Seek(base.FilePointer() + length); err != nil {
				return err
			}
		}
	}

	// use base stream for the lowest level
	r.skipPointer[0] = base.FilePointer()
	return nil
}

func (r *MultiLevelSkipListReader) ensureOpen() {
	assert2(!r.closed, "skip list reader already closed")
}

// Close releases the per-level state and closes every stream, including
// the base one. It is idempotent.
func (r *MultiLevelSkipListReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.closeLevelStreams()
	if err2 := r.skipStream[0].Close(); err == nil {
		err = err2
	}
	r.skipStream[0] = nil
	for _, l := range r.leases {
		l.Release()
	}
	r.skipPointer, r.skipInterval, r.numSkipped, r.skipDoc, r.childPointer = nil, nil, nil, nil, nil
	return err
}

/*
SkipBuffer holds one skip level in memory. Its file pointers are those
of the stream it was loaded from.
*/
type SkipBuffer struct {
	*store.ByteArrayDataInput
	lease   *util.Lease[byte]
	pointer int64
}

func newSkipBuffer(input store.IndexInput, length int) (*SkipBuffer, error) {
	lease := util.DefaultPool.RentBytes(length)
	ans := &SkipBuffer{lease: lease, pointer: input.FilePointer()}
	if err := input.ReadBytes(lease.Slice()); err != nil {
		lease.Release()
		return nil, err
	}
	ans.ByteArrayDataInput = store.NewByteArrayDataInput(lease.Slice())
	return ans, nil
}

func (b *SkipBuffer) FilePointer() int64 {
	return b.pointer + int64(b.Pos)
}

func (b *SkipBuffer) Seek(pos int64) error {
	off := pos - b.pointer
	if off < 0 || off > int64(b.ByteArrayDataInput.Length()) {
		return fmt.Errorf("%w: seek to %v outside skip buffer [%v,%v)",
			store.ErrCorruptIndex, pos, b.pointer, b.pointer+int64(b.ByteArrayDataInput.Length()))
	}
	b.Pos = int(off)
	return nil
}

func (b *SkipBuffer) Length() int64 {
	return int64(b.ByteArrayDataInput.Length())
}

func (b *SkipBuffer) Clone() store.IndexInput {
	panic("not supported")
}

func (b *SkipBuffer) Close() error {
	if b.lease != nil {
		b.lease.Release()
		b.lease = nil
		b.Reset(nil)
	}
	return nil
}
