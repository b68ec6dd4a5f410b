package codec

import (
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// SkipFormatWriter encodes the payload of one skip point.
type SkipFormatWriter interface {
	// WriteSkipData writes the current skip data of the given level.
	WriteSkipData(level int, skipBuffer store.IndexOutput) error
	// ResetSkipData re-seeds the per-level state for a new posting list.
	ResetSkipData()
}

/*
MultiLevelSkipListWriter buffers skip points for one posting list at a
time and writes them as a multi-level skip list.

Level i holds one point for every skipInterval^(i+1) documents. Every
point on a level above 0 carries a pointer to the matching point on the
level below. Example for skipInterval = 3:

	                                                    c            (skip level 2)
	                c                 c                 c            (skip level 1)
	    x     x     x     x     x     x     x     x     x     x      (skip level 0)
	d d d d d d d d d d d d d d d d d d d d d d d d d d d d d d d d  (posting list)
	    3     6     9     12    15    18    21    24    27    30     (df)

	d - document
	x - skip data
	c - skip data with child pointer
*/
type MultiLevelSkipListWriter struct {
	spi SkipFormatWriter
	// number levels in this skip list
	numberOfSkipLevels int
	// the skip interval in the list with level = 0
	skipInterval int
	// for every skip level a different buffer is used
	skipBuffer []*store.RAMOutputStream
}

/*
NewMultiLevelSkipListWriter creates a writer for posting lists of at most
df documents.
*/
func NewMultiLevelSkipListWriter(spi SkipFormatWriter, skipInterval, maxSkipLevels, df int) *MultiLevelSkipListWriter {
	assert2(skipInterval > 1, "skipInterval must be > 1 (got %v)", skipInterval)
	return &MultiLevelSkipListWriter{
		spi:                spi,
		skipInterval:       skipInterval,
		numberOfSkipLevels: NumberOfSkipLevels(df, skipInterval, maxSkipLevels),
	}
}

// NumberOfSkipLevels returns floor(log_skipInterval(df)), capped at
// maxSkipLevels. A list with fewer than skipInterval documents has no
// levels at all.
func NumberOfSkipLevels(df, skipInterval, maxSkipLevels int) int {
	if df <= 0 {
		return 0
	}
	return min(util.Log(int64(df), skipInterval), maxSkipLevels)
}

func (w *MultiLevelSkipListWriter) NumberOfLevels() int {
	return w.numberOfSkipLevels
}

/* Allocates internal skip buffers. */
func (w *MultiLevelSkipListWriter) init() {
	w.skipBuffer = make([]*store.RAMOutputStream, w.numberOfSkipLevels)
	for i := range w.skipBuffer {
		w.skipBuffer[i] = store.NewRAMOutputStreamBuffer()
	}
}

/* Creates new buffers or empties the existing ones */
func (w *MultiLevelSkipListWriter) ResetSkip() {
	if w.skipBuffer == nil {
		w.init()
	} else {
		for _, v := range w.skipBuffer {
			v.Reset()
		}
	}
	w.spi.ResetSkipData()
}

/*
BufferSkip writes the current skip data to the buffers. df must be a
multiple of skipInterval; the number of times skipInterval divides it
determines how many levels receive a point.
*/
func (w *MultiLevelSkipListWriter) BufferSkip(df int) error {
	assert2(df%w.skipInterval == 0, "df %v is not a multiple of skipInterval %v", df, w.skipInterval)
	if w.skipBuffer == nil {
		w.ResetSkip()
	}
	numLevels := 0
	for ; df%w.skipInterval == 0 && numLevels < w.numberOfSkipLevels; df /= w.skipInterval {
		numLevels++
	}

	childPointer := int64(0)
	for level := 0; level < numLevels; level++ {
		if err := w.spi.WriteSkipData(level, w.skipBuffer[level]); err != nil {
			return err
		}

		newChildPointer := w.skipBuffer[level].FilePointer()

		if level != 0 {
			// store child pointers for all levels except the lowest
			if err := w.skipBuffer[level].WriteVLong(childPointer); err != nil {
				return err
			}
		}

		// remember the childPointer for the next level
		childPointer = newChildPointer
	}
	return nil
}

/*
WriteSkip writes the buffered skip lists to the given output and returns
the file pointer they start at. Levels are written from the top down,
each but level 0 preceded by its VLong length. Empty levels are left out.
*/
func (w *MultiLevelSkipListWriter) WriteSkip(output store.IndexOutput) (int64, error) {
	skipPointer := output.FilePointer()
	if len(w.skipBuffer) == 0 {
		return skipPointer, nil
	}

	for level := w.numberOfSkipLevels - 1; level > 0; level-- {
		if length := w.skipBuffer[level].FilePointer(); length > 0 {
			if err := output.WriteVLong(length); err != nil {
				return 0, err
			}
			if err := w.skipBuffer[level].WriteTo(output); err != nil {
				return 0, err
			}
		}
	}
	return skipPointer, w.skipBuffer[0].WriteTo(output)
}
