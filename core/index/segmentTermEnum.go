package index

import (
	"fmt"
	"strings"

	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/TermBuffer.java

// termBuffer holds a front-coded term while it is decoded.
type termBuffer struct {
	field int
	name  string
	text  []byte
	valid bool
}

func (b *termBuffer) read(input store.IndexInput, fis *FieldInfos) error {
	start, err := input.ReadVInt()
	if err != nil {
		return err
	}
	length, err := input.ReadVInt()
	if err != nil {
		return err
	}
	if start < 0 || length < 0 || int(start) > len(b.text) {
		return fmt.Errorf("%w: invalid term prefix %v/suffix %v after %v bytes (resource=%v)",
			store.ErrCorruptIndex, start, length, len(b.text), input)
	}
	b.text = util.GrowByteSlice(b.text, int(start)+int(length))
	if err = input.ReadBytes(b.text[start:]); err != nil {
		return err
	}
	field, err := input.ReadVInt()
	if err != nil {
		return err
	}
	b.field = int(field)
	b.name = fis.FieldName(b.field)
	b.valid = true
	return nil
}

func (b *termBuffer) set(field int, name string, text []byte) {
	b.field = field
	b.name = name
	b.text = append(b.text[:0], text...)
	b.valid = true
}

func (b *termBuffer) copyFrom(other *termBuffer) {
	b.set(other.field, other.name, other.text)
	b.valid = other.valid
}

func (b *termBuffer) reset() {
	b.field = -1
	b.name = ""
	b.text = b.text[:0]
	b.valid = false
}

func (b *termBuffer) toTerm() (Term, bool) {
	if !b.valid {
		return Term{}, false
	}
	return Term{b.name, string(b.text)}, true
}

// matches tells whether the buffer holds term t. The index sentinel
// (field -1) never matches.
func (b *termBuffer) matches(t Term) bool {
	return b.valid && b.field >= 0 && b.compareTo(t) == 0
}

// compareTo compares t with the buffered term, which must be valid.
func (b *termBuffer) compareTo(t Term) int {
	if t.Field == b.name {
		return -util.CompareBytesString(b.text, t.Text)
	}
	return strings.Compare(t.Field, b.name)
}

func (b *termBuffer) clone() termBuffer {
	ans := *b
	ans.text = append([]byte(nil), b.text...)
	return ans
}

// index/SegmentTermEnum.java

// The file format version, a negative number.
const TERMS_FORMAT_CURRENT = -4

/*
SegmentTermEnum is a cursor over the entries of a .tis or .tii file.
It is positioned before the first entry when opened and is not safe
for concurrent use; Clone() it instead.
*/
type SegmentTermEnum struct {
	input      store.IndexInput
	fieldInfos *FieldInfos

	size     int64
	position int64

	termBuffer termBuffer
	prevBuffer termBuffer
	termInfo   TermInfo

	isIndex      bool
	indexPointer int64

	indexInterval int
	skipInterval  int
	maxSkipLevels int
}

/*
NewSegmentTermEnum reads the file header. The enum owns input from
then on, even when the header turns out to be corrupt.
*/
func NewSegmentTermEnum(input store.IndexInput, fis *FieldInfos, isIndex bool) (*SegmentTermEnum, error) {
	ans := &SegmentTermEnum{
		input:      input,
		fieldInfos: fis,
		isIndex:    isIndex,
		position:   -1,
	}
	ans.termBuffer.reset()
	ans.prevBuffer.reset()
	if err := ans.readHeader(); err != nil {
		return nil, util.CloseWhileHandlingError(err, input)
	}
	return ans, nil
}

func (e *SegmentTermEnum) readHeader() error {
	format, err := e.input.ReadInt()
	if err != nil {
		return err
	}
	if format != TERMS_FORMAT_CURRENT {
		return fmt.Errorf("%w: unknown format version: %v expected %v (resource=%v)",
			store.ErrCorruptIndex, format, TERMS_FORMAT_CURRENT, e.input)
	}
	if e.size, err = e.input.ReadLong(); err != nil {
		return err
	}
	var n int32
	if n, err = e.input.ReadInt(); err != nil {
		return err
	}
	e.indexInterval = int(n)
	if n, err = e.input.ReadInt(); err != nil {
		return err
	}
	e.skipInterval = int(n)
	if n, err = e.input.ReadInt(); err != nil {
		return err
	}
	e.maxSkipLevels = int(n)
	if e.size < 0 || e.indexInterval <= 0 || e.skipInterval < 2 || e.maxSkipLevels <= 0 {
		return fmt.Errorf("%w: invalid header size=%v indexInterval=%v skipInterval=%v maxSkipLevels=%v (resource=%v)",
			store.ErrCorruptIndex, e.size, e.indexInterval, e.skipInterval, e.maxSkipLevels, e.input)
	}
	return nil
}

// Clone returns an independent cursor at the same entry.
func (e *SegmentTermEnum) Clone() *SegmentTermEnum {
	ans := *e
	ans.input = e.input.Clone()
	ans.termBuffer = e.termBuffer.clone()
	ans.prevBuffer = e.prevBuffer.clone()
	return &ans
}

/*
Seek positions the enum on an index entry: the next entry read is the
one at pointer, position and term describe the entry before it.
*/
func (e *SegmentTermEnum) Seek(pointer, position int64, field int, text []byte, ti TermInfo) error {
	if err := e.input.Seek(pointer); err != nil {
		return err
	}
	e.position = position
	e.termBuffer.set(field, e.fieldInfos.FieldName(field), text)
	e.prevBuffer.reset()
	e.termInfo = ti
	return nil
}

// Next advances to the next entry. It returns false at the end.
func (e *SegmentTermEnum) Next() (bool, error) {
	if e.position >= e.size-1 {
		e.position++
		e.prevBuffer.copyFrom(&e.termBuffer)
		e.termBuffer.reset()
		return false, nil
	}
	e.position++

	e.prevBuffer.copyFrom(&e.termBuffer)
	if err := e.termBuffer.read(e.input, e.fieldInfos); err != nil {
		return false, err
	}

	df, err := e.input.ReadVInt()
	if err != nil {
		return false, err
	}
	e.termInfo.DocFreq = int(df)
	delta, err := e.input.ReadVLong()
	if err != nil {
		return false, err
	}
	e.termInfo.FreqPointer += delta
	if e.isIndex || !omitsPositions(e.fieldInfos, e.termBuffer.field) {
		if delta, err = e.input.ReadVLong(); err != nil {
			return false, err
		}
		e.termInfo.ProxPointer += delta
	}
	e.termInfo.SkipOffset = 0
	if e.termInfo.DocFreq >= e.skipInterval {
		offset, err := e.input.ReadVInt()
		if err != nil {
			return false, err
		}
		e.termInfo.SkipOffset = int(offset)
	}

	if e.isIndex {
		if delta, err = e.input.ReadVLong(); err != nil {
			return false, err
		}
		e.indexPointer += delta
	}
	return true, nil
}

func omitsPositions(fis *FieldInfos, field int) bool {
	fi := fis.FieldInfo(field)
	return fi != nil && fi.OmitPositions
}

/*
ScanTo advances to the first entry not less than term and returns the
number of entries passed over.
*/
func (e *SegmentTermEnum) ScanTo(term Term) (int, error) {
	count := 0
	for e.termBuffer.valid && e.termBuffer.compareTo(term) > 0 {
		ok, err := e.Next()
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		count++
	}
	return count, nil
}

// Term returns the current term, or false once the enum is exhausted
// or before the first Next().
func (e *SegmentTermEnum) Term() (Term, bool) {
	return e.termBuffer.toTerm()
}

// Prev returns the term before the current one.
func (e *SegmentTermEnum) Prev() (Term, bool) {
	return e.prevBuffer.toTerm()
}

// TermInfo returns the metadata of the current term.
func (e *SegmentTermEnum) TermInfo() TermInfo {
	return e.termInfo
}

// DocFreq returns the document frequency of the current term.
func (e *SegmentTermEnum) DocFreq() int {
	return e.termInfo.DocFreq
}

// Position returns the ordinal of the current term.
func (e *SegmentTermEnum) Position() int64 {
	return e.position
}

// IndexPointer returns the .tis pointer stored with the current .tii
// entry.
func (e *SegmentTermEnum) IndexPointer() int64 {
	return e.indexPointer
}

// Size returns the number of entries in the file.
func (e *SegmentTermEnum) Size() int64 {
	return e.size
}

func (e *SegmentTermEnum) IndexInterval() int {
	return e.indexInterval
}

func (e *SegmentTermEnum) SkipInterval() int {
	return e.skipInterval
}

func (e *SegmentTermEnum) MaxSkipLevels() int {
	return e.maxSkipLevels
}

func (e *SegmentTermEnum) Close() error {
	if e == nil || e.input == nil {
		return nil
	}
	err := e.input.Close()
	e.input = nil
	return err
}
