package util

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var ErrStringTooLong = errors.New("string exceeds 65535 bytes")

const (
	arenaFirstSegmentSize = 4096
	arenaMaxSegmentSize   = 1024 * 1024
	arenaLengthPrefix     = 2
)

// StringHandle addresses one record of a StringArena. The zero value is
// the null string.
type StringHandle struct {
	Segment int64
	Offset  int32
	Length  int32
}

func (h StringHandle) IsNull() bool {
	return h.Segment == 0
}

type arenaSegment struct {
	id    int64
	lease *Lease[byte]
	used  int
	refs  atomic.Int32
}

func (s *arenaSegment) free() int {
	return s.lease.Len() - s.used
}

func (s *arenaSegment) release() {
	if s.refs.Add(-1) == 0 {
		s.lease.Release()
	}
}

var arenaSegmentNumber atomic.Int64

/*
StringArena interns UTF-8 records in append-only segments rented from a
MemoryPool. Each record is stored behind a 16-bit length prefix and is
addressed by a StringHandle.

An arena holds one reference on every segment it wrote to or copied a
record from; a segment goes back to the pool when the last arena
referencing it is released. Appending is not safe for concurrent use,
reading is. Freeze an arena once it is fully written to read it
without locking.
*/
type StringArena struct {
	pool     *MemoryPool
	lock     sync.Mutex
	segments map[int64]*arenaSegment
	current  *arenaSegment
	released bool
	frozen   atomic.Bool
}

func NewStringArena(pool *MemoryPool) *StringArena {
	if pool == nil {
		pool = DefaultPool
	}
	return &StringArena{pool: pool, segments: make(map[int64]*arenaSegment)}
}

func (a *StringArena) segmentFor(size int) *arenaSegment {
	if a.current != nil && a.current.free() >= size {
		return a.current
	}
	segSize := arenaFirstSegmentSize
	if a.current != nil {
		segSize = min(arenaMaxSegmentSize, a.current.lease.Len()*2)
	}
	for segSize < size {
		segSize *= 2
	}
	seg := &arenaSegment{
		id:    arenaSegmentNumber.Add(1),
		lease: a.pool.RentBytes(segSize),
	}
	seg.refs.Store(1)
	a.lock.Lock()
	a.segments[seg.id] = seg
	a.lock.Unlock()
	a.current = seg
	return seg
}

// Add appends b as a new record.
func (a *StringArena) Add(b []byte) (StringHandle, error) {
	assert2(!a.released, "string arena already released")
	assert2(!a.frozen.Load(), "string arena is frozen")
	if len(b) > 0xFFFF {
		return StringHandle{}, fmt.Errorf("%w: %v bytes", ErrStringTooLong, len(b))
	}
	seg := a.segmentFor(arenaLengthPrefix + len(b))
	data := seg.lease.Slice()
	binary.LittleEndian.PutUint16(data[seg.used:], uint16(len(b)))
	copy(data[seg.used+arenaLengthPrefix:], b)
	h := StringHandle{Segment: seg.id, Offset: int32(seg.used), Length: int32(len(b))}
	seg.used += arenaLengthPrefix + len(b)
	return h, nil
}

func (a *StringArena) AddString(s string) (StringHandle, error) {
	return a.Add([]byte(s))
}

// Freeze makes the arena read-only. Segments are looked up without
// locking afterwards; Add and copying into the arena panic.
func (a *StringArena) Freeze() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.current = nil
	a.frozen.Store(true)
}

func (a *StringArena) segment(id int64) *arenaSegment {
	if a.frozen.Load() {
		seg, ok := a.segments[id]
		assert2(ok, "segment %v is not referenced by this arena", id)
		return seg
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	seg, ok := a.segments[id]
	assert2(ok, "segment %v is not referenced by this arena", id)
	return seg
}

// Bytes returns a view of the record. The view is only valid while the
// arena holds its segment.
func (a *StringArena) Bytes(h StringHandle) []byte {
	if h.IsNull() {
		return nil
	}
	data := a.segment(h.Segment).lease.Slice()
	off := int(h.Offset)
	assert2(int(binary.LittleEndian.Uint16(data[off:])) == int(h.Length),
		"handle %+v does not match its record", h)
	start := off + arenaLengthPrefix
	return data[start : start+int(h.Length)]
}

func (a *StringArena) String(h StringHandle) string {
	return string(a.Bytes(h))
}

// CopyTo makes the record addressed by h readable through dest, keeping its
// segment alive for as long as dest is.
func (a *StringArena) CopyTo(dest *StringArena, h StringHandle) StringHandle {
	if h.IsNull() || dest == a {
		return h
	}
	assert2(!dest.frozen.Load(), "string arena is frozen")
	seg := a.segment(h.Segment)
	dest.lock.Lock()
	defer dest.lock.Unlock()
	if _, ok := dest.segments[seg.id]; !ok {
		seg.refs.Add(1)
		dest.segments[seg.id] = seg
	}
	return h
}

// Release drops this arena's reference on every segment. It is idempotent.
func (a *StringArena) Release() {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.released {
		return
	}
	a.released = true
	for id, seg := range a.segments {
		seg.release()
		delete(a.segments, id)
	}
	a.current = nil
}

// CompareBytes compares a record with s byte-wise.
func (a *StringArena) CompareBytes(h StringHandle, s string) int {
	return CompareBytesString(a.Bytes(h), s)
}

// CompareBytesString compares b and s as unsigned byte sequences.
func CompareBytesString(b []byte, s string) int {
	n := min(len(b), len(s))
	for i := 0; i < n; i++ {
		if b[i] != s[i] {
			if b[i] < s[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(b) < len(s):
		return -1
	case len(b) > len(s):
		return 1
	}
	return 0
}
