package util

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

/*
MemoryPool lends fixed-size typed buffers with explicit release.

Posting and skip list readers allocate small scratch arrays every time a
list is opened; leasing them from a pool keeps allocator pressure flat
under many concurrent queries. Every lease must be released exactly once
by its owner. Releasing twice, or touching a lease after release, panics.

Buffers come from power-of-two size classes. A buffer is handed out as
found, i.e. it may still hold data written by its previous borrower,
unless clearing is requested.
*/
type MemoryPool struct {
	bytes *typedPool[byte]
	chars *typedPool[uint16]
	ints  *typedPool[int]
	longs *typedPool[int64]

	outstanding atomic.Int64
	nextID      atomic.Uint64
	tracking    atomic.Bool

	liveLock sync.Mutex
	live     map[uint64]string // lease id -> rent site, only when tracking
}

// DefaultPool is shared by every component of the storage core.
var DefaultPool = NewMemoryPool()

func NewMemoryPool() *MemoryPool {
	p := &MemoryPool{live: make(map[uint64]string)}
	p.bytes = newTypedPool[byte](p, "byte")
	p.chars = newTypedPool[uint16](p, "char")
	p.ints = newTypedPool[int](p, "int")
	p.longs = newTypedPool[int64](p, "long")
	p.tracking.Store(os.Getenv("GOTIS_TRACK_LEASES") == "true")
	return p
}

// SetTracking turns recording of rent sites on or off. Only leases rented
// while tracking is on show up in Leaks().
func (p *MemoryPool) SetTracking(on bool) {
	p.tracking.Store(on)
}

// Outstanding returns the number of leases rented but not yet released.
func (p *MemoryPool) Outstanding() int64 {
	return p.outstanding.Load()
}

// Leaks describes every tracked lease that is still alive.
func (p *MemoryPool) Leaks() []string {
	p.liveLock.Lock()
	defer p.liveLock.Unlock()
	ans := make([]string, 0, len(p.live))
	for id, site := range p.live {
		ans = append(ans, fmt.Sprintf("lease #%v rented at:\n%v", id, site))
	}
	sort.Strings(ans)
	return ans
}

// CheckLeaks logs every tracked live lease and fails if there is any.
func (p *MemoryPool) CheckLeaks() error {
	leaks := p.Leaks()
	for _, leak := range leaks {
		log.Warningf("leaked %v", leak)
	}
	if n := p.Outstanding(); n != 0 {
		return errors.New(fmt.Sprintf("%v leases were never released", n))
	}
	return nil
}

func (p *MemoryPool) RentBytes(minSize int) *Lease[byte] {
	return p.bytes.rent(minSize, false)
}

func (p *MemoryPool) RentChars(minSize int) *Lease[uint16] {
	return p.chars.rent(minSize, false)
}

func (p *MemoryPool) RentInts(minSize int, clear bool) *Lease[int] {
	return p.ints.rent(minSize, clear)
}

func (p *MemoryPool) RentLongs(minSize int) *Lease[int64] {
	return p.longs.rent(minSize, false)
}

func (p *MemoryPool) track(id uint64) {
	if !p.tracking.Load() {
		return
	}
	p.liveLock.Lock()
	defer p.liveLock.Unlock()
	p.live[id] = string(debug.Stack())
}

func (p *MemoryPool) untrack(id uint64) string {
	if !p.tracking.Load() {
		return ""
	}
	p.liveLock.Lock()
	defer p.liveLock.Unlock()
	site := p.live[id]
	delete(p.live, id)
	return site
}

type Element interface {
	~byte | ~uint16 | ~int | ~int64
}

const (
	minClassShift = 4  // 16 elements
	maxClassShift = 20 // 1M elements
	numClasses    = maxClassShift - minClassShift + 1
)

type typedPool[T Element] struct {
	owner   *MemoryPool
	kind    string
	classes [numClasses]sync.Pool
}

func newTypedPool[T Element](owner *MemoryPool, kind string) *typedPool[T] {
	tp := &typedPool[T]{owner: owner, kind: kind}
	for i := range tp.classes {
		size := 1 << uint(i+minClassShift)
		tp.classes[i].New = func() any {
			buf := make([]T, size)
			return &buf
		}
	}
	return tp
}

// classOf returns the size class holding at least n elements, or -1 if n
// is larger than the largest class.
func classOf(n int) int {
	if n <= 1<<minClassShift {
		return 0
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxClassShift {
		return -1
	}
	return shift - minClassShift
}

func (tp *typedPool[T]) rent(minSize int, clearIt bool) *Lease[T] {
	assert2(minSize >= 0, "invalid lease size %v", minSize)
	var backing *[]T
	class := classOf(minSize)
	if class < 0 {
		buf := make([]T, minSize)
		backing = &buf
	} else {
		backing = tp.classes[class].Get().(*[]T)
	}
	data := (*backing)[:minSize]
	if clearIt {
		clear(data)
	}
	l := &Lease[T]{
		pool:    tp,
		backing: backing,
		class:   class,
		data:    data,
		id:      tp.owner.nextID.Add(1),
	}
	tp.owner.outstanding.Add(1)
	tp.owner.track(l.id)
	poolRents.WithLabelValues(tp.kind).Inc()
	poolOutstanding.WithLabelValues(tp.kind).Inc()
	return l
}

func (tp *typedPool[T]) giveBack(l *Lease[T]) {
	if l.class >= 0 {
		tp.classes[l.class].Put(l.backing)
	}
	tp.owner.outstanding.Add(-1)
	tp.owner.untrack(l.id)
	poolReleases.WithLabelValues(tp.kind).Inc()
	poolOutstanding.WithLabelValues(tp.kind).Dec()
}

/*
Lease grants exclusive access to a pooled buffer until Release is called.
The owner must release it exactly once, on every exit path.
*/
type Lease[T Element] struct {
	pool     *typedPool[T]
	backing  *[]T
	class    int
	data     []T
	id       uint64
	released atomic.Bool
}

// Slice returns the leased elements. It panics once the lease is released.
func (l *Lease[T]) Slice() []T {
	if l.released.Load() {
		panic(fmt.Sprintf("%v lease #%v used after release", l.pool.kind, l.id))
	}
	return l.data
}

func (l *Lease[T]) Len() int {
	return len(l.data)
}

// Release returns the buffer to its pool. A second call panics.
func (l *Lease[T]) Release() {
	if !l.released.CompareAndSwap(false, true) {
		msg := fmt.Sprintf("%v lease #%v released twice", l.pool.kind, l.id)
		if l.pool.owner.tracking.Load() {
			msg += "\n" + strings.TrimSpace(string(debug.Stack()))
		}
		panic(msg)
	}
	l.data = nil
	l.pool.giveBack(l)
	l.backing = nil
}
