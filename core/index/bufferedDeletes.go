package index

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"
)

// index/BufferedDeletes.java

// Estimated heap use of one buffered delete-by-docID.
const BYTES_PER_DEL_DOCID = 16

// Estimated heap use of one buffered delete-by-term, without its text.
const BYTES_PER_DEL_TERM = 64

const deleteTermsDegree = 16

// DocIDRemapper maps document numbers of merged segments to their
// numbers after the merge.
type DocIDRemapper interface {
	Remap(docID int) int
}

// deleteTerms maps each deleted term to the document number up to which
// it applies.
type deleteTerms interface {
	get(t Term) (int, bool)
	put(t Term, num int)
	size() int
	// ascend visits the terms in order for sorted sets only.
	ascend(fn func(t Term, num int) bool)
	clear()
	empty() deleteTerms
}

type termNum struct {
	term Term
	num  int
}

func lessTermNum(a, b termNum) bool {
	return a.term.Compare(b.term) < 0
}

type sortedDeleteTerms struct {
	tree *btree.BTreeG[termNum]
}

func newSortedDeleteTerms() *sortedDeleteTerms {
	return &sortedDeleteTerms{btree.NewG[termNum](deleteTermsDegree, lessTermNum)}
}

func (s *sortedDeleteTerms) get(t Term) (int, bool) {
	item, ok := s.tree.Get(termNum{term: t})
	return item.num, ok
}

func (s *sortedDeleteTerms) put(t Term, num int) {
	s.tree.ReplaceOrInsert(termNum{t, num})
}

func (s *sortedDeleteTerms) size() int {
	return s.tree.Len()
}

func (s *sortedDeleteTerms) ascend(fn func(Term, int) bool) {
	s.tree.Ascend(func(item termNum) bool {
		return fn(item.term, item.num)
	})
}

func (s *sortedDeleteTerms) clear() {
	s.tree.Clear(true)
}

func (s *sortedDeleteTerms) empty() deleteTerms {
	return newSortedDeleteTerms()
}

type unsortedDeleteTerms map[Term]int

func (u unsortedDeleteTerms) get(t Term) (int, bool) {
	num, ok := u[t]
	return num, ok
}

func (u unsortedDeleteTerms) put(t Term, num int) {
	u[t] = num
}

func (u unsortedDeleteTerms) size() int {
	return len(u)
}

func (u unsortedDeleteTerms) ascend(fn func(Term, int) bool) {
	for t, num := range u {
		if !fn(t, num) {
			return
		}
	}
}

func (u unsortedDeleteTerms) clear() {
	clear(u)
}

func (u unsortedDeleteTerms) empty() deleteTerms {
	return make(unsortedDeleteTerms)
}

/*
BufferedDeletes holds deletes by term or document number that were
buffered against segments not flushed yet. The sorted flavor keeps its
terms in a btree so they can be applied in dictionary order; the
unsorted one uses a map.

Every method takes the instance lock. Remap holds it exclusively for
the whole rewrite, since a merge remaps while other goroutines may be
reading.
*/
type BufferedDeletes struct {
	lock      sync.RWMutex
	sorted    bool
	numTerms  int
	terms     deleteTerms
	docIDs    []int
	bytesUsed int64
}

func NewSortedBufferedDeletes() *BufferedDeletes {
	return &BufferedDeletes{sorted: true, terms: newSortedDeleteTerms()}
}

func NewUnsortedBufferedDeletes() *BufferedDeletes {
	return &BufferedDeletes{terms: make(unsortedDeleteTerms)}
}

func (bd *BufferedDeletes) Sorted() bool {
	return bd.sorted
}

/*
AddTerm buffers a delete of every document up to docIDUpto containing
term. A term already buffered only takes the new number when it is
greater: goroutines replacing the same document may arrive out of
order.
*/
func (bd *BufferedDeletes) AddTerm(term Term, docIDUpto int) {
	bd.lock.Lock()
	defer bd.lock.Unlock()
	if num, ok := bd.terms.get(term); ok {
		if docIDUpto > num {
			bd.terms.put(term, docIDUpto)
		}
	} else {
		bd.terms.put(term, docIDUpto)
		bd.bytesUsed += BYTES_PER_DEL_TERM + int64(len(term.Field)+len(term.Text))
	}
	// counted even for a term buffered before
	bd.numTerms++
}

func (bd *BufferedDeletes) AddDocID(docID int) {
	bd.lock.Lock()
	defer bd.lock.Unlock()
	bd.docIDs = append(bd.docIDs, docID)
	bd.bytesUsed += BYTES_PER_DEL_DOCID
}

func (bd *BufferedDeletes) AddBytesUsed(b int64) {
	bd.lock.Lock()
	defer bd.lock.Unlock()
	bd.bytesUsed += b
}

func (bd *BufferedDeletes) BytesUsed() int64 {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return bd.bytesUsed
}

/*
Size returns the number of buffered deletes. Deletes of the same term
count every time, so a flush triggered every N deletes sees them all.
*/
func (bd *BufferedDeletes) Size() int {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return bd.numTerms + len(bd.docIDs)
}

// NumTerms returns the number of distinct buffered terms.
func (bd *BufferedDeletes) NumTerms() int {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return bd.terms.size()
}

func (bd *BufferedDeletes) Any() bool {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return bd.terms.size() > 0 || len(bd.docIDs) > 0
}

// Get returns the document number a buffered term delete applies up to.
func (bd *BufferedDeletes) Get(term Term) (int, bool) {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return bd.terms.get(term)
}

// DocIDs returns a copy of the buffered document numbers.
func (bd *BufferedDeletes) DocIDs() []int {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	return append([]int(nil), bd.docIDs...)
}

/*
Range calls fn for every buffered term until it returns false, in term
order for sorted deletes. fn must not modify bd.
*/
func (bd *BufferedDeletes) Range(fn func(term Term, docIDUpto int) bool) {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	bd.terms.ascend(fn)
}

/*
Update moves every delete buffered in other into bd and clears other.
Term entries of other replace those of bd.
*/
func (bd *BufferedDeletes) Update(other *BufferedDeletes) {
	assert2(other != bd, "cannot update buffered deletes with themselves")
	other.lock.Lock()
	numTerms, bytesUsed := other.numTerms, other.bytesUsed
	terms, docIDs := other.terms, other.docIDs
	other.terms = terms.empty()
	other.docIDs = nil
	other.numTerms, other.bytesUsed = 0, 0
	other.lock.Unlock()

	bd.lock.Lock()
	defer bd.lock.Unlock()
	bd.numTerms += numTerms
	bd.bytesUsed += bytesUsed
	terms.ascend(func(t Term, num int) bool {
		bd.terms.put(t, num)
		return true
	})
	bd.docIDs = append(bd.docIDs, docIDs...)
}

func (bd *BufferedDeletes) Clear() {
	bd.lock.Lock()
	defer bd.lock.Unlock()
	bd.terms.clear()
	bd.docIDs = nil
	bd.numTerms = 0
	bd.bytesUsed = 0
}

// Remap rewrites every buffered document number after a merge.
func (bd *BufferedDeletes) Remap(mapper DocIDRemapper) {
	bd.lock.Lock()
	defer bd.lock.Unlock()

	// remap delete-by-term
	if bd.terms.size() > 0 {
		newTerms := bd.terms.empty()
		bd.terms.ascend(func(t Term, num int) bool {
			newTerms.put(t, mapper.Remap(num))
			return true
		})
		bd.terms = newTerms
	}

	// remap delete-by-docID
	if len(bd.docIDs) > 0 {
		newDocIDs := make([]int, len(bd.docIDs))
		for i, docID := range bd.docIDs {
			newDocIDs[i] = mapper.Remap(docID)
		}
		bd.docIDs = newDocIDs
	}
}

func (bd *BufferedDeletes) String() string {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	var buf bytes.Buffer
	buf.WriteString("BufferedDeletes[")
	if bd.sorted {
		buf.WriteString("sorted")
	} else {
		buf.WriteString("unsorted")
	}
	if bd.numTerms != 0 {
		fmt.Fprintf(&buf, " %v deleted terms (unique count=%v)", bd.numTerms, bd.terms.size())
	}
	if len(bd.docIDs) > 0 {
		fmt.Fprintf(&buf, " %v deleted docIDs", len(bd.docIDs))
	}
	if bd.bytesUsed != 0 {
		fmt.Fprintf(&buf, " bytesUsed=%v", bd.bytesUsed)
	}
	buf.WriteRune(']')
	return buf.String()
}

// SortedTerms returns the buffered terms in term order, whatever the
// flavor of bd.
func (bd *BufferedDeletes) SortedTerms() []Term {
	bd.lock.RLock()
	defer bd.lock.RUnlock()
	terms := make([]Term, 0, bd.terms.size())
	bd.terms.ascend(func(t Term, _ int) bool {
		terms = append(terms, t)
		return true
	})
	if !bd.sorted {
		sort.Slice(terms, func(i, j int) bool { return terms[i].Compare(terms[j]) < 0 })
	}
	return terms
}
