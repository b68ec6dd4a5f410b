package index

import (
	"fmt"
	"strings"
)

// index/Term.java

/*
A Term represents a word from text. This is the unit of search. It is
composed of two elements, the text of the word, as a string, and the
name of the field that the text occurred in.

Terms are values: copying a Term copies both strings, so a Term can be
kept as a map or cache key without cloning it first.
*/
type Term struct {
	Field string
	Text  string
}

func NewTerm(field, text string) Term {
	return Term{field, text}
}

/*
Compare orders terms by field name first, then by text. Texts are
compared byte-wise, which for UTF-8 equals code point order.
*/
func (t Term) Compare(other Term) int {
	if t.Field == other.Field {
		return strings.Compare(t.Text, other.Text)
	}
	return strings.Compare(t.Field, other.Field)
}

func (t Term) String() string {
	return fmt.Sprintf("%v:%v", t.Field, t.Text)
}

// index/TermInfo.java

// TermInfo holds the postings metadata of one term.
type TermInfo struct {
	// The number of documents which contain the term.
	DocFreq     int
	FreqPointer int64
	ProxPointer int64
	// Offset of the skip data from FreqPointer; only meaningful when
	// DocFreq reaches the skip interval.
	SkipOffset int
}

func (ti TermInfo) String() string {
	return fmt.Sprintf("TermInfo(df=%v, freq=%v, prox=%v, skip=%v)",
		ti.DocFreq, ti.FreqPointer, ti.ProxPointer, ti.SkipOffset)
}
