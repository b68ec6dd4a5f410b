package lucene29

import (
	"errors"
	"fmt"
	"testing"

	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
	tstore "github.com/balzaczyy/gotis/test_framework/store"
)

const (
	testSegment = "_0"
	testMaxDoc  = 76
)

// Terms of the test segment and their docs. In field "body" doc d
// holds 1+d%3 positions d, d+3, d+6 with payloads from payloadOf; field
// "id" omits positions and has one term per doc.
var testPostings = func() map[index.Term][]int {
	span := func(from, to int) (docs []int) {
		for d := from; d <= to; d++ {
			docs = append(docs, d)
		}
		return
	}
	ans := map[index.Term][]int{
		index.NewTerm("body", "A"):   span(0, 9),
		index.NewTerm("body", "B"):   span(10, 25),
		index.NewTerm("body", "C"):   span(26, 75),
		index.NewTerm("body", "all"): span(0, testMaxDoc-1),
	}
	for d := 0; d < testMaxDoc; d++ {
		ans[idTerm(d)] = []int{d}
	}
	return ans
}()

func idTerm(doc int) index.Term {
	return index.NewTerm("id", fmt.Sprintf("%03d", doc))
}

func sortedTestTerms() []index.Term {
	terms := []index.Term{
		index.NewTerm("body", "A"),
		index.NewTerm("body", "B"),
		index.NewTerm("body", "C"),
		index.NewTerm("body", "all"),
	}
	for d := 0; d < testMaxDoc; d++ {
		terms = append(terms, idTerm(d))
	}
	return terms
}

func freqOf(doc int) int {
	return 1 + doc%3
}

func payloadOf(doc, i int) []byte {
	return []byte{byte(doc), byte(i)}[:(doc+i)%3]
}

func testConfig() index.Config {
	conf := index.NewConfig()
	conf.IndexInterval = 8
	conf.ReadBufferSize = 64
	return conf
}

func writeTestSegment(t *testing.T, dir store.Directory, conf index.Config) {
	t.Helper()
	fis := index.NewFieldInfos()
	fis.Add("body", false, true)
	fis.Add("id", true, false)
	if err := fis.Write(dir, testSegment); err != nil {
		t.Fatal(err)
	}

	pw, err := NewPostingsWriter(dir, testSegment, testMaxDoc, conf)
	if err != nil {
		t.Fatal(err)
	}
	tw, err := index.NewTermInfosWriter(dir, testSegment, fis, conf)
	if err != nil {
		t.Fatal(err)
	}
	for _, term := range sortedTestTerms() {
		fi := fis.ByName(term.Field)
		pw.StartTerm(fi)
		for _, doc := range testPostings[term] {
			if fi.OmitPositions {
				err = pw.AddDoc(doc, 1)
			} else {
				err = pw.AddDoc(doc, freqOf(doc))
				for i := 0; err == nil && i < freqOf(doc); i++ {
					err = pw.AddPosition(doc+3*i, payloadOf(doc, i))
				}
			}
			if err != nil {
				t.Fatal(err)
			}
		}
		ti, err := pw.FinishTerm()
		if err != nil {
			t.Fatal(err)
		}
		if ti.DocFreq >= conf.SkipInterval && ti.SkipOffset <= 0 {
			t.Errorf("%v: expected skip data, got %v", term, ti)
		}
		if err = tw.Add(term, ti); err != nil {
			t.Fatal(err)
		}
	}
	if err = util.Close(pw, tw); err != nil {
		t.Fatal(err)
	}
}

type testSegmentReader struct {
	fis      *index.FieldInfos
	terms    *index.TermInfosReader
	postings *PostingsReader
}

func openTestSegment(t *testing.T, dir store.Directory, conf index.Config) *testSegmentReader {
	t.Helper()
	fis, err := index.ReadFieldInfos(dir, testSegment, conf.ReadBufferSize)
	if err != nil {
		t.Fatal(err)
	}
	terms, err := index.OpenTermInfosReader(dir, testSegment, fis, conf)
	if err != nil {
		t.Fatal(err)
	}
	deleted, err := ReadDeletedDocs(dir, testSegment, conf.ReadBufferSize)
	if err != nil {
		t.Fatal(err)
	}
	postings, err := OpenPostingsReader(dir, testSegment, fis, terms, deleted, conf)
	if err != nil {
		t.Fatal(err)
	}
	return &testSegmentReader{fis, terms, postings}
}

func (r *testSegmentReader) Close() error {
	return util.Close(r.postings, r.terms)
}

func newTestDirectory(t *testing.T) *tstore.MockDirectoryWrapper {
	t.Helper()
	dir := tstore.NewMockDirectoryWrapper(random(), store.NewRAMDirectory())
	t.Cleanup(func() {
		if err := dir.Close(); err != nil {
			t.Error(err)
		}
	})
	return dir
}

type termDocs interface {
	Next() (bool, error)
	SkipTo(target int) (bool, error)
	Doc() int
	Close() error
}

type step struct {
	skipTo int // -1 for Next
	ok     bool
	doc    int
}

func next(doc int) step         { return step{-1, true, doc} }
func skip(target, doc int) step { return step{target, true, doc} }
func skipEnd(target int) step   { return step{target, false, 0} }

func runSteps(t *testing.T, name string, td termDocs, steps []step) {
	t.Helper()
	defer td.Close()
	for i, s := range steps {
		var ok bool
		var err error
		if s.skipTo < 0 {
			ok, err = td.Next()
		} else {
			ok, err = td.SkipTo(s.skipTo)
		}
		if err != nil {
			t.Fatalf("%v step %v: %v", name, i, err)
		}
		if ok != s.ok || (ok && td.Doc() != s.doc) {
			t.Errorf("%v step %v (skipTo=%v): expected (%v, %v), got (%v, %v)",
				name, i, s.skipTo, s.ok, s.doc, ok, td.Doc())
		}
	}
}

var skipToScenario = map[string][]step{
	"A": {next(0), next(1), skip(0, 2), skip(4, 4), skip(9, 9), skipEnd(10)},
	"B": {next(10), next(11), skip(5, 12), skip(15, 15), skip(24, 24), skip(25, 25), skipEnd(26)},
	"C": {next(26), next(27), skip(5, 28), skip(40, 40), skip(57, 57), skip(74, 74), skip(75, 75), skipEnd(76)},
}

var freshSkipScenario = map[string][]step{
	"A": {skip(5, 5)},
	"B": {skip(5, 10)},
	"C": {skip(5, 26)},
}

func TestSkipToScenario(t *testing.T) {
	for _, divisor := range []int{1, 2} {
		divisor := divisor
		t.Run(fmt.Sprintf("divisor=%v", divisor), func(t *testing.T) {
			dir := newTestDirectory(t)
			conf := testConfig()
			writeTestSegment(t, dir, conf)
			conf.IndexDivisor = divisor
			r := openTestSegment(t, dir, conf)
			defer r.Close()

			for _, scenario := range []map[string][]step{skipToScenario, freshSkipScenario} {
				for text, steps := range scenario {
					term := index.NewTerm("body", text)
					td, err := r.postings.TermDocsFor(term)
					if err != nil {
						t.Fatal(err)
					}
					runSteps(t, "docs "+text, td, steps)

					tp, err := r.postings.TermPositionsFor(term)
					if err != nil {
						t.Fatal(err)
					}
					runSteps(t, "positions "+text, tp, steps)
				}
			}
		})
	}
}

func checkPositions(t *testing.T, tp *SegmentTermPositions, n int, readPayloads bool) {
	t.Helper()
	doc := tp.Doc()
	assertEquals(t, tp.Freq(), freqOf(doc))
	for i := 0; i < n; i++ {
		pos, err := tp.NextPosition()
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, pos, doc+3*i)
		want := payloadOf(doc, i)
		assertEquals(t, tp.PayloadLength(), len(want))
		assertEquals(t, tp.IsPayloadAvailable(), len(want) > 0)
		if readPayloads {
			got, err := tp.Payload(nil)
			if err != nil {
				t.Fatal(err)
			}
			assertEquals(t, string(got), string(want))
			if _, err = tp.Payload(nil); !errors.Is(err, ErrPayloadUnavailable) {
				t.Errorf("expected ErrPayloadUnavailable on second load, got %v", err)
			}
		}
	}
}

func TestPositionsAndPayloads(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	defer r.Close()

	// read everything
	tp, err := r.postings.TermPositionsFor(index.NewTerm("body", "all"))
	if err != nil {
		t.Fatal(err)
	}
	defer tp.Close()
	for doc := 0; doc < testMaxDoc; doc++ {
		ok, err := tp.Next()
		if err != nil || !ok {
			t.Fatalf("doc %v: %v %v", doc, ok, err)
		}
		assertEquals(t, tp.Doc(), doc)
		checkPositions(t, tp, tp.Freq(), doc%2 == 0)
	}
	ok, err := tp.Next()
	assertEquals(t, ok, false)
	assertEquals(t, err, nil)

	// read some positions of some docs only, the rest is skipped lazily
	rnd := random()
	if err = tp.SeekTerm(index.NewTerm("body", "all")); err != nil {
		t.Fatal(err)
	}
	target := 0
	for {
		target += 1 + rnd.Intn(20)
		ok, err := tp.SkipTo(target)
		if err != nil {
			t.Fatal(err)
		}
		if target >= testMaxDoc {
			assertEquals(t, ok, false)
			break
		}
		assertEquals(t, ok, true)
		assertEquals(t, tp.Doc(), target)
		if rnd.Intn(3) > 0 {
			checkPositions(t, tp, rnd.Intn(tp.Freq()+1), rnd.Intn(2) == 0)
		}
	}
}

func TestReadBulk(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	defer r.Close()

	td, err := r.postings.TermDocsFor(index.NewTerm("body", "all"))
	if err != nil {
		t.Fatal(err)
	}
	defer td.Close()
	assertEquals(t, td.DocFreq(), testMaxDoc)
	docs, freqs := make([]int, 7), make([]int, 7)
	expected := 0
	for {
		n, err := td.Read(docs, freqs)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			assertEquals(t, docs[i], expected)
			assertEquals(t, freqs[i], freqOf(expected))
			expected++
		}
	}
	assertEquals(t, expected, testMaxDoc)

	tp := r.postings.TermPositions()
	defer tp.Close()
	defer func() {
		if recover() == nil {
			t.Error("expected Read on positions to panic")
		}
	}()
	tp.Read(docs, freqs)
}

func TestOmitPositionsAndAbsentTerms(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	defer r.Close()

	tp := r.postings.TermPositions()
	defer tp.Close()
	for _, doc := range []int{0, 42, 75, 17} {
		if err := tp.SeekTerm(idTerm(doc)); err != nil {
			t.Fatal(err)
		}
		ok, err := tp.Next()
		if err != nil || !ok {
			t.Fatalf("%v: %v %v", idTerm(doc), ok, err)
		}
		assertEquals(t, tp.Doc(), doc)
		assertEquals(t, tp.Freq(), 1)
		pos, err := tp.NextPosition()
		assertEquals(t, pos, 0)
		assertEquals(t, err, nil)
		ok, _ = tp.Next()
		assertEquals(t, ok, false)
	}

	for _, term := range []index.Term{
		index.NewTerm("body", "B0"),
		index.NewTerm("body", "zzz"),
		index.NewTerm("id", "076"),
		index.NewTerm("title", "A"),
	} {
		td, err := r.postings.TermDocsFor(term)
		if err != nil {
			t.Fatal(err)
		}
		assertEquals(t, td.DocFreq(), 0)
		ok, err := td.Next()
		assertEquals(t, ok, false)
		assertEquals(t, err, nil)
		ok, err = td.SkipTo(3)
		assertEquals(t, ok, false)
		assertEquals(t, err, nil)
		td.Close()
	}
}

func TestSeekEnum(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	defer r.Close()

	enum := r.terms.Terms()
	defer enum.Close()
	td := r.postings.TermDocs()
	defer td.Close()
	terms := sortedTestTerms()
	for i := 0; ; i++ {
		ok, err := enum.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			assertEquals(t, i, len(terms))
			break
		}
		term, _ := enum.Term()
		assertEquals(t, term, terms[i])
		if err = td.SeekEnum(enum); err != nil {
			t.Fatal(err)
		}
		var docs []int
		for {
			ok, err := td.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				break
			}
			docs = append(docs, td.Doc())
		}
		assertEquals(t, fmt.Sprint(docs), fmt.Sprint(testPostings[term]))
	}
}

func TestDeletedDocs(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	deleted := util.NewRoaringBits(testMaxDoc)
	for _, doc := range []int{0, 12, 57, 58, 75} {
		deleted.Set(doc)
	}
	if err := WriteDeletedDocs(dir, testSegment, deleted); err != nil {
		t.Fatal(err)
	}
	r := openTestSegment(t, dir, conf)
	defer r.Close()

	runSteps(t, "C", must(r.postings.TermPositionsFor(index.NewTerm("body", "C"))),
		[]step{next(26), next(27), skip(57, 59), skip(74, 74), skipEnd(75)})
	runSteps(t, "B", must(r.postings.TermDocsFor(index.NewTerm("body", "B"))),
		[]step{skip(11, 11), next(13), skip(25, 25), skipEnd(26)})
	runSteps(t, "id", must(r.postings.TermDocsFor(idTerm(12))), []step{skipEnd(0)})

	// positions stay aligned over deleted docs
	tp := must(r.postings.TermPositionsFor(index.NewTerm("body", "all")))
	defer tp.Close()
	count := 0
	for {
		ok, err := tp.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if deleted.At(tp.Doc()) {
			t.Errorf("deleted doc %v returned", tp.Doc())
		}
		checkPositions(t, tp, tp.Freq(), true)
		count++
	}
	assertEquals(t, count, testMaxDoc-deleted.Count())
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestDeletedDocsFile(t *testing.T) {
	dir := newTestDirectory(t)
	none, err := ReadDeletedDocs(dir, "_9", 64)
	assertEquals(t, none == nil, true)
	assertEquals(t, err, nil)

	deleted := util.NewRoaringBits(100000)
	for doc := 0; doc < 100000; doc += 7 {
		deleted.Set(doc)
	}
	if err = WriteDeletedDocs(dir, "_9", deleted); err != nil {
		t.Fatal(err)
	}
	read, err := ReadDeletedDocs(dir, "_9", 64)
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, read.Length(), 100000)
	assertEquals(t, read.Count(), deleted.Count())
	assertEquals(t, read.Bitmap().Equals(deleted.Bitmap()), true)
}

func TestWriterRejectsBadInput(t *testing.T) {
	dir := newTestDirectory(t)
	conf := testConfig()
	fis := index.NewFieldInfos()
	fi := fis.Add("body", false, false)
	pw, err := NewPostingsWriter(dir, testSegment, 10, conf)
	if err != nil {
		t.Fatal(err)
	}
	pw.StartTerm(fi)
	if err = pw.AddDoc(3, 2); err != nil {
		t.Fatal(err)
	}
	if err = pw.AddDoc(4, 1); err == nil {
		t.Error("expected missing positions to fail")
	}
	pw.AddPosition(1, nil)
	if err = pw.AddPosition(0, nil); err == nil {
		t.Error("expected backwards position to fail")
	}
	if err = pw.AddPosition(2, nil); err != nil {
		t.Fatal(err)
	}
	if err = pw.AddDoc(3, 1); !errors.Is(err, ErrDocOrder) {
		t.Errorf("expected ErrDocOrder, got %v", err)
	}
	if err = pw.AddDoc(10, 1); !errors.Is(err, ErrDocOrder) {
		t.Errorf("expected ErrDocOrder for doc beyond maxDoc, got %v", err)
	}
	if _, err = pw.FinishTerm(); err != nil {
		t.Fatal(err)
	}
	if err = pw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyAndDisposal(t *testing.T) {
	before := util.DefaultPool.Outstanding()
	dir := tstore.NewMockDirectoryWrapper(random(), store.NewRAMDirectory())
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	if err := r.postings.Verify(); err != nil {
		t.Fatal(err)
	}

	tp := must(r.postings.TermPositionsFor(index.NewTerm("body", "C")))
	if ok, err := tp.SkipTo(60); !ok || err != nil {
		t.Fatalf("SkipTo: %v %v", ok, err)
	}
	checkPositions(t, tp, 1, true)
	td := must(r.postings.TermDocsFor(index.NewTerm("body", "all")))
	if ok, err := td.SkipTo(70); !ok || err != nil {
		t.Fatalf("SkipTo: %v %v", ok, err)
	}

	// a leaked enumeration keeps its files open
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if len(dir.OpenFiles()) == 0 {
		t.Error("expected open clones to be tracked")
	}
	if err := util.Close(tp, td); err != nil {
		t.Fatal(err)
	}
	// closing twice is harmless
	if err := util.Close(tp, td, r); err != nil {
		t.Fatal(err)
	}
	assertEquals(t, len(dir.OpenFiles()), 0)
	assertEquals(t, util.DefaultPool.Outstanding(), before)
	if err := dir.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestUnclosedFilesAreReported(t *testing.T) {
	dir := tstore.NewMockDirectoryWrapper(random(), store.NewRAMDirectory())
	conf := testConfig()
	writeTestSegment(t, dir, conf)
	r := openTestSegment(t, dir, conf)
	td := r.postings.TermDocs()
	r.Close()
	if err := dir.Close(); !errors.Is(err, tstore.ErrOpenFiles) {
		t.Errorf("expected ErrOpenFiles, got %v", err)
	}
	td.Close()
}
