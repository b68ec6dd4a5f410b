// Command tisdump prints the term dictionary of a segment as JSON lines,
// one object per term, optionally with the postings of every term.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/balzaczyy/gotis/core/codec/lucene29"
	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
	"github.com/goccy/go-json"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
)

var log = logging.MustGetLogger("tisdump")

var logFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{module} %{level:.4s} %{message}`,
)

var (
	dirPath      = flag.String("dir", ".", "index directory")
	segment      = flag.String("segment", "_0", "segment name")
	configPath   = flag.String("config", "", "YAML reader config, GOTIS_* variables override it")
	from         = flag.String("from", "", "start at the first term not less than field:text")
	limit        = flag.Int("limit", 0, "stop after this many terms, 0 for all")
	withPostings = flag.Bool("postings", false, "include docs and freqs of every term")
	withProx     = flag.Bool("positions", false, "include positions and payloads, implies -postings")
	verify       = flag.Bool("verify", false, "verify the checksums of the postings files first")
	metrics      = flag.Bool("metrics", false, "print the collected metrics to stderr when done")
	verbose      = flag.Bool("v", false, "log debug messages")
)

type position struct {
	Pos     int    `json:"pos"`
	Payload []byte `json:"payload,omitempty"`
}

type posting struct {
	Doc       int        `json:"doc"`
	Freq      int        `json:"freq"`
	Positions []position `json:"positions,omitempty"`
}

type termRecord struct {
	Field       string    `json:"field"`
	Text        string    `json:"text"`
	Ord         int64     `json:"ord"`
	DocFreq     int       `json:"docFreq"`
	FreqPointer int64     `json:"freqPointer"`
	ProxPointer int64     `json:"proxPointer"`
	SkipOffset  int       `json:"skipOffset,omitempty"`
	Postings    []posting `json:"postings,omitempty"`
}

func setupLogging(debug bool) {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormat)
	leveled := logging.AddModuleLevel(backend)
	if debug {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}

func main() {
	flag.Parse()
	setupLogging(*verbose)
	if *withProx {
		*withPostings = true
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(index.Collectors()...)
	registry.MustRegister(util.Collectors()...)

	err := run()
	if *metrics {
		if families, err := registry.Gather(); err != nil {
			log.Warningf("cannot gather metrics: %v", err)
		} else if err = json.NewEncoder(os.Stderr).Encode(families); err != nil {
			log.Warningf("cannot print metrics: %v", err)
		}
	}
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	if n := util.DefaultPool.Outstanding(); n != 0 {
		log.Warningf("%v pooled buffers were not released", n)
	}
}

func run() (err error) {
	conf, err := index.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	dir, err := store.OpenFSDirectory(*dirPath)
	if err != nil {
		return err
	}
	defer func() {
		err = util.CloseWhileHandlingError(err, dir)
	}()

	fis, err := index.ReadFieldInfos(dir, *segment, conf.ReadBufferSize)
	if err != nil {
		return err
	}
	terms, err := index.OpenTermInfosReader(dir, *segment, fis, conf)
	if err != nil {
		return err
	}
	defer func() {
		err = util.CloseWhileHandlingError(err, terms)
	}()

	var postings *lucene29.PostingsReader
	if *withPostings || *verify {
		var deleted *util.RoaringBits
		if deleted, err = lucene29.ReadDeletedDocs(dir, *segment, conf.ReadBufferSize); err != nil {
			return err
		}
		if deleted != nil {
			log.Infof("Segment %v has %v deleted docs", *segment, deleted.Count())
		}
		if postings, err = lucene29.OpenPostingsReader(dir, *segment, fis, terms, deleted, conf); err != nil {
			return err
		}
		defer func() {
			err = util.CloseWhileHandlingError(err, postings)
		}()
	}
	if *verify {
		if err = postings.Verify(); err != nil {
			return err
		}
		log.Infof("Postings of segment %v verified", *segment)
	}

	out := bufio.NewWriter(os.Stdout)
	defer func() {
		if err2 := out.Flush(); err == nil {
			err = err2
		}
	}()
	n, err := dump(json.NewEncoder(out), terms, fis, postings)
	log.Infof("Dumped %v of %v terms of segment %v", n, terms.Size(), *segment)
	return err
}

func openEnum(terms *index.TermInfosReader) (*index.SegmentTermEnum, error) {
	if *from == "" {
		enum := terms.Terms()
		if _, err := enum.Next(); err != nil {
			return nil, util.CloseWhileHandlingError(err, enum)
		}
		return enum, nil
	}
	field, text, ok := strings.Cut(*from, ":")
	if !ok {
		return nil, fmt.Errorf("invalid -from %q, expected field:text", *from)
	}
	return terms.TermsFrom(index.NewTerm(field, text))
}

func dump(enc *json.Encoder, terms *index.TermInfosReader, fis *index.FieldInfos,
	postings *lucene29.PostingsReader) (n int, err error) {

	enum, err := openEnum(terms)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = util.CloseWhileHandlingError(err, enum)
	}()

	var tp *lucene29.SegmentTermPositions
	if postings != nil && *withPostings {
		tp = postings.TermPositions()
		defer func() {
			err = util.CloseWhileHandlingError(err, tp)
		}()
	}

	for term, ok := enum.Term(); ok; term, ok = enum.Term() {
		if *limit > 0 && n >= *limit {
			break
		}
		ti := enum.TermInfo()
		rec := termRecord{
			Field:       term.Field,
			Text:        term.Text,
			Ord:         enum.Position(),
			DocFreq:     ti.DocFreq,
			FreqPointer: ti.FreqPointer,
			ProxPointer: ti.ProxPointer,
			SkipOffset:  ti.SkipOffset,
		}
		if tp != nil {
			if rec.Postings, err = readPostings(tp, enum, fis.ByName(term.Field)); err != nil {
				return n, fmt.Errorf("reading postings of %v: %w", term, err)
			}
		}
		if err = enc.Encode(&rec); err != nil {
			return n, err
		}
		n++
		if _, err = enum.Next(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func readPostings(tp *lucene29.SegmentTermPositions, enum *index.SegmentTermEnum, fi *index.FieldInfo) ([]posting, error) {
	if fi == nil {
		return nil, errors.New("term of unknown field")
	}
	if err := tp.SeekEnum(enum); err != nil {
		return nil, err
	}
	var ans []posting
	for {
		ok, err := tp.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return ans, nil
		}
		p := posting{Doc: tp.Doc(), Freq: tp.Freq()}
		if *withProx && !fi.OmitPositions {
			for i := 0; i < p.Freq; i++ {
				pos, err := tp.NextPosition()
				if err != nil {
					return nil, err
				}
				entry := position{Pos: pos}
				if tp.IsPayloadAvailable() {
					if entry.Payload, err = tp.Payload(nil); err != nil {
						return nil, err
					}
				}
				p.Positions = append(p.Positions, entry)
			}
		}
		ans = append(ans, p)
	}
}
