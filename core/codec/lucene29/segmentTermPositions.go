package lucene29

import (
	"errors"
	"io"

	"github.com/balzaczyy/gotis/core/index"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/SegmentTermPositions.java

var ErrPayloadUnavailable = errors.New(
	"either no payload exists at this term position or an attempt was made to load it more than once")

/*
SegmentTermPositions enumerates the docs of one term together with the
positions and payloads in each of them.

The prox stream is only moved when positions are actually requested.
Docs passed over by Next or SkipTo are remembered as a number of
positions to skip, or a prox pointer to seek to, and the skip happens on
the next call of NextPosition.
*/
type SegmentTermPositions struct {
	*SegmentTermDocs

	proxStream        store.IndexInput
	proxCount         int
	position          int
	payloadLength     int
	needToLoadPayload bool

	// lazy skip state
	lazySkipPointer   int64
	lazySkipProxCount int
}

func newSegmentTermPositions(parent *PostingsReader) *SegmentTermPositions {
	ans := &SegmentTermPositions{
		SegmentTermDocs: newSegmentTermDocs(parent),
		lazySkipPointer: -1,
	}
	ans.spi = ans
	return ans
}

func (p *SegmentTermPositions) Seek(ti index.TermInfo, fi *index.FieldInfo) error {
	if err := p.SegmentTermDocs.Seek(ti, fi); err != nil {
		return err
	}
	if ti.DocFreq > 0 {
		p.lazySkipPointer = ti.ProxPointer
	}
	p.lazySkipProxCount = 0
	p.proxCount = 0
	p.payloadLength = 0
	p.needToLoadPayload = false
	return nil
}

func (p *SegmentTermPositions) Next() (bool, error) {
	// we remember to skip the remaining positions of the current
	// document lazily
	p.lazySkipProxCount += p.proxCount

	ok, err := p.SegmentTermDocs.Next()
	if err != nil || !ok {
		return false, err
	}
	p.proxCount = p.freq // note frequency
	p.position = 0       // reset position
	return true, nil
}

// Read is not supported, positions have to be consumed doc by doc.
func (p *SegmentTermPositions) Read(docs, freqs []int) (int, error) {
	panic("TermPositions does not support processing multiple documents in one call, use TermDocs instead")
}

func (p *SegmentTermPositions) skippingDoc() {
	// we remember to skip a document lazily
	p.lazySkipProxCount += p.freq
}

func (p *SegmentTermPositions) skipProx(proxPointer int64, payloadLength int) {
	// we save the pointer, we might have to skip there lazily
	p.lazySkipPointer = proxPointer
	p.lazySkipProxCount = 0
	p.proxCount = 0
	p.payloadLength = payloadLength
	p.needToLoadPayload = false
}

/*
NextPosition returns the next position of the current doc. It must be
called at most Freq() times per doc. Fields omitting positions always
report 0.
*/
func (p *SegmentTermPositions) NextPosition() (int, error) {
	if p.currentFieldOmitPositions {
		// this field does not store positions or payloads
		return 0, nil
	}
	assert2(p.proxCount > 0, "all %v positions of doc %v were read", p.freq, p.doc)
	// perform lazy skips if necessary
	if err := p.lazySkip(); err != nil {
		return 0, err
	}
	p.proxCount--
	delta, err := p.readDeltaPosition()
	if err != nil {
		return 0, err
	}
	p.position += delta
	return p.position, nil
}

func (p *SegmentTermPositions) readDeltaPosition() (int, error) {
	delta, err := p.proxStream.ReadVInt()
	if err != nil {
		return 0, err
	}
	if p.currentFieldStoresPayloads {
		// if the current field stores payloads then the position delta
		// is shifted one bit to the left. if the LSB is set, then we
		// have to read the current payload length
		if delta&1 != 0 {
			n, err := p.proxStream.ReadVInt()
			if err != nil {
				return 0, err
			}
			p.payloadLength = int(n)
		}
		delta = int32(uint32(delta) >> 1)
		p.needToLoadPayload = true
	}
	return int(delta), nil
}

func (p *SegmentTermPositions) skipPositions(n int) error {
	assert(!p.currentFieldOmitPositions)
	for f := n; f > 0; f-- { // skip unread positions
		if _, err := p.readDeltaPosition(); err != nil {
			return err
		}
		if err := p.skipPayload(); err != nil {
			return err
		}
	}
	return nil
}

func (p *SegmentTermPositions) skipPayload() error {
	if p.needToLoadPayload && p.payloadLength > 0 {
		if err := p.proxStream.Seek(p.proxStream.FilePointer() + int64(p.payloadLength)); err != nil {
			return err
		}
	}
	p.needToLoadPayload = false
	return nil
}

// The prox stream only moves to the current doc once positions are
// asked for. A conjunction may look at many docs of a term without ever
// needing their positions.
func (p *SegmentTermPositions) lazySkip() error {
	if p.proxStream == nil {
		// clone lazily
		p.proxStream = p.parent.proxIn.Clone()
	}

	// we might have to skip the current payload if it was not read yet
	if err := p.skipPayload(); err != nil {
		return err
	}

	if p.lazySkipPointer != -1 {
		if err := p.proxStream.Seek(p.lazySkipPointer); err != nil {
			return err
		}
		p.lazySkipPointer = -1
	}

	if p.lazySkipProxCount != 0 {
		if err := p.skipPositions(p.lazySkipProxCount); err != nil {
			return err
		}
		p.lazySkipProxCount = 0
	}
	return nil
}

// PayloadLength returns the length of the payload at the current
// position.
func (p *SegmentTermPositions) PayloadLength() int {
	return p.payloadLength
}

// IsPayloadAvailable reports whether the payload of the current
// position can still be loaded.
func (p *SegmentTermPositions) IsPayloadAvailable() bool {
	return p.needToLoadPayload && p.payloadLength > 0
}

/*
Payload reads the payload of the current position into buf, growing it
if needed, and returns the filled slice. It can be called once per
position.
*/
func (p *SegmentTermPositions) Payload(buf []byte) ([]byte, error) {
	if !p.needToLoadPayload {
		return nil, ErrPayloadUnavailable
	}
	buf = util.GrowByteSlice(buf[:0], p.payloadLength)
	if len(buf) > 0 {
		if err := p.proxStream.ReadBytes(buf); err != nil {
			return nil, err
		}
	}
	p.needToLoadPayload = false
	return buf, nil
}

func (p *SegmentTermPositions) Close() error {
	err := p.SegmentTermDocs.Close()
	var closers []io.Closer
	if p.proxStream != nil {
		closers = append(closers, p.proxStream)
		p.proxStream = nil
	}
	return util.CloseWhileHandlingError(err, closers...)
}
