package store

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

/*
ByteSource is the seekable byte source a BufferedIndexInput refills its
window from. ReadInternal reads exactly len(buf) bytes at the current
position and advances it.
*/
type ByteSource interface {
	io.Closer
	Length() int64
	ReadInternal(buf []byte) error
	SeekInternal(pos int64) error
	// CloneSource returns a source with its own position over the same
	// bytes. Closing a clone never affects the others.
	CloneSource() ByteSource
}

type ramSource struct {
	data []byte
	pos  int64
}

func newRAMSource(data []byte) *ramSource {
	return &ramSource{data: data}
}

func (s *ramSource) Length() int64 {
	return int64(len(s.data))
}

func (s *ramSource) ReadInternal(buf []byte) error {
	if s.pos+int64(len(buf)) > int64(len(s.data)) {
		return fmt.Errorf("%w: ram source of %v bytes", ErrEndOfStream, len(s.data))
	}
	s.pos += int64(copy(buf, s.data[s.pos:]))
	return nil
}

func (s *ramSource) SeekInternal(pos int64) error {
	s.pos = pos
	return nil
}

func (s *ramSource) CloneSource() ByteSource {
	return &ramSource{data: s.data, pos: s.pos}
}

func (s *ramSource) Close() error {
	return nil
}

// sharedFile is an os.File closed when its last source is closed.
type sharedFile struct {
	*os.File
	refs atomic.Int32
}

func (f *sharedFile) release() error {
	if f.refs.Add(-1) == 0 {
		log.Debugf("Closing %v", f.Name())
		return f.File.Close()
	}
	return nil
}

/*
fileSource reads a slice of a shared file with ReadAt, so clones need
neither a lock nor their own descriptor.
*/
type fileSource struct {
	file   *sharedFile
	off    int64
	length int64
	pos    int64
	closed bool
}

func newFileSource(f *os.File) (*fileSource, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	shared := &sharedFile{File: f}
	shared.refs.Store(1)
	return &fileSource{file: shared, length: fi.Size()}, nil
}

func (s *fileSource) Length() int64 {
	return s.length
}

func (s *fileSource) ReadInternal(buf []byte) error {
	if s.pos+int64(len(buf)) > s.length {
		return fmt.Errorf("%w: %v", ErrEndOfStream, s.file.Name())
	}
	for total := 0; total < len(buf); {
		n, err := s.file.ReadAt(buf[total:], s.off+s.pos+int64(total))
		total += n
		if err == io.EOF && total < len(buf) {
			return fmt.Errorf("%w: %v", ErrEndOfStream, s.file.Name())
		} else if err != nil && err != io.EOF {
			return fmt.Errorf("%v: %w", s.file.Name(), err)
		}
	}
	s.pos += int64(len(buf))
	return nil
}

func (s *fileSource) SeekInternal(pos int64) error {
	s.pos = pos
	return nil
}

func (s *fileSource) CloneSource() ByteSource {
	assert2(!s.closed, "source already closed")
	s.file.refs.Add(1)
	return &fileSource{file: s.file, off: s.off, length: s.length, pos: s.pos}
}

func (s *fileSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.release()
}
