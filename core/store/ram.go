package store

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// store/RAMDirectory.java

/*
RAMDirectory is a memory-resident Directory. Files become visible when
created and readable content is published when their output is closed.
It is meant for small indexes and tests.
*/
type RAMDirectory struct {
	*DirectoryImpl

	fileMap     map[string]*RAMFile
	fileMapLock sync.RWMutex
}

func NewRAMDirectory() *RAMDirectory {
	ans := &RAMDirectory{fileMap: make(map[string]*RAMFile)}
	ans.DirectoryImpl = NewDirectoryImpl(ans)
	return ans
}

func (rd *RAMDirectory) file(name string) (*RAMFile, error) {
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	if f, ok := rd.fileMap[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %v", os.ErrNotExist, name)
}

func (rd *RAMDirectory) ListAll() (names []string, err error) {
	rd.EnsureOpen()
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	names = make([]string, 0, len(rd.fileMap))
	for name := range rd.fileMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (rd *RAMDirectory) FileExists(name string) bool {
	rd.EnsureOpen()
	_, err := rd.file(name)
	return err == nil
}

func (rd *RAMDirectory) FileLength(name string) (int64, error) {
	rd.EnsureOpen()
	f, err := rd.file(name)
	if err != nil {
		return 0, err
	}
	return int64(len(f.Bytes())), nil
}

func (rd *RAMDirectory) DeleteFile(name string) error {
	rd.EnsureOpen()
	rd.fileMapLock.Lock()
	defer rd.fileMapLock.Unlock()
	if _, ok := rd.fileMap[name]; !ok {
		return fmt.Errorf("%w: %v", os.ErrNotExist, name)
	}
	delete(rd.fileMap, name)
	return nil
}

// CreateOutput creates a new, empty file, replacing any existing one.
func (rd *RAMDirectory) CreateOutput(name string) (IndexOutput, error) {
	rd.EnsureOpen()
	f := &RAMFile{}
	rd.fileMapLock.Lock()
	rd.fileMap[name] = f
	rd.fileMapLock.Unlock()
	return NewRAMOutputStream(name, f), nil
}

func (rd *RAMDirectory) OpenInput(name string, bufferSize int) (IndexInput, error) {
	rd.EnsureOpen()
	f, err := rd.file(name)
	if err != nil {
		return nil, err
	}
	return NewBufferedIndexInput(fmt.Sprintf("RAMInputStream(name=%v)", name),
		newRAMSource(f.Bytes()), bufferSize), nil
}

func (rd *RAMDirectory) Close() error {
	rd.IsOpen = false
	rd.fileMapLock.Lock()
	defer rd.fileMapLock.Unlock()
	rd.fileMap = make(map[string]*RAMFile)
	return nil
}

func (rd *RAMDirectory) String() string {
	return fmt.Sprintf("RAMDirectory@%p", rd)
}

// store/RAMFile.java

// RAMFile holds the published content of an in-memory file.
type RAMFile struct {
	lock sync.RWMutex
	data []byte
}

func (rf *RAMFile) Bytes() []byte {
	rf.lock.RLock()
	defer rf.lock.RUnlock()
	return rf.data
}

func (rf *RAMFile) publish(data []byte) {
	rf.lock.Lock()
	defer rf.lock.Unlock()
	rf.data = data
}

// store/RAMOutputStream.java

/*
RAMOutputStream is a growable in-memory IndexOutput. Content is copied
into its RAMFile, if any, on Flush and Close.
*/
type RAMOutputStream struct {
	*IndexOutputImpl
	name   string
	file   *RAMFile
	buf    []byte
	pos    int
	length int
}

// NewRAMOutputStreamBuffer returns a stream that is not backed by a file.
func NewRAMOutputStreamBuffer() *RAMOutputStream {
	return NewRAMOutputStream("", nil)
}

func NewRAMOutputStream(name string, f *RAMFile) *RAMOutputStream {
	ans := &RAMOutputStream{name: name, file: f}
	ans.IndexOutputImpl = newIndexOutput(ans)
	return ans
}

func (out *RAMOutputStream) grow(n int) {
	if need := out.pos + n; need > len(out.buf) {
		newBuf := make([]byte, max(need, 2*len(out.buf), 64))
		copy(newBuf, out.buf[:out.length])
		out.buf = newBuf
	}
}

func (out *RAMOutputStream) WriteByte(b byte) error {
	out.grow(1)
	out.buf[out.pos] = b
	out.pos++
	out.length = max(out.length, out.pos)
	return nil
}

func (out *RAMOutputStream) WriteBytes(p []byte) error {
	out.grow(len(p))
	out.pos += copy(out.buf[out.pos:], p)
	out.length = max(out.length, out.pos)
	return nil
}

func (out *RAMOutputStream) FilePointer() int64 {
	return int64(out.pos)
}

func (out *RAMOutputStream) Length() int64 {
	return int64(out.length)
}

func (out *RAMOutputStream) Seek(pos int64) error {
	assert2(pos >= 0 && pos <= int64(out.length), "seek to %v outside [0,%v]", pos, out.length)
	out.pos = int(pos)
	return nil
}

// Reset empties the stream, keeping its buffer.
func (out *RAMOutputStream) Reset() {
	out.pos, out.length = 0, 0
}

// Bytes returns the content written so far. It is only valid until the
// next write.
func (out *RAMOutputStream) Bytes() []byte {
	return out.buf[:out.length]
}

// WriteTo copies the content written so far to another output.
func (out *RAMOutputStream) WriteTo(dest IndexOutput) error {
	return dest.WriteBytes(out.buf[:out.length])
}

func (out *RAMOutputStream) Flush() {
	if out.file != nil {
		data := make([]byte, out.length)
		copy(data, out.buf)
		out.file.publish(data)
	}
}

func (out *RAMOutputStream) Close() error {
	out.Flush()
	return nil
}

func (out *RAMOutputStream) String() string {
	return fmt.Sprintf("RAMOutputStream(name=%v)", out.name)
}
