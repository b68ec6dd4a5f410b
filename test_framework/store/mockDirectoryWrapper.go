package store

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	cs "github.com/balzaczyy/gotis/core/store"
)

// ErrOpenFiles is returned by Close while inputs or outputs are still
// open.
var ErrOpenFiles = errors.New("MockDirectoryWrapper: cannot close: there are still open files")

/*
MockDirectoryWrapper is a Directory wrapper meant for unit tests:

1. Every input it opens, and every clone of one, is tracked; Close
returns ErrOpenFiles naming the files still open.
2. Reads and seeks on its inputs are counted, so a test can tell
whether an operation touched the disk at all.
3. Deleting a file that is still open fails.
4. OpenInput can be made to fail for chosen files.
*/
type MockDirectoryWrapper struct {
	*BaseDirectoryWrapper
	sync.Locker // guards the maps below

	randomState      *rand.Rand
	noDeleteOpenFile bool

	openFiles       map[string]int
	openFileHandles map[io.Closer]string
	failOnOpen      map[string]error

	inputCloneCount atomic.Int64
	reads           atomic.Int64
	seeks           atomic.Int64
}

func NewMockDirectoryWrapper(random *rand.Rand, delegate cs.Directory) *MockDirectoryWrapper {
	return &MockDirectoryWrapper{
		BaseDirectoryWrapper: NewBaseDirectoryWrapper(delegate),
		Locker:               &sync.Mutex{},
		// must make a private random since our methods are called from
		// different goroutines; else test failures may not be
		// reproducible from the original seed
		randomState:      rand.New(rand.NewSource(random.Int63())),
		noDeleteOpenFile: true,
		openFiles:        make(map[string]int),
		openFileHandles:  make(map[io.Closer]string),
		failOnOpen:       make(map[string]error),
	}
}

// SetNoDeleteOpenFile controls whether deleting an open file fails.
func (w *MockDirectoryWrapper) SetNoDeleteOpenFile(value bool) {
	w.Lock()
	defer w.Unlock()
	w.noDeleteOpenFile = value
}

// FailOn makes the next OpenInput of name return err. A nil err removes
// the failure.
func (w *MockDirectoryWrapper) FailOn(name string, err error) {
	w.Lock()
	defer w.Unlock()
	if err == nil {
		delete(w.failOnOpen, name)
	} else {
		w.failOnOpen[name] = err
	}
}

// Reads returns the number of read calls made on inputs of this
// directory so far.
func (w *MockDirectoryWrapper) Reads() int64 {
	return w.reads.Load()
}

// Seeks returns the number of seeks made on inputs of this directory so
// far.
func (w *MockDirectoryWrapper) Seeks() int64 {
	return w.seeks.Load()
}

func (w *MockDirectoryWrapper) InputCloneCount() int64 {
	return w.inputCloneCount.Load()
}

// ResetCounters zeroes the read and seek counters.
func (w *MockDirectoryWrapper) ResetCounters() {
	w.reads.Store(0)
	w.seeks.Store(0)
}

// OpenFiles returns the names of files with open handles, sorted.
func (w *MockDirectoryWrapper) OpenFiles() []string {
	w.Lock()
	defer w.Unlock()
	names := make([]string, 0, len(w.openFiles))
	for name := range w.openFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w *MockDirectoryWrapper) maybeYield() {
	if w.randomState.Intn(2) == 0 {
		runtime.Gosched()
	}
}

func (w *MockDirectoryWrapper) DeleteFile(name string) error {
	w.Lock()
	defer w.Unlock()
	w.maybeYield()
	if w.noDeleteOpenFile && w.openFiles[name] > 0 {
		return fmt.Errorf("MockDirectoryWrapper: file %q is still open: cannot delete", name)
	}
	return w.Directory.DeleteFile(name)
}

func (w *MockDirectoryWrapper) CreateOutput(name string) (cs.IndexOutput, error) {
	w.Lock()
	defer w.Unlock()
	w.maybeYield()
	if w.noDeleteOpenFile && w.openFiles[name] > 0 {
		return nil, fmt.Errorf("MockDirectoryWrapper: file %q is still open: cannot overwrite", name)
	}
	out, err := w.Directory.CreateOutput(name)
	if err != nil {
		return nil, err
	}
	ans := &mockIndexOutputWrapper{IndexOutput: out, dir: w, name: name}
	w.addFileHandle(ans, name)
	return ans, nil
}

func (w *MockDirectoryWrapper) OpenInput(name string, bufferSize int) (cs.IndexInput, error) {
	w.Lock()
	defer w.Unlock()
	w.maybeYield()
	if err, ok := w.failOnOpen[name]; ok {
		delete(w.failOnOpen, name)
		return nil, err
	}
	in, err := w.Directory.OpenInput(name, bufferSize)
	if err != nil {
		return nil, err
	}
	ans := &mockIndexInputWrapper{IndexInput: in, dir: w, name: name}
	w.addFileHandle(ans, name)
	return ans, nil
}

// Must be called with the lock held.
func (w *MockDirectoryWrapper) addFileHandle(c io.Closer, name string) {
	w.openFiles[name]++
	w.openFileHandles[c] = name
}

func (w *MockDirectoryWrapper) removeOpenFile(c io.Closer, name string) {
	w.Lock()
	defer w.Unlock()
	if _, ok := w.openFileHandles[c]; !ok {
		return
	}
	delete(w.openFileHandles, c)
	if w.openFiles[name]--; w.openFiles[name] <= 0 {
		delete(w.openFiles, name)
	}
}

// Close fails with ErrOpenFiles if any input or output is still open.
// The delegate is closed either way.
func (w *MockDirectoryWrapper) Close() error {
	open := w.OpenFiles()
	err := w.BaseDirectoryWrapper.Close()
	if len(open) > 0 {
		return fmt.Errorf("%w: %v", ErrOpenFiles, strings.Join(open, ", "))
	}
	return err
}

func (w *MockDirectoryWrapper) String() string {
	return fmt.Sprintf("MockDirWrapper(%v)", w.Directory)
}

// mockIndexInputWrapper counts the calls made on an input and reports
// its closing.
type mockIndexInputWrapper struct {
	cs.IndexInput
	dir    *MockDirectoryWrapper
	name   string
	closed bool
}

func (in *mockIndexInputWrapper) ensureOpen() {
	if in.closed {
		panic(fmt.Sprintf("abusing closed IndexInput %v", in.name))
	}
}

func (in *mockIndexInputWrapper) read() {
	in.ensureOpen()
	in.dir.reads.Add(1)
}

func (in *mockIndexInputWrapper) ReadByte() (byte, error) {
	in.read()
	return in.IndexInput.ReadByte()
}

func (in *mockIndexInputWrapper) ReadBytes(buf []byte) error {
	in.read()
	return in.IndexInput.ReadBytes(buf)
}

func (in *mockIndexInputWrapper) ReadBytesBuffered(buf []byte, useBuffer bool) error {
	in.read()
	return in.IndexInput.ReadBytesBuffered(buf, useBuffer)
}

func (in *mockIndexInputWrapper) ReadShort() (int16, error) {
	in.read()
	return in.IndexInput.ReadShort()
}

func (in *mockIndexInputWrapper) ReadInt() (int32, error) {
	in.read()
	return in.IndexInput.ReadInt()
}

func (in *mockIndexInputWrapper) ReadVInt() (int32, error) {
	in.read()
	return in.IndexInput.ReadVInt()
}

func (in *mockIndexInputWrapper) ReadLong() (int64, error) {
	in.read()
	return in.IndexInput.ReadLong()
}

func (in *mockIndexInputWrapper) ReadVLong() (int64, error) {
	in.read()
	return in.IndexInput.ReadVLong()
}

func (in *mockIndexInputWrapper) ReadString() (string, error) {
	in.read()
	return in.IndexInput.ReadString()
}

func (in *mockIndexInputWrapper) Seek(pos int64) error {
	in.ensureOpen()
	in.dir.seeks.Add(1)
	return in.IndexInput.Seek(pos)
}

func (in *mockIndexInputWrapper) Clone() cs.IndexInput {
	in.ensureOpen()
	in.dir.inputCloneCount.Add(1)
	ans := &mockIndexInputWrapper{IndexInput: in.IndexInput.Clone(), dir: in.dir, name: in.name}
	in.dir.Lock()
	in.dir.addFileHandle(ans, in.name)
	in.dir.Unlock()
	return ans
}

func (in *mockIndexInputWrapper) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true
	in.dir.removeOpenFile(in, in.name)
	return in.IndexInput.Close()
}

func (in *mockIndexInputWrapper) String() string {
	return fmt.Sprintf("MockIndexInputWrapper(%v)", in.IndexInput)
}

type mockIndexOutputWrapper struct {
	cs.IndexOutput
	dir    *MockDirectoryWrapper
	name   string
	closed bool
}

func (out *mockIndexOutputWrapper) Close() error {
	if out.closed {
		return nil
	}
	out.closed = true
	out.dir.removeOpenFile(out, out.name)
	return out.IndexOutput.Close()
}

func (out *mockIndexOutputWrapper) String() string {
	return fmt.Sprintf("MockIndexOutputWrapper(%v)", out.IndexOutput)
}
