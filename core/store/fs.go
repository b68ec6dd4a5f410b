package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// store/FSDirectory.java

// FSDirectory stores files in a file system directory.
type FSDirectory struct {
	*DirectoryImpl
	path string
}

// OpenFSDirectory opens path as a directory, creating it if needed.
func OpenFSDirectory(path string) (*FSDirectory, error) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return nil, fmt.Errorf("file '%v' exists but is not a directory", path)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	d := &FSDirectory{path: path}
	d.DirectoryImpl = NewDirectoryImpl(d)
	log.Debugf("Opened FSDirectory at %v", path)
	return d, nil
}

func (d *FSDirectory) Path() string {
	return d.path
}

func (d *FSDirectory) ListAll() ([]string, error) {
	d.EnsureOpen()
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *FSDirectory) FileExists(name string) bool {
	d.EnsureOpen()
	_, err := os.Stat(filepath.Join(d.path, name))
	return err == nil
}

func (d *FSDirectory) FileLength(name string) (int64, error) {
	d.EnsureOpen()
	fi, err := os.Stat(filepath.Join(d.path, name))
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (d *FSDirectory) DeleteFile(name string) error {
	d.EnsureOpen()
	return os.Remove(filepath.Join(d.path, name))
}

func (d *FSDirectory) CreateOutput(name string) (IndexOutput, error) {
	d.EnsureOpen()
	f, err := os.Create(filepath.Join(d.path, name))
	if err != nil {
		return nil, err
	}
	return newFSIndexOutput(f), nil
}

func (d *FSDirectory) OpenInput(name string, bufferSize int) (IndexInput, error) {
	d.EnsureOpen()
	fpath := filepath.Join(d.path, name)
	log.Debugf("Opening %v...", fpath)
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return NewBufferedIndexInput(fmt.Sprintf("FSIndexInput(path='%v')", fpath), source, bufferSize), nil
}

func (d *FSDirectory) Close() error {
	d.IsOpen = false
	return nil
}

func (d *FSDirectory) String() string {
	return fmt.Sprintf("FSDirectory@%v", d.path)
}

// FSIndexOutput is a buffered IndexOutput over an os.File.
type FSIndexOutput struct {
	*IndexOutputImpl
	file   *os.File
	writer *bufio.Writer
	pos    int64
	length int64
}

func newFSIndexOutput(f *os.File) *FSIndexOutput {
	ans := &FSIndexOutput{file: f, writer: bufio.NewWriterSize(f, 8192)}
	ans.IndexOutputImpl = newIndexOutput(ans)
	return ans
}

func (out *FSIndexOutput) WriteByte(b byte) error {
	if err := out.writer.WriteByte(b); err != nil {
		return err
	}
	out.advance(1)
	return nil
}

func (out *FSIndexOutput) WriteBytes(p []byte) error {
	n, err := out.writer.Write(p)
	out.advance(int64(n))
	return err
}

func (out *FSIndexOutput) advance(n int64) {
	out.pos += n
	out.length = max(out.length, out.pos)
}

func (out *FSIndexOutput) FilePointer() int64 {
	return out.pos
}

func (out *FSIndexOutput) Length() int64 {
	return out.length
}

func (out *FSIndexOutput) Seek(pos int64) error {
	if err := out.writer.Flush(); err != nil {
		return err
	}
	if _, err := out.file.Seek(pos, 0); err != nil {
		return err
	}
	out.pos = pos
	return nil
}

func (out *FSIndexOutput) Close() error {
	err := out.writer.Flush()
	if err2 := out.file.Close(); err == nil {
		err = err2
	}
	return err
}

func (out *FSIndexOutput) String() string {
	return fmt.Sprintf("FSIndexOutput(path='%v')", out.file.Name())
}
