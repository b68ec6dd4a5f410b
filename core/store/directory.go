package store

import (
	"errors"
	"io"

	"github.com/balzaczyy/gotis/core/util"
)

var ErrAlreadyClosed = errors.New("this Directory is closed")

/*
Directory is a flat list of files. Files are written once, from
beginning to end, and read with random access.
*/
type Directory interface {
	io.Closer
	ListAll() (paths []string, err error)
	// Returns true iff a file with the given name exists.
	FileExists(name string) bool
	// Removes an existing file in the directory.
	DeleteFile(name string) error
	// Returns the length of a file in the directory, or an error
	// wrapping os.ErrNotExist if it does not exist.
	FileLength(name string) (n int64, err error)
	// Creates a new, empty file in the directory with the given name.
	// Returns a stream writing this file.
	CreateOutput(name string) (out IndexOutput, err error)
	// Returns a stream reading an existing file with the given read
	// buffer size.
	OpenInput(name string, bufferSize int) (in IndexInput, err error)
	EnsureOpen()
}

type DirectoryImplSPI interface {
	OpenInput(string, int) (IndexInput, error)
}

type DirectoryImpl struct {
	spi    DirectoryImplSPI
	IsOpen bool
}

func NewDirectoryImpl(spi DirectoryImplSPI) *DirectoryImpl {
	return &DirectoryImpl{spi: spi, IsOpen: true}
}

// EnsureOpen panics if this directory was closed.
func (d *DirectoryImpl) EnsureOpen() {
	if !d.IsOpen {
		panic(ErrAlreadyClosed)
	}
}

/*
Copy copies the file src to 'to' under the new file name dest. An
existing dest is overwritten; on failure the partial dest is removed.
*/
func (d *DirectoryImpl) Copy(to Directory, src, dest string) (err error) {
	var os IndexOutput
	var is IndexInput
	var success = false
	defer func() {
		if success {
			err = util.Close(os, is)
			return
		}
		util.CloseWhileSuppressingError(os, is)
		to.DeleteFile(dest) // ignore error
	}()

	if os, err = to.CreateOutput(dest); err != nil {
		return err
	}
	if is, err = d.spi.OpenInput(src, BUFFER_SIZE); err != nil {
		return err
	}
	if err = os.CopyBytes(is, is.Length()); err != nil {
		return err
	}
	success = true
	return nil
}
