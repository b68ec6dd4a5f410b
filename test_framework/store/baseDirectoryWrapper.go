package store

import (
	"fmt"

	cs "github.com/balzaczyy/gotis/core/store"
)

/*
BaseDirectoryWrapper delegates every call to another Directory and
remembers whether it was closed.
*/
type BaseDirectoryWrapper struct {
	cs.Directory // our delegate
	isOpen       bool
}

func NewBaseDirectoryWrapper(delegate cs.Directory) *BaseDirectoryWrapper {
	return &BaseDirectoryWrapper{Directory: delegate, isOpen: true}
}

func (dw *BaseDirectoryWrapper) IsOpen() bool {
	return dw.isOpen
}

func (dw *BaseDirectoryWrapper) Delegate() cs.Directory {
	return dw.Directory
}

func (dw *BaseDirectoryWrapper) Close() error {
	dw.isOpen = false
	return dw.Directory.Close()
}

func (dw *BaseDirectoryWrapper) String() string {
	return fmt.Sprintf("BaseDirectoryWrapper(%v)", dw.Directory)
}
