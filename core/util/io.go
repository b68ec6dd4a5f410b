package util

import (
	"io"
)

// CompoundError keeps the first error of a close sequence and records the
// ones suppressed after it.
type CompoundError struct {
	errs []error
}

func (e *CompoundError) Error() string {
	return e.errs[0].Error()
}

func (e *CompoundError) Unwrap() []error {
	return e.errs
}

// Suppressed returns the errors recorded after the first one.
func (e *CompoundError) Suppressed() []error {
	return e.errs[1:]
}

/*
CloseWhileHandlingError closes every non-nil object. If priorErr is not
nil it is returned unchanged and close failures are dropped; otherwise
the first close failure is returned, carrying the later ones.
*/
func CloseWhileHandlingError(priorErr error, objects ...io.Closer) error {
	err := Close(objects...)
	if priorErr != nil {
		return priorErr
	}
	return err
}

// CloseWhileSuppressingError closes every non-nil object and ignores errors.
func CloseWhileSuppressingError(objects ...io.Closer) {
	for _, object := range objects {
		if object != nil {
			object.Close()
		}
	}
}

// Close closes every non-nil object, even after a failure, and returns the
// first failure with later ones attached.
func Close(objects ...io.Closer) error {
	var errs []error
	for _, object := range objects {
		if object == nil {
			continue
		}
		if err := object.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &CompoundError{errs}
	}
}
