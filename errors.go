package wordhash

import "errors"

var (
	// ErrInvalidParameter is reported for conflicting or out-of-range
	// options. It is always reported before any file is read.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRange is reported when a sampling plan cannot be constructed
	// for the size of the input.
	ErrInvalidRange = errors.New("invalid range")

	// ErrIO is reported when a file or one of its selected blocks cannot be
	// read in full.
	ErrIO = errors.New("read failed")

	// ErrInconsistent is reported when a word list is malformed.
	ErrInconsistent = errors.New("inconsistent word list")
)
