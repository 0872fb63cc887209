package interfile

import "errors"

var (
	// ErrFatalInput reports an unusable input: a missing file, a wrong file
	// type or a malformed required record. It aborts the whole operation.
	ErrFatalInput = errors.New("fatal input error")

	// ErrTagNotFound reports a tag that is absent from a header where a
	// value is required. Header edits themselves never return it.
	ErrTagNotFound = errors.New("tag not found")
)
