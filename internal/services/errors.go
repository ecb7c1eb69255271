package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInputFile marks an input path that does not exist. Non-fatal.
	ErrMissingInputFile = errors.New("input file not found")
	// ErrUnparsableSource marks an input that is not a readable PDF. Non-fatal.
	ErrUnparsableSource = errors.New("source could not be parsed as PDF")
	// ErrUnsupportedType marks an exhibit attachment that is not a PDF. Non-fatal.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrMissingOptionalSection marks an optional input that was not supplied.
	// It always degrades to a placeholder page.
	ErrMissingOptionalSection = errors.New("optional section missing")
	// ErrNoValidContent fails a merge job when no input contributed a page.
	ErrNoValidContent = errors.New("no valid pages to merge")
	// ErrSerialization is the only failure that escapes the composer, and
	// escapes the merge manager when the output cannot be written.
	ErrSerialization = errors.New("failed to serialize output")
	// ErrMergeInProgress rejects a second concurrent run for the same key.
	ErrMergeInProgress = errors.New("merge already in progress")
	// ErrInvalidRequest rejects a request before any work starts.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSectionAlreadyTracked rejects a second start page for a section.
	ErrSectionAlreadyTracked = errors.New("section start page already recorded")
)

// Diagnostic records an input that was skipped and why.
type Diagnostic struct {
	Path string
	Err  error
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return d.Err.Error()
	}
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

func diagnosticStrings(ds []Diagnostic) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
