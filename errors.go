package mapped

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrEmptyPath is returned by the recursive structured lookups when
	// called with a zero-length path.
	ErrEmptyPath = errors.New("mapped: empty path")

	// ErrFrozen is returned when a mutable region is frozen twice or
	// written through after Freeze.
	ErrFrozen = errors.New("mapped: region already frozen")

	// ErrNotFound is returned when a named entry does not exist.
	//
	// Backends should return an error that satisfies
	// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
	ErrNotFound = os.ErrNotExist
)

// BoundsError indicates a range, seek or file map request outside the
// valid extent of its target.
//
// It signals a programming or data-corruption error at the call site;
// callers are expected to treat it as fatal rather than retry.
type BoundsError struct {
	Op     string // "range", "seek" or "map"
	Start  int64
	End    int64
	Length int64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("mapped: %s [%d, %d) out of bounds for region of length %d",
		e.Op, e.Start, e.End, e.Length)
}

// UnsupportedSourceError indicates a reference with a scheme the file
// mapper cannot handle.
type UnsupportedSourceError struct {
	Scheme string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("mapped: only file references can be memory mapped, got scheme %q", e.Scheme)
}

// IOError wraps an open/stat/mmap failure with the path it occurred on.
//
// The original underlying error can be accessed via errors.Unwrap.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("mapped: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// AllocError indicates a failed writable allocation, carrying the
// requested size and alignment.
type AllocError struct {
	Size      int
	Alignment int
	Err       error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("mapped: cannot allocate %d bytes at alignment %d: %v",
		e.Size, e.Alignment, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

// ObjectError indicates a failed encode or decode of a typed metadata
// entry, carrying the entry name for diagnosability.
type ObjectError struct {
	Entry string
	Err   error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("mapped: object entry %q: %v", e.Entry, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// DuplicateEntryError indicates a second NewEntry call with a name that
// already exists under the same parent. Duplicate names are rejected for
// every backend in this module.
type DuplicateEntryError struct {
	Name string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("mapped: entry %q already exists", e.Name)
}
