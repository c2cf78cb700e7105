package mapped

import (
	"os"
)

// MapToEnd requests mapping from startOffset to the end of the file.
const MapToEnd int64 = -1

// MapFile opens a local file read-only and returns a frozen region
// backed by a shared, read-only memory mapping of bytes
// [startOffset, startOffset+length). length may be MapToEnd to map
// through the end of the file, resolved with a size query.
//
// The OS mapping itself always starts on a boundary of the platform's
// mapping granularity (the page size on Unix, the allocation
// granularity on Windows): the requested offset is rounded down and the
// extent rounded up, clamped to the file size, and the returned
// region's data pointer is advanced past the remainder so the caller
// sees exactly the logical byte range requested. A negative offset or
// an explicit range extending past the end of the file fails with a
// *BoundsError. The region's ownership token unmaps the full mapping
// and closes the file descriptor exactly once, when the last derived
// view is dropped.
func MapFile(ref FileRef, startOffset int64, length int64) (FrozenMemoryRegion, error) {
	if ref.Scheme() != "file" {
		return FrozenMemoryRegion{}, &UnsupportedSourceError{Scheme: ref.Scheme()}
	}

	f, err := os.Open(ref.Path())
	if err != nil {
		return FrozenMemoryRegion{}, &IOError{Op: "open", Path: ref.Path(), Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return FrozenMemoryRegion{}, &IOError{Op: "stat", Path: ref.Path(), Err: err}
	}
	size := fi.Size()

	if startOffset < 0 {
		f.Close()
		return FrozenMemoryRegion{}, &BoundsError{Op: "map", Start: startOffset, End: startOffset, Length: size}
	}
	if length < 0 {
		length = size - startOffset
		if length < 0 {
			length = 0
		}
	}

	if length == 0 {
		f.Close()
		return FrozenMemoryRegion{}, nil
	}

	if startOffset+length > size {
		f.Close()
		return FrozenMemoryRegion{}, &BoundsError{Op: "map", Start: startOffset, End: startOffset + length, Length: size}
	}

	align := mapAlignment()
	mapOffset := startOffset &^ (align - 1)
	skip := startOffset - mapOffset
	mapLength := (skip + length + align - 1) &^ (align - 1)
	// A view must not extend past the end of the file object on Windows;
	// partial trailing lengths are valid on every platform.
	if rest := size - mapOffset; mapLength > rest {
		mapLength = rest
	}

	data, unmap, err := osMapShared(f, mapOffset, int(mapLength))
	if err != nil {
		f.Close()
		return FrozenMemoryRegion{}, &IOError{Op: "mmap", Path: ref.Path(), Err: err}
	}

	handle := NewHandle(func() {
		_ = unmap(data)
		_ = f.Close()
	})

	return NewFrozenMemoryRegion(data[skip:skip+length:skip+length], handle), nil
}
