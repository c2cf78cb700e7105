package mapped

import (
	"io"
)

// RegionReader is a seekable read-only stream over a frozen region. It
// holds the same ownership token as the region it adapts; no bytes are
// copied. Seeks outside [0, Len] fail with a *BoundsError.
type RegionReader struct {
	region FrozenMemoryRegion
	cursor int64
}

var (
	_ io.ReadSeeker = (*RegionReader)(nil)
	_ io.ReaderAt   = (*RegionReader)(nil)
)

// NewRegionReader returns a stream positioned at the start of region.
func NewRegionReader(region FrozenMemoryRegion) *RegionReader {
	return &RegionReader{region: region}
}

// Size returns the total length of the underlying region.
func (r *RegionReader) Size() int64 { return int64(r.region.Len()) }

func (r *RegionReader) Read(p []byte) (int, error) {
	data := r.region.Bytes()
	if r.cursor >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[r.cursor:])
	r.cursor += int64(n)
	return n, nil
}

func (r *RegionReader) ReadAt(p []byte, off int64) (int, error) {
	data := r.region.Bytes()
	if off < 0 || off > int64(len(data)) {
		return 0, &BoundsError{Op: "seek", Start: off, End: off, Length: int64(len(data))}
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek repositions the cursor. Forward, backward and absolute seeks are
// supported; the resulting position must stay within [0, Size].
func (r *RegionReader) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = r.cursor + offset
	case io.SeekEnd:
		pos = int64(r.region.Len()) + offset
	default:
		return r.cursor, &BoundsError{Op: "seek", Start: offset, End: offset, Length: int64(r.region.Len())}
	}
	if pos < 0 || pos > int64(r.region.Len()) {
		return r.cursor, &BoundsError{Op: "seek", Start: pos, End: pos, Length: int64(r.region.Len())}
	}
	r.cursor = pos
	return pos, nil
}

// Region returns the underlying frozen region.
func (r *RegionReader) Region() FrozenMemoryRegion { return r.region }
