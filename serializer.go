package mapped

import (
	"bytes"
	"errors"
)

// Serializer is the allocation capability behind regions: it hands out
// writable regions and converts them, zero-copy, into frozen ones.
//
// Implementations decide the allocation strategy (heap, file-backed,
// remote). They are not safe for concurrent writers; archive
// construction is single-writer by contract.
type Serializer interface {
	// AllocateWritable returns a writable region of n bytes aligned to at
	// least alignment. Alignment smaller than the pointer size is raised
	// to the pointer size; it must be a power of two.
	AllocateWritable(n int, alignment int) (*MutableMemoryRegion, error)

	// Freeze converts a region this serializer allocated into an
	// immutable view of the same bytes, without copying.
	Freeze(region *MutableMemoryRegion) (FrozenMemoryRegion, error)

	// Commit flushes any buffered backend state. It is a no-op for
	// backends with nothing external to flush.
	Commit() error
}

// Copy allocates region.Len() bytes on s at byte alignment, copies the
// contents and freezes the result. This is the generic fallback every
// backend gets from its allocate and freeze primitives; the copy is
// backed by an independent allocation.
func Copy(s Serializer, region FrozenMemoryRegion) (FrozenMemoryRegion, error) {
	w, err := s.AllocateWritable(region.Len(), 1)
	if err != nil {
		return FrozenMemoryRegion{}, err
	}
	copy(w.Bytes(), region.Bytes())
	return w.Freeze()
}

// RegionWriter is a buffered write stream over a serializer. Bytes
// written accumulate in an internal buffer; Close submits them as a
// single contiguous frozen region, available from Region.
type RegionWriter struct {
	owner  Serializer
	buf    bytes.Buffer
	region FrozenMemoryRegion
	closed bool
}

// NewRegionWriter returns a write stream whose Close materializes the
// buffered bytes as one frozen region on s.
func NewRegionWriter(s Serializer) *RegionWriter {
	return &RegionWriter{owner: s}
}

// Write appends p to the internal buffer.
func (w *RegionWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("mapped: write on closed RegionWriter")
	}
	return w.buf.Write(p)
}

// Close freezes the buffered bytes into a region. Close is idempotent.
func (w *RegionWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	dst, err := w.owner.AllocateWritable(w.buf.Len(), 1)
	if err != nil {
		return err
	}
	copy(dst.Bytes(), w.buf.Bytes())
	region, err := dst.Freeze()
	if err != nil {
		return err
	}
	w.region = region
	w.buf.Reset()
	return nil
}

// Region returns the frozen region produced by Close. Calling Region
// before Close returns an error.
func (w *RegionWriter) Region() (FrozenMemoryRegion, error) {
	if !w.closed {
		return FrozenMemoryRegion{}, errors.New("mapped: RegionWriter not closed")
	}
	return w.region, nil
}
