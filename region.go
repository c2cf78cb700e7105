package mapped

import (
	"sync/atomic"
)

// Handle is the reference-counted ownership token behind a region's
// backing storage. Every region derived from the same buffer shares the
// token; the release action fires exactly once, when the last holder
// calls Release.
//
// Heap-backed regions may carry a handle with a nil release action (the
// garbage collector owns the memory); mmap-backed regions use the
// release action to unmap and close the file.
type Handle struct {
	refs    atomic.Int64
	release func()
}

// NewHandle creates a handle with a reference count of one. release may
// be nil.
func NewHandle(release func()) *Handle {
	h := &Handle{release: release}
	h.refs.Store(1)
	return h
}

// Retain increments the reference count and returns the handle.
func (h *Handle) Retain() *Handle {
	if h == nil {
		return nil
	}
	h.refs.Add(1)
	return h
}

// Release decrements the reference count, running the release action
// when it reaches zero.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	if h.refs.Add(-1) == 0 && h.release != nil {
		h.release()
	}
}

// FrozenMemoryRegion is an immutable view over a byte buffer.
//
// The zero value is an empty region with no backing storage. Regions are
// safe to read concurrently from any number of goroutines; destruction,
// not mutation, is the only state change they undergo.
type FrozenMemoryRegion struct {
	data   []byte
	handle *Handle
}

// NewFrozenMemoryRegion wraps data in a frozen region owning one
// reference on handle. handle may be nil for regions whose storage the
// garbage collector manages.
func NewFrozenMemoryRegion(data []byte, handle *Handle) FrozenMemoryRegion {
	return FrozenMemoryRegion{data: data, handle: handle}
}

// Bytes returns the region's contents. The slice must not be mutated.
func (r FrozenMemoryRegion) Bytes() []byte { return r.data }

// Len returns the region's length in bytes.
func (r FrozenMemoryRegion) Len() int { return len(r.data) }

// Handle returns the region's ownership token, possibly nil.
func (r FrozenMemoryRegion) Handle() *Handle { return r.handle }

// Range returns a view of bytes [start, end) sharing the same ownership
// token; the parent buffer stays alive as long as either view does. No
// bytes are copied. The returned region owns its own reference and must
// be closed independently.
func (r FrozenMemoryRegion) Range(start, end int) (FrozenMemoryRegion, error) {
	if end < start || end > len(r.data) || start < 0 {
		return FrozenMemoryRegion{}, &BoundsError{
			Op:     "range",
			Start:  int64(start),
			End:    int64(end),
			Length: int64(len(r.data)),
		}
	}
	return FrozenMemoryRegion{data: r.data[start:end], handle: r.handle.Retain()}, nil
}

// Close drops this view's reference on the backing storage. The storage
// is released once every derived view has been closed. Close on a region
// without a handle is a no-op.
func (r FrozenMemoryRegion) Close() error {
	r.handle.Release()
	return nil
}

// MutableMemoryRegion is a writable view produced by a Serializer's
// AllocateWritable. Freeze converts it, exactly once and without
// copying, into a FrozenMemoryRegion over the same bytes.
type MutableMemoryRegion struct {
	data   []byte
	handle *Handle
	owner  Serializer
	frozen bool
}

// NewMutableMemoryRegion is intended for Serializer implementations.
func NewMutableMemoryRegion(data []byte, handle *Handle, owner Serializer) *MutableMemoryRegion {
	return &MutableMemoryRegion{data: data, handle: handle, owner: owner}
}

// Bytes returns the writable contents, or nil once the region has been
// frozen.
func (r *MutableMemoryRegion) Bytes() []byte {
	if r.frozen {
		return nil
	}
	return r.data
}

// Len returns the region's length in bytes.
func (r *MutableMemoryRegion) Len() int { return len(r.data) }

// Handle returns the region's ownership token.
func (r *MutableMemoryRegion) Handle() *Handle { return r.handle }

// Freeze converts the region to an immutable view of the same bytes by
// dispatching to the owning serializer. Ownership of the handle
// transfers to the frozen region; the mutable view must not be written
// through afterwards. Freezing twice returns ErrFrozen.
func (r *MutableMemoryRegion) Freeze() (FrozenMemoryRegion, error) {
	if r.frozen {
		return FrozenMemoryRegion{}, ErrFrozen
	}
	return r.owner.Freeze(r)
}

// markFrozen is called by serializers completing a freeze.
func (r *MutableMemoryRegion) markFrozen() { r.frozen = true }
