package mapped

import (
	"github.com/hupe1980/mapped/internal/mem"
)

// MemorySerializer allocates writable regions from aligned heap buffers.
// Freezing is zero-copy: the frozen region views the same bytes under
// the same ownership token. Commit is a no-op; nothing is buffered
// externally.
type MemorySerializer struct{}

var _ Serializer = (*MemorySerializer)(nil)

// NewMemorySerializer returns a heap-backed serializer.
func NewMemorySerializer() *MemorySerializer {
	return &MemorySerializer{}
}

// AllocateWritable performs an aligned heap allocation of n bytes.
// Alignment below the pointer size is raised to the pointer size.
// Failure returns an *AllocError carrying the requested size and
// alignment.
func (s *MemorySerializer) AllocateWritable(n int, alignment int) (*MutableMemoryRegion, error) {
	buf, err := mem.AllocAligned(n, alignment)
	if err != nil {
		return nil, &AllocError{Size: n, Alignment: alignment, Err: err}
	}
	// The garbage collector owns heap buffers; the handle exists so
	// derived views share one lifetime token like any other backend.
	return NewMutableMemoryRegion(buf, NewHandle(nil), s), nil
}

// Freeze shares the mutable region's bytes and handle; no copy is made.
func (s *MemorySerializer) Freeze(region *MutableMemoryRegion) (FrozenMemoryRegion, error) {
	data := region.Bytes()
	if data == nil && region.Len() > 0 {
		return FrozenMemoryRegion{}, ErrFrozen
	}
	region.markFrozen()
	return NewFrozenMemoryRegion(data, region.Handle()), nil
}

// Commit implements Serializer. The heap backend has nothing to flush.
func (s *MemorySerializer) Commit() error { return nil }
