package archive

import (
	"fmt"
	"sync"

	"github.com/hupe1980/mapped"
)

// MemoryArchive is a heap-resident StructuredSerializer node. Each node
// accumulates the frozen regions written through it, in write order, and
// owns its child entries. A single build pass constructs the tree; the
// matching read side is obtained from Reconstituter.
//
// Construction is single-writer; the reconstituted view is safe for any
// number of concurrent readers.
type MemoryArchive struct {
	ser      *mapped.MemorySerializer
	blocks   []mapped.FrozenMemoryRegion
	children map[string]*MemoryArchive

	// mergeMu guards the lazy concatenation below; reconstituted views
	// may be read from many goroutines at once.
	mergeMu sync.Mutex
	merged  *mapped.FrozenMemoryRegion
}

var _ mapped.StructuredSerializer = (*MemoryArchive)(nil)

// NewMemoryArchive returns an empty root node.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		ser:      mapped.NewMemorySerializer(),
		children: make(map[string]*MemoryArchive),
	}
}

// AllocateWritable allocates on the heap; the region's freeze lands in
// this node's content.
func (a *MemoryArchive) AllocateWritable(n int, alignment int) (*mapped.MutableMemoryRegion, error) {
	inner, err := a.ser.AllocateWritable(n, alignment)
	if err != nil {
		return nil, err
	}
	// Rebind ownership so Freeze dispatches back here.
	return mapped.NewMutableMemoryRegion(inner.Bytes(), inner.Handle(), a), nil
}

// Freeze records the frozen region as the next block of this node's
// content.
func (a *MemoryArchive) Freeze(region *mapped.MutableMemoryRegion) (mapped.FrozenMemoryRegion, error) {
	frozen, err := a.ser.Freeze(region)
	if err != nil {
		return mapped.FrozenMemoryRegion{}, err
	}
	a.blocks = append(a.blocks, frozen)
	a.merged = nil
	return frozen, nil
}

// Commit implements Serializer; the heap backend has nothing to flush.
func (a *MemoryArchive) Commit() error { return nil }

// NewEntry creates a child node under name. Duplicate names are
// rejected.
func (a *MemoryArchive) NewEntry(name string) (mapped.StructuredSerializer, error) {
	if _, ok := a.children[name]; ok {
		return nil, &mapped.DuplicateEntryError{Name: name}
	}
	child := NewMemoryArchive()
	a.children[name] = child
	return child, nil
}

// content returns this node's blocks as one contiguous region,
// concatenating lazily when more than one block was written.
func (a *MemoryArchive) content() (mapped.FrozenMemoryRegion, error) {
	switch len(a.blocks) {
	case 0:
		return mapped.FrozenMemoryRegion{}, nil
	case 1:
		return a.blocks[0], nil
	}

	a.mergeMu.Lock()
	defer a.mergeMu.Unlock()
	if a.merged != nil {
		return *a.merged, nil
	}

	total := 0
	for _, b := range a.blocks {
		total += b.Len()
	}
	dst, err := a.ser.AllocateWritable(total, 1)
	if err != nil {
		return mapped.FrozenMemoryRegion{}, err
	}
	buf := dst.Bytes()
	off := 0
	for _, b := range a.blocks {
		off += copy(buf[off:], b.Bytes())
	}
	merged, err := a.ser.Freeze(dst)
	if err != nil {
		return mapped.FrozenMemoryRegion{}, err
	}
	a.merged = &merged
	return merged, nil
}

// Reconstituter returns the read-side view of the tree built so far.
func (a *MemoryArchive) Reconstituter() mapped.StructuredReconstituter {
	return &memoryReconstituter{node: a}
}

type memoryReconstituter struct {
	node *MemoryArchive
}

var _ mapped.StructuredReconstituter = (*memoryReconstituter)(nil)

func (r *memoryReconstituter) GetRegion(name string) (mapped.FrozenMemoryRegion, error) {
	child, ok := r.node.children[name]
	if !ok {
		return mapped.FrozenMemoryRegion{}, fmt.Errorf("archive: entry %q: %w", name, mapped.ErrNotFound)
	}
	return child.content()
}

func (r *memoryReconstituter) GetStructure(name string) (mapped.StructuredReconstituter, error) {
	child, ok := r.node.children[name]
	if !ok {
		return nil, fmt.Errorf("archive: structure %q: %w", name, mapped.ErrNotFound)
	}
	return &memoryReconstituter{node: child}, nil
}
