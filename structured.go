package mapped

import (
	"github.com/hupe1980/mapped/codec"
)

// StructuredSerializer is the write side of the tree-shaped naming
// protocol: a serializer that can also materialize named child
// serializers. Names are unique per parent; registering a duplicate
// returns a *DuplicateEntryError. Entry order is irrelevant, consumers
// locate entries by name.
type StructuredSerializer interface {
	Serializer

	// NewEntry materializes a child serializer bound to the same backend
	// (heap sub-buffer, file sub-range, object key prefix).
	NewEntry(name string) (StructuredSerializer, error)
}

// AddRegion creates a child entry under name and copies the frozen
// region's bytes into it through the child's own allocation path, so the
// child may live on a different backend than the region's source.
func AddRegion(s StructuredSerializer, region FrozenMemoryRegion, name string) error {
	child, err := s.NewEntry(name)
	if err != nil {
		return err
	}
	_, err = Copy(child, region)
	return err
}

// NewObject renders value to the codec's textual encoding and writes the
// encoded bytes into a child entry under name. Metadata entries are
// conventionally named "md", stored as a self-describing text blob
// sibling to any binary payload the same logical node holds.
func NewObject(s StructuredSerializer, name string, value any, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	printed, err := c.Marshal(value)
	if err != nil {
		return &ObjectError{Entry: name, Err: err}
	}
	entry, err := s.NewEntry(name)
	if err != nil {
		return err
	}
	dst, err := entry.AllocateWritable(len(printed), 1)
	if err != nil {
		return err
	}
	copy(dst.Bytes(), printed)
	_, err = dst.Freeze()
	return err
}

// StructuredReconstituter is the read side: it resolves single path
// segments to regions or child nodes. The recursive variants below are
// backend-independent and descend strictly left to right.
type StructuredReconstituter interface {
	// GetRegion returns the frozen region stored under name.
	GetRegion(name string) (FrozenMemoryRegion, error)

	// GetStructure returns the child node under name.
	GetStructure(name string) (StructuredReconstituter, error)
}

// GetRegionRecursive resolves a multi-segment path by descending one
// structure per segment until a single segment remains, which is
// resolved with GetRegion. An empty path returns ErrEmptyPath.
func GetRegionRecursive(r StructuredReconstituter, path []string) (FrozenMemoryRegion, error) {
	if len(path) == 0 {
		return FrozenMemoryRegion{}, ErrEmptyPath
	}
	if len(path) == 1 {
		return r.GetRegion(path[0])
	}
	child, err := r.GetStructure(path[0])
	if err != nil {
		return FrozenMemoryRegion{}, err
	}
	return GetRegionRecursive(child, path[1:])
}

// GetStructureRecursive descends one segment at a time, replacing the
// current node with each successive child, and returns the final child.
func GetStructureRecursive(r StructuredReconstituter, path []string) (StructuredReconstituter, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	current := r
	for _, segment := range path {
		child, err := current.GetStructure(segment)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// GetStream wraps the region under name in a seekable read-only view
// without copying its bytes.
func GetStream(r StructuredReconstituter, name string) (*RegionReader, error) {
	region, err := r.GetRegion(name)
	if err != nil {
		return nil, err
	}
	return NewRegionReader(region), nil
}

// GetStreamRecursive resolves path like GetRegionRecursive, terminating
// in GetStream.
func GetStreamRecursive(r StructuredReconstituter, path []string) (*RegionReader, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	if len(path) == 1 {
		return GetStream(r, path[0])
	}
	child, err := r.GetStructure(path[0])
	if err != nil {
		return nil, err
	}
	return GetStreamRecursive(child, path[1:])
}

// GetObject parses the textual encoding stored under name into value
// using the codec. Parse failures surface as an *ObjectError naming the
// entry.
func GetObject(r StructuredReconstituter, name string, value any, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	region, err := r.GetRegion(name)
	if err != nil {
		return err
	}
	if err := c.Unmarshal(region.Bytes(), value); err != nil {
		return &ObjectError{Entry: name, Err: err}
	}
	return nil
}
