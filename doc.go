// Package mapped provides zero-copy memory regions and a structured,
// backend-agnostic archive layer for columnar data.
//
// # Regions
//
// A FrozenMemoryRegion is an immutable view over a byte buffer. Every
// region derived from the same backing storage (via Range, or by freezing
// a MutableMemoryRegion) shares one reference-counted Handle; the storage
// is released exactly once, when the last holder drops its handle. Frozen
// regions are safe for unlimited concurrent readers.
//
// A MutableMemoryRegion is produced by a Serializer and can be written
// until Freeze is called. Freezing is a one-way, zero-copy transition:
// the frozen region views the same bytes, and the mutable view must not
// be written through again.
//
// # Serializers
//
// Serializer is the allocation capability behind regions. The heap
// backend (MemorySerializer) performs aligned allocations; MapFile
// produces frozen regions backed by read-only, page-aligned memory
// mappings of local files.
//
// # Structured archives
//
// StructuredSerializer and StructuredReconstituter define a recursive
// naming protocol over regions: named entries forming a tree, resolved
// segment by segment. The tree traversal logic is written once against
// the interfaces; concrete backends (heap, directory-on-disk, object
// store) decide physical layout. See the archive and blob packages.
package mapped
