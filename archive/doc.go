// Package archive provides concrete backends for the structured
// serializer/reconstituter protocol.
//
// MemoryArchive keeps the whole entry tree heap-resident and is the
// reference backend for tests and short-lived archives. DirArchive
// stages the tree in memory and commits it to a directory, one file per
// content-bearing entry plus a JSON manifest carrying sizes and xxhash64
// checksums; OpenDir serves reads from page-aligned memory mappings of
// those files, so region access stays zero-copy.
//
// The physical layout is owned by this package, not by the naming
// protocol: the manifest records the file each logical path resolves to,
// and readers never guess.
package archive
