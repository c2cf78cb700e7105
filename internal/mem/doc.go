// Package mem provides aligned heap allocation.
//
// Go's allocator guarantees only modest alignment; column payloads want
// cache-line or SIMD-friendly alignment. AllocAligned over-allocates and
// offsets into the buffer so the returned slice starts at the requested
// boundary. The underlying array is kept alive by the returned slice.
package mem
