package mem

import (
	"fmt"
	"unsafe"
)

// MinAlignment is the smallest alignment ever used: the pointer size.
// Requests below it are raised to it.
const MinAlignment = int(unsafe.Sizeof(uintptr(0)))

// AllocAligned allocates a byte slice of the given size whose first byte
// sits at an address divisible by alignment. Alignment must be a power
// of two; values below MinAlignment are raised to MinAlignment.
func AllocAligned(size, alignment int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("mem: negative size %d", size)
	}
	if alignment < MinAlignment {
		alignment = MinAlignment
	}
	if alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("mem: alignment %d is not a power of two", alignment)
	}
	if size == 0 {
		return nil, nil
	}

	// Allocate size + alignment so an aligned offset always exists within
	// the buffer.
	buf := make([]byte, size+alignment)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // required for alignment arithmetic
	addr := uintptr(ptr)
	a := uintptr(alignment)
	offset := (a - (addr & (a - 1))) & (a - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)], nil
}
