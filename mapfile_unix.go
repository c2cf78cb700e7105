//go:build unix

package mapped

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapAlignment reports the boundary mapping offsets must fall on.
func mapAlignment() int64 { return int64(os.Getpagesize()) }

// osMapShared maps length bytes of f starting at the page-aligned
// offset, read-only and shared. The returned unmap releases the whole
// mapping.
func osMapShared(f *os.File, offset int64, length int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), offset, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
