//go:build windows

package mapped

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procGetSystemInfo = kernel32.NewProc("GetSystemInfo")
)

// win32SystemInfo mirrors the SYSTEM_INFO layout GetSystemInfo fills in.
type win32SystemInfo struct {
	processorArchitecture uint16
	reserved              uint16
	pageSize              uint32
	minApplicationAddr    uintptr
	maxApplicationAddr    uintptr
	activeProcessorMask   uintptr
	numberOfProcessors    uint32
	processorType         uint32
	allocationGranularity uint32
	processorLevel        uint16
	processorRevision     uint16
}

// mapAlignment reports the boundary mapping offsets must fall on.
// MapViewOfFile requires the file offset to be a multiple of the
// allocation granularity, which is coarser than the page size
// (typically 64 KiB).
func mapAlignment() int64 {
	var si win32SystemInfo
	_, _, _ = procGetSystemInfo.Call(uintptr(unsafe.Pointer(&si)))
	if si.allocationGranularity == 0 {
		return int64(os.Getpagesize())
	}
	return int64(si.allocationGranularity)
}

func osMapShared(f *os.File, offset int64, length int) ([]byte, func([]byte) error, error) {
	// PAGE_READONLY for read-only access; the mapping object can be
	// closed once the view exists, the view holds a reference.
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ,
		uint32(offset>>32), uint32(offset), uintptr(length))
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	return data, func([]byte) error {
		return windows.UnmapViewOfFile(addr)
	}, nil
}
