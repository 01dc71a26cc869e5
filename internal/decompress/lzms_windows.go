//go:build windows

package decompress

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/socketdev/smolstub/internal/stuberr"
)

// backendSubsystem names the stderr tag for this platform's backend.
func backendSubsystem() stuberr.Subsystem { return stuberr.SubLZMS }

const compressAlgorithmLZMS = 5

var (
	cabinetDLL           = windows.NewLazySystemDLL("cabinet.dll")
	procCreateDecompress = cabinetDLL.NewProc("CreateDecompressor")
	procDecompress       = cabinetDLL.NewProc("Decompress")
	procCloseDecompress  = cabinetDLL.NewProc("CloseDecompressor")
)

// backendDecompress calls the OS Compression API
// (CreateDecompressor(COMPRESS_ALGORITHM_LZMS) -> Decompress), the
// platform backend spec'd for Windows stubs. A reported size that
// differs from uncompressedSize is a fatal error, matching the Unix
// LZFSE backend's contract.
func backendDecompress(in []byte, uncompressedSize uint64) ([]byte, error) {
	var handle uintptr
	r, _, err := procCreateDecompress.Call(
		uintptr(compressAlgorithmLZMS),
		0,
		uintptr(unsafe.Pointer(&handle)),
	)
	if r == 0 {
		return nil, stuberr.Wrap(stuberr.DecompressFailed, stuberr.SubLZMS, "CreateDecompressor failed", err)
	}
	defer procCloseDecompress.Call(handle)

	out := make([]byte, uncompressedSize)
	var decompressedSize uintptr
	r, _, err = procDecompress.Call(
		handle,
		uintptr(unsafe.Pointer(&in[0])), uintptr(len(in)),
		uintptr(unsafe.Pointer(&out[0])), uintptr(len(out)),
		uintptr(unsafe.Pointer(&decompressedSize)),
	)
	if r == 0 {
		return nil, stuberr.Wrap(stuberr.DecompressFailed, stuberr.SubLZMS, "Decompress failed", err)
	}
	if uint64(decompressedSize) != uncompressedSize {
		return nil, stuberr.New(stuberr.DecompressFailed, stuberr.SubLZMS,
			fmt.Sprintf("OS Compression API reported %d bytes, expected %d", decompressedSize, uncompressedSize))
	}
	return out, nil
}
