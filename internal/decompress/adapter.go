// Package decompress dispatches to the platform-appropriate
// decompression backend at compile time: zstd (github.com/klauspost/compress,
// reported under the LZFSE subsystem tag) on Linux/macOS, the OS
// Compression API (LZMS) on Windows. The Linux/macOS backend does not
// decode the LZFSE format. No streaming: the caller passes
// the whole compressed buffer, the adapter allocates the whole output
// buffer, and the same stub process frees everything by exec-ing away.
package decompress

import (
	"fmt"

	"github.com/socketdev/smolstub/internal/stuberr"
)

// Decompress expands in into a buffer of exactly uncompressedSize
// bytes. If the backend reports a decoded length that differs from
// uncompressedSize, it fails rather than returning a truncated or
// padded buffer.
func Decompress(in []byte, uncompressedSize uint64) ([]byte, error) {
	out, err := backendDecompress(in, uncompressedSize)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != uncompressedSize {
		return nil, stuberr.New(stuberr.DecompressFailed, backendSubsystem(),
			fmt.Sprintf("decoded length %d does not match expected uncompressed_size %d", len(out), uncompressedSize))
	}
	return out, nil
}
