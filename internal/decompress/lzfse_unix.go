//go:build linux || darwin

package decompress

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/socketdev/smolstub/internal/stuberr"
)

// backendSubsystem names the stderr tag for this platform's backend.
func backendSubsystem() stuberr.Subsystem { return stuberr.SubLZFSE }

// backendDecompress expands the embedded payload in one shot: it
// allocates the output buffer up front and decodes into it. The exact
// size check against uncompressedSize is made by Decompress.
//
// The pack carries no Apple LZFSE binding, so this backend is built on
// github.com/klauspost/compress (present in other_examples/manifests/
// wskish-discobot/go.mod), whose zstd codec plays the same role here: a
// single-shot, allocate-then-decode backend behind Decompress. Payloads
// must be zstd frames; LZFSE data is not decoded. See DESIGN.md for why
// LZFSE itself could not be wired.
func backendDecompress(in []byte, uncompressedSize uint64) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, stuberr.Wrap(stuberr.DecompressFailed, stuberr.SubLZFSE, "failed to initialize decoder", err)
	}
	defer dec.Close()

	out := make([]byte, 0, uncompressedSize)
	out, err = dec.DecodeAll(in, out)
	if err != nil && err != io.EOF {
		return nil, stuberr.Wrap(stuberr.DecompressFailed, stuberr.SubLZFSE, "decode failed", err)
	}
	return out, nil
}
