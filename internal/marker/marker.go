// Package marker locates the 32-byte magic marker inside a stub's own
// executable image and returns the absolute offset immediately
// following it.
//
// The chunked scan below is the non-ELF path (Mach-O, PE); the ELF path
// lives in marker_elf.go because it must walk PT_NOTE program headers
// instead of scanning linearly.
package marker

import (
	"errors"
	"io"
	"math"

	"github.com/socketdev/smolstub/internal/metadata"
	"github.com/socketdev/smolstub/internal/stuberr"
)

// ErrNotFound is returned (wrapped in a *stuberr.Error) when the marker
// is absent from the scanned region.
var ErrNotFound = errors.New("marker not found")

const chunkSize = 4096

// Find scans r (a handle over the whole executable image) for the
// marker and returns the absolute offset of the byte following it.
func Find(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to seek to start of image", err)
	}
	return scanChunked(r, 0, -1)
}

// scanChunked performs the fixed-size chunked search described in
// spec §4.2: read in 4 KiB chunks, and after each chunk rewind by
// len(marker)-1 bytes so matches spanning a chunk boundary are still
// caught.
//
// base is the absolute file offset the region being scanned starts at
// (0 for a whole-image scan, or a PT_NOTE segment's p_offset). limit
// bounds how many bytes of the region to read; -1 means "to EOF".
func scanChunked(r io.ReadSeeker, base int64, limit int64) (int64, error) {
	markerLen := int64(len(metadata.Marker))
	overlap := markerLen - 1

	buf := make([]byte, chunkSize)
	var read int64
	var cursor int64 // position within the region, relative to base

	for {
		if limit >= 0 && read >= limit {
			break
		}
		n := len(buf)
		if limit >= 0 {
			remaining := limit - read
			if int64(n) > remaining {
				n = int(remaining)
			}
		}
		nRead, err := r.Read(buf[:n])
		if nRead > 0 {
			idx := indexMarker(buf[:nRead])
			if idx >= 0 {
				absChunkStart := base + cursor
				hit := absChunkStart + int64(idx) + markerLen
				if hit < 0 || hit > math.MaxInt64-markerLen {
					return 0, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "marker offset overflows the platform seek range")
				}
				return hit, nil
			}
			cursor += int64(nRead)
			read += int64(nRead)

			// Rewind by overlap bytes so a marker split across the
			// chunk boundary is still found on the next read, unless
			// we are at (or past) EOF/limit already.
			// A read of no more than overlap bytes brought nothing new
			// past the previous rewind, so that is the end of the data.
			if overlap > 0 && int64(nRead) > overlap && (limit < 0 || read < limit) {
				back := overlap
				if int64(nRead) < back {
					back = int64(nRead)
				}
				if _, serr := r.Seek(-back, io.SeekCurrent); serr != nil {
					return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to rewind for chunk-boundary overlap", serr)
				}
				cursor -= back
				read -= back
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "I/O error while scanning for marker", err)
		}
		if nRead == 0 {
			break
		}
	}

	return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "marker not present in scanned region", ErrNotFound)
}

func indexMarker(chunk []byte) int {
	want := []byte(metadata.Marker)
	n := len(chunk) - len(want)
	for i := 0; i <= n; i++ {
		if bytesEqual(chunk[i:i+len(want)], want) {
			return i
		}
	}
	return -1
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
