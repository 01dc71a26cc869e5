//go:build linux || darwin

package decompress_test

import (
	"bytes"
	"testing"

	"github.com/socketdev/smolstub/internal/decompress"
	"github.com/socketdev/smolstub/internal/fixture"
)

func TestDecompressRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)
	compressed := fixture.CompressPayload(original)

	out, err := decompress.Decompress(compressed, uint64(len(original)))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(original))
	}
}

func TestDecompressFailsOnSizeMismatch(t *testing.T) {
	original := []byte("short payload")
	compressed := fixture.CompressPayload(original)

	if _, err := decompress.Decompress(compressed, uint64(len(original))+1); err == nil {
		t.Fatalf("expected error when uncompressed_size does not match decoded length")
	}
}
