package metadata_test

import (
	"bytes"
	"testing"

	"github.com/socketdev/smolstub/internal/fixture"
	"github.com/socketdev/smolstub/internal/metadata"
)

func TestReadValidHeaderNoUpdateConfig(t *testing.T) {
	h := fixture.HeaderFields{
		CompressedSize:   10,
		UncompressedSize: 20,
		CacheKey:         "0123456789abcdef",
		Platform:         metadata.Platform{OS: 0, Arch: 0, Libc: 0},
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	meta, err := metadata.Read(r, metadata.MaxUncompressedSize)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if meta.CompressedSize != 10 || meta.UncompressedSize != 20 {
		t.Fatalf("unexpected sizes: %+v", meta)
	}
	if meta.CacheKey != "0123456789abcdef" {
		t.Fatalf("unexpected cache key: %q", meta.CacheKey)
	}
	if meta.HasUpdateConfig {
		t.Fatalf("expected no update config")
	}
	if meta.DataOffset != uint64(len(raw)-len(metadata.Marker)) {
		t.Fatalf("DataOffset = %d, want %d", meta.DataOffset, len(raw)-len(metadata.Marker))
	}
}

func TestReadValidHeaderWithUpdateConfig(t *testing.T) {
	cfg := fixture.BuildUpdateConfig(fixture.UpdateConfigFields{
		Enabled:       true,
		Prompt:        true,
		PromptDefault: 'y',
		URL:           "https://example.com/releases",
		TagPattern:    "v*",
		Command:       "self-update",
		BinName:       "node",
	})
	h := fixture.HeaderFields{
		CompressedSize:   5,
		UncompressedSize: 50,
		CacheKey:         "deadbeefdeadbeef",
		Platform:         metadata.Platform{OS: 2, Arch: 0, Libc: 255},
		UpdateConfig:     cfg,
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	meta, err := metadata.Read(r, metadata.MaxUncompressedSize)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !meta.HasUpdateConfig || meta.UpdateConfig == nil {
		t.Fatalf("expected parsed update config")
	}
	if meta.UpdateConfig.URL != "https://example.com/releases" {
		t.Fatalf("URL = %q", meta.UpdateConfig.URL)
	}
	if meta.UpdateConfig.TagPattern != "v*" {
		t.Fatalf("TagPattern = %q", meta.UpdateConfig.TagPattern)
	}
	if meta.Platform.BinaryName() != "node.exe" {
		t.Fatalf("BinaryName = %q", meta.Platform.BinaryName())
	}
}

func TestReadRejectsInvalidCacheKey(t *testing.T) {
	h := fixture.HeaderFields{
		CompressedSize:   1,
		UncompressedSize: 1,
		CacheKey:         "not-hex-at-all!!",
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	if _, err := metadata.Read(r, metadata.MaxUncompressedSize); err == nil {
		t.Fatalf("expected error for non-hex cache key")
	}
}

func TestReadRejectsZeroSizes(t *testing.T) {
	h := fixture.HeaderFields{
		CompressedSize:   0,
		UncompressedSize: 0,
		CacheKey:         "0123456789abcdef",
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	if _, err := metadata.Read(r, metadata.MaxUncompressedSize); err == nil {
		t.Fatalf("expected error for zero sizes")
	}
}

func TestReadRejectsOversizeUncompressed(t *testing.T) {
	h := fixture.HeaderFields{
		CompressedSize:   1,
		UncompressedSize: 1 << 30,
		CacheKey:         "0123456789abcdef",
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	// A tiny ceiling forces the size check to fail regardless of the
	// compile-time MaxUncompressedSize.
	if _, err := metadata.Read(r, 100); err == nil {
		t.Fatalf("expected error for uncompressed_size exceeding the ceiling")
	}
}

func TestReadRejectsBadUpdateConfigMagic(t *testing.T) {
	cfg := fixture.BuildUpdateConfig(fixture.UpdateConfigFields{PromptDefault: 'y'})
	cfg[0] = 0 // corrupt the magic

	h := fixture.HeaderFields{
		CompressedSize:   1,
		UncompressedSize: 1,
		CacheKey:         "0123456789abcdef",
		UpdateConfig:     cfg,
	}
	raw := fixture.BuildHeader(h)
	r := bytes.NewReader(raw[len(metadata.Marker):])

	if _, err := metadata.Read(r, metadata.MaxUncompressedSize); err == nil {
		t.Fatalf("expected error for corrupted update_config magic")
	}
}

func TestReadFailsOnShortBuffer(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2, 3})
	if _, err := metadata.Read(r, metadata.MaxUncompressedSize); err == nil {
		t.Fatalf("expected short-read error")
	}
}
