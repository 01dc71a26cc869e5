// Package metadata parses the fixed binary header and optional
// update-config block that follow the marker inside a stub image, and
// validates the size, cache-key and update-config invariants. It does
// not check that the payload fits within the image.
//
// The reader style is adapted from the teacher's pe_reader.go: a cursor
// over an io.ReadSeeker, one binary.Read per field, wrapped errors that
// name the field that failed.
package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"

	"github.com/socketdev/smolstub/internal/stuberr"
)

// Marker is the 32-byte magic separating launcher code from the
// embedded metadata and payload.
const Marker = "__SMOL_PRESSED_DATA_MAGIC_MARKER"

func init() {
	if len(Marker) != 32 {
		panic("metadata: Marker must be exactly 32 bytes")
	}
}

// MaxUncompressedSize is the compile-time ceiling on uncompressed_size.
// Linux/macOS builds use this value; Windows builds use
// WindowsMaxUncompressedSize instead (cmd/smolstub picks one by GOOS).
const MaxUncompressedSize = 2 << 30 // ~2 GiB

// WindowsMaxUncompressedSize is the tighter ceiling Windows stubs use.
const WindowsMaxUncompressedSize = 100 << 20 // 100 MiB

const (
	updateConfigMagic   uint32 = 0x55504446 // "UPDF"
	updateConfigVersion uint32 = 1
	updateConfigSize           = 1112

	urlFieldSize        = 400
	tagPatternFieldSize = 128
	commandFieldSize    = 512
	binnameFieldSize    = 60
)

var cacheKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)

// UpdateConfig is the parsed contents of the optional 1112-byte
// update-config block.
type UpdateConfig struct {
	Enabled       bool
	Prompt        bool
	PromptDefault byte // 'y' or 'n'
	URL           string
	TagPattern    string
	Command       string
	BinName       string
}

// Platform is the (platform, arch, libc) byte triple recorded in the
// image.
type Platform struct {
	OS   byte // 0=linux, 1=darwin, 2=win32
	Arch byte // 0=x64, 1=arm64, 2=ia32, 3=arm
	Libc byte // 0=glibc, 1=musl, 255=n/a
}

// BinaryName returns the cached-binary filename for this platform.
func (p Platform) BinaryName() string {
	if p.OS == 2 {
		return "node.exe"
	}
	return "node"
}

// Metadata is the fully-parsed, fully-validated header.
type Metadata struct {
	CompressedSize   uint64
	UncompressedSize uint64
	CacheKey         string // 16 hex chars ([0-9a-fA-F]), as found on disk
	Platform         Platform
	HasUpdateConfig  bool
	UpdateConfig     *UpdateConfig
	DataOffset       uint64 // absolute offset where the payload begins
}

// Read parses a Metadata record starting at the current position of r
// (which must be the byte immediately after the marker), validates it,
// and returns it with DataOffset pointing at the payload.
//
// maxUncompressed bounds UncompressedSize; callers pass
// MaxUncompressedSize or WindowsMaxUncompressedSize depending on target.
func Read(r io.ReadSeeker, maxUncompressed uint64) (*Metadata, error) {
	var m Metadata

	var csz, usz uint64
	if err := binary.Read(r, binary.LittleEndian, &csz); err != nil {
		return nil, shortRead("compressed_size", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &usz); err != nil {
		return nil, shortRead("uncompressed_size", err)
	}
	m.CompressedSize = csz
	m.UncompressedSize = usz

	keyBuf := make([]byte, 16)
	if _, err := io.ReadFull(r, keyBuf); err != nil {
		return nil, shortRead("cache_key", err)
	}
	m.CacheKey = string(keyBuf)

	platBuf := make([]byte, 3)
	if _, err := io.ReadFull(r, platBuf); err != nil {
		return nil, shortRead("platform_metadata", err)
	}
	m.Platform = Platform{OS: platBuf[0], Arch: platBuf[1], Libc: platBuf[2]}

	var hasCfg byte
	if err := binary.Read(r, binary.LittleEndian, &hasCfg); err != nil {
		return nil, shortRead("has_update_config", err)
	}
	m.HasUpdateConfig = hasCfg != 0

	if m.HasUpdateConfig {
		cfgBuf := make([]byte, updateConfigSize)
		if _, err := io.ReadFull(r, cfgBuf); err != nil {
			return nil, shortRead("update_config", err)
		}
		cfg, err := parseUpdateConfig(cfgBuf)
		if err != nil {
			return nil, err
		}
		m.UpdateConfig = cfg
	}

	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, stuberr.Wrap(stuberr.ReadShort, stuberr.SubMetadata, "failed to locate payload offset", err)
	}
	m.DataOffset = uint64(offset)

	if err := m.Validate(maxUncompressed); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate enforces the invariants in spec §3: non-zero, bounded sizes
// and a hex cache key. It does not re-validate the update config, which
// is validated at parse time.
func (m *Metadata) Validate(maxUncompressed uint64) error {
	if m.CompressedSize == 0 || m.UncompressedSize == 0 {
		return stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, "compressed_size and uncompressed_size must both be non-zero")
	}
	if m.CompressedSize > MaxUncompressedSize || m.UncompressedSize > maxUncompressed {
		return stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, "size exceeds compile-time ceiling")
	}
	if !cacheKeyPattern.MatchString(m.CacheKey) {
		return stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, fmt.Sprintf("cache_key %q is not 16 hex characters", m.CacheKey))
	}
	return nil
}

func parseUpdateConfig(buf []byte) (*UpdateConfig, error) {
	if len(buf) != updateConfigSize {
		return nil, stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, "update_config has the wrong size; only the 1112-byte layout is supported")
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	version := binary.LittleEndian.Uint32(buf[4:8])
	if magic != updateConfigMagic {
		return nil, stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, fmt.Sprintf("update_config magic 0x%08x does not match UPDF", magic))
	}
	if version != updateConfigVersion {
		return nil, stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, fmt.Sprintf("update_config version %d is unsupported (only version 1 is)", version))
	}

	off := 8
	enabled := buf[off] != 0
	off++
	prompt := buf[off] != 0
	off++
	promptDefault := buf[off]
	off++
	off++ // reserved alignment byte

	url, err := readCString(buf[off:off+urlFieldSize], "url")
	if err != nil {
		return nil, err
	}
	off += urlFieldSize

	tagPattern, err := readCString(buf[off:off+tagPatternFieldSize], "tag_pattern")
	if err != nil {
		return nil, err
	}
	off += tagPatternFieldSize

	command, err := readCString(buf[off:off+commandFieldSize], "command")
	if err != nil {
		return nil, err
	}
	off += commandFieldSize

	binname, err := readCString(buf[off:off+binnameFieldSize], "binname")
	if err != nil {
		return nil, err
	}

	if promptDefault != 'y' && promptDefault != 'n' {
		return nil, stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, fmt.Sprintf("prompt_default %q is neither 'y' nor 'n'", promptDefault))
	}

	return &UpdateConfig{
		Enabled:       enabled,
		Prompt:        prompt,
		PromptDefault: promptDefault,
		URL:           url,
		TagPattern:    tagPattern,
		Command:       command,
		BinName:       binname,
	}, nil
}

// readCString extracts a null-terminated string from a fixed-size char
// array, rejecting buffers with no terminator within bounds.
func readCString(field []byte, name string) (string, error) {
	idx := bytes.IndexByte(field, 0)
	if idx == -1 {
		return "", stuberr.New(stuberr.MetadataInvalid, stuberr.SubMetadata, fmt.Sprintf("update_config field %q is not null-terminated", name))
	}
	return string(field[:idx]), nil
}

func shortRead(field string, cause error) error {
	return stuberr.Wrap(stuberr.ReadShort, stuberr.SubMetadata, fmt.Sprintf("short read while parsing %s", field), cause)
}
