// Package fixture assembles synthetic stub images for tests, playing
// the role spec.md assigns to the (out-of-scope) build-time tooling
// that actually produces stubs. It is test infrastructure only — no
// runtime package imports it — grounded on the teacher's own role as a
// binary *builder* (codegen_elf_writer.go, codegen_pe_writer.go,
// codegen_macho_writer.go all assemble a binary image field by field,
// which is exactly what BuildImage and BuildELFWithPTNote do here).
package fixture

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zstd"

	"github.com/socketdev/smolstub/internal/metadata"
)

// CompressPayload compresses data with the same codec the Linux/macOS
// decompress backend expects (see internal/decompress/lzfse_unix.go).
func CompressPayload(data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// UpdateConfigFields mirrors metadata.UpdateConfig for construction
// purposes (metadata.UpdateConfig has no exported constructor since
// production code only ever parses one, never builds one).
type UpdateConfigFields struct {
	Enabled       bool
	Prompt        bool
	PromptDefault byte
	URL           string
	TagPattern    string
	Command       string
	BinName       string
}

const (
	updateConfigMagic   uint32 = 0x55504446
	updateConfigVersion uint32 = 1
	updateConfigSize           = 1112

	urlFieldSize        = 400
	tagPatternFieldSize = 128
	commandFieldSize    = 512
	binnameFieldSize    = 60
)

// BuildUpdateConfig renders the fixed 1112-byte update-config block.
func BuildUpdateConfig(f UpdateConfigFields) []byte {
	buf := make([]byte, updateConfigSize)
	binary.LittleEndian.PutUint32(buf[0:4], updateConfigMagic)
	binary.LittleEndian.PutUint32(buf[4:8], updateConfigVersion)

	off := 8
	buf[off] = boolByte(f.Enabled)
	off++
	buf[off] = boolByte(f.Prompt)
	off++
	buf[off] = f.PromptDefault
	off++
	off++ // reserved

	off = putCString(buf, off, urlFieldSize, f.URL)
	off = putCString(buf, off, tagPatternFieldSize, f.TagPattern)
	off = putCString(buf, off, commandFieldSize, f.Command)
	putCString(buf, off, binnameFieldSize, f.BinName)

	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func putCString(buf []byte, off, size int, s string) int {
	field := buf[off : off+size]
	copy(field, s)
	if len(s) < size {
		field[len(s)] = 0
	}
	return off + size
}

// HeaderFields are the fields that go into the fixed binary header
// immediately following the marker.
type HeaderFields struct {
	CompressedSize   uint64
	UncompressedSize uint64
	CacheKey         string // must be 16 hex chars
	Platform         metadata.Platform
	UpdateConfig     []byte // nil, or exactly 1112 bytes from BuildUpdateConfig
}

// BuildHeader renders the marker + fixed header (+ optional
// update-config) that metadata.Read expects to parse.
func BuildHeader(h HeaderFields) []byte {
	var buf bytes.Buffer
	buf.WriteString(metadata.Marker)

	var sizes [16]byte
	binary.LittleEndian.PutUint64(sizes[0:8], h.CompressedSize)
	binary.LittleEndian.PutUint64(sizes[8:16], h.UncompressedSize)
	buf.Write(sizes[:])

	buf.WriteString(h.CacheKey)
	buf.Write([]byte{h.Platform.OS, h.Platform.Arch, h.Platform.Libc})

	if h.UpdateConfig != nil {
		buf.WriteByte(1)
		buf.Write(h.UpdateConfig)
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

// BuildImage assembles a full non-ELF stub image: an arbitrary
// "launcher" prefix, the marker+header block, and the compressed
// payload.
func BuildImage(launcherPrefix []byte, h HeaderFields, compressedPayload []byte) []byte {
	var buf bytes.Buffer
	buf.Write(launcherPrefix)
	buf.Write(BuildHeader(h))
	buf.Write(compressedPayload)
	return buf.Bytes()
}
