package fixture

import (
	"bytes"
	"encoding/binary"
)

const (
	elfHeaderSize  = 64
	phdr64Size     = 56
	ptNoteType     = 4
	elfPhdrOffset  = 64 // immediately after the ELF header, one entry
)

// BuildELFWithPTNote assembles a minimal 64-bit little-endian ELF image
// whose single PT_NOTE program header spans [ptOffset, ptOffset+ptFilesz)
// and whose content (marker + header + payload, as produced by
// BuildHeader/BuildImage) begins markerRelOffset bytes into that
// segment — the shape spec.md's Scenario C exercises.
func BuildELFWithPTNote(content []byte, ptOffset, ptFilesz, markerRelOffset int64) []byte {
	if markerRelOffset+int64(len(content)) > ptFilesz {
		panic("fixture: content does not fit within the PT_NOTE segment")
	}

	var buf bytes.Buffer

	// e_ident
	buf.Write([]byte{0x7f, 'E', 'L', 'F'})
	buf.WriteByte(2) // ELFCLASS64
	buf.WriteByte(1) // ELFDATA2LSB
	buf.WriteByte(1) // EI_VERSION
	buf.Write(make([]byte, 9))

	binary.Write(&buf, binary.LittleEndian, uint16(2))            // e_type: ET_EXEC
	binary.Write(&buf, binary.LittleEndian, uint16(0x3e))         // e_machine: EM_X86_64
	binary.Write(&buf, binary.LittleEndian, uint32(1))            // e_version
	binary.Write(&buf, binary.LittleEndian, uint64(0x400000))     // e_entry
	binary.Write(&buf, binary.LittleEndian, uint64(elfPhdrOffset))// e_phoff
	binary.Write(&buf, binary.LittleEndian, uint64(0))            // e_shoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))            // e_flags
	binary.Write(&buf, binary.LittleEndian, uint16(elfHeaderSize))// e_ehsize
	binary.Write(&buf, binary.LittleEndian, uint16(phdr64Size))   // e_phentsize
	binary.Write(&buf, binary.LittleEndian, uint16(1))            // e_phnum
	binary.Write(&buf, binary.LittleEndian, uint16(0))            // e_shentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0))            // e_shnum
	binary.Write(&buf, binary.LittleEndian, uint16(0))            // e_shstrndx

	// program header: PT_NOTE
	binary.Write(&buf, binary.LittleEndian, uint32(ptNoteType)) // p_type
	binary.Write(&buf, binary.LittleEndian, uint32(4))          // p_flags
	binary.Write(&buf, binary.LittleEndian, uint64(ptOffset))   // p_offset
	binary.Write(&buf, binary.LittleEndian, uint64(0))          // p_vaddr
	binary.Write(&buf, binary.LittleEndian, uint64(0))          // p_paddr
	binary.Write(&buf, binary.LittleEndian, uint64(ptFilesz))   // p_filesz
	binary.Write(&buf, binary.LittleEndian, uint64(ptFilesz))   // p_memsz
	binary.Write(&buf, binary.LittleEndian, uint64(4))          // p_align

	// pad up to ptOffset
	if gap := ptOffset - int64(buf.Len()); gap > 0 {
		buf.Write(make([]byte, gap))
	}

	buf.Write(make([]byte, markerRelOffset))
	buf.Write(content)

	if tail := ptFilesz - markerRelOffset - int64(len(content)); tail > 0 {
		buf.Write(make([]byte, tail))
	}

	return buf.Bytes()
}
