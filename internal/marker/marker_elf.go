package marker

import (
	"encoding/binary"
	"io"

	"github.com/socketdev/smolstub/internal/stuberr"
)

// elf identification bytes, mirrored from the teacher's own elf.go
// writer (which emits these same constants when building an ELF
// header) but read back here instead of written.
const (
	elfMagic0 = 0x7f
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	elfClass32 = 1
	elfClass64 = 2

	elfData2LSB = 1
	elfData2MSB = 2

	ptNote = 4
)

type elfIdent struct {
	Magic   [4]byte
	Class   byte
	Data    byte
	Version byte
}

// programHeader64 mirrors Elf64_Phdr.
type programHeader64 struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// programHeader32 mirrors Elf32_Phdr (field order differs from the
// 64-bit layout: Flags comes last).
type programHeader32 struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	PAddr  uint32
	FileSz uint32
	MemSz  uint32
	Flags  uint32
	Align  uint32
}

// IsELF reports whether r begins with the ELF magic, without disturbing
// any cursor state the caller cares about (it restores position 0 on
// return since callers probe before doing a real scan).
func IsELF(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	var id elfIdent
	err := binary.Read(r, binary.LittleEndian, &id)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return false, serr
	}
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return id.Magic[0] == elfMagic0 && id.Magic[1] == elfMagic1 && id.Magic[2] == elfMagic2 && id.Magic[3] == elfMagic3, nil
}

// FindInPTNote parses the ELF program-header table and performs the
// chunked marker scan over the p_filesz bytes of each PT_NOTE segment,
// in header order, returning the absolute file offset following the
// marker on the first hit. It never falls back to a linear scan; if no
// PT_NOTE segment contains the marker, it fails with MarkerNotFound.
func FindInPTNote(r io.ReadSeeker) (int64, error) {
	segments, order, err := ptNoteSegments(r)
	if err != nil {
		return 0, err
	}
	for _, p := range order {
		seg := segments[p]
		if _, err := r.Seek(seg.offset, io.SeekStart); err != nil {
			return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to seek to PT_NOTE segment", err)
		}
		hit, err := scanChunked(r, seg.offset, seg.size)
		if err == nil {
			return hit, nil
		}
	}
	return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "marker not found in any PT_NOTE segment", ErrNotFound)
}

type noteSegment struct {
	offset int64
	size   int64
}

// ptNoteSegments returns PT_NOTE segments keyed by header order (order
// holds the indices in the sequence they appeared in the program
// header table, so callers tie-break on "first hit in header order").
func ptNoteSegments(r io.ReadSeeker) (map[int]noteSegment, []int, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	var id elfIdent
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, nil, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to read ELF identification", err)
	}
	if id.Magic[0] != elfMagic0 || id.Magic[1] != elfMagic1 || id.Magic[2] != elfMagic2 || id.Magic[3] != elfMagic3 {
		return nil, nil, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "not an ELF image")
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if id.Data == elfData2MSB {
		order = binary.BigEndian
	} else if id.Data != elfData2LSB {
		return nil, nil, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "unrecognized ELF data encoding")
	}

	switch id.Class {
	case elfClass64:
		return readPTNote64(r, order)
	case elfClass32:
		return readPTNote32(r, order)
	default:
		return nil, nil, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "unrecognized ELF class")
	}
}

func readPTNote64(r io.ReadSeeker, order binary.ByteOrder) (map[int]noteSegment, []int, error) {
	// e_ident is 16 bytes; the fields we need (phoff, phentsize,
	// phnum) start right after e_type/e_machine/e_version/e_entry.
	if _, err := r.Seek(16+2+2+4+8, io.SeekStart); err != nil {
		return nil, nil, err
	}
	var phoff uint64
	if err := binary.Read(r, order, &phoff); err != nil {
		return nil, nil, err
	}
	if _, err := r.Seek(8, io.SeekCurrent); err != nil { // skip e_shoff
		return nil, nil, err
	}
	if _, err := r.Seek(4, io.SeekCurrent); err != nil { // skip e_flags
		return nil, nil, err
	}
	if _, err := r.Seek(2, io.SeekCurrent); err != nil { // skip e_ehsize
		return nil, nil, err
	}
	var phentsize, phnum uint16
	if err := binary.Read(r, order, &phentsize); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(r, order, &phnum); err != nil {
		return nil, nil, err
	}

	segments := map[int]noteSegment{}
	var seq []int
	for i := 0; i < int(phnum); i++ {
		if _, err := r.Seek(int64(phoff)+int64(i)*int64(phentsize), io.SeekStart); err != nil {
			return nil, nil, err
		}
		var ph programHeader64
		if err := binary.Read(r, order, &ph); err != nil {
			return nil, nil, err
		}
		if ph.Type == ptNote {
			segments[i] = noteSegment{offset: int64(ph.Offset), size: int64(ph.FileSz)}
			seq = append(seq, i)
		}
	}
	if len(seq) == 0 {
		return nil, nil, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "ELF image has no PT_NOTE segments")
	}
	return segments, seq, nil
}

func readPTNote32(r io.ReadSeeker, order binary.ByteOrder) (map[int]noteSegment, []int, error) {
	if _, err := r.Seek(16+2+2+4+4, io.SeekStart); err != nil {
		return nil, nil, err
	}
	var phoff uint32
	if err := binary.Read(r, order, &phoff); err != nil {
		return nil, nil, err
	}
	if _, err := r.Seek(4, io.SeekCurrent); err != nil { // skip e_shoff
		return nil, nil, err
	}
	if _, err := r.Seek(4, io.SeekCurrent); err != nil { // skip e_flags
		return nil, nil, err
	}
	if _, err := r.Seek(2, io.SeekCurrent); err != nil { // skip e_ehsize
		return nil, nil, err
	}
	var phentsize, phnum uint16
	if err := binary.Read(r, order, &phentsize); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(r, order, &phnum); err != nil {
		return nil, nil, err
	}

	segments := map[int]noteSegment{}
	var seq []int
	for i := 0; i < int(phnum); i++ {
		if _, err := r.Seek(int64(phoff)+int64(i)*int64(phentsize), io.SeekStart); err != nil {
			return nil, nil, err
		}
		var ph programHeader32
		if err := binary.Read(r, order, &ph); err != nil {
			return nil, nil, err
		}
		if ph.Type == ptNote {
			segments[i] = noteSegment{offset: int64(ph.Offset), size: int64(ph.FileSz)}
			seq = append(seq, i)
		}
	}
	if len(seq) == 0 {
		return nil, nil, stuberr.New(stuberr.MarkerNotFound, stuberr.SubMarker, "ELF image has no PT_NOTE segments")
	}
	return segments, seq, nil
}
