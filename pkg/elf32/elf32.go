// Package elf32 reads the 32-bit little-endian ELF structures of a PSP
// module: the file header, program headers and section headers.
//
// All records are decoded through package overlay. Section names are not
// interpreted here beyond CString; callers resolve them against the string
// table section the file header points at.
package elf32

import (
	"bytes"
	"fmt"

	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

const (
	// Magic is "\x7fELF" read as a little-endian word.
	Magic uint32 = 0x464C457F

	// TypePRX marks a relocatable PSP module.
	TypePRX uint16 = 0xFFA0

	// PTLoad is the program header type of a loadable segment.
	PTLoad uint32 = 1

	HeaderSize        = 52
	ProgramHeaderSize = 32
	SectionHeaderSize = 40
)

type Header struct {
	Magic     uint32
	Class     uint8
	Data      uint8
	IDVersion uint8
	Pad       [9]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

func (h Header) Validate() error {
	if h.Magic != Magic {
		return packerr.ErrNotELF
	}
	return nil
}

// IsPRX reports whether the image is marked as a loadable PSP module.
func (h Header) IsPRX() bool {
	return h.Type == TypePRX
}

type ProgramHeader struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	PAddr  uint32
	FileSz uint32
	MemSz  uint32
	Flags  uint32
	Align  uint32
}

func (ProgramHeader) Validate() error { return nil }

type SectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntSize   uint32
}

func (SectionHeader) Validate() error { return nil }

// ReadHeader decodes the file header at the start of image.
func ReadHeader(image []byte) (Header, error) {
	return overlay.Copy[Header](image)
}

// ReadProgramHeaders decodes count program headers at off within image.
func ReadProgramHeaders(image []byte, off uint32, count int) ([]ProgramHeader, error) {
	b, err := tail(image, off)
	if err != nil {
		return nil, err
	}
	return overlay.CopySlice[ProgramHeader](b, count)
}

// ReadSectionHeaders decodes count section headers at off within image.
func ReadSectionHeaders(image []byte, off uint32, count int) ([]SectionHeader, error) {
	b, err := tail(image, off)
	if err != nil {
		return nil, err
	}
	return overlay.CopySlice[SectionHeader](b, count)
}

func tail(image []byte, off uint32) ([]byte, error) {
	if uint64(off) > uint64(len(image)) {
		return nil, fmt.Errorf("offset %#x past end of %d-byte image: %w", off, len(image), packerr.ErrFileTooSmall)
	}
	return image[off:], nil
}

// CString returns the nul-terminated string starting at off in b, without
// the terminator.
func CString(b []byte, off uint64) ([]byte, error) {
	if off > uint64(len(b)) {
		return nil, fmt.Errorf("string offset %#x past end: %w", off, packerr.ErrFileTooSmall)
	}
	s := b[off:]
	i := bytes.IndexByte(s, 0)
	if i < 0 {
		return nil, packerr.ErrBadName
	}
	return s[:i], nil
}
