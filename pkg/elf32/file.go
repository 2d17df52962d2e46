package elf32

import (
	"bytes"
	"fmt"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// File is a parsed view of an ELF image. Data is the image itself, so all
// offsets in the headers are relative to Data[0].
type File struct {
	Data     []byte
	Header   Header
	Programs []ProgramHeader
	Sections []SectionHeader
}

// Parse decodes the file header and both header tables of image.
func Parse(image []byte) (*File, error) {
	hdr, err := ReadHeader(image)
	if err != nil {
		return nil, err
	}
	progs, err := ReadProgramHeaders(image, hdr.PhOff, int(hdr.PhNum))
	if err != nil {
		return nil, fmt.Errorf("program headers: %w", err)
	}
	secs, err := ReadSectionHeaders(image, hdr.ShOff, int(hdr.ShNum))
	if err != nil {
		return nil, fmt.Errorf("section headers: %w", err)
	}
	return &File{
		Data:     image,
		Header:   hdr,
		Programs: progs,
		Sections: secs,
	}, nil
}

// StringTable returns the section header string table.
func (f *File) StringTable() (SectionHeader, error) {
	idx := int(f.Header.ShStrNdx)
	if idx >= len(f.Sections) {
		return SectionHeader{}, fmt.Errorf("string table index %d out of %d sections: %w", idx, len(f.Sections), packerr.ErrFileTooSmall)
	}
	return f.Sections[idx], nil
}

// SectionName resolves the name of sh against the string table.
func (f *File) SectionName(sh SectionHeader) ([]byte, error) {
	strtab, err := f.StringTable()
	if err != nil {
		return nil, err
	}
	return CString(f.Data, uint64(strtab.Offset)+uint64(sh.Name))
}

// Section returns the first section called name. Sections are scanned in
// header order and any malformed name before the match is an error.
func (f *File) Section(name string) (SectionHeader, bool, error) {
	if len(f.Sections) == 0 {
		return SectionHeader{}, false, nil
	}
	for _, sh := range f.Sections {
		n, err := f.SectionName(sh)
		if err != nil {
			return SectionHeader{}, false, err
		}
		if bytes.Equal(n, []byte(name)) {
			return sh, true, nil
		}
	}
	return SectionHeader{}, false, nil
}
