package psp

import (
	"fmt"

	"github.com/psp-tools/psp-packer/pkg/elf32"
	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// ModuleInfoLocation says where ModuleInfo lives and how it was found.
type ModuleInfoLocation struct {
	// Raw is the value written to Header.ModuleInfoOffset: the segment's
	// physical address (top bit included) or the section's file offset.
	Raw uint32
	// Kernel is set when the module info segment has the top physical
	// address bit set.
	Kernel bool

	Segment *elf32.ProgramHeader
	Section *elf32.SectionHeader
}

// Offset is the file offset of ModuleInfo within the ELF image.
func (l ModuleInfoLocation) Offset() uint32 {
	return l.Raw &^ kernelAddrBit
}

// ModuleInfoSegment returns the first loadable segment whose virtual and
// physical addresses differ.
func ModuleInfoSegment(f *elf32.File) (elf32.ProgramHeader, bool) {
	for _, ph := range f.Programs {
		if ph.Type == elf32.PTLoad && ph.VAddr != ph.PAddr {
			return ph, true
		}
	}
	return elf32.ProgramHeader{}, false
}

// LocateModuleInfo runs both discovery strategies and resolves them. The
// segment wins over the section when both exist.
func LocateModuleInfo(f *elf32.File) (ModuleInfoLocation, error) {
	seg, segOK := ModuleInfoSegment(f)
	sec, secOK, err := f.Section(ModuleInfoSection)
	if err != nil {
		return ModuleInfoLocation{}, fmt.Errorf("find %s: %w", ModuleInfoSection, err)
	}

	switch {
	case segOK:
		loc := ModuleInfoLocation{
			Raw:     seg.PAddr,
			Kernel:  seg.PAddr&kernelAddrBit != 0,
			Segment: &seg,
		}
		if secOK {
			loc.Section = &sec
		}
		return loc, nil
	case secOK:
		return ModuleInfoLocation{Raw: sec.Offset, Section: &sec}, nil
	default:
		return ModuleInfoLocation{}, packerr.ErrNoModuleInfo
	}
}

// ReadModuleInfo copies the ModuleInfo record at loc out of image.
func ReadModuleInfo(image []byte, loc ModuleInfoLocation) (ModuleInfo, error) {
	off := loc.Offset()
	if uint64(off) > uint64(len(image)) {
		return ModuleInfo{}, fmt.Errorf("module info at %#x past end of image: %w", off, packerr.ErrFileTooSmall)
	}
	mi, err := overlay.Copy[ModuleInfo](image[off:])
	if err != nil {
		return ModuleInfo{}, fmt.Errorf("module info: %w", err)
	}
	return mi, nil
}

// CheckPrivileges verifies that the segment-derived privilege agrees with
// the kernel bit of the record.
func CheckPrivileges(loc ModuleInfoLocation, mi ModuleInfo) error {
	if loc.Kernel != mi.Attr.IsKernel() {
		return packerr.ErrMixedPrivileges
	}
	return nil
}
