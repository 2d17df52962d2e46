package psp

import (
	"fmt"
	"math"

	"github.com/psp-tools/psp-packer/pkg/elf32"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Module is everything header synthesis needs to know about one input.
type Module struct {
	Kind     Kind
	ELF      *elf32.File
	Info     ModuleInfo
	Location ModuleInfoLocation
}

// Synthesize builds the deterministic part of the header for m: every
// field except tags, key data and the two compressed sizes. It also
// returns the derived mode; Mode.Attr is the attribute the embedded
// ModuleInfo must carry.
func Synthesize(m Module) (Header, Mode, error) {
	nseg := int(m.ELF.Header.PhNum)
	if nseg == 0 || nseg > MaxSegments {
		return Header{}, Mode{}, fmt.Errorf("%d segments: %w", nseg, packerr.ErrNoSegments)
	}
	if uint64(len(m.ELF.Data)) > math.MaxUint32 {
		return Header{}, Mode{}, fmt.Errorf("image of %d bytes: %w", len(m.ELF.Data), packerr.ErrFileTooBig)
	}

	h := NewHeader()
	h.Attribute = m.Info.Attr
	h.CompAttribute = CompressGzip
	h.ModuleVerLow = m.Info.VersionLow
	h.ModuleVerHigh = m.Info.VersionHigh
	copy(h.ModuleName[:], m.Info.Name[:])
	h.ELFSize = uint32(len(m.ELF.Data))
	h.Entry = m.ELF.Header.Entry
	h.ModuleInfoOffset = m.Location.Raw
	h.NumSegments = uint8(nseg)

	for i, ph := range m.ELF.Programs[:nseg] {
		h.SegAlign[i] = uint16(ph.Align)
		h.SegAddr[i] = ph.VAddr
		h.SegSize[i] = ph.MemSz
	}

	bss, ok, err := m.ELF.Section(BSSSection)
	if err != nil {
		return Header{}, Mode{}, fmt.Errorf("find %s: %w", BSSSection, err)
	}
	if !ok {
		return Header{}, Mode{}, packerr.ErrBSSNotFound
	}
	h.BSSSize = bss.Size

	mode := DeriveMode(m.Kind, h.Attribute)
	h.Attribute = mode.Attr
	h.DecryptMode = mode.Decrypt
	h.DevkitVersion = mode.DevkitVersion

	return h, mode, nil
}
