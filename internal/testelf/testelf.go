// Package testelf builds synthetic PSP module images and PBP containers
// for unit tests.
package testelf

import (
	"encoding/binary"
)

const (
	ModuleInfoName = ".rodata.sceModuleInfo"

	elfMagic   = 0x464C457F
	typePRX    = 0xFFA0
	pbpMagic   = 0x50425000
	moduleSize = 52
	kernelBit  = 0x80000000
)

// Module describes the image Build produces. The zero value is a user
// module with one segment, a 0x100-byte .bss and module info reachable
// through the first segment's physical address.
type Module struct {
	Name        string
	Attr        uint16
	VersionLow  uint8
	VersionHigh uint8

	// Type overrides the ELF type field; 0 means PRX.
	Type uint16
	// Segments is the program header count; 0 means 1. Negative yields an
	// image with no program headers.
	Segments int
	// Kernel sets the top bit of the module info segment's physical address.
	Kernel bool
	// SectionOnly leaves every segment with vaddr == paddr so module info
	// can only be found through its section name.
	SectionOnly bool
	// NoModuleInfo also drops the module info section.
	NoModuleInfo bool
	// NoBSS omits the .bss section.
	NoBSS   bool
	BSSSize uint32
	Entry   uint32
	Payload []byte
}

// Layout records where Build placed things.
type Layout struct {
	ModuleInfoOffset uint32
	SectionsOffset   uint32
	StringsOffset    uint32
	Size             int
}

func align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// Build returns the ELF image for m.
func (m Module) Build() []byte {
	b, _ := m.BuildLayout()
	return b
}

// BuildLayout returns the ELF image for m together with its layout.
func (m Module) BuildLayout() ([]byte, Layout) {
	nseg := m.Segments
	switch {
	case nseg == 0:
		nseg = 1
	case nseg < 0:
		nseg = 0
	}
	bss := m.BSSSize
	if bss == 0 {
		bss = 0x100
	}
	payload := m.Payload
	if payload == nil {
		payload = make([]byte, 0x400)
		for i := range payload {
			payload[i] = 0xAB
		}
	}

	names := []string{"", ".text"}
	if !m.NoModuleInfo {
		names = append(names, ModuleInfoName)
	}
	if !m.NoBSS {
		names = append(names, ".bss")
	}
	names = append(names, ".shstrtab")
	var strtab []byte
	nameOff := make([]uint32, len(names))
	for i, n := range names {
		nameOff[i] = uint32(len(strtab))
		strtab = append(strtab, n...)
		strtab = append(strtab, 0)
	}

	phOff := 52
	codeOff := align(phOff+nseg*32, 16)
	miOff := align(codeOff+len(payload), 4)
	strOff := miOff + moduleSize
	shOff := align(strOff+len(strtab), 4)
	total := shOff + len(names)*40

	img := make([]byte, total)
	le := binary.LittleEndian

	// File header.
	le.PutUint32(img[0:], elfMagic)
	img[4], img[5], img[6] = 1, 1, 1
	typ := m.Type
	if typ == 0 {
		typ = typePRX
	}
	le.PutUint16(img[16:], typ)
	le.PutUint16(img[18:], 8) // MIPS
	le.PutUint32(img[20:], 1)
	le.PutUint32(img[24:], m.Entry)
	le.PutUint32(img[28:], uint32(phOff))
	le.PutUint32(img[32:], uint32(shOff))
	le.PutUint16(img[40:], 52)
	le.PutUint16(img[42:], 32)
	le.PutUint16(img[44:], uint16(nseg))
	le.PutUint16(img[46:], 40)
	le.PutUint16(img[48:], uint16(len(names)))
	le.PutUint16(img[50:], uint16(len(names)-1))

	// Program headers.
	for i := 0; i < nseg; i++ {
		p := img[phOff+i*32:]
		le.PutUint32(p[0:], 1)
		if i == 0 {
			le.PutUint32(p[4:], uint32(codeOff))
			le.PutUint32(p[8:], 0)
			paddr := uint32(0)
			if !m.SectionOnly && !m.NoModuleInfo {
				paddr = uint32(miOff)
				if m.Kernel {
					paddr |= kernelBit
				}
			}
			le.PutUint32(p[12:], paddr)
			filesz := uint32(strOff - codeOff)
			le.PutUint32(p[16:], filesz)
			le.PutUint32(p[20:], filesz+bss)
			le.PutUint32(p[24:], 7)
			le.PutUint32(p[28:], 0x10)
			continue
		}
		addr := uint32(0x1000 * i)
		le.PutUint32(p[4:], uint32(codeOff))
		le.PutUint32(p[8:], addr)
		le.PutUint32(p[12:], addr)
		le.PutUint32(p[16:], 0)
		le.PutUint32(p[20:], uint32(0x20*i))
		le.PutUint32(p[24:], 6)
		le.PutUint32(p[28:], 0x40)
	}

	copy(img[codeOff:], payload)

	// Module info.
	mi := img[miOff:]
	le.PutUint16(mi[0:], m.Attr)
	mi[2] = m.VersionLow
	mi[3] = m.VersionHigh
	copy(mi[4:31], m.Name)

	copy(img[strOff:], strtab)

	// Section headers.
	for i, n := range names {
		s := img[shOff+i*40:]
		le.PutUint32(s[0:], nameOff[i])
		switch n {
		case "":
		case ".text":
			le.PutUint32(s[4:], 1)
			le.PutUint32(s[16:], uint32(codeOff))
			le.PutUint32(s[20:], uint32(len(payload)))
		case ModuleInfoName:
			le.PutUint32(s[4:], 1)
			le.PutUint32(s[12:], uint32(miOff-codeOff))
			le.PutUint32(s[16:], uint32(miOff))
			le.PutUint32(s[20:], moduleSize)
		case ".bss":
			le.PutUint32(s[4:], 8)
			le.PutUint32(s[16:], uint32(strOff))
			le.PutUint32(s[20:], bss)
		case ".shstrtab":
			le.PutUint32(s[4:], 3)
			le.PutUint32(s[16:], uint32(strOff))
			le.PutUint32(s[20:], uint32(len(strtab)))
		}
	}

	return img, Layout{
		ModuleInfoOffset: uint32(miOff),
		SectionsOffset:   uint32(shOff),
		StringsOffset:    uint32(strOff),
		Size:             total,
	}
}

// Container describes a PBP built around an image.
type Container struct {
	// Assets is placed between the 40-byte header and the image.
	Assets []byte
	// Trailing follows the image (the PSAR region).
	Trailing []byte
}

// PBP wraps image in a container and returns it with the image offset.
func (c Container) PBP(image []byte) ([]byte, int) {
	const hdrSize = 40
	prx := hdrSize + len(c.Assets)
	psar := prx + len(image)

	out := make([]byte, psar+len(c.Trailing))
	le := binary.LittleEndian
	le.PutUint32(out[0:], pbpMagic)
	le.PutUint32(out[4:], 0x10000)
	// param.sfo starts right after the header; the other assets are empty
	// and sit at the image offset.
	le.PutUint32(out[8:], hdrSize)
	for i := 1; i < 6; i++ {
		le.PutUint32(out[8+4*i:], uint32(prx))
	}
	le.PutUint32(out[32:], uint32(prx))
	le.PutUint32(out[36:], uint32(psar))
	copy(out[hdrSize:], c.Assets)
	copy(out[prx:], image)
	copy(out[psar:], c.Trailing)
	return out, prx
}
