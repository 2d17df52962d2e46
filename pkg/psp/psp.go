// Package psp repacks PSP modules into the compressed ~PSP format the
// firmware loader consumes.
//
// A module is either a bare PRX (an ELF image of type 0xFFA0) or a PBP
// container whose DATA.PSP slot holds the ELF. Pack classifies the input,
// locates the module info record, synthesizes the ~PSP header, gzips the
// ELF and, for PBP input, splices the result back into the container.
package psp

// Global format constants must never change.
const (
	// Magic is "~PSP" read as a little-endian word.
	Magic uint32 = 0x5053507E

	// PBPMagic is "\0PBP" read as a little-endian word.
	PBPMagic uint32 = 0x50425000

	// HeaderSize is the encoded size of Header.
	HeaderSize = 0x150

	// ModuleInfoSize is the encoded size of ModuleInfo.
	ModuleInfoSize = 52

	// PBPHeaderSize is the encoded size of PBPHeader.
	PBPHeaderSize = 40

	// ModuleInfoSection is the section that holds ModuleInfo when no
	// segment points at it.
	ModuleInfoSection = ".rodata.sceModuleInfo"

	// BSSSection is the zero-initialized data section every module must
	// declare.
	BSSSection = ".bss"

	// MaxSegments is the number of segment slots in Header.
	MaxSegments = 4

	// CompressGzip is the only compression attribute the packer emits.
	CompressGzip uint16 = 1

	formatVersion uint8  = 1
	fixed80       uint32 = 0x80
	kernelAddrBit uint32 = 0x80000000
)
