package psp

import (
	"bytes"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// ModuleInfo is the sceModuleInfo record embedded in every PRX. The
// pointer fields use the target's 32-bit width.
type ModuleInfo struct {
	Attr        Attribute
	VersionLow  uint8
	VersionHigh uint8
	Name        [27]byte
	Terminal    uint8
	GPValue     uint32
	EntTop      uint32
	EntEnd      uint32
	StubTop     uint32
	StubEnd     uint32
}

func (ModuleInfo) Validate() error { return nil }

// ModuleName returns Name up to its first nul.
func (m *ModuleInfo) ModuleName() string {
	return cstring(m.Name[:])
}

// PBPHeader is the fixed header of a PBP container. The image lives at
// [PRXOffset, PSAROffset); everything after PSAROffset is the trailing
// asset region.
type PBPHeader struct {
	Magic       uint32
	Version     uint32
	SFOOffset   uint32
	Icon0Offset uint32
	Icon1Offset uint32
	Pic0Offset  uint32
	Pic1Offset  uint32
	Snd0Offset  uint32
	PRXOffset   uint32
	PSAROffset  uint32
}

func (h PBPHeader) Validate() error {
	if h.Magic != PBPMagic {
		return packerr.ErrNotPBP
	}
	return nil
}

// DecryptMode selects the firmware key handling path for a module.
type DecryptMode uint8

const (
	DecryptKernel   DecryptMode = 0x2
	DecryptVSH      DecryptMode = 0x3
	DecryptStandard DecryptMode = 0x4
	DecryptUSBWLAN  DecryptMode = 0xA
	DecryptUpdater  DecryptMode = 0xC
	DecryptMS       DecryptMode = 0xD
	DecryptApp      DecryptMode = 0xE
)

func (d DecryptMode) String() string {
	switch d {
	case DecryptKernel:
		return "kernel"
	case DecryptVSH:
		return "vsh"
	case DecryptStandard:
		return "standard"
	case DecryptUSBWLAN:
		return "usb-wlan"
	case DecryptUpdater:
		return "updater"
	case DecryptMS:
		return "memory-stick"
	case DecryptApp:
		return "app"
	default:
		return "unknown"
	}
}

// Header is the ~PSP header written in front of the compressed ELF.
type Header struct {
	Signature        uint32
	Attribute        Attribute
	CompAttribute    uint16
	ModuleVerLow     uint8
	ModuleVerHigh    uint8
	ModuleName       [28]byte
	Version          uint8
	NumSegments      uint8
	ELFSize          uint32
	PSPSize          uint32
	Entry            uint32
	ModuleInfoOffset uint32
	BSSSize          uint32
	SegAlign         [MaxSegments]uint16
	SegAddr          [MaxSegments]uint32
	SegSize          [MaxSegments]uint32
	Reserved         [5]uint32
	DevkitVersion    uint32
	DecryptMode      DecryptMode
	Padding          uint8
	OverlapSize      uint16
	KeyData0         [0x30]byte
	CompSize         uint32
	Fixed80          uint32
	Reserved2        [2]uint32
	KeyData1         [0x10]byte
	Tag              uint32
	SCheck           [0x58]byte
	KeyData2         uint32
	OETag            uint32
	KeyData3         [0x1C]byte
}

func (Header) Validate() error { return nil }

// NewHeader returns a zeroed header with its fixed fields set.
func NewHeader() Header {
	return Header{
		Signature: Magic,
		Version:   formatVersion,
		Fixed80:   fixed80,
	}
}

// Name returns ModuleName up to its first nul.
func (h *Header) Name() string {
	return cstring(h.ModuleName[:])
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
