package psp

import (
	"encoding/binary"
	"fmt"

	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Report describes an input without packing it.
type Report struct {
	Packed      bool   `json:"packed"`
	Kind        string `json:"kind,omitempty"`
	FileSize    int    `json:"file_size"`
	ImageOffset int    `json:"image_offset"`
	ImageSize   uint32 `json:"image_size"`

	Module           ModuleReport    `json:"module"`
	ModuleInfoOffset uint32          `json:"module_info_offset"`
	Entry            uint32          `json:"entry"`
	Segments         []SegmentReport `json:"segments"`
	BSSSize          uint32          `json:"bss_size"`

	Rule          string `json:"rule,omitempty"`
	DecryptMode   string `json:"decrypt_mode"`
	DevkitVersion uint32 `json:"devkit_version"`
	Tags          Tags   `json:"tags"`

	CompressedSize uint32 `json:"compressed_size,omitempty"`
	PSPSize        uint32 `json:"psp_size,omitempty"`
}

type ModuleReport struct {
	Name        string    `json:"name"`
	VersionHigh uint8     `json:"version_high"`
	VersionLow  uint8     `json:"version_low"`
	Attribute   Attribute `json:"attribute"`
	Flags       []string  `json:"flags"`
}

type SegmentReport struct {
	Align uint16 `json:"align"`
	Addr  uint32 `json:"addr"`
	Size  uint32 `json:"size"`
}

// Inspect reports what Pack would produce for buf, or what an already
// packed buf contains. It never modifies buf and never decompresses.
// tags, when set, replaces the default tags in the report of an unpacked
// input.
func Inspect(buf []byte, tags *Tags) (*Report, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("%d-byte input: %w", len(buf), packerr.ErrFileTooSmall)
	}
	switch binary.LittleEndian.Uint32(buf) {
	case Magic:
		return inspectPacked(buf, 0, "")
	case PBPMagic:
		_, start, end, err := Classify(buf)
		if err != nil {
			return nil, err
		}
		image := buf[start:end]
		if len(image) >= 4 && binary.LittleEndian.Uint32(image) == Magic {
			return inspectPacked(buf, start, KindPBP.kindName())
		}
	}

	a, err := analyze(buf, Options{})
	if err != nil {
		return nil, err
	}
	h, mode, err := Synthesize(a.Module)
	if err != nil {
		return nil, err
	}
	t := ResolveTags(a.Kind, tags)
	h.Tag, h.OETag = t.Tag, t.OETag

	r := reportHeader(&h)
	r.Kind = a.Kind.kindName()
	r.FileSize = len(buf)
	r.ImageOffset = a.start
	r.Rule = mode.Rule
	return r, nil
}

func inspectPacked(buf []byte, off int, kind string) (*Report, error) {
	h, err := overlay.Copy[Header](buf[off:])
	if err != nil {
		return nil, fmt.Errorf("psp header: %w", err)
	}
	r := reportHeader(&h)
	r.Packed = true
	r.Kind = kind
	r.FileSize = len(buf)
	r.ImageOffset = off
	r.CompressedSize = h.CompSize
	r.PSPSize = h.PSPSize
	return r, nil
}

func reportHeader(h *Header) *Report {
	n := int(h.NumSegments)
	if n > MaxSegments {
		n = MaxSegments
	}
	segs := make([]SegmentReport, n)
	for i := range segs {
		segs[i] = SegmentReport{Align: h.SegAlign[i], Addr: h.SegAddr[i], Size: h.SegSize[i]}
	}
	return &Report{
		ImageSize: h.ELFSize,
		Module: ModuleReport{
			Name:        h.Name(),
			VersionHigh: h.ModuleVerHigh,
			VersionLow:  h.ModuleVerLow,
			Attribute:   h.Attribute,
			Flags:       h.Attribute.Flags(),
		},
		ModuleInfoOffset: h.ModuleInfoOffset,
		Entry:            h.Entry,
		Segments:         segs,
		BSSSize:          h.BSSSize,
		DecryptMode:      h.DecryptMode.String(),
		DevkitVersion:    h.DevkitVersion,
		Tags:             Tags{Tag: h.Tag, OETag: h.OETag},
	}
}

func (k Kind) kindName() string {
	b, err := k.MarshalText()
	if err != nil {
		return ""
	}
	return string(b)
}
