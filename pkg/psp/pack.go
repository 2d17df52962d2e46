package psp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/psp-tools/psp-packer/pkg/elf32"
	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Options tunes a Pack call. The zero value uses the default tags for the
// input's kind and a fresh pseudo-random key source.
type Options struct {
	// Tags overrides the default tag pair for every kind.
	Tags *Tags
	// Keys fills the header key regions.
	Keys KeySource
	// RejectPRXInPackage refuses PBP input whose embedded ELF is typed as
	// a PRX. Off by default, which is what existing packers do.
	RejectPRXInPackage bool
}

// Packed is the result of Pack.
type Packed struct {
	Data   []byte
	Kind   Kind
	Header Header
	Mode   Mode
}

// Size returns the output length in bytes.
func (p *Packed) Size() int { return len(p.Data) }

// Bytes returns the packed output.
func (p *Packed) Bytes() []byte { return p.Data }

// Classify inspects the first bytes of buf and returns its kind and the
// ELF image range. PRX input is reported as KindUserPRX until module info
// says otherwise.
func Classify(buf []byte) (kind Kind, start, end int, err error) {
	if len(buf) < 4 {
		return 0, 0, 0, fmt.Errorf("%d-byte input: %w", len(buf), packerr.ErrFileTooSmall)
	}
	switch binary.LittleEndian.Uint32(buf) {
	case Magic:
		return 0, 0, 0, packerr.ErrAlreadyPacked
	case PBPMagic:
		ref, err := overlay.View[PBPHeader](buf)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("pbp header: %w", err)
		}
		h := ref.Get()
		start, end := uint64(h.PRXOffset), uint64(h.PSAROffset)
		if start > end || end > uint64(len(buf)) {
			return 0, 0, 0, fmt.Errorf("pbp image range [%#x, %#x) in %d bytes: %w", start, end, len(buf), packerr.ErrFileTooSmall)
		}
		return KindPBP, int(start), int(end), nil
	default:
		return KindUserPRX, 0, len(buf), nil
	}
}

type analysis struct {
	Module
	start, end int
}

func (a *analysis) image(buf []byte) []byte {
	return buf[a.start:a.end]
}

func analyze(buf []byte, opts Options) (*analysis, error) {
	kind, start, end, err := Classify(buf)
	if err != nil {
		return nil, err
	}
	image := buf[start:end]

	hdr, err := elf32.ReadHeader(image)
	if err != nil {
		return nil, fmt.Errorf("elf header: %w", err)
	}
	if kind.IsPBP() && opts.RejectPRXInPackage && hdr.IsPRX() {
		return nil, packerr.ErrNotPBP
	}
	if kind.IsPRX() && !hdr.IsPRX() {
		return nil, packerr.ErrNotPRX
	}

	f, err := elf32.Parse(image)
	if err != nil {
		return nil, fmt.Errorf("elf: %w", err)
	}

	loc, err := LocateModuleInfo(f)
	if err != nil {
		return nil, err
	}
	if loc.Kernel {
		if kind.IsPBP() {
			return nil, packerr.ErrKernelPBP
		}
		kind = KindKernelPRX
	}

	mi, err := ReadModuleInfo(image, loc)
	if err != nil {
		return nil, err
	}
	if err := CheckPrivileges(loc, mi); err != nil {
		return nil, err
	}

	return &analysis{
		Module: Module{Kind: kind, ELF: f, Info: mi, Location: loc},
		start:  start,
		end:    end,
	}, nil
}

// Pack converts buf into ~PSP form. It takes ownership of buf: the module
// info record inside the ELF image is rewritten in place before
// compression so the payload agrees with the header.
func Pack(buf []byte, opts Options) (*Packed, error) {
	a, err := analyze(buf, opts)
	if err != nil {
		return nil, err
	}
	image := a.image(buf)

	h, mode, err := Synthesize(a.Module)
	if err != nil {
		return nil, err
	}

	mi := a.Info
	mi.Attr = h.Attribute
	off := int(a.Location.Offset())
	copy(image[off:off+ModuleInfoSize], overlay.Bytes(&mi))

	tags := ResolveTags(a.Kind, opts.Tags)
	h.Tag = tags.Tag
	h.OETag = tags.OETag

	keys := opts.Keys
	if keys == nil {
		keys = NewKeySource()
	}
	fillKeys(&h, keys)

	out, err := Compress(image, HeaderSize)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > math.MaxUint32 {
		return nil, fmt.Errorf("%d-byte output: %w", len(out), packerr.ErrFileTooBig)
	}
	h.CompSize = uint32(len(out) - HeaderSize)
	h.PSPSize = uint32(len(out))
	copy(out[:HeaderSize], overlay.Bytes(&h))

	if a.Kind.IsPBP() {
		out, err = Assemble(buf, a.start, a.end, out)
		if err != nil {
			return nil, err
		}
	}

	return &Packed{
		Data:   out,
		Kind:   a.Kind,
		Header: h,
		Mode:   mode,
	}, nil
}
