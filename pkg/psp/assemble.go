package psp

import (
	"fmt"
	"math"

	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Assemble splices packed between the preamble container[:imageStart] and
// the trailing region container[imageEnd:]. The preamble is copied
// verbatim, so the asset offsets inside it stay valid; only the image and
// trailing offsets are rewritten.
func Assemble(container []byte, imageStart, imageEnd int, packed []byte) ([]byte, error) {
	if imageStart < 0 || imageStart > imageEnd || imageEnd > len(container) {
		return nil, fmt.Errorf("image range [%d, %d) outside %d-byte container: %w", imageStart, imageEnd, len(container), packerr.ErrFileTooSmall)
	}
	pre := container[:imageStart]
	trailing := container[imageEnd:]

	psar := uint64(len(pre)) + uint64(len(packed))
	if psar > math.MaxUint32 {
		return nil, fmt.Errorf("trailing region at %d: %w", psar, packerr.ErrFileTooBig)
	}

	out := make([]byte, 0, len(pre)+len(packed)+len(trailing))
	out = append(out, pre...)
	out = append(out, packed...)
	out = append(out, trailing...)

	pbp, err := overlay.Mut[PBPHeader](out)
	if err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	pbp.PRXOffset = uint32(len(pre))
	pbp.PSAROffset = uint32(psar)
	return out, nil
}
