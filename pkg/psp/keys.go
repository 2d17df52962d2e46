package psp

import (
	"encoding/binary"
	"hash/maphash"
	"math/rand/v2"
	"runtime"
	"strconv"
)

// KeySource fills the opaque key regions of a header. The bytes carry no
// meaning to the loader path this package targets.
type KeySource interface {
	Fill(p []byte)
}

// KeySourceFunc adapts a function to KeySource.
type KeySourceFunc func(p []byte)

func (f KeySourceFunc) Fill(p []byte) { f(p) }

// ConstKeys fills every key byte with b.
func ConstKeys(b byte) KeySource {
	return KeySourceFunc(func(p []byte) {
		for i := range p {
			p[i] = b
		}
	})
}

// NewKeySource returns a pseudo-random source seeded from the caller's
// location and a per-process hash seed. Create one per Pack call.
func NewKeySource() KeySource {
	_, file, line, _ := runtime.Caller(1)
	h := maphash.String(maphash.MakeSeed(), file+":"+strconv.Itoa(line))

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], h)
	for i := 8; i < len(seed); i++ {
		seed[i] = byte(i - 8)
	}
	return &chachaKeys{r: rand.NewChaCha8(seed)}
}

type chachaKeys struct {
	r *rand.ChaCha8
}

func (k *chachaKeys) Fill(p []byte) {
	_, _ = k.r.Read(p)
}

func fillKeys(h *Header, src KeySource) {
	src.Fill(h.KeyData0[:])
	src.Fill(h.KeyData1[:])
	src.Fill(h.KeyData3[:])
}
