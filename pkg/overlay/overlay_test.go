package overlay

import (
	"encoding/binary"
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

var errBadMagic = errors.New("bad magic")

type pair struct {
	Magic uint32
	Value uint32
}

func (p pair) Validate() error {
	if p.Magic != 0xCAFE {
		return errBadMagic
	}
	return nil
}

type tiny struct {
	A uint8
	B uint8
}

func (tiny) Validate() error { return nil }

func pairBytes(values ...uint32) []byte {
	// Over-allocate so callers can take misaligned sub-slices.
	buf := make([]byte, 8*len(values)+8)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[8*i:], 0xCAFE)
		binary.LittleEndian.PutUint32(buf[8*i+4:], v)
	}
	return buf[:8*len(values)]
}

func TestSizeMismatch(t *testing.T) {
	t.Parallel()

	short := make([]byte, 5)
	check := func(t *testing.T, err error, expected int) {
		t.Helper()
		var sizeErr *packerr.SizeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, len(short), sizeErr.InputLen)
		assert.Equal(t, expected, sizeErr.ExpectedLen)
	}

	_, err := Copy[pair](short)
	check(t, err, 8)
	_, err = View[pair](short)
	check(t, err, 8)
	_, err = Mut[pair](short)
	check(t, err, 8)
	_, err = CopySlice[pair](short, 3)
	check(t, err, 24)
	_, err = ViewSlice[pair](short, 3)
	check(t, err, 24)
	_, err = MutSlice[pair](short, 3)
	check(t, err, 24)
}

func TestSizeMismatchEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := View[pair](nil)
	var sizeErr *packerr.SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 0, sizeErr.InputLen)
	assert.Equal(t, 8, sizeErr.ExpectedLen)
}

func TestNegativeCount(t *testing.T) {
	t.Parallel()

	_, err := CopySlice[pair](pairBytes(1), -1)
	var sizeErr *packerr.SizeError
	require.ErrorAs(t, err, &sizeErr)
}

func TestMisalignedBorrowedViews(t *testing.T) {
	t.Parallel()

	backing := make([]byte, 64)
	binary.LittleEndian.PutUint32(backing[1:], 0xCAFE)
	binary.LittleEndian.PutUint32(backing[9:], 0xCAFE)
	b := backing[1:]
	addr := uintptr(unsafe.Pointer(&b[0]))

	check := func(t *testing.T, err error) {
		t.Helper()
		var alignErr *packerr.AlignmentError
		require.ErrorAs(t, err, &alignErr)
		assert.Equal(t, addr, alignErr.Addr)
		assert.Equal(t, AlignOf[pair](), alignErr.Align)
	}

	_, err := View[pair](b)
	check(t, err)
	_, err = Mut[pair](b)
	check(t, err)
	_, err = ViewSlice[pair](b, 2)
	check(t, err)
	_, err = MutSlice[pair](b, 2)
	check(t, err)

	// Owned copies never care about alignment.
	v, err := Copy[pair](b)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFE), v.Magic)
	vs, err := CopySlice[pair](b, 2)
	require.NoError(t, err)
	assert.Len(t, vs, 2)
}

func TestByteAlignedRecordNeverMisaligned(t *testing.T) {
	t.Parallel()

	backing := []byte{0, 1, 2, 3}
	r, err := View[tiny](backing[1:])
	require.NoError(t, err)
	assert.Equal(t, tiny{A: 1, B: 2}, r.Get())
}

func TestValidationErrorSurfaces(t *testing.T) {
	t.Parallel()

	b := pairBytes(1, 2, 3)
	binary.LittleEndian.PutUint32(b[16:], 0xBEEF)

	_, err := CopySlice[pair](b, 3)
	require.ErrorIs(t, err, errBadMagic)
	_, err = ViewSlice[pair](b, 3)
	require.ErrorIs(t, err, errBadMagic)
	_, err = MutSlice[pair](b, 3)
	require.ErrorIs(t, err, errBadMagic)

	// The first two records are still fine on their own.
	_, err = ViewSlice[pair](b, 2)
	require.NoError(t, err)
	_, err = Copy[pair](b[16:])
	require.ErrorIs(t, err, errBadMagic)
}

func TestViewReadsInPlace(t *testing.T) {
	t.Parallel()

	b := pairBytes(10, 20, 30)
	refs, err := ViewSlice[pair](b, 3)
	require.NoError(t, err)
	require.Equal(t, 3, refs.Len())

	var got []uint32
	for _, p := range refs.All() {
		got = append(got, p.Value)
	}
	assert.Equal(t, []uint32{10, 20, 30}, got)

	// A borrowed view observes later writes to the buffer.
	binary.LittleEndian.PutUint32(b[4:], 11)
	assert.Equal(t, uint32(11), refs.At(0).Value)

	one, err := View[pair](b[8:])
	require.NoError(t, err)
	assert.Equal(t, uint32(20), one.Get().Value)
}

func TestMutWritesThrough(t *testing.T) {
	t.Parallel()

	b := pairBytes(1, 2)
	p, err := Mut[pair](b[8:])
	require.NoError(t, err)
	p.Value = 0x01020304
	assert.Equal(t, []byte{4, 3, 2, 1}, b[12:16])

	ps, err := MutSlice[pair](b, 2)
	require.NoError(t, err)
	ps[0].Value = 7
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[4:]))
}

func TestCopyIsDetached(t *testing.T) {
	t.Parallel()

	b := pairBytes(5)
	v, err := Copy[pair](b)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b[4:], 6)
	assert.Equal(t, uint32(5), v.Value)
}

func TestZeroCountSlices(t *testing.T) {
	t.Parallel()

	vs, err := CopySlice[pair](nil, 0)
	require.NoError(t, err)
	assert.Empty(t, vs)
	refs, err := ViewSlice[pair](nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, refs.Len())
	ms, err := MutSlice[pair](nil, 0)
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestBytesAndEncode(t *testing.T) {
	t.Parallel()

	v := pair{Magic: 0xCAFE, Value: 0x11223344}
	raw := Bytes(&v)
	require.Len(t, raw, 8)
	assert.Equal(t, []byte{0xFE, 0xCA, 0, 0, 0x44, 0x33, 0x22, 0x11}, raw)

	raw[4] = 0x55
	assert.Equal(t, uint32(0x11223355), v.Value)

	enc := Encode(v)
	enc[4] = 0
	assert.Equal(t, uint32(0x11223355), v.Value)

	s := []pair{{Magic: 1}, {Magic: 2}}
	assert.Len(t, SliceBytes(s), 16)
	assert.Nil(t, SliceBytes([]pair(nil)))
}
