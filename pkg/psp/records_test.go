package psp

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-tools/psp-packer/pkg/overlay"
	"github.com/psp-tools/psp-packer/pkg/packerr"
)

func TestRecordLayout(t *testing.T) {
	t.Parallel()

	require.Equal(t, HeaderSize, overlay.SizeOf[Header]())
	require.Equal(t, ModuleInfoSize, overlay.SizeOf[ModuleInfo]())
	require.Equal(t, PBPHeaderSize, overlay.SizeOf[PBPHeader]())

	var h Header
	offsets := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"ModuleName", unsafe.Offsetof(h.ModuleName), 0x0A},
		{"ELFSize", unsafe.Offsetof(h.ELFSize), 0x28},
		{"BSSSize", unsafe.Offsetof(h.BSSSize), 0x38},
		{"SegAlign", unsafe.Offsetof(h.SegAlign), 0x3C},
		{"SegAddr", unsafe.Offsetof(h.SegAddr), 0x44},
		{"SegSize", unsafe.Offsetof(h.SegSize), 0x54},
		{"DevkitVersion", unsafe.Offsetof(h.DevkitVersion), 0x78},
		{"DecryptMode", unsafe.Offsetof(h.DecryptMode), 0x7C},
		{"KeyData0", unsafe.Offsetof(h.KeyData0), 0x80},
		{"CompSize", unsafe.Offsetof(h.CompSize), 0xB0},
		{"Fixed80", unsafe.Offsetof(h.Fixed80), 0xB4},
		{"KeyData1", unsafe.Offsetof(h.KeyData1), 0xC0},
		{"Tag", unsafe.Offsetof(h.Tag), 0xD0},
		{"SCheck", unsafe.Offsetof(h.SCheck), 0xD4},
		{"KeyData2", unsafe.Offsetof(h.KeyData2), 0x12C},
		{"OETag", unsafe.Offsetof(h.OETag), 0x130},
		{"KeyData3", unsafe.Offsetof(h.KeyData3), 0x134},
	}
	for _, o := range offsets {
		assert.Equalf(t, o.want, o.got, "offset of %s", o.name)
	}

	var mi ModuleInfo
	assert.Equal(t, uintptr(4), unsafe.Offsetof(mi.Name))
	assert.Equal(t, uintptr(31), unsafe.Offsetof(mi.Terminal))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(mi.GPValue))
}

func TestNewHeader(t *testing.T) {
	t.Parallel()

	h := NewHeader()
	raw := overlay.Encode(h)
	assert.Equal(t, []byte("~PSP"), raw[:4])
	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, uint32(0x80), h.Fixed80)
	assert.Equal(t, DecryptMode(0), h.DecryptMode)
}

func TestPBPHeaderValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, PBPHeader{Magic: PBPMagic}.Validate())
	require.ErrorIs(t, PBPHeader{Magic: 1}.Validate(), packerr.ErrNotPBP)
}

func TestNames(t *testing.T) {
	t.Parallel()

	var mi ModuleInfo
	copy(mi.Name[:], "sceHello")
	assert.Equal(t, "sceHello", mi.ModuleName())

	var h Header
	copy(h.ModuleName[:], mi.Name[:])
	assert.Equal(t, "sceHello", h.Name())

	for i := range mi.Name {
		mi.Name[i] = 'a'
	}
	assert.Len(t, mi.ModuleName(), 27)
}

func TestAttributeFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attr Attribute
		want string
	}{
		{0, "0"},
		{AttrKernelMode, "kernel"},
		{AttrKernelMode | AttrBootMode, "kernel|boot"},
		{AttrAppAPI, "app_api"},
		{AttrUSBWLANAPI, "usb_wlan_api"},
		{AttrMSAPI, "ms_api"},
		{AttrVSHAPI | AttrMSAPI, "vsh_api|ms_api"},
		{AttrMSAPI | 0x0001, "ms_api|0x0001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.attr.String())
	}

	assert.True(t, AttrAppAPI.Has(AttrUSBWLANAPI))
	assert.False(t, AttrUSBWLANAPI.Has(AttrAppAPI))
	assert.True(t, (AttrKernelMode | AttrBootMode).IsBoot())
}

func TestKindText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "User PRX", KindUserPRX.String())
	assert.Equal(t, "Kernel PRX", KindKernelPRX.String())
	assert.Equal(t, "PBP", KindPBP.String())
	b, err := KindKernelPRX.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "kernel_prx", string(b))
	_, err = Kind(9).MarshalText()
	require.Error(t, err)
}
