package psp

import (
	"fmt"
	"strings"
)

// Attribute is the module attribute bitmask carried by ModuleInfo and
// copied into Header. Some flags span more than one bit; Has requires all
// of them.
type Attribute uint16

const (
	AttrMSAPI      Attribute = 0x0200
	AttrUSBWLANAPI Attribute = 0x0400
	AttrAppAPI     Attribute = 0x0600
	AttrVSHAPI     Attribute = 0x0800
	AttrKernelMode Attribute = 0x1000
	AttrBootMode   Attribute = 0x2000
)

var attrNames = []struct {
	flag Attribute
	name string
}{
	{AttrKernelMode, "kernel"},
	{AttrBootMode, "boot"},
	{AttrVSHAPI, "vsh_api"},
	{AttrAppAPI, "app_api"},
	{AttrUSBWLANAPI, "usb_wlan_api"},
	{AttrMSAPI, "ms_api"},
}

// Has reports whether every bit of f is set in a.
func (a Attribute) Has(f Attribute) bool {
	return a&f == f
}

func (a Attribute) IsKernel() bool { return a.Has(AttrKernelMode) }
func (a Attribute) IsBoot() bool   { return a.Has(AttrBootMode) }

// Flags lists the names of the flags contained in a. Multi-bit API flags
// are reported once, by their widest match.
func (a Attribute) Flags() []string {
	var out []string
	var seen Attribute
	for _, n := range attrNames {
		if !a.Has(n.flag) || seen&n.flag == n.flag {
			continue
		}
		out = append(out, n.name)
		seen |= n.flag
	}
	return out
}

func (a Attribute) String() string {
	if a == 0 {
		return "0"
	}
	names := a.Flags()
	var known Attribute
	for _, n := range attrNames {
		if a.Has(n.flag) {
			known |= n.flag
		}
	}
	if rest := a &^ known; rest != 0 {
		names = append(names, fmt.Sprintf("%#04x", uint16(rest)))
	}
	return strings.Join(names, "|")
}
