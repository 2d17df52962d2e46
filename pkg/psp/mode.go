package psp

// Devkit versions written alongside some decrypt modes. Modes without one
// leave the field zero.
const (
	DevkitKernelBoot uint32 = 0x06060110
	DevkitKernel     uint32 = 0x05070110
	DevkitMS         uint32 = 0x06020010
	DevkitStandard   uint32 = 0x05070210
)

// Mode is the outcome of decrypt mode derivation.
type Mode struct {
	// Rule names the rule that matched.
	Rule          string
	Decrypt       DecryptMode
	DevkitVersion uint32
	// Attr is the module attribute after derivation. Only the memory
	// stick fallback changes it.
	Attr Attribute
}

type modeRule struct {
	name    string
	match   func(kind Kind, attr Attribute) bool
	decrypt DecryptMode
	devkit  uint32
	setAttr Attribute
}

// modeRules is evaluated top to bottom; the first match wins. The last
// rule always matches.
var modeRules = []modeRule{
	{
		name:    "kernel-boot",
		match:   func(_ Kind, a Attribute) bool { return a.IsKernel() && a.IsBoot() },
		decrypt: DecryptKernel,
		devkit:  DevkitKernelBoot,
	},
	{
		name:    "kernel",
		match:   func(_ Kind, a Attribute) bool { return a.IsKernel() },
		decrypt: DecryptKernel,
		devkit:  DevkitKernel,
	},
	{
		name:    "pbp-updater",
		match:   func(k Kind, a Attribute) bool { return k.IsPBP() && a.Has(AttrVSHAPI) },
		decrypt: DecryptUpdater,
	},
	{
		name:    "pbp-app",
		match:   func(k Kind, a Attribute) bool { return k.IsPBP() && a.Has(AttrAppAPI) },
		decrypt: DecryptApp,
	},
	{
		name:    "pbp-usb-wlan",
		match:   func(k Kind, a Attribute) bool { return k.IsPBP() && a.Has(AttrUSBWLANAPI) },
		decrypt: DecryptUSBWLAN,
	},
	{
		name:    "pbp-ms",
		match:   func(k Kind, _ Attribute) bool { return k.IsPBP() },
		decrypt: DecryptMS,
		devkit:  DevkitMS,
		setAttr: AttrMSAPI,
	},
	{
		name:    "prx-vsh",
		match:   func(_ Kind, a Attribute) bool { return a.Has(AttrVSHAPI) },
		decrypt: DecryptVSH,
	},
	{
		name:    "prx-standard",
		match:   func(Kind, Attribute) bool { return true },
		decrypt: DecryptStandard,
		devkit:  DevkitStandard,
	},
}

// DeriveMode picks the decrypt mode and devkit version for a module. It
// depends only on kind and attr.
func DeriveMode(kind Kind, attr Attribute) Mode {
	for _, r := range modeRules {
		if !r.match(kind, attr) {
			continue
		}
		return Mode{
			Rule:          r.name,
			Decrypt:       r.decrypt,
			DevkitVersion: r.devkit,
			Attr:          attr | r.setAttr,
		}
	}
	// Unreachable: the last rule matches everything.
	return Mode{Rule: "prx-standard", Decrypt: DecryptStandard, DevkitVersion: DevkitStandard, Attr: attr}
}
