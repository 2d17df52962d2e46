package psp

import "fmt"

// Kind classifies an input. It is decided while parsing and never changes
// afterwards.
type Kind uint8

const (
	KindUserPRX Kind = iota
	KindKernelPRX
	KindPBP
)

func (k Kind) IsPRX() bool { return k == KindUserPRX || k == KindKernelPRX }
func (k Kind) IsPBP() bool { return k == KindPBP }

func (k Kind) String() string {
	switch k {
	case KindUserPRX:
		return "User PRX"
	case KindKernelPRX:
		return "Kernel PRX"
	case KindPBP:
		return "PBP"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText encodes k as a stable identifier.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindUserPRX:
		return []byte("user_prx"), nil
	case KindKernelPRX:
		return []byte("kernel_prx"), nil
	case KindPBP:
		return []byte("pbp"), nil
	default:
		return nil, fmt.Errorf("psp: unknown kind %d", uint8(k))
	}
}
