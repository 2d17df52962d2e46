package psp

import (
	"fmt"
	"strconv"
)

// Tags holds the two identification tags of a ~PSP header.
type Tags struct {
	Tag   uint32 `json:"tag" yaml:"tag"`
	OETag uint32 `json:"oe_tag" yaml:"oe_tag"`
}

var defaultTags = map[Kind]Tags{
	KindUserPRX:   {Tag: 0x457B06F0, OETag: 0x8555ABF2},
	KindKernelPRX: {Tag: 0xDADADAF0, OETag: 0x55668D96},
	KindPBP:       {Tag: 0xADF305F0, OETag: 0x7316308C},
}

// DefaultTags returns the tags used for kind when the caller supplies none.
func DefaultTags(kind Kind) Tags {
	return defaultTags[kind]
}

// ResolveTags returns override when set, or the defaults for kind.
func ResolveTags(kind Kind, override *Tags) Tags {
	if override != nil {
		return *override
	}
	return DefaultTags(kind)
}

// ParseTag parses a tag in decimal or 0x-prefixed hexadecimal.
func ParseTag(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tag %q: %w", s, err)
	}
	return uint32(v), nil
}

// ParseTags parses a TAG, OE_TAG pair.
func ParseTags(tag, oeTag string) (Tags, error) {
	t, err := ParseTag(tag)
	if err != nil {
		return Tags{}, err
	}
	o, err := ParseTag(oeTag)
	if err != nil {
		return Tags{}, err
	}
	return Tags{Tag: t, OETag: o}, nil
}
