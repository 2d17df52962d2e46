package psp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Tags{0x457B06F0, 0x8555ABF2}, ResolveTags(KindUserPRX, nil))
	assert.Equal(t, Tags{0xDADADAF0, 0x55668D96}, ResolveTags(KindKernelPRX, nil))
	assert.Equal(t, Tags{0xADF305F0, 0x7316308C}, ResolveTags(KindPBP, nil))

	custom := &Tags{Tag: 1, OETag: 2}
	for _, k := range []Kind{KindUserPRX, KindKernelPRX, KindPBP} {
		assert.Equal(t, *custom, ResolveTags(k, custom))
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	tags, err := ParseTags("0xDEADBEEF", "42")
	require.NoError(t, err)
	assert.Equal(t, Tags{Tag: 0xDEADBEEF, OETag: 42}, tags)

	_, err = ParseTags("0x1FFFFFFFF", "0")
	require.Error(t, err)
	_, err = ParseTags("1", "nope")
	require.Error(t, err)
}
