package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNALUTypeOf(t *testing.T) {
	typ, ok := NALUTypeOf([]byte{0, 0, 0, 1, 0x67, 0x42})
	require.True(t, ok)
	require.Equal(t, NALUTypeSPS, typ)

	typ, ok = NALUTypeOf([]byte{0, 0, 0, 1, 0x68})
	require.True(t, ok)
	require.Equal(t, NALUTypePPS, typ)

	typ, ok = NALUTypeOf([]byte{0, 0, 0, 1, 0x65})
	require.True(t, ok)
	require.Equal(t, NALUTypeIDR, typ)

	// Too short to hold a NALU header.
	_, ok = NALUTypeOf([]byte{0, 0, 0, 1})
	require.False(t, ok)
}

func TestNALUTypeIsParameterSet(t *testing.T) {
	require.True(t, NALUTypeSPS.IsParameterSet())
	require.True(t, NALUTypePPS.IsParameterSet())
	require.False(t, NALUTypeIDR.IsParameterSet())
	require.False(t, NALUTypeNonIDR.IsParameterSet())
	require.False(t, NALUTypeSEI.IsParameterSet())
}
