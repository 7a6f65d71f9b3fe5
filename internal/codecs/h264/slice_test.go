package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSliceTypeB(t *testing.T) {
	// first_mb_in_slice=0 ("1"), slice_type=1 (B, ue(1)="010"): bits
	// 1 010 0000 -> 0xA0.
	typ, err := ParseSliceType([]byte{0x21, 0xA0})
	require.NoError(t, err)
	require.Equal(t, SliceTypeB, typ)
}

func TestParseSliceTypeP(t *testing.T) {
	// first_mb_in_slice=0 ("1"), slice_type=0 (P, ue(0)="1"): bits
	// 1 1 000000 -> 0xC0.
	typ, err := ParseSliceType([]byte{0x01, 0xC0})
	require.NoError(t, err)
	require.Equal(t, SliceTypeP, typ)
}

func TestParseSliceTypeTooShort(t *testing.T) {
	_, err := ParseSliceType([]byte{0x01})
	require.Error(t, err)
}
