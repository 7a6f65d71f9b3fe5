package h265

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePPSTable map[uint32]*PPS

func (f fakePPSTable) PPS(id uint32) (*PPS, bool) {
	p, ok := f[id]
	return p, ok
}

func TestIsBFrameSkipsNonSliceNALUs(t *testing.T) {
	// nal_unit_type 33 (SPS) exceeds CodedSliceTFD: never a B frame, and
	// the slice header is never touched.
	header := byte(NALUTypeSPS) << 1
	b, err := IsBFrame([]byte{header, 0x01}, fakePPSTable{})
	require.NoError(t, err)
	require.False(t, b)
}

func TestIsBFrameUnknownPPSFails(t *testing.T) {
	// nal_unit_type 1 (TRAIL_R) is a slice; first_slice_segment_in_pic_flag
	// = 1, slice_pic_parameter_set_id = ue(0) = "1": byte "1" + padding.
	header := byte(NALUTypeTrailR) << 1
	_, err := IsBFrame([]byte{header, 0x01, 0xC0}, fakePPSTable{})
	require.Error(t, err)
}

func TestIsBFrameReadsSliceType(t *testing.T) {
	// first_slice_segment_in_pic_flag=1 ("1"), slice_pic_parameter_set_id
	// = ue(0) ("1"), pps has 0 extra header bits and dependent slices
	// disabled, slice_type = ue(0) = "1" (B, per HEVC Table 7-7): bits
	// "1 1 1" + padding = 0xE0.
	pps := fakePPSTable{0: {ID: 0, NumExtraSliceHeaderBits: 0}}
	header := byte(NALUTypeTrailR) << 1
	b, err := IsBFrame([]byte{header, 0x01, 0xE0}, pps)
	require.NoError(t, err)
	require.True(t, b)
}
