package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSPSProfileAndLevel(t *testing.T) {
	// Complete High-profile SPS of a 1280x720 stream: profile 100,
	// level 31. ParseSPS returns no SPS at all on a truncated NALU, so the
	// fixture carries every field up to the frame size.
	sps, err := ParseSPS([]byte{
		0x67, 0x64, 0x00, 0x1F, 0xAC, 0xD9, 0x40, 0x50, 0x05, 0xBB, 0x01, 0x10, 0x00,
		0x00, 0x03, 0x00, 0x10, 0x00, 0x00, 0x03, 0x03, 0xC0, 0xF1, 0x83, 0x19, 0x60,
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, sps.ProfileIDC)
	require.EqualValues(t, 31, sps.LevelIDC)
	require.Equal(t, 1280, sps.Width)
	require.Equal(t, 720, sps.Height)
}

func TestParseSPSResolutionInvariant(t *testing.T) {
	// A hand-built baseline-profile SPS (profile 66, level 30,
	// pic_order_cnt_type 2, frame_mbs_only, no cropping) encoding 320x240.
	sps, err := ParseSPS([]byte{0x67, 0x42, 0xC0, 0x1E, 0xDC, 0x14, 0x1F, 0xA0})
	require.NoError(t, err)
	require.EqualValues(t, 66, sps.ProfileIDC)
	require.EqualValues(t, 30, sps.LevelIDC)
	require.Equal(t, 320, sps.Width)
	require.Equal(t, 240, sps.Height)
	require.Greater(t, sps.Width, 0)
	require.Greater(t, sps.Height, 0)
	require.LessOrEqual(t, sps.Width, 65536)
	require.LessOrEqual(t, sps.Height, 65536)
}

func TestParseSPSRejectsNonSPS(t *testing.T) {
	_, err := ParseSPS([]byte{0x65, 0x00})
	require.Error(t, err)
}

func TestParseSPSRejectsEmpty(t *testing.T) {
	_, err := ParseSPS(nil)
	require.Error(t, err)
}
