package mpeg1audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrameHeaderLayerIIIStereo(t *testing.T) {
	// 0xFF 0xFB: sync=11111111111, version=11(MPEG1), layer=01(III),
	// protection=1; 0x00: bitrate_index=0, sample_rate_index=00(44100),
	// padding=0, private=0; 0x00: channel_mode=00(Stereo).
	h, err := Parse([]byte{0xFF, 0xFB, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, MPEGVersion1, h.Version)
	require.Equal(t, LayerIII, h.Layer)
	require.Equal(t, 44100, h.SampleRate)
	require.Equal(t, ChannelModeStereo, h.ChannelMode)
	require.Equal(t, 2, h.ChannelCount)
}

func TestParseFrameHeaderMono(t *testing.T) {
	// same as above but channel_mode=11(Mono): byte 3 top 2 bits set.
	h, err := Parse([]byte{0xFF, 0xFB, 0x00, 0xC0})
	require.NoError(t, err)
	require.Equal(t, ChannelModeMono, h.ChannelMode)
	require.Equal(t, 1, h.ChannelCount)
}

func TestParseFrameHeaderRejectsBadSync(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x00, 0x00, 0x00})
	require.Error(t, err)
}

func TestParseFrameHeaderRejectsReservedVersion(t *testing.T) {
	// version bits = 01 (reserved): byte1 = 111 01 01 1 = 0xEB.
	_, err := Parse([]byte{0xFF, 0xEB, 0x00, 0x00})
	require.Error(t, err)
}

func TestParseFrameHeaderTooShort(t *testing.T) {
	_, err := Parse([]byte{0xFF, 0xFB, 0x00})
	require.Error(t, err)
}
