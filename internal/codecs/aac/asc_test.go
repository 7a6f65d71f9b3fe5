package aac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAudioSpecificConfigLC44100Stereo(t *testing.T) {
	asc, err := Parse([]byte{0x12, 0x10})
	require.NoError(t, err)
	require.Equal(t, ObjectTypeLC, asc.ObjectType)
	require.EqualValues(t, 4, asc.SampleRateIndex)
	require.Equal(t, 44100, asc.SampleRate)
	require.EqualValues(t, 2, asc.ChannelConfiguration)
}

func TestParseAudioSpecificConfigRejectsForbidden(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x00})
	require.Error(t, err)
}

func TestParseAudioSpecificConfigTooShort(t *testing.T) {
	_, err := Parse([]byte{0x12})
	require.Error(t, err)
}
