package h265

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildHVCC(vps, sps, pps []byte) []byte {
	b := make([]byte, 23)
	b[0] = 1    // configuration_version
	b[1] = 0x01 // profile_space=0, tier=0, profile_idc=1
	b[12] = 0x5D
	b[21] = 0x03 // length_size_minus_one = 3 (4-byte lengths)
	b[22] = 3    // numOfArrays

	appendArray := func(nalType NALUType, nalu []byte) {
		b = append(b, byte(nalType)&0x3F)
		b = append(b, 0x00, 0x01) // numNalus = 1
		b = append(b, byte(len(nalu)>>8), byte(len(nalu)))
		b = append(b, nalu...)
	}

	appendArray(NALUTypeVPS, vps)
	appendArray(NALUTypeSPS, sps)
	appendArray(NALUTypePPS, pps)

	return b
}

func TestParseDecoderConfigurationRecord(t *testing.T) {
	vps := append([]byte{0x40}, make([]byte, 23)...)
	sps := append([]byte{0x42}, make([]byte, 39)...)
	pps := append([]byte{0x44}, make([]byte, 7)...)

	rec, err := ParseDecoderConfigurationRecord(buildHVCC(vps, sps, pps))
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.ConfigurationVersion)
	require.Equal(t, 4, rec.NALULengthSize)
	require.Len(t, rec.VPS, 1)
	require.Len(t, rec.SPS, 1)
	require.Len(t, rec.PPS, 1)
	require.Equal(t, 24, len(rec.VPS[0]))
	require.Equal(t, 40, len(rec.SPS[0]))
	require.Equal(t, 8, len(rec.PPS[0]))
	require.Equal(t, byte(0x40), rec.VPS[0][0])
	require.Equal(t, byte(0x42), rec.SPS[0][0])
	require.Equal(t, byte(0x44), rec.PPS[0][0])
}

func TestParseDecoderConfigurationRecordRejectsBadVersion(t *testing.T) {
	b := buildHVCC(make([]byte, 24), make([]byte, 40), make([]byte, 8))
	b[0] = 2
	_, err := ParseDecoderConfigurationRecord(b)
	require.Error(t, err)
}
