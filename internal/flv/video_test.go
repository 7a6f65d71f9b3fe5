package flv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docterling/corerelay/internal/logger"
)

func avcDecoderConfigRecord() []byte {
	// version=1, profile=0x64(100), level=0x1F(31), length_size_minus_one=3
	// (+1=4), numSPS=1, one 7-byte SPS (the scenario-(a) fixture), numPPS=0.
	return []byte{
		0x01, 0x64, 0x00, 0x1F, 0xFF, 0xE1,
		0x00, 0x07,
		0x67, 0x64, 0x00, 0x1F, 0xAC, 0xD9, 0x40,
		0x00,
	}
}

func TestOnVideoAVCSequenceHeaderClassic(t *testing.T) {
	cfg := newVideoCodecConfig(CodecIDAVC)
	tag := append([]byte{0x17, 0x00, 0x00, 0x00, 0x00}, avcDecoderConfigRecord()...)

	p, err := OnVideo(cfg, false, 0, tag, len(tag))
	require.NoError(t, err)
	require.True(t, p.HasSPSPPS)
	require.Equal(t, 100, cfg.Profile)
	require.Equal(t, 31, cfg.Level)
	require.Equal(t, 4, cfg.NALULengthSize)
	require.Len(t, cfg.SPS[0], 7)
}

func TestOnVideoAVCCodedFramesIBMFFallback(t *testing.T) {
	cfg := newVideoCodecConfig(CodecIDAVC)
	seqTag := append([]byte{0x17, 0x00, 0x00, 0x00, 0x00}, avcDecoderConfigRecord()...)
	_, err := OnVideo(cfg, false, 0, seqTag, len(seqTag))
	require.NoError(t, err)

	// length-prefixed (4-byte) IDR NALU {0x65, 0xAA, 0xBB}: doesn't start
	// with an Annex-B start code, so the session falls back to IBMF and
	// remembers it.
	frameTag := []byte{
		0x17, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x03,
		0x65, 0xAA, 0xBB,
	}

	p, err := OnVideo(cfg, false, 40, frameTag, len(frameTag))
	require.NoError(t, err)
	require.Equal(t, VideoPacketTypeCodedFrames, p.VideoPacketType)
	require.Equal(t, 1, p.NumSamples)
	require.Equal(t, []byte{0x65, 0xAA, 0xBB}, []byte(p.Samples[0]))
	require.True(t, p.HasIDR)
	require.Equal(t, 5, p.FirstNALType)
	require.Equal(t, payloadFormatIBMF, cfg.format)
}

func hevcDecoderConfigRecord() []byte {
	b := make([]byte, 23)
	b[0] = 1
	b[1] = 0x01
	b[12] = 0x5D
	b[21] = 0x03 // length_size_minus_one=3 (+1=4)
	b[22] = 1    // numOfArrays=1 (SPS only)

	// array: nal_unit_type=33 (SPS), numNalus=1, one 4-byte NALU.
	b = append(b, 33, 0x00, 0x01, 0x00, 0x04, 0x42, 0x01, 0xDE, 0xAD)
	return b
}

func TestOnVideoHEVCSequenceHeaderEnhanced(t *testing.T) {
	cfg := newVideoCodecConfig(CodecIDHEVC)
	tag := append([]byte{0x90, 'h', 'v', 'c', '1'}, hevcDecoderConfigRecord()...)

	p, err := OnVideo(cfg, false, 0, tag, len(tag))
	require.NoError(t, err)
	require.True(t, p.HasSPSPPS)
	require.Equal(t, 1, cfg.Profile)
	require.Equal(t, 0x5D, cfg.Level)
	require.Equal(t, 4, cfg.NALULengthSize)
	require.Len(t, cfg.SPS, 1)
}

func TestOnVideoHEVCCodedFramesAlwaysIBMF(t *testing.T) {
	cfg := newVideoCodecConfig(CodecIDHEVC)
	seqTag := append([]byte{0x90, 'h', 'v', 'c', '1'}, hevcDecoderConfigRecord()...)
	_, err := OnVideo(cfg, false, 0, seqTag, len(seqTag))
	require.NoError(t, err)

	// nal_unit_type 19 (IDR_W_RADL): header byte = 19<<1 = 0x26.
	frameTag := []byte{
		0x91, 'h', 'v', 'c', '1',
		0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x02,
		0x26, 0x01,
	}

	p, err := OnVideo(cfg, false, 40, frameTag, len(frameTag))
	require.NoError(t, err)
	require.Equal(t, 1, p.NumSamples)
	require.Equal(t, []byte{0x26, 0x01}, []byte(p.Samples[0]))
	require.True(t, p.HasIDR)
	require.Equal(t, 19, p.FirstNALType)
}

func TestOnVideoInfoFrameDropped(t *testing.T) {
	rec := &recordingLog{}
	cfg := newVideoCodecConfig(CodecIDAVC)
	cfg.Log = rec
	tag := []byte{0x57, 0x01, 0x00, 0x00, 0x00, 0xAA}
	p, err := OnVideo(cfg, false, 0, tag, len(tag))
	require.NoError(t, err)
	require.Nil(t, p)
	require.Len(t, rec.lines, 1)
}

var _ logger.Writer = (*recordingLog)(nil)
