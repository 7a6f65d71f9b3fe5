package flv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docterling/corerelay/internal/logger"
)

type recordingLog struct {
	lines []string
}

func (r *recordingLog) Log(_ logger.Level, format string, args ...interface{}) {
	r.lines = append(r.lines, format)
}

func TestOnAudioAACSequenceHeader(t *testing.T) {
	cfg := &AudioCodecConfig{}
	// codec=AAC(10=0xA) in high nibble; packet type=0 (sequence header);
	// AudioSpecificConfig 0x12,0x10 = LC/44100/stereo.
	p, err := OnAudio(cfg, 1000, []byte{0xAF, 0x00, 0x12, 0x10}, 4)
	require.NoError(t, err)
	require.True(t, cfg.SeenSequenceHeader)
	require.Equal(t, 44100, cfg.SampleRate)
	require.Equal(t, 2, cfg.ChannelCount)
	require.Equal(t, AudioPacketTypeSequenceHeader, p.AudioPacketType)
	require.Equal(t, 1, p.NumSamples)
	require.Equal(t, []byte{0x12, 0x10}, []byte(p.Samples[0]))
}

func TestOnAudioAACRawFrameBeforeSequenceHeaderIsDroppedNotError(t *testing.T) {
	rec := &recordingLog{}
	cfg := &AudioCodecConfig{Log: rec}
	p, err := OnAudio(cfg, 1000, []byte{0xAF, 0x01, 0xAA, 0xBB}, 4)
	require.NoError(t, err)
	require.Nil(t, p)
	require.Len(t, rec.lines, 1)
}

func TestOnAudioAACRawFrameAfterSequenceHeader(t *testing.T) {
	cfg := &AudioCodecConfig{}
	_, err := OnAudio(cfg, 1000, []byte{0xAF, 0x00, 0x12, 0x10}, 4)
	require.NoError(t, err)

	p, err := OnAudio(cfg, 1040, []byte{0xAF, 0x01, 0xAA, 0xBB, 0xCC}, 5)
	require.NoError(t, err)
	require.Equal(t, AudioPacketTypeRawFrame, p.AudioPacketType)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, []byte(p.Samples[0]))
}

func TestOnAudioMP3(t *testing.T) {
	cfg := &AudioCodecConfig{}
	p, err := OnAudio(cfg, 0, []byte{0x2F, 0x01, 0x02, 0x03}, 4)
	require.NoError(t, err)
	require.Equal(t, 1, p.NumSamples)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, []byte(p.Samples[0]))
}

func TestOnAudioOpusRejected(t *testing.T) {
	cfg := &AudioCodecConfig{}
	_, err := OnAudio(cfg, 0, []byte{0xD0, 0x00}, 2)
	require.Error(t, err)
}

func TestOnAudioUnsupportedCodecRejected(t *testing.T) {
	cfg := &AudioCodecConfig{}
	_, err := OnAudio(cfg, 0, []byte{0x50, 0x00}, 2)
	require.Error(t, err)
}
