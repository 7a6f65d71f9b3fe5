// Package flv demuxes FLV audio/video tags (classic and enhanced-RTMP)
// into parsed access units, decoding AVC/HEVC configuration records and
// AAC sequence headers along the way.
package flv

import (
	"fmt"

	"github.com/docterling/corerelay/internal/codecs/h264"
	"github.com/docterling/corerelay/internal/codecs/h265"
	"github.com/docterling/corerelay/internal/logger"
)

// CodecID identifies a video codec carried in an FLV video tag.
type CodecID int

const (
	CodecIDAVC  CodecID = 7
	CodecIDHEVC CodecID = 12 // synthetic id, selected via the enhanced-RTMP fourCC "hvc1"
)

// fourCCHEVC is the enhanced-RTMP fourCC that maps to CodecIDHEVC.
const fourCCHEVC = "hvc1"

// AudioCodecID identifies an audio codec carried in an FLV audio tag.
type AudioCodecID int

const (
	AudioCodecIDMP3  AudioCodecID = 2
	AudioCodecIDAAC  AudioCodecID = 10
	AudioCodecIDOpus AudioCodecID = 13 // reserved, not implemented
)

// VideoFrameType is the FLV frame-type nibble.
type VideoFrameType int

const (
	VideoFrameTypeKey        VideoFrameType = 1
	VideoFrameTypeInter      VideoFrameType = 2
	VideoFrameTypeDisposable VideoFrameType = 3
	VideoFrameTypeGenerated  VideoFrameType = 4
	VideoFrameTypeInfo       VideoFrameType = 5
)

// VideoPacketType is the classic-path AVC packet type / enhanced-RTMP
// packet type nibble.
type VideoPacketType int

const (
	VideoPacketTypeSequenceStart VideoPacketType = 0
	VideoPacketTypeCodedFrames   VideoPacketType = 1
	VideoPacketTypeSequenceEnd   VideoPacketType = 2
	VideoPacketTypeCodedFramesX  VideoPacketType = 3 // enhanced-RTMP only: frames without composition time
)

// AudioPacketType distinguishes an AAC sequence header from a raw frame.
type AudioPacketType int

const (
	AudioPacketTypeSequenceHeader AudioPacketType = 0
	AudioPacketTypeRawFrame       AudioPacketType = 1
)

// payloadFormat is the session's remembered NALU framing for a video
// track: Annex-B (start-code-prefixed) or IBMF (length-prefixed).
type payloadFormat int

const (
	payloadFormatUnknown payloadFormat = iota
	payloadFormatAnnexB
	payloadFormatIBMF
)

// AudioCodecConfig holds per-stream AAC state, created on the first
// sequence-header audio tag.
type AudioCodecConfig struct {
	SeenSequenceHeader bool
	AACExtraData       []byte
	ObjectType         int
	SampleRate         int
	ChannelCount       int

	// Log receives warnings for tags that are dropped rather than
	// parsed (e.g. a raw frame arriving before its sequence header).
	// Nil-safe: callers that don't care about these warnings may leave
	// it unset.
	Log logger.Writer
}

func (cfg *AudioCodecConfig) warn(format string, args ...interface{}) {
	if cfg.Log != nil {
		cfg.Log.Log(logger.Warn, format, args...)
	}
}

// VideoCodecConfig holds per-stream video codec state: mutated by
// sequence headers, read by the NALU demuxer on every frame.
type VideoCodecConfig struct {
	CodecID CodecID
	Profile int
	Level   int
	Width   int
	Height  int

	// NALULengthSize is the IBMF length-field width (1, 2 or 4 bytes),
	// taken from the AVC/HEVC decoder configuration record.
	NALULengthSize int

	format payloadFormat

	// RecordBytes is the raw AVCDecoderConfigurationRecord or
	// HEVCDecoderConfigurationRecord blob, kept for clients that need
	// to resend it (e.g. a new RTP subscriber's STAP-A packet).
	RecordBytes []byte

	SPS map[uint32][]byte
	PPS map[uint32][]byte
	VPS map[uint32][]byte // HEVC only

	// Log receives warnings for tags that are dropped rather than
	// parsed (e.g. an info frame carrying no samples). Nil-safe.
	Log logger.Writer
}

func (cfg *VideoCodecConfig) warn(format string, args ...interface{}) {
	if cfg.Log != nil {
		cfg.Log.Log(logger.Warn, format, args...)
	}
}

func newVideoCodecConfig(id CodecID) *VideoCodecConfig {
	return &VideoCodecConfig{
		CodecID: id,
		SPS:     map[uint32][]byte{},
		PPS:     map[uint32][]byte{},
		VPS:     map[uint32][]byte{},
	}
}

// HEVCPPS decodes the stored PPS NALU with the given id on demand. It has
// the signature of h265.PPSTable's method, but VideoCodecConfig does not
// implement that interface (its PPS name is taken by the NALU map).
func (c *VideoCodecConfig) HEVCPPS(id uint32) (*h265.PPS, bool) {
	raw, ok := c.PPS[id]
	if !ok {
		return nil, false
	}
	p, err := h265.ParsePPS(raw)
	if err != nil {
		return nil, false
	}
	return p, true
}

// demuxAVCSequenceHeader decodes an AVCDecoderConfigurationRecord
// (ISO/IEC 14496-15 §5.2.4.1). Profile, level and NALU length size are
// always taken from the record; width/height are decoded from the SPS
// only when avc_parse_sps (parseSPS) is enabled.
func demuxAVCSequenceHeader(c *VideoCodecConfig, record []byte, parseSPS bool) error {
	if len(record) < 7 {
		return fmt.Errorf("AVCDecoderConfigurationRecord requires 7 bytes, got %d", len(record))
	}
	if record[0] != 1 {
		return fmt.Errorf("invalid configurationVersion=%d", record[0])
	}

	c.Profile = int(record[1])
	c.Level = int(record[3])
	c.NALULengthSize = int(record[4]&0x03) + 1
	if c.NALULengthSize == 3 {
		return fmt.Errorf("NALU length size of 3 is illegal (length_size_minus_one == 2)")
	}

	numSPS := int(record[5] & 0x1F)
	pos := 6

	for i := 0; i < numSPS; i++ {
		if pos+2 > len(record) {
			return fmt.Errorf("truncated SPS entry")
		}
		l := int(record[pos])<<8 | int(record[pos+1])
		pos += 2
		if pos+l > len(record) {
			return fmt.Errorf("truncated SPS data")
		}
		sps := record[pos : pos+l]
		pos += l

		id := uint32(i)
		if parseSPS {
			if parsed, err := h264.ParseSPS(sps); err == nil {
				id = parsed.SeqParameterSetID
				c.Width = parsed.Width
				c.Height = parsed.Height
			}
		}
		c.SPS[id] = sps
	}

	if pos >= len(record) {
		return fmt.Errorf("truncated PPS count")
	}
	numPPS := int(record[pos])
	pos++

	for i := 0; i < numPPS; i++ {
		if pos+2 > len(record) {
			return fmt.Errorf("truncated PPS entry")
		}
		l := int(record[pos])<<8 | int(record[pos+1])
		pos += 2
		if pos+l > len(record) {
			return fmt.Errorf("truncated PPS data")
		}
		c.PPS[uint32(i)] = record[pos : pos+l]
		pos += l
	}

	c.RecordBytes = record
	return nil
}

// demuxHVCCSequenceHeader decodes an HEVCDecoderConfigurationRecord and
// populates width/height/profile/level by parsing the embedded SPS.
func demuxHVCCSequenceHeader(c *VideoCodecConfig, record []byte) error {
	rec, err := h265.ParseDecoderConfigurationRecord(record)
	if err != nil {
		return err
	}

	c.Profile = int(rec.GeneralProfileIDC)
	c.Level = int(rec.GeneralLevelIDC)
	c.NALULengthSize = rec.NALULengthSize

	for i, nalu := range rec.VPS {
		c.VPS[uint32(i)] = nalu
	}
	for i, nalu := range rec.SPS {
		c.SPS[uint32(i)] = nalu
		if parsed, err := h265.ParseSPS(nalu); err == nil {
			c.Width = parsed.Width
			c.Height = parsed.Height
		}
	}
	for i, nalu := range rec.PPS {
		c.PPS[uint32(i)] = nalu
	}

	c.RecordBytes = record
	return nil
}
