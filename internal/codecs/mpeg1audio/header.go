// Package mpeg1audio parses the 4-byte frame header of an MPEG-1/2/2.5
// audio frame (ISO/IEC 11172-3 §2.4.1.3), as found in legacy MP3 track
// data. Only the fields the core needs to report a track's sample rate
// and channel count are retained; bitrate and CRC are not decoded.
package mpeg1audio

import "fmt"

// MPEGVersion is the 2-bit ID field of a frame header.
type MPEGVersion int

const (
	MPEGVersion1  MPEGVersion = 3
	MPEGVersion2  MPEGVersion = 2
	MPEGVersion25 MPEGVersion = 0
)

// Layer is the 2-bit layer field of a frame header.
type Layer int

const (
	LayerIII Layer = 1
	LayerII  Layer = 2
	LayerI   Layer = 3
)

// ChannelMode is the 2-bit channel_mode field of a frame header.
type ChannelMode int

const (
	ChannelModeStereo      ChannelMode = 0
	ChannelModeJointStereo ChannelMode = 1
	ChannelModeDualChannel ChannelMode = 2
	ChannelModeMono        ChannelMode = 3
)

// sampleRates[version][sampleRateIndex]; index 3 is reserved in all
// versions.
var sampleRates = map[MPEGVersion][4]int{
	MPEGVersion1:  {44100, 48000, 32000, 0},
	MPEGVersion2:  {22050, 24000, 16000, 0},
	MPEGVersion25: {11025, 12000, 8000, 0},
}

// FrameHeader holds the fields of an MPEG-1/2/2.5 audio frame header
// relevant to the core.
type FrameHeader struct {
	Version      MPEGVersion
	Layer        Layer
	SampleRate   int
	ChannelMode  ChannelMode
	ChannelCount int
}

// Parse decodes a 4-byte frame header. It fails if the 11-bit sync word
// is absent, the version or layer field is reserved, or the sample-rate
// index is reserved for the detected version.
func Parse(b []byte) (*FrameHeader, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("MPEG audio frame header requires 4 bytes, got %d", len(b))
	}

	if b[0] != 0xFF || (b[1]&0xE0) != 0xE0 {
		return nil, fmt.Errorf("sync word not found")
	}

	version := MPEGVersion((b[1] >> 3) & 0x03)
	if version == 1 {
		return nil, fmt.Errorf("reserved MPEG version")
	}

	layer := Layer((b[1] >> 1) & 0x03)
	if layer == 0 {
		return nil, fmt.Errorf("reserved layer")
	}

	sampleRateIndex := (b[2] >> 2) & 0x03
	if sampleRateIndex == 3 {
		return nil, fmt.Errorf("reserved sample rate index")
	}

	channelMode := ChannelMode((b[3] >> 6) & 0x03)

	h := &FrameHeader{
		Version:     version,
		Layer:       layer,
		SampleRate:  sampleRates[version][sampleRateIndex],
		ChannelMode: channelMode,
	}
	if channelMode == ChannelModeMono {
		h.ChannelCount = 1
	} else {
		h.ChannelCount = 2
	}

	return h, nil
}
