package flv

import (
	"fmt"

	"github.com/docterling/corerelay/internal/codecs/aac"
)

// OnAudio demuxes one FLV audio tag. bytes is the tag payload (sound
// format byte onward); size is len(bytes). Only MP3 and AAC are
// supported; Opus is reserved and not implemented.
func OnAudio(cfg *AudioCodecConfig, timestamp int64, bytes []byte, size int) (*ParsedPacket, error) {
	if size < 1 || len(bytes) < 1 {
		return nil, fmt.Errorf("audio tag too short")
	}

	codecID := AudioCodecID(bytes[0] >> 4)

	switch codecID {
	case AudioCodecIDMP3, AudioCodecIDAAC:
	case AudioCodecIDOpus:
		return nil, fmt.Errorf("opus audio is reserved, not implemented")
	default:
		return nil, fmt.Errorf("UnsupportedAudioCodec: %d", codecID)
	}

	p := &ParsedPacket{DTS: timestamp}

	if codecID == AudioCodecIDMP3 {
		p.addSample(bytes[1:])
		return p, nil
	}

	if len(bytes) < 2 {
		return nil, fmt.Errorf("AAC audio tag too short")
	}

	packetType := AudioPacketType(bytes[1])
	payload := bytes[2:]

	switch packetType {
	case AudioPacketTypeSequenceHeader:
		asc, err := aac.Parse(payload)
		if err != nil {
			return nil, fmt.Errorf("parse AudioSpecificConfig: %w", err)
		}

		cfg.SeenSequenceHeader = true
		cfg.AACExtraData = payload
		cfg.ObjectType = int(asc.ObjectType)
		cfg.SampleRate = asc.SampleRate
		cfg.ChannelCount = int(asc.ChannelConfiguration)

		p.AudioPacketType = AudioPacketTypeSequenceHeader
		p.addSample(payload)

	case AudioPacketTypeRawFrame:
		if !cfg.SeenSequenceHeader {
			cfg.warn("dropping raw AAC frame received before sequence header")
			return nil, nil
		}

		p.AudioPacketType = AudioPacketTypeRawFrame
		p.addSample(payload)

	default:
		return nil, fmt.Errorf("invalid AAC packet type: %d", packetType)
	}

	return p, nil
}
