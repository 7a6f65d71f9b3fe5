// Package aac parses the AudioSpecificConfig carried in an AAC sequence
// header, per ISO/IEC 14496-3 §1.6.2.1.
package aac

import "fmt"

// ObjectType is the 5-bit audioObjectType field of an AudioSpecificConfig.
type ObjectType uint8

const (
	ObjectTypeForbidden ObjectType = 0
	ObjectTypeMain      ObjectType = 1
	ObjectTypeLC        ObjectType = 2
	ObjectTypeSSR       ObjectType = 3
	ObjectTypeLTP       ObjectType = 4
	ObjectTypeSBR       ObjectType = 5
	ObjectTypeHEAAC     ObjectType = 5
)

// SampleRates is the ADTS sampling_frequency_index table (ISO/IEC
// 14496-3 Table 1.18), indexed 0-12; indices 13-15 are reserved/escape.
var SampleRates = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
	0, 0, 0, // reserved
}

// AudioSpecificConfig holds the fields decoded from an AAC sequence
// header's config bytes.
type AudioSpecificConfig struct {
	ObjectType             ObjectType
	SampleRateIndex        uint8
	SampleRate             int
	ChannelConfiguration   uint8
}

// Parse decodes an AudioSpecificConfig: 5 bits object type, 4 bits
// sample-rate index, 4 bits channel configuration. ObjectTypeForbidden
// fails. The sample rate is re-derived from the ADTS table when the index
// is within range; an out-of-range index leaves SampleRate at 0.
func Parse(b []byte) (*AudioSpecificConfig, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("AudioSpecificConfig requires 2 bytes, got %d", len(b))
	}

	v := uint16(b[0])<<8 | uint16(b[1])

	objectType := ObjectType((v >> 11) & 0x1F)
	if objectType == ObjectTypeForbidden {
		return nil, fmt.Errorf("AAC object type Forbidden (0) is invalid")
	}

	sampleRateIndex := uint8((v >> 7) & 0x0F)
	channelConfig := uint8((v >> 3) & 0x0F)

	asc := &AudioSpecificConfig{
		ObjectType:           objectType,
		SampleRateIndex:      sampleRateIndex,
		ChannelConfiguration: channelConfig,
	}
	if int(sampleRateIndex) < len(SampleRates) {
		asc.SampleRate = SampleRates[sampleRateIndex]
	}

	return asc, nil
}
