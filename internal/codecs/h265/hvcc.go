package h265

import (
	"encoding/binary"
	"fmt"
)

const hvccMinSize = 23 // from configuration_version to numOfArrays, inclusive

// DecoderConfigurationRecord is the fixed-field subset of an
// HEVCDecoderConfigurationRecord (ISO/IEC 14496-15 §8.3.3.1) that the core
// needs: the NALU length size, and the arrays of VPS/SPS/PPS NALUs found
// inside it.
type DecoderConfigurationRecord struct {
	ConfigurationVersion uint8
	GeneralProfileSpace  uint8
	GeneralTierFlag      bool
	GeneralProfileIDC    uint8
	GeneralLevelIDC      uint8
	NALULengthSize       int

	VPS [][]byte
	SPS [][]byte
	PPS [][]byte
}

// ParseDecoderConfigurationRecord decodes an HEVCDecoderConfigurationRecord.
// configuration_version must equal 1.
func ParseDecoderConfigurationRecord(b []byte) (*DecoderConfigurationRecord, error) {
	if len(b) < hvccMinSize {
		return nil, fmt.Errorf("HEVCDecoderConfigurationRecord requires %d bytes, got %d", hvccMinSize, len(b))
	}

	r := &DecoderConfigurationRecord{}

	r.ConfigurationVersion = b[0]
	if r.ConfigurationVersion != 1 {
		return nil, fmt.Errorf("invalid configuration_version=%d", r.ConfigurationVersion)
	}

	r.GeneralProfileSpace = (b[1] >> 6) & 0x03
	r.GeneralTierFlag = (b[1]>>5)&0x01 != 0
	r.GeneralProfileIDC = b[1] & 0x1F

	// general_profile_compatibility_flags (4), general_constraint_indicator_flags (6)
	// are retained on the wire but not needed by the core; skip bytes 2-11.
	r.GeneralLevelIDC = b[12]

	// min_spatial_segmentation_idc (2), parallelism_type (1), chroma_format (1),
	// bit_depth_luma_minus8 (1), bit_depth_chroma_minus8 (1), avg_frame_rate (2)
	// span bytes 13-20; not retained.

	lengthSizeByte := b[21]
	lengthSizeMinusOne := lengthSizeByte & 0x03
	if lengthSizeMinusOne == 2 {
		return nil, fmt.Errorf("NALU length size of 3 is illegal (length_size_minus_one == 2)")
	}
	r.NALULengthSize = int(lengthSizeMinusOne) + 1

	numOfArrays := int(b[22])
	pos := 23

	for i := 0; i < numOfArrays; i++ {
		if pos+3 > len(b) {
			return nil, fmt.Errorf("truncated NALU array header")
		}

		nalUnitType := NALUType(b[pos] & 0x3F)
		numNalus := int(binary.BigEndian.Uint16(b[pos+1 : pos+3]))
		pos += 3

		for j := 0; j < numNalus; j++ {
			if pos+2 > len(b) {
				return nil, fmt.Errorf("truncated NALU length")
			}
			nalLen := int(binary.BigEndian.Uint16(b[pos : pos+2]))
			pos += 2

			if pos+nalLen > len(b) {
				return nil, fmt.Errorf("truncated NALU data")
			}
			nalu := b[pos : pos+nalLen]
			pos += nalLen

			switch nalUnitType {
			case NALUTypeVPS:
				r.VPS = append(r.VPS, nalu)
			case NALUTypeSPS:
				r.SPS = append(r.SPS, nalu)
			case NALUTypePPS:
				r.PPS = append(r.PPS, nalu)
			}
		}
	}

	return r, nil
}
