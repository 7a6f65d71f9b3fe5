package h265

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

// SliceTypeB is the slice_type value denoting a B slice (ITU-T H.265
// §7.4.7.1, Table 7-7).
const SliceTypeB = 0

// PPSTable looks up a PPS by its pic_parameter_set_id, as populated by
// VideoCodecConfig from sequence-header parsing.
type PPSTable interface {
	PPS(id uint32) (*PPS, bool)
}

// IsBFrame reports whether a slice NALU (header byte included) is a B
// slice, per the HEVC slice-header prefix: first_slice_segment_in_pic_flag,
// slice_pic_parameter_set_id (looked up in pps), optional
// dependent_slice_segment_flag, num_extra_slice_header_bits skips, then
// slice_type. Only decodes nal_unit_type values at or below CodedSliceTFD;
// IRAP/BLA/CRA slices are never B and are reported false without parsing.
func IsBFrame(nalu []byte, pps PPSTable) (bool, error) {
	if len(nalu) < 2 {
		return false, fmt.Errorf("empty HEVC NALU")
	}

	t := NALUTypeOf(nalu[0])
	if t > CodedSliceTFD {
		return false, nil
	}

	r := bitreader.New(nalu[2:])

	firstSliceSegmentInPicFlag, err := r.ReadFlag()
	if err != nil {
		return false, err
	}

	ppsID, err := r.ReadUE()
	if err != nil {
		return false, err
	}

	p, ok := pps.PPS(ppsID)
	if !ok {
		return false, fmt.Errorf("pps id out of range: %d", ppsID)
	}

	var dependentSliceSegmentFlag bool
	if !firstSliceSegmentInPicFlag && p.DependentSliceSegmentsEnabled {
		dependentSliceSegmentFlag, err = r.ReadFlag()
		if err != nil {
			return false, err
		}
	}
	if dependentSliceSegmentFlag {
		return false, fmt.Errorf("dependent slice segment is not supported")
	}

	for i := uint32(0); i < p.NumExtraSliceHeaderBits; i++ {
		if _, err := r.ReadBit(); err != nil {
			return false, err
		}
	}

	sliceType, err := r.ReadUE()
	if err != nil {
		return false, err
	}

	return sliceType == SliceTypeB, nil
}
