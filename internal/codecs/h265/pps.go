package h265

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

const maxPPSCount = 64

// PPS holds the fields a slice header needs from a pic_parameter_set_rbsp():
// whether dependent slice segments are enabled, and how many extra header
// bits every slice carries.
type PPS struct {
	ID                             uint32
	SeqParameterSetID              uint32
	DependentSliceSegmentsEnabled  bool
	NumExtraSliceHeaderBits        uint32
}

// ParsePPS decodes a PPS NALU (header byte included) per ITU-T H.265
// §7.3.2.3, stopping once the slice-header-relevant fields are read.
func ParsePPS(nalu []byte) (*PPS, error) {
	if len(nalu) < 2 {
		return nil, fmt.Errorf("PPS NALU too short")
	}

	header := nalu[0]
	if ForbiddenZeroBit(header) {
		return nil, fmt.Errorf("forbidden_zero_bit is set")
	}
	if NALUTypeOf(header) != NALUTypePPS {
		return nil, fmt.Errorf("not a PPS NALU (nal_unit_type=%d)", NALUTypeOf(header))
	}

	rbsp := RemoveEmulation(nalu[2:])
	r := bitreader.New(rbsp)

	p := &PPS{}
	var err error

	p.ID, err = r.ReadUE()
	if err != nil {
		return nil, err
	}
	if p.ID >= maxPPSCount {
		return nil, fmt.Errorf("PPS id out of range: %d", p.ID)
	}

	p.SeqParameterSetID, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	p.DependentSliceSegmentsEnabled, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	// output_flag_present_flag
	if _, err := r.ReadFlag(); err != nil {
		return nil, err
	}

	numExtra, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}
	p.NumExtraSliceHeaderBits = numExtra

	return p, nil
}
