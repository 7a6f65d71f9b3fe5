package h265

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

const maxVPSCount = 16

// VPS holds the fields the core retains from a video_parameter_set_rbsp().
type VPS struct {
	ID               uint32
	MaxSubLayersMinus1 uint32
	PTL              *ProfileTierLevel
}

// ParseVPS decodes a VPS NALU (header byte included) per ITU-T H.265
// §7.3.2.1.
func ParseVPS(nalu []byte) (*VPS, error) {
	if len(nalu) < 2 {
		return nil, fmt.Errorf("VPS NALU too short")
	}

	header := nalu[0]
	if ForbiddenZeroBit(header) {
		return nil, fmt.Errorf("forbidden_zero_bit is set")
	}
	if NALUTypeOf(header) != NALUTypeVPS {
		return nil, fmt.Errorf("not a VPS NALU (nal_unit_type=%d)", NALUTypeOf(header))
	}

	// nuh_layer_id + nuh_temporal_id_plus1 occupy the second header byte.
	rbsp := RemoveEmulation(nalu[2:])
	r := bitreader.New(rbsp)

	id, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	if id >= maxVPSCount {
		return nil, fmt.Errorf("VPS id out of range: %d", id)
	}

	// vps_base_layer_internal_flag, vps_base_layer_available_flag
	if _, err := r.ReadBits(2); err != nil {
		return nil, err
	}

	// vps_max_layers_minus1
	if _, err := r.ReadBits(6); err != nil {
		return nil, err
	}

	maxSubLayersMinus1, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}

	// vps_temporal_id_nesting_flag
	if _, err := r.ReadBit(); err != nil {
		return nil, err
	}

	// vps_reserved_0xffff_16bits
	if _, err := r.ReadBits(16); err != nil {
		return nil, err
	}

	ptl, err := parseProfileTierLevel(r, true, int(maxSubLayersMinus1))
	if err != nil {
		return nil, err
	}

	return &VPS{ID: id, MaxSubLayersMinus1: maxSubLayersMinus1, PTL: ptl}, nil
}
