package h265

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

const maxSPSCount = 32

// SPS holds the fields the core retains from a seq_parameter_set_rbsp().
type SPS struct {
	VideoParameterSetID  uint32
	MaxSubLayersMinus1   uint32
	ID                   uint32
	ChromaFormatIDC      uint32
	SeparateColourPlane  bool
	PTL                  *ProfileTierLevel

	Width  int
	Height int
}

// ParseSPS decodes an SPS NALU (header byte included) per ITU-T H.265
// §7.3.2.2, computing width/height from pic_width/height_in_luma_samples
// and the conformance window.
func ParseSPS(nalu []byte) (*SPS, error) {
	if len(nalu) < 2 {
		return nil, fmt.Errorf("SPS NALU too short")
	}

	header := nalu[0]
	if ForbiddenZeroBit(header) {
		return nil, fmt.Errorf("forbidden_zero_bit is set")
	}
	if NALUTypeOf(header) != NALUTypeSPS {
		return nil, fmt.Errorf("not a SPS NALU (nal_unit_type=%d)", NALUTypeOf(header))
	}

	rbsp := RemoveEmulation(nalu[2:])
	r := bitreader.New(rbsp)

	vpsID, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}

	maxSubLayersMinus1, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}

	// sps_temporal_id_nesting_flag
	if _, err := r.ReadBit(); err != nil {
		return nil, err
	}

	ptl, err := parseProfileTierLevel(r, true, int(maxSubLayersMinus1))
	if err != nil {
		return nil, err
	}

	s := &SPS{VideoParameterSetID: vpsID, MaxSubLayersMinus1: maxSubLayersMinus1, PTL: ptl}

	s.ID, err = r.ReadUE()
	if err != nil {
		return nil, err
	}
	if s.ID >= maxSPSCount {
		return nil, fmt.Errorf("SPS id out of range: %d", s.ID)
	}

	s.ChromaFormatIDC, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	if s.ChromaFormatIDC == 3 {
		s.SeparateColourPlane, err = r.ReadFlag()
		if err != nil {
			return nil, err
		}
	}

	picWidth, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	picHeight, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	s.Width = int(picWidth)
	s.Height = int(picHeight)

	conformanceWindowFlag, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}

	if conformanceWindowFlag {
		confWinLeft, err := r.ReadUE()
		if err != nil {
			return nil, err
		}
		confWinRight, err := r.ReadUE()
		if err != nil {
			return nil, err
		}
		confWinTop, err := r.ReadUE()
		if err != nil {
			return nil, err
		}
		confWinBottom, err := r.ReadUE()
		if err != nil {
			return nil, err
		}

		subWidthC := 1
		if (s.ChromaFormatIDC == 1 || s.ChromaFormatIDC == 2) && !s.SeparateColourPlane {
			subWidthC = 2
		}
		subHeightC := 1
		if s.ChromaFormatIDC == 1 && !s.SeparateColourPlane {
			subHeightC = 2
		}

		s.Width -= subWidthC * int(confWinRight+confWinLeft)
		s.Height -= subHeightC * int(confWinBottom+confWinTop)
	}

	if s.Width <= 0 || s.Height <= 0 || s.Width > 65536 || s.Height > 65536 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}

	return s, nil
}
