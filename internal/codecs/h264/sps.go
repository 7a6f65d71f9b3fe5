package h264

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

// extendedProfileIDCs lists profile_idc values that carry the chroma/bit
// depth/scaling-matrix extension fields, per ISO/IEC 14496-10 §7.3.2.1.1.
var extendedProfileIDCs = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true,
}

// SPS holds the fields decoded out of a sequence parameter set that the
// rest of the pipeline needs.
type SPS struct {
	ProfileIDC               uint8
	ConstraintFlags          uint8
	LevelIDC                 uint8
	SeqParameterSetID        uint32
	ChromaFormatIDC          uint32
	SeparateColourPlaneFlag  bool
	BitDepthLumaMinus8       uint32
	BitDepthChromaMinus8     uint32
	Log2MaxFrameNumMinus4    uint32
	PicOrderCntType          uint32
	MaxNumRefFrames          uint32
	GapsInFrameNumAllowed    bool
	FrameMbsOnlyFlag         bool
	Direct8x8InferenceFlag   bool
	FrameCroppingFlag        bool

	Width  int
	Height int
}

// ParseSPS decodes an SPS NALU per ISO/IEC 14496-10 §7.3.2.1, running only
// the fields the core needs (resolution, profile, level, id). The NALU
// header byte must still be present; emulation-prevention bytes are
// stripped internally.
func ParseSPS(nalu []byte) (*SPS, error) {
	if len(nalu) < 1 {
		return nil, fmt.Errorf("empty NALU")
	}

	header := nalu[0]
	if ForbiddenZeroBit(header) {
		return nil, fmt.Errorf("forbidden_zero_bit is set")
	}
	if RefIDC(header) == 0 {
		return nil, fmt.Errorf("nal_ref_idc must not be zero for SPS")
	}
	if NALUTypeOf(header) != NALUTypeSPS {
		return nil, fmt.Errorf("not a SPS NALU (nal_unit_type=%d)", NALUTypeOf(header))
	}

	rbsp := RemoveEmulation(nalu[1:])
	r := bitreader.New(rbsp)

	s := &SPS{}

	profileIDC, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	s.ProfileIDC = uint8(profileIDC)

	constraintFlags, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	s.ConstraintFlags = uint8(constraintFlags)

	levelIDC, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	s.LevelIDC = uint8(levelIDC)

	s.SeqParameterSetID, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	s.ChromaFormatIDC = 1 // default (4:2:0) when not signaled

	if extendedProfileIDCs[s.ProfileIDC] {
		s.ChromaFormatIDC, err = r.ReadUE()
		if err != nil {
			return nil, err
		}

		if s.ChromaFormatIDC == 3 {
			s.SeparateColourPlaneFlag, err = r.ReadFlag()
			if err != nil {
				return nil, err
			}
		}

		s.BitDepthLumaMinus8, err = r.ReadUE()
		if err != nil {
			return nil, err
		}

		s.BitDepthChromaMinus8, err = r.ReadUE()
		if err != nil {
			return nil, err
		}

		// qpprime_y_zero_transform_bypass_flag
		if _, err = r.ReadFlag(); err != nil {
			return nil, err
		}

		seqScalingMatrixPresent, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		if seqScalingMatrixPresent {
			n := 8
			if s.ChromaFormatIDC == 3 {
				n = 12
			}
			for i := 0; i < n; i++ {
				present, err := r.ReadFlag()
				if err != nil {
					return nil, err
				}
				if present {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := skipScalingList(r, size); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	s.Log2MaxFrameNumMinus4, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	s.PicOrderCntType, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	switch s.PicOrderCntType {
	case 0:
		if _, err = r.ReadUE(); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return nil, err
		}

	case 1:
		if _, err = r.ReadFlag(); err != nil { // delta_pic_order_always_zero_flag
			return nil, err
		}
		if _, err = r.ReadSE(); err != nil { // offset_for_non_ref_pic
			return nil, err
		}
		if _, err = r.ReadSE(); err != nil { // offset_for_top_to_bottom_field
			return nil, err
		}
		numRefFramesInPicOrderCntCycle, err := r.ReadUE()
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < numRefFramesInPicOrderCntCycle; i++ {
			if _, err = r.ReadSE(); err != nil {
				return nil, err
			}
		}
	}

	s.MaxNumRefFrames, err = r.ReadUE()
	if err != nil {
		return nil, err
	}

	s.GapsInFrameNumAllowed, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	picWidthInMbsMinus1, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	picHeightInMapUnitsMinus1, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	s.FrameMbsOnlyFlag, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}
	if !s.FrameMbsOnlyFlag {
		if _, err = r.ReadFlag(); err != nil { // mb_adaptive_frame_field_flag
			return nil, err
		}
	}

	s.Direct8x8InferenceFlag, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	s.FrameCroppingFlag, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	var cropLeft, cropRight, cropTop, cropBottom uint32
	if s.FrameCroppingFlag {
		if cropLeft, err = r.ReadUE(); err != nil {
			return nil, err
		}
		if cropRight, err = r.ReadUE(); err != nil {
			return nil, err
		}
		if cropTop, err = r.ReadUE(); err != nil {
			return nil, err
		}
		if cropBottom, err = r.ReadUE(); err != nil {
			return nil, err
		}
	}

	s.Width = int((picWidthInMbsMinus1+1)*16) - int(2*(cropLeft+cropRight))

	frameMbsOnly := 1
	if !s.FrameMbsOnlyFlag {
		frameMbsOnly = 0
	}
	s.Height = int((2-frameMbsOnly)) * int(picHeightInMapUnitsMinus1+1) * 16
	s.Height -= int(2 * (cropTop + cropBottom))

	if s.Width <= 0 || s.Height <= 0 || s.Width > 65536 || s.Height > 65536 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}

	return s, nil
}

func skipScalingList(r *bitreader.Reader, size int) error {
	lastScale := int32(8)
	nextScale := int32(8)
	for i := 0; i < size; i++ {
		if nextScale != 0 {
			deltaScale, err := r.ReadSE()
			if err != nil {
				return err
			}
			nextScale = (lastScale + deltaScale + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}
