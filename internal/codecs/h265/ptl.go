package h265

import "github.com/docterling/corerelay/internal/bitreader"

// ProfileTierLevel holds the fields the core needs out of a
// profile_tier_level() structure (ITU-T H.265 §7.3.3): the general
// profile/level, used to populate VideoCodecConfig.
type ProfileTierLevel struct {
	GeneralProfileSpace uint32
	GeneralTierFlag     bool
	GeneralProfileIDC   uint8
	GeneralLevelIDC     uint8
}

// parseProfileTierLevel reads a profile_tier_level() structure. Reserved
// and constraint-flag bits are consumed for bitstream alignment but not
// validated or retained, per the conformance-only handling of these
// fields.
func parseProfileTierLevel(r *bitreader.Reader, profilePresentFlag bool, maxSubLayersMinus1 int) (*ProfileTierLevel, error) {
	ptl := &ProfileTierLevel{}

	var compatFlags [32]bool

	if profilePresentFlag {
		space, err := r.ReadBits(2)
		if err != nil {
			return nil, err
		}
		ptl.GeneralProfileSpace = space

		tier, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		ptl.GeneralTierFlag = tier

		profileIDC, err := r.ReadBits(5)
		if err != nil {
			return nil, err
		}
		ptl.GeneralProfileIDC = uint8(profileIDC)

		for i := 0; i < 32; i++ {
			flag, err := r.ReadFlag()
			if err != nil {
				return nil, err
			}
			compatFlags[i] = flag
		}

		// progressive_source_flag, interlaced_source_flag,
		// non_packed_constraint_flag, frame_only_constraint_flag
		if _, err := r.ReadBits(4); err != nil {
			return nil, err
		}

		idc := ptl.GeneralProfileIDC
		extendedConstraints := idc == 4 || compatFlags[4] || idc == 5 || compatFlags[5] ||
			idc == 6 || compatFlags[6] || idc == 7 || compatFlags[7] ||
			idc == 8 || compatFlags[8] || idc == 9 || compatFlags[9] ||
			idc == 10 || compatFlags[10] || idc == 11 || compatFlags[11]

		if extendedConstraints {
			// nine max_*_constraint_flag / *_constraint_flag bits
			if _, err := r.ReadBits(9); err != nil {
				return nil, err
			}

			has14bit := idc == 5 || compatFlags[5] || idc == 9 || compatFlags[9] ||
				idc == 10 || compatFlags[10] || idc == 11 || compatFlags[11]
			if has14bit {
				// max_14bit_constraint_flag + reserved_zero_33bits
				if _, err := r.ReadBits(34); err != nil {
					return nil, err
				}
			} else {
				// reserved_zero_34bits
				if _, err := r.ReadBits(34); err != nil {
					return nil, err
				}
			}
		} else if idc == 2 || compatFlags[2] {
			// general_reserved_zero_7bits + one_picture_only_constraint_flag
			// + general_reserved_zero_35bits
			if _, err := r.ReadBits(43); err != nil {
				return nil, err
			}
		} else {
			// reserved_zero_43bits
			if _, err := r.ReadBits(43); err != nil {
				return nil, err
			}
		}

		// inbld_flag or reserved_zero_bit: one bit either way.
		if _, err := r.ReadBit(); err != nil {
			return nil, err
		}
	}

	levelIDC, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	ptl.GeneralLevelIDC = uint8(levelIDC)

	subLayerProfilePresent := make([]bool, maxSubLayersMinus1)
	subLayerLevelPresent := make([]bool, maxSubLayersMinus1)

	for i := 0; i < maxSubLayersMinus1; i++ {
		p, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		subLayerProfilePresent[i] = p

		l, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		subLayerLevelPresent[i] = l
	}

	if maxSubLayersMinus1 > 0 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			if _, err := r.ReadBits(2); err != nil {
				return nil, err
			}
		}
	}

	for i := 0; i < maxSubLayersMinus1; i++ {
		if subLayerProfilePresent[i] {
			if _, err := parseProfileTierLevel(r, true, 0); err != nil {
				return nil, err
			}
		}
		if subLayerLevelPresent[i] {
			if _, err := r.ReadBits(8); err != nil {
				return nil, err
			}
		}
	}

	return ptl, nil
}
