package h264

import (
	"fmt"

	"github.com/docterling/corerelay/internal/bitreader"
)

// SliceType classifies a slice header's slice_type field per ISO/IEC
// 14496-10 §7.4.3, collapsed to the three kinds the core cares about.
type SliceType int

const (
	SliceTypeOther SliceType = iota
	SliceTypeP
	SliceTypeB
)

// ParseSliceType reads first_mb_in_slice and slice_type off a slice NALU
// (header byte included) and reports whether it is a B slice. Only the
// leading fields are read; the rest of the slice header is left unparsed.
func ParseSliceType(nalu []byte) (SliceType, error) {
	if len(nalu) < 2 {
		return SliceTypeOther, fmt.Errorf("slice NALU too short")
	}

	rbsp := RemoveEmulation(nalu[1:])
	r := bitreader.New(rbsp)

	if _, err := r.ReadUE(); err != nil { // first_mb_in_slice
		return SliceTypeOther, err
	}

	sliceType, err := r.ReadUE()
	if err != nil {
		return SliceTypeOther, err
	}

	if sliceTypeIsB(sliceType) {
		return SliceTypeB, nil
	}

	if sliceType%5 == 0 {
		return SliceTypeP, nil
	}

	return SliceTypeOther, nil
}
