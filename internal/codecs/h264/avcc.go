package h264

import "fmt"

// DecodeLengthPrefixed splits a length-prefixed (IBMF) byte stream into NAL
// units. lengthSize is the NALU length field width in bytes: 1, 2 or 4.
// A lengthSize of 3 is illegal per ISO/IEC 14496-15 (length_size_minus_one
// of 2 is a reserved value) and is rejected.
func DecodeLengthPrefixed(byts []byte, lengthSize int) ([][]byte, error) {
	switch lengthSize {
	case 1, 2, 4:
	case 3:
		return nil, fmt.Errorf("NALU length size of 3 is illegal (length_size_minus_one == 2)")
	default:
		return nil, fmt.Errorf("invalid NALU length size %d", lengthSize)
	}

	var ret [][]byte

	for len(byts) > 0 {
		if len(byts) < lengthSize {
			return nil, fmt.Errorf("invalid length prefix")
		}

		var length int
		for i := 0; i < lengthSize; i++ {
			length = (length << 8) | int(byts[i])
		}
		byts = byts[lengthSize:]

		if length < 0 || length > len(byts) {
			return nil, fmt.Errorf("invalid NALU length %d", length)
		}

		ret = append(ret, byts[:length])
		byts = byts[length:]
	}

	if len(ret) == 0 {
		return nil, fmt.Errorf("no NALUs decoded")
	}

	return ret, nil
}

// EncodeLengthPrefixed joins NAL units with lengthSize-byte big-endian
// length prefixes.
func EncodeLengthPrefixed(nalus [][]byte, lengthSize int) []byte {
	le := 0
	for _, nalu := range nalus {
		le += lengthSize + len(nalu)
	}

	ret := make([]byte, le)
	pos := 0

	for _, nalu := range nalus {
		n := len(nalu)
		for i := lengthSize - 1; i >= 0; i-- {
			ret[pos+i] = byte(n)
			n >>= 8
		}
		pos += lengthSize

		copy(ret[pos:], nalu)
		pos += len(nalu)
	}

	return ret
}
