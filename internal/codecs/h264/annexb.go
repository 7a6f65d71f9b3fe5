package h264

import "fmt"

// IsAnnexB reports whether byts starts with an Annex-B start code
// (0x000001 or 0x00000001), per spec.md §4.1 format detection.
func IsAnnexB(byts []byte) bool {
	if len(byts) >= 3 && byts[0] == 0 && byts[1] == 0 && byts[2] == 1 {
		return true
	}
	if len(byts) >= 4 && byts[0] == 0 && byts[1] == 0 && byts[2] == 0 && byts[3] == 1 {
		return true
	}
	return false
}

// DecodeAnnexB splits an Annex-B byte stream into NAL units, scanning for
// start codes; each NALU ends at the next start code or at the end of the
// buffer.
func DecodeAnnexB(byts []byte) ([][]byte, error) {
	bl := len(byts)

	n := func() int {
		if bl < 3 || byts[0] != 0x00 || byts[1] != 0x00 {
			return -1
		}
		if byts[2] == 0x01 {
			return 3
		}
		if bl < 4 || byts[2] != 0x00 || byts[3] != 0x01 {
			return -1
		}
		return 4
	}()
	if n < 0 {
		return nil, fmt.Errorf("input doesn't start with a start code")
	}

	var ret [][]byte
	zeros := 0
	start := n
	delimStart := 0

	for i := n; i < bl; i++ {
		switch byts[i] {
		case 0:
			if zeros == 0 {
				delimStart = i
			}
			zeros++

		case 1:
			if zeros == 2 || zeros == 3 {
				nalu := byts[start:delimStart]
				if len(nalu) == 0 {
					return nil, fmt.Errorf("empty NALU")
				}
				ret = append(ret, nalu)
				start = i + 1
			}
			zeros = 0

		default:
			zeros = 0
		}
	}

	nalu := byts[start:bl]
	if len(nalu) == 0 {
		return nil, fmt.Errorf("empty NALU")
	}
	ret = append(ret, nalu)

	return ret, nil
}

// EncodeAnnexB joins NAL units into an Annex-B byte stream, each prefixed
// by a 4-byte start code.
func EncodeAnnexB(nalus [][]byte) []byte {
	var ret []byte
	for _, nalu := range nalus {
		ret = append(ret, 0x00, 0x00, 0x00, 0x01)
		ret = append(ret, nalu...)
	}
	return ret
}
