package h265

// RemoveEmulation strips emulation-prevention bytes from a NALU payload,
// producing the RBSP: 00 00 03 followed by 00|01|02|03 becomes 00 00
// followed by that byte.
func RemoveEmulation(nalu []byte) []byte {
	var ret []byte
	step := 0
	start := 0

	for i, b := range nalu {
		switch step {
		case 0:
			if b == 0 {
				step++
			}

		case 1:
			if b == 0 {
				step++
			} else {
				step = 0
			}

		case 2:
			if b == 3 {
				step++
			} else {
				step = 0
			}

		case 3:
			switch b {
			case 3, 2, 1, 0:
				ret = append(ret, nalu[start:i-3]...)
				ret = append(ret, 0x00, 0x00, b)
				step = 0
				start = i + 1

			default:
				step = 0
			}
		}
	}

	ret = append(ret, nalu[start:]...)
	return ret
}
