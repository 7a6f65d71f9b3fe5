package h264

// AddEmulation inserts emulation-prevention bytes into an RBSP, turning it
// into a NALU payload: every occurrence of 00 00 followed by 00, 01, 02 or
// 03 gets a 0x03 inserted before that byte.
func AddEmulation(rbsp []byte) []byte {
	var ret []byte
	step := 0
	start := 0

	for i, b := range rbsp {
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
			switch b {
			case 3, 2, 1, 0:
				ret = append(ret, rbsp[start:i-2]...)
				ret = append(ret, 0x00, 0x00, 0x03, b)
				step = 0
				start = i + 1

			default:
				step = 0
			}
		}
	}

	ret = append(ret, rbsp[start:]...)
	return ret
}

// RemoveEmulation strips emulation-prevention bytes from a NALU payload,
// producing the RBSP: 00 00 03 followed by 00|01|02|03 becomes 00 00
// followed by that byte. A trailing 03 beyond the payload (not followed by
// one of those four values) is preserved untouched.
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
