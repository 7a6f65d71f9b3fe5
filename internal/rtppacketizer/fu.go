package rtppacketizer

import (
	"fmt"

	"github.com/pion/rtp"

	"github.com/docterling/corerelay/internal/codecs/h264"
	"github.com/docterling/corerelay/internal/codecs/h265"
)

// fragment splits one oversized NALU into an FU-A (H.264) or FU (H.265)
// packet sequence. The NALU header is stripped once; the remainder is
// split into FUPayloadSize chunks. The first packet has start=true,
// end=false; the last has start=false, end=true; all others have both
// false. marker is set on the last FU packet only when isLastSample
// (this sample is the last one in its access unit).
func (pk *Packetizer) fragment(isHEVC bool, nalu []byte, timestamp uint32, isLastSample bool) ([]*rtp.Packet, error) {
	headerSize := 1
	if isHEVC {
		headerSize = 2
	}
	if len(nalu) <= headerSize {
		return nil, fmt.Errorf("NALU too short to fragment")
	}

	body := nalu[headerSize:]
	numChunks := (len(body) + FUPayloadSize - 1) / FUPayloadSize

	var packets []*rtp.Packet
	pos := 0

	for i := 0; i < numChunks; i++ {
		end := pos + FUPayloadSize
		if end > len(body) {
			end = len(body)
		}
		chunk := body[pos:end]

		start := i == 0
		last := i == numChunks-1

		var payload []byte
		if isHEVC {
			payload = buildHEVCFUPayload(nalu, chunk, start, last)
		} else {
			payload = buildH264FUPayload(nalu, chunk, start, last)
		}

		marker := last && isLastSample
		packets = append(packets, pk.newPacket(marker, timestamp, payload))

		pos = end
	}

	return packets, nil
}

func buildH264FUPayload(nalu, chunk []byte, start, end bool) []byte {
	naluType := h264.NALUTypeOf(nalu[0])
	indicator := nalu[0]&0xE0 | byte(h264.NALUTypeFUA)

	var fuHeader byte
	if start {
		fuHeader |= 0x80
	}
	if end {
		fuHeader |= 0x40
	}
	fuHeader |= byte(naluType) & 0x1F

	out := make([]byte, 0, 2+len(chunk))
	out = append(out, indicator, fuHeader)
	out = append(out, chunk...)
	return out
}

func buildHEVCFUPayload(nalu, chunk []byte, start, end bool) []byte {
	naluType := h265.NALUTypeOf(nalu[0])

	// PayloadHdr: preserve F bit and layer_id_high (bit 0), set type to
	// FragmentUnit (49).
	payloadHdr0 := (nalu[0] & 0x81) | (byte(h265.NALUTypeFragmentUnit) << 1)
	payloadHdr1 := nalu[1]

	var fuHeader byte
	if start {
		fuHeader |= 0x80
	}
	if end {
		fuHeader |= 0x40
	}
	fuHeader |= byte(naluType) & 0x3F

	out := make([]byte, 0, 3+len(chunk))
	out = append(out, payloadHdr0, payloadHdr1, fuHeader)
	out = append(out, chunk...)
	return out
}
