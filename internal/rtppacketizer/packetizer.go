// Package rtppacketizer turns a parsed video access unit or audio frame,
// plus its codec config, into an ordered sequence of RTP packets: STAP-A
// (RFC 6184) for H.264 or aggregation (RFC 7798) for H.265 sequence
// headers, single-NALU or raw-concatenated packets for small access
// units, and FU-A/FU fragmentation for samples too large for one packet.
package rtppacketizer

import (
	"fmt"

	"github.com/pion/rtp"

	"github.com/docterling/corerelay/internal/codecs/h264"
	"github.com/docterling/corerelay/internal/codecs/h265"
)

const (
	// MaxRTPPayload is the largest payload a single RTP packet is allowed
	// to carry before a sample must be fragmented.
	MaxRTPPayload = 1200

	// FUPayloadSize is the chunk size used when fragmenting an
	// oversized NALU into FU-A/FU packets.
	FUPayloadSize = 800
)

// Packetizer assigns monotonic sequence numbers to a sequence of RTP
// packets sharing one SSRC and payload type.
type Packetizer struct {
	SSRC           uint32
	PayloadType    uint8
	SequenceNumber uint16
}

// New creates a Packetizer starting at the given sequence number.
func New(ssrc uint32, payloadType uint8, startSequence uint16) *Packetizer {
	return &Packetizer{SSRC: ssrc, PayloadType: payloadType, SequenceNumber: startSequence}
}

func (pk *Packetizer) nextSeq() uint16 {
	s := pk.SequenceNumber
	pk.SequenceNumber++
	return s
}

func (pk *Packetizer) newPacket(marker bool, timestamp uint32, payload []byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    pk.PayloadType,
			SequenceNumber: pk.nextSeq(),
			Timestamp:      timestamp,
			SSRC:           pk.SSRC,
		},
		Payload: payload,
	}
}

// PackSequenceHeader emits one STAP-A/aggregation packet concatenating
// vps (HEVC only), sps and pps as NALU samples, in that order. Marker is
// always unset. Fails if sps or pps (or, for HEVC, vps) is empty, per
// the invariant that a sequence header always carries non-empty
// parameter sets.
func (pk *Packetizer) PackSequenceHeader(isHEVC bool, vps, sps, pps [][]byte, timestamp uint32) (*rtp.Packet, error) {
	if len(sps) == 0 || isEmptyAll(sps) {
		return nil, fmt.Errorf("sequence header requires a non-empty SPS")
	}
	if len(pps) == 0 || isEmptyAll(pps) {
		return nil, fmt.Errorf("sequence header requires a non-empty PPS")
	}
	if isHEVC && (len(vps) == 0 || isEmptyAll(vps)) {
		return nil, fmt.Errorf("HEVC sequence header requires a non-empty VPS")
	}

	var nalus [][]byte
	if isHEVC {
		nalus = append(nalus, vps...)
	}
	nalus = append(nalus, sps...)
	nalus = append(nalus, pps...)

	payload, err := buildAggregation(isHEVC, nalus)
	if err != nil {
		return nil, err
	}

	return pk.newPacket(false, timestamp, payload), nil
}

func isEmptyAll(nalus [][]byte) bool {
	for _, n := range nalus {
		if len(n) > 0 {
			return false
		}
	}
	return true
}

// PackAccessUnit packs one access unit (a video picture's worth of NALUs,
// or a single audio frame treated as one sample) into an ordered
// sequence of RTP packets. Empty samples are skipped silently; if every
// sample is empty, no packets are emitted. marker is set on the last
// packet only.
func (pk *Packetizer) PackAccessUnit(isHEVC bool, samples [][]byte, timestamp uint32) ([]*rtp.Packet, error) {
	var nonEmpty [][]byte
	for _, s := range samples {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, nil
	}

	var packets []*rtp.Packet
	var batch [][]byte
	batchSize := 0

	flush := func(isLastFlush bool) error {
		if len(batch) == 0 {
			return nil
		}
		marker := isLastFlush
		if len(batch) == 1 {
			packets = append(packets, pk.newPacket(marker, timestamp, batch[0]))
		} else {
			payload := joinRawNalus(batch)
			packets = append(packets, pk.newPacket(marker, timestamp, payload))
		}
		batch = nil
		batchSize = 0
		return nil
	}

	for i, s := range nonEmpty {
		isLastSample := i == len(nonEmpty)-1

		if len(s) > MaxRTPPayload {
			if err := flush(false); err != nil {
				return nil, err
			}
			fuPackets, err := pk.fragment(isHEVC, s, timestamp, isLastSample)
			if err != nil {
				return nil, err
			}
			packets = append(packets, fuPackets...)
			continue
		}

		addedSize := len(s)
		if len(batch) > 0 {
			addedSize += 3 // 00 00 01 separator
		}
		if batchSize+addedSize > MaxRTPPayload {
			if err := flush(false); err != nil {
				return nil, err
			}
			addedSize = len(s)
		}

		batch = append(batch, s)
		batchSize += addedSize

		if isLastSample {
			if err := flush(true); err != nil {
				return nil, err
			}
		}
	}

	return packets, nil
}

// joinRawNalus concatenates samples with a 00 00 01 separator between
// each, reproducing the RawNalus payload shape used for small
// multi-sample access units.
func joinRawNalus(samples [][]byte) []byte {
	var out []byte
	for i, s := range samples {
		if i > 0 {
			out = append(out, 0x00, 0x00, 0x01)
		}
		out = append(out, s...)
	}
	return out
}

// buildAggregation builds an RFC 6184 STAP-A payload (H.264) or an
// RFC 7798 aggregation-packet payload (H.265): an aggregation header
// followed by each NALU as a 2-byte length prefix plus its bytes.
func buildAggregation(isHEVC bool, nalus [][]byte) ([]byte, error) {
	var header []byte

	if isHEVC {
		// PayloadHdr: F=0, type=48 (Aggregation), layer_id=0, tid=1.
		header = []byte{byte(h265.NALUTypeAggregation) << 1, 0x01}
	} else {
		var maxNRI uint8
		for _, n := range nalus {
			if len(n) == 0 {
				return nil, fmt.Errorf("empty NALU in aggregation")
			}
			if nri := h264.RefIDC(n[0]); nri > maxNRI {
				maxNRI = nri
			}
		}
		header = []byte{maxNRI<<5 | byte(h264.NALUTypeSTAPA)}
	}

	out := append([]byte{}, header...)
	for _, n := range nalus {
		if len(n) == 0 {
			return nil, fmt.Errorf("empty NALU in aggregation")
		}
		out = append(out, byte(len(n)>>8), byte(len(n)))
		out = append(out, n...)
	}
	return out, nil
}
