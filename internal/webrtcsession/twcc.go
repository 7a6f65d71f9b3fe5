package webrtcsession

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/pion/rtcp"
)

// twccTickInterval is how often a TWCC feedback packet is built from
// recorded arrivals.
const twccTickInterval = 20 * time.Millisecond

// twccDeltaUnit is the RTPFB FMT=15 receive-delta resolution.
const twccDeltaUnit = 250 * time.Microsecond

type twccArrival struct {
	seq      uint16
	received time.Time
}

// twccGenerator accumulates packet arrivals for one video track and
// builds RTPFB FMT=15 (transport-wide congestion control) feedback
// packets from them on each tick.
type twccGenerator struct {
	mu          sync.Mutex
	arrivals    []twccArrival
	fbPktCount  uint8
	lastOnFdbck *rtcp.TransportLayerCC
}

func newTWCCGenerator() *twccGenerator {
	return &twccGenerator{}
}

func (g *twccGenerator) record(seq uint16, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.arrivals = append(g.arrivals, twccArrival{seq: seq, received: at})
}

// onFeedback records TWCC feedback received from a peer acting as
// congestion-control sender (e.g. a player reporting back to us). No
// bandwidth-adaptation policy is implemented; the report is retained
// for inspection only.
func (g *twccGenerator) onFeedback(p *rtcp.TransportLayerCC) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastOnFdbck = p
}

// packetStatus is the per-packet status used in run-length chunks: 0 =
// not received, 1 = received, small delta (<=255 * 250us, non-negative
// single byte); 2 = received, large delta (signed 16-bit, 250us units).
type packetStatus uint8

const (
	statusNotReceived packetStatus = 0
	statusSmallDelta  packetStatus = 1
	statusLargeDelta  packetStatus = 2
)

// Tick drains recorded arrivals since the last tick and, if any were
// recorded, returns a wire-ready RTPFB TWCC packet (RFC draft
// transport-cc-extensions §3.1) addressed from senderSSRC to
// mediaSSRC, with a base sequence number and a monotonically
// increasing feedback packet count.
func (g *twccGenerator) Tick(senderSSRC, mediaSSRC uint32) rtcp.Packet {
	g.mu.Lock()
	arrivals := g.arrivals
	g.arrivals = nil
	fbCount := g.fbPktCount
	g.fbPktCount++
	g.mu.Unlock()

	if len(arrivals) == 0 {
		return nil
	}

	baseSeq := arrivals[0].seq
	refTime := arrivals[0].received

	statuses := make([]packetStatus, len(arrivals))
	deltas := make([]int32, len(arrivals))
	statuses[0] = statusSmallDelta
	deltas[0] = 0

	for i := 1; i < len(arrivals); i++ {
		d := arrivals[i].received.Sub(arrivals[i-1].received)
		units := int32(d / twccDeltaUnit)
		if units >= 0 && units <= 255 {
			statuses[i] = statusSmallDelta
		} else {
			statuses[i] = statusLargeDelta
		}
		deltas[i] = units
	}

	payload := encodeTWCCBody(senderSSRC, mediaSSRC, baseSeq, uint16(len(arrivals)), refTime, fbCount, statuses, deltas)
	return buildRawFeedback(rtcpPayloadTypeRTPFB, twccFMT, payload)
}

const (
	rtcpPayloadTypeRTPFB = 205
	rtcpPayloadTypePSFB  = 206
	twccFMT              = 15
)

// encodeTWCCBody writes the RTPFB FMT=15 body: sender/media SSRC, base
// sequence number, packet status count, a 24-bit reference time in
// 64ms units plus 8-bit feedback packet count, one run-length chunk of
// run length 1 for each packet, and one receive
// delta per packet (1 byte for small deltas, 2 bytes big-endian for
// large deltas).
func encodeTWCCBody(
	senderSSRC, mediaSSRC uint32,
	baseSeq uint16, count uint16,
	refTime time.Time, fbCount uint8,
	statuses []packetStatus, deltas []int32,
) []byte {
	buf := make([]byte, 8+2+2+4)
	binary.BigEndian.PutUint32(buf[0:4], senderSSRC)
	binary.BigEndian.PutUint32(buf[4:8], mediaSSRC)
	binary.BigEndian.PutUint16(buf[8:10], baseSeq)
	binary.BigEndian.PutUint16(buf[10:12], count)

	refTime64ms := uint32(refTime.UnixNano()/int64(64*time.Millisecond)) & 0x00FFFFFF
	buf[12] = byte(refTime64ms >> 16)
	buf[13] = byte(refTime64ms >> 8)
	buf[14] = byte(refTime64ms)
	buf[15] = fbCount

	// single status-vector chunk per two-bit symbol isn't attempted
	// here; instead each packet gets a run-length chunk of length 1,
	// which is wire-valid though not bandwidth-optimal.
	for _, st := range statuses {
		chunk := make([]byte, 2)
		runLength := uint16(1)
		value := uint16(st)
		chunk[0] = byte((0<<7)|(value<<5)) | byte(runLength>>8&0x1F)
		chunk[1] = byte(runLength)
		buf = append(buf, chunk...)
	}

	for i, st := range statuses {
		switch st {
		case statusSmallDelta:
			buf = append(buf, byte(int8(deltas[i])))
		case statusLargeDelta:
			d := make([]byte, 2)
			binary.BigEndian.PutUint16(d, uint16(int16(deltas[i])))
			buf = append(buf, d...)
		}
	}

	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}

	return buf
}

func buildRawFeedback(payloadType uint8, fbFormat uint8, body []byte) rtcp.Packet {
	header := rtcp.Header{
		Padding: false,
		Count:   fbFormat,
		Type:    rtcp.PacketType(payloadType),
		Length:  uint16(len(body) / 4), // 32-bit words minus one: header word + body words - 1
	}
	hb, _ := header.Marshal()
	raw := make(rtcp.RawPacket, 0, len(hb)+len(body))
	raw = append(raw, hb...)
	raw = append(raw, body...)
	return &raw
}
