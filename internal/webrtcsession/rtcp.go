package webrtcsession

import (
	"fmt"
	"time"

	"github.com/pion/rtcp"
)

// dispatchRTCP routes each packet in a compound RTCP message by type:
// SR updates the sending track's last-report bookkeeping; RR with
// rb_ssrc==0 is ignored; XR DLRR computes RTT; RTPFB NACK passes each
// listed sequence number to the addressed track's NackReceiver.Received,
// which clears it from that track's missing set (no retransmit queue is
// kept); RTPFB TWCC is recorded; PSFB PLI is forwarded to the publisher
// subject to rate limiting; PSFB REMB is handed to the OnREMB hook when
// one is registered and is not logged; SDES/BYE are ignored; anything
// else is an error.
func (s *Session) dispatchRTCP(pkts []rtcp.Packet) ([]rtcp.Packet, error) {
	var toRetransmit []rtcp.Packet

	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *rtcp.SenderReport:
			s.onSenderReport(p)

		case *rtcp.ReceiverReport:
			s.onReceiverReport(p)

		case *rtcp.ExtendedReport:
			s.onExtendedReport(p)

		case *rtcp.TransportLayerNack:
			s.onTransportLayerNack(p)

		case *rtcp.TransportLayerCC:
			s.twcc.onFeedback(p)

		case *rtcp.PictureLossIndication:
			if nack := s.onPictureLossIndication(p); nack != nil {
				toRetransmit = append(toRetransmit, nack)
			}

		case *rtcp.ReceiverEstimatedMaximumBitrate:
			s.onREMB(p)

		case *rtcp.SourceDescription, *rtcp.Goodbye:
			// ignored

		default:
			return nil, fmt.Errorf("unsupported RTCP packet type %T", pkt)
		}
	}

	return toRetransmit, nil
}

func (s *Session) onSenderReport(p *rtcp.SenderReport) {
	s.mu.Lock()
	t, ok := s.tracks[p.SSRC]
	s.mu.Unlock()
	if !ok {
		return
	}
	t.LastSenderReportNTP = p.NTPTime
	t.LastSenderReportRTPTime = p.RTPTime
}

// onReceiverReport locates the reported track by rb_ssrc and updates its
// RTT from the report's own LastSenderReport/Delay (LSR/DLSR) fields,
// using the same NTP-short-format formula as the XR DLRR path below.
func (s *Session) onReceiverReport(p *rtcp.ReceiverReport) {
	for _, rr := range p.Reports {
		if rr.SSRC == 0 {
			continue
		}
		s.mu.Lock()
		t, ok := s.tracks[rr.SSRC]
		s.mu.Unlock()
		if !ok || rr.LastSenderReport == 0 || rr.Delay == 0 {
			continue
		}
		now := toNTPShort(time.Now())
		delay := now - rr.LastSenderReport - rr.Delay
		t.RTT = ntpShortToDuration(delay)
	}
}

// onExtendedReport computes RTT from a DLRR block: RTT = now(in NTP
// short units) - lastRR - dlrr, per RFC 3611 §4.5.
func (s *Session) onExtendedReport(p *rtcp.ExtendedReport) {
	for _, block := range p.Reports {
		dlrr, ok := block.(*rtcp.DLRRReportBlock)
		if !ok {
			continue
		}
		for _, report := range dlrr.Reports {
			s.mu.Lock()
			t, ok := s.tracks[report.SSRC]
			s.mu.Unlock()
			if !ok || report.LastRR == 0 || report.DLRR == 0 {
				continue
			}
			now := toNTPShort(time.Now())
			delay := now - report.LastRR - report.DLRR
			t.RTT = ntpShortToDuration(delay)
		}
	}
}

func (s *Session) onTransportLayerNack(p *rtcp.TransportLayerNack) {
	s.mu.Lock()
	t, ok := s.tracks[p.MediaSSRC]
	s.mu.Unlock()
	if !ok || t.nack == nil {
		return
	}
	for _, pair := range p.Nacks {
		for _, seq := range pair.PacketList() {
			t.nack.Received(seq)
		}
	}
}

// onPictureLossIndication forwards a keyframe request to the publisher
// track named by media_ssrc, subject to rate limiting. A request
// targeting an unknown SSRC is accepted (no error to the caller) but
// has no effect: the publisher's PLI counter is left untouched.
func (s *Session) onPictureLossIndication(p *rtcp.PictureLossIndication) *rtcp.PictureLossIndication {
	s.mu.Lock()
	t, ok := s.tracks[p.MediaSSRC]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if !s.pli.allow(p.MediaSSRC) {
		return nil
	}
	t.PLICount++
	return &rtcp.PictureLossIndication{MediaSSRC: p.MediaSSRC}
}

// REMBEvent is one decoded REMB report. No bandwidth-adaptation policy is
// implemented here; this exists only as a typed hook so a future
// rate-adaptation component can subscribe via Session.OnREMB instead of
// the report being silently discarded.
type REMBEvent struct {
	SenderSSRC uint32
	SSRCs      []uint32
	BitrateBps float32
}

func (s *Session) onREMB(p *rtcp.ReceiverEstimatedMaximumBitrate) {
	s.mu.Lock()
	cb := s.onREMBEvent
	s.mu.Unlock()
	if cb == nil {
		return
	}
	cb(REMBEvent{
		SenderSSRC: p.SenderSSRC,
		SSRCs:      p.SSRCs,
		BitrateBps: p.Bitrate,
	})
}

// OnREMB registers a callback invoked for every REMB report received on
// this session. Passing nil disables the hook.
func (s *Session) OnREMB(cb func(REMBEvent)) {
	s.mu.Lock()
	s.onREMBEvent = cb
	s.mu.Unlock()
}

// toNTPShort returns the 32-bit middle portion of t's 64-bit NTP timestamp, as
// used by RTCP short-format NTP fields (RFC 3611 §4.5, RFC 3550 §4).
func toNTPShort(t time.Time) uint32 {
	const ntpEpochOffset = 2208988800
	secs := uint32(t.Unix() + ntpEpochOffset)
	frac := uint32((uint64(t.Nanosecond()) << 32) / 1e9)
	return secs<<16 | frac>>16
}

func ntpShortToDuration(v uint32) time.Duration {
	seconds := float64(v) / 65536
	return time.Duration(seconds * float64(time.Second))
}
