package webrtcsession

import (
	"time"

	"github.com/pion/rtp"
)

// TrackKind distinguishes an audio track from a video track.
type TrackKind int

const (
	TrackKindAudio TrackKind = iota
	TrackKindVideo
)

// Track is one SSRC-addressed RTP stream within a Session: either the
// publisher's incoming track or one player's outgoing track.
type Track struct {
	SSRC        uint32
	Kind        TrackKind
	IsPublisher bool

	// RTCP SR/RR/XR bookkeeping, updated by dispatchRTCP.
	LastSenderReportNTP     uint64
	LastSenderReportRTPTime uint32
	RTT                     time.Duration

	// PLICount counts keyframe requests actually forwarded to this
	// track (only meaningful for a publisher track).
	PLICount int

	nack     *NackReceiver
	counters trackCounters
}

func newTrack(ssrc uint32, kind TrackKind, isPublisher bool) *Track {
	t := &Track{SSRC: ssrc, Kind: kind, IsPublisher: isPublisher}
	if kind == TrackKindVideo {
		t.nack = NewNackReceiver(nackRingCapacity)
	}
	return t
}

// onRTPPlaintext processes one decrypted, already-SSRC-routed RTP
// packet. Video tracks run NACK bookkeeping on the receiver ring; audio
// tracks are forwarded as-is.
func (t *Track) onRTPPlaintext(pkt *rtp.Packet) {
	if t.Kind == TrackKindVideo && t.nack != nil {
		t.nack.Received(pkt.SequenceNumber)
	}
	t.counters.addRecv(pkt.MarshalSize())
}

// onRTPSent records one outgoing packet's byte size for a player track.
func (t *Track) onRTPSent(pkt *rtp.Packet) {
	t.counters.addSent(pkt.MarshalSize())
}
