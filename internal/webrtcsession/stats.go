package webrtcsession

import "sync/atomic"

// TrackStats is a read-only snapshot of one track's byte/packet counters.
// It mirrors the counter fields of the teacher's APIWebRTCSession (bytes
// sent/received) without the HTTP-facing API wrapper, which is out of
// scope here: a stats subsystem can poll Session.Stats to build its own
// surface on top of this.
type TrackStats struct {
	SSRC        uint32
	Kind        TrackKind
	PacketsSent uint64
	BytesSent   uint64
	PacketsRecv uint64
	BytesRecv   uint64
	PLICount    int
}

// trackCounters holds the atomics backing a Track's TrackStats snapshot.
// Kept separate from Track's RTCP bookkeeping fields since counters are
// written from the RTP data path while the rest of Track is guarded by
// the owning Session's mutex.
type trackCounters struct {
	packetsSent atomic.Uint64
	bytesSent   atomic.Uint64
	packetsRecv atomic.Uint64
	bytesRecv   atomic.Uint64
}

func (c *trackCounters) addSent(n int) {
	c.packetsSent.Add(1)
	c.bytesSent.Add(uint64(n))
}

func (c *trackCounters) addRecv(n int) {
	c.packetsRecv.Add(1)
	c.bytesRecv.Add(uint64(n))
}

// Stats returns a point-in-time snapshot of every track in the session.
func (s *Session) Stats() []TrackStats {
	s.mu.Lock()
	tracks := make([]*Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		tracks = append(tracks, t)
	}
	s.mu.Unlock()

	out := make([]TrackStats, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, TrackStats{
			SSRC:        t.SSRC,
			Kind:        t.Kind,
			PacketsSent: t.counters.packetsSent.Load(),
			BytesSent:   t.counters.bytesSent.Load(),
			PacketsRecv: t.counters.packetsRecv.Load(),
			BytesRecv:   t.counters.bytesRecv.Load(),
			PLICount:    t.PLICount,
		})
	}
	return out
}
