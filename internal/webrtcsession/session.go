// Package webrtcsession implements per-connection WebRTC publisher/player
// session state: SSRC-addressed tracks, NACK and TWCC feedback generation,
// RTCP dispatch, and session lifecycle with idempotent disposal.
package webrtcsession

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// DefaultTimeout is how long a session may go without activity before
// Expire removes it.
const DefaultTimeout = 10 * time.Second

// Manager is the subset of a session registry a Session needs in order
// to remove itself on expiry or explicit disposal.
type Manager interface {
	RemoveSession(s *Session)
}

// Session is one WebRTC peer connection: a publisher track or a set of
// player tracks, addressed by SSRC, plus the RTCP/NACK/TWCC machinery
// that keeps them healthy.
type Session struct {
	ID        uuid.UUID
	StreamURL string
	manager   Manager
	timeout   time.Duration

	mu           sync.Mutex
	state        State
	tracks       map[uint32]*Track
	lastActivity time.Time

	disposeOnce sync.Once
	disposed    bool

	pli  *pliLimiter
	twcc *twccGenerator

	onREMBEvent func(REMBEvent)

	// dropSelfSentPackets, when set by tests, counts player packets the
	// session declines to forward because they were just looped back
	// from the same player (used to verify NACK retransmit suppression).
	dropSelfSentPackets int

	// dropPayloadType, when dropPayloadTypeSet is true, filters out every
	// incoming RTP packet carrying that payload type (e.g. to silence a
	// codec a negotiated answer rejected).
	dropPayloadType    uint8
	dropPayloadTypeSet bool

	// twccExtensionID is the one-byte RTP header extension id (RFC 8285,
	// profile 0xBEDE) negotiated for transport-wide congestion control.
	// 0 means TWCC extension parsing is disabled.
	twccExtensionID uint8
}

// New creates a Session in StateWaitingSTUN.
func New(manager Manager, streamURL string, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		ID:           uuid.New(),
		StreamURL:    streamURL,
		manager:      manager,
		timeout:      timeout,
		state:        StateWaitingSTUN,
		tracks:       map[uint32]*Track{},
		lastActivity: time.Now(),
		pli:          newPLILimiter(),
		twcc:         newTWCCGenerator(),
	}
}

// SetState advances the session's lifecycle state.
func (s *Session) SetState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CreatePublisher registers the publisher track for ssrc. It is a
// programming error to call this more than once per session.
func (s *Session) CreatePublisher(ssrc uint32, kind TrackKind) *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newTrack(ssrc, kind, true)
	s.tracks[ssrc] = t
	return t
}

// CreatePlayerTrack registers one outgoing track for ssrc.
func (s *Session) CreatePlayerTrack(ssrc uint32, kind TrackKind) *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newTrack(ssrc, kind, false)
	s.tracks[ssrc] = t
	return t
}

// Track looks up a track by SSRC.
func (s *Session) Track(ssrc uint32) (*Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[ssrc]
	return t, ok
}

// SetDropPayloadType configures the session to silently drop every
// incoming RTP packet carrying payload type pt. Call
// ClearDropPayloadType to disable the filter again.
func (s *Session) SetDropPayloadType(pt uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPayloadType = pt
	s.dropPayloadTypeSet = true
}

// ClearDropPayloadType disables the payload-type drop filter.
func (s *Session) ClearDropPayloadType() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPayloadTypeSet = false
}

// SetTWCCExtensionID configures the one-byte RTP header extension id
// (RFC 8285, profile 0xBEDE) carrying the transport-wide sequence
// number. id 0 disables TWCC extension parsing.
func (s *Session) SetTWCCExtensionID(id uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twccExtensionID = id
}

// SetDropSelfSentPackets arms the self-sent-packet drop counter: the
// next n packets passed to OnRTPPlaintext are silently dropped and the
// counter decremented, rather than forwarded to their track.
func (s *Session) SetDropSelfSentPackets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropSelfSentPackets = n
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// IsAlive reports whether the session has had activity within its
// configured timeout and has not been disposed.
func (s *Session) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false
	}
	return time.Since(s.lastActivity) < s.timeout
}

// Expire disposes the session if it is no longer alive. Safe to call
// concurrently: only the first caller for a given session actually runs
// the disposal and removes it from the manager.
func (s *Session) Expire() {
	if s.IsAlive() {
		return
	}
	s.dispose()
}

// Dispose tears the session down unconditionally. Idempotent: only the
// first call has any effect.
func (s *Session) Dispose() {
	s.dispose()
}

func (s *Session) dispose() {
	s.disposeOnce.Do(func() {
		s.onBeforeDispose()
		s.mu.Lock()
		s.state = StateDisposing
		s.disposed = true
		s.mu.Unlock()
		s.onDisposing()
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		if s.manager != nil {
			s.manager.RemoveSession(s)
		}
	})
}

// onBeforeDispose is an empty hook run once, inside dispose's
// sync.Once, before any state transition. The re-entry guard is
// disposeOnce, not this hook.
func (s *Session) onBeforeDispose() {}

// onDisposing is an empty teardown hook run once, inside dispose's
// sync.Once, after the state moves to StateDisposing.
func (s *Session) onDisposing() {}

// OnRTPPlaintext routes a decrypted RTP packet to its track by SSRC,
// after the publisher per-packet filter chain: the self-sent-packet
// drop counter, the payload-type drop filter, then TWCC extension
// extraction. A packet whose SSRC matches no track is dropped with a
// warning; the session remains open.
func (s *Session) OnRTPPlaintext(pkt *rtp.Packet) error {
	s.touch()

	s.mu.Lock()
	if s.dropSelfSentPackets > 0 {
		s.dropSelfSentPackets--
		s.mu.Unlock()
		return nil
	}
	if s.dropPayloadTypeSet && pkt.PayloadType == s.dropPayloadType {
		s.mu.Unlock()
		return nil
	}
	twccExtID := s.twccExtensionID
	s.mu.Unlock()

	s.mu.Lock()
	t, ok := s.tracks[pkt.SSRC]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("warning: RTP packet for unknown SSRC %d dropped", pkt.SSRC)
	}
	t.onRTPPlaintext(pkt)

	if t.Kind == TrackKindVideo {
		if seq, ok := twccSequenceNumber(&pkt.Header, twccExtID); ok {
			s.twcc.record(seq, time.Now())
		}
	}
	return nil
}

// DoSendPacket represents the outbound send path for a player packet;
// it is the counterpart of the self-sent-packet drop counter above,
// which suppresses packets the session would otherwise loop back to
// the sender that just sent them. Returns true if pkt was sent (a
// real transport is wired in by the caller), false if it was dropped.
func (s *Session) DoSendPacket(pkt *rtp.Packet) bool {
	s.mu.Lock()
	if s.dropSelfSentPackets > 0 {
		s.dropSelfSentPackets--
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	return true
}

// twccSequenceNumber extracts the 16-bit transport-wide sequence number
// carried in a one-byte-form RTP header extension (RFC 8285, profile
// 0xBEDE) at extID. Returns ok=false if TWCC parsing is disabled
// (extID==0) or the extension is absent or malformed.
func twccSequenceNumber(h *rtp.Header, extID uint8) (uint16, bool) {
	if extID == 0 {
		return 0, false
	}
	payload := h.GetExtension(extID)
	if len(payload) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(payload[:2]), true
}

// dtlsAlertCloseNotify is the DTLS alert description for a clean
// shutdown ("close_notify"), the one warning-level alert that ends a
// session the same way a fatal alert does.
const dtlsAlertCloseNotify = "CN"

// OnDTLSAlert disposes the session on a fatal DTLS alert of any
// description, or a warning-level close_notify. Any other alert is
// informational and has no effect.
func (s *Session) OnDTLSAlert(level, description string) {
	if level == "fatal" || (level == "warning" && description == dtlsAlertCloseNotify) {
		s.dispose()
	}
}

// OnRTCP dispatches one RTCP compound packet's contents to the handlers
// in rtcp.go.
func (s *Session) OnRTCP(pkts []rtcp.Packet) ([]rtcp.Packet, error) {
	s.touch()
	return s.dispatchRTCP(pkts)
}
