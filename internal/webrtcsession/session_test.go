package webrtcsession

import (
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func TestUnknownSSRCPacketDroppedSessionStaysOpen(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.CreatePublisher(0x1, TrackKindVideo)

	err := s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0xDEAD}})
	require.Error(t, err)
	require.Equal(t, StateWaitingSTUN, s.State())
	require.True(t, s.IsAlive())
}

func TestKnownSSRCPacketRoutedToTrack(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.CreatePublisher(0x1, TrackKindVideo)

	err := s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: 5}})
	require.NoError(t, err)

	track, ok := s.Track(0x1)
	require.True(t, ok)
	require.True(t, track.nack.ReceivedRecently(5))
}

func TestSelfSentPacketsDroppedWhileCounterArmed(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.CreatePublisher(0x1, TrackKindVideo)
	s.SetDropSelfSentPackets(2)

	for i := 0; i < 2; i++ {
		err := s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: uint16(i)}})
		require.NoError(t, err)
	}
	track, _ := s.Track(0x1)
	require.False(t, track.nack.ReceivedRecently(0))
	require.False(t, track.nack.ReceivedRecently(1))

	err := s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: 2}})
	require.NoError(t, err)
	require.True(t, track.nack.ReceivedRecently(2))
}

func TestDropPayloadTypeFilter(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.CreatePublisher(0x1, TrackKindVideo)
	s.SetDropPayloadType(111)

	err := s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: 9, PayloadType: 111}})
	require.NoError(t, err)
	track, _ := s.Track(0x1)
	require.False(t, track.nack.ReceivedRecently(9))

	s.ClearDropPayloadType()
	err = s.OnRTPPlaintext(&rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: 9, PayloadType: 111}})
	require.NoError(t, err)
	require.True(t, track.nack.ReceivedRecently(9))
}

func TestTWCCExtensionSequenceNumberExtracted(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.CreatePublisher(0x1, TrackKindVideo)
	s.SetTWCCExtensionID(3)

	pkt := &rtp.Packet{Header: rtp.Header{SSRC: 0x1, SequenceNumber: 500}}
	require.NoError(t, pkt.SetExtension(3, []byte{0x12, 0x34}))

	err := s.OnRTPPlaintext(pkt)
	require.NoError(t, err)

	seq, ok := twccSequenceNumber(&pkt.Header, 3)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), seq)
}

func TestDoSendPacketRespectsDropCounter(t *testing.T) {
	s := New(&fakeManager{}, "rtmp://x/live/test", time.Minute)
	s.SetDropSelfSentPackets(1)

	require.False(t, s.DoSendPacket(&rtp.Packet{}))
	require.True(t, s.DoSendPacket(&rtp.Packet{}))
}

func TestSessionNotExpiredWhileAlive(t *testing.T) {
	mgr := &fakeManager{}
	s := New(mgr, "rtmp://x/live/test", time.Minute)
	s.Expire()
	require.Empty(t, mgr.removed)
	require.NotEqual(t, StateClosed, s.State())
}

func TestDTLSFatalAlertRemovesSession(t *testing.T) {
	mgr := &fakeManager{}
	s := New(mgr, "rtmp://x/live/test", time.Minute)
	s.OnDTLSAlert("fatal", "unexpected_message")
	require.Len(t, mgr.removed, 1)
	require.Equal(t, StateClosed, s.State())
}

func TestDTLSCloseNotifyWarningRemovesSession(t *testing.T) {
	mgr := &fakeManager{}
	s := New(mgr, "rtmp://x/live/test", time.Minute)
	s.OnDTLSAlert("warning", "CN")
	require.Len(t, mgr.removed, 1)
}

func TestDTLSOtherWarningIsInformationalOnly(t *testing.T) {
	mgr := &fakeManager{}
	s := New(mgr, "rtmp://x/live/test", time.Minute)
	s.OnDTLSAlert("warning", "user_canceled")
	require.Empty(t, mgr.removed)
	require.NotEqual(t, StateClosed, s.State())
}

func TestDisposeIsIdempotent(t *testing.T) {
	mgr := &fakeManager{}
	s := New(mgr, "rtmp://x/live/test", time.Minute)
	s.Dispose()
	s.Dispose()
	s.Expire()
	require.Len(t, mgr.removed, 1)
}
