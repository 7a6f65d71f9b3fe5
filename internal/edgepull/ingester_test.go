package edgepull

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	connectErr   error
	messages     chan *CommonMessage
	closed       bool
	decoded      Command
	connectCount atomic.Int32
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{messages: make(chan *CommonMessage, 8), decoded: Command{Name: "unused"}}
}

func (u *fakeUpstream) Connect(ctx context.Context, req ConnectRequest, lb *RoundRobinLB) error {
	lb.Select()
	u.connectCount.Add(1)
	return u.connectErr
}

func (u *fakeUpstream) RecvMessage() (*CommonMessage, error) {
	msg, ok := <-u.messages
	if !ok {
		return nil, errors.New("upstream closed")
	}
	return msg, nil
}

func (u *fakeUpstream) DecodeMessage(msg *CommonMessage) (*Command, error) {
	cmd := u.decoded
	return &cmd, nil
}

func (u *fakeUpstream) SetRecvTimeout(time.Duration) {}
func (u *fakeUpstream) KbpsSample() float64          { return 0 }
func (u *fakeUpstream) Selected() (Origin, bool)     { return Origin{Host: "a"}, true }
func (u *fakeUpstream) Close() error                 { u.closed = true; return nil }

type fakeSink struct {
	received chan *CommonMessage
	stopped  chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{received: make(chan *CommonMessage, 8), stopped: make(chan struct{}, 1)}
}

func (s *fakeSink) OnIngestMessage(msg *CommonMessage) { s.received <- msg }
func (s *fakeSink) OnIngestStopped()                   { s.stopped <- struct{}{} }

func newTestLB(t *testing.T) *RoundRobinLB {
	lb, err := NewRoundRobinLB([]Origin{{Host: "a", Port: 1935}})
	require.NoError(t, err)
	return lb
}

func TestIngesterInitToIngestConnectedOnClientPlay(t *testing.T) {
	up := newFakeUpstream()
	sink := newFakeSink()
	ig := New(up, newTestLB(t), ConnectRequest{App: "live", Stream: "test"}, sink)
	require.Equal(t, StateInit, ig.State())

	require.NoError(t, ig.OnClientPlay(context.Background()))

	require.Eventually(t, func() bool {
		return ig.State() == StateIngestConnected
	}, time.Second, time.Millisecond)

	up.messages <- &CommonMessage{Type: MessageTypeAudio, Payload: []byte{0x2F}}
	select {
	case <-sink.received:
	case <-time.After(time.Second):
		t.Fatal("message not forwarded to sink")
	}

	ig.OnAllClientStop()
	require.Equal(t, StateInit, ig.State())
}

func TestIngesterOnIngestPlayIdempotentWhenAlreadyConnected(t *testing.T) {
	up := newFakeUpstream()
	sink := newFakeSink()
	ig := New(up, newTestLB(t), ConnectRequest{App: "live", Stream: "test"}, sink)
	require.NoError(t, ig.OnClientPlay(context.Background()))

	require.Eventually(t, func() bool {
		return ig.State() == StateIngestConnected
	}, time.Second, time.Millisecond)

	require.NoError(t, ig.OnIngestPlay())
	require.Equal(t, StateIngestConnected, ig.State())

	ig.OnAllClientStop()
}

func TestIngesterUnpublishNotifyEndsPumpAndReconnects(t *testing.T) {
	up := newFakeUpstream()
	up.decoded = Command{Name: "onStatus", Params: map[string]any{"code": "NetStream.Play.UnpublishNotify"}}
	sink := newFakeSink()
	ig := New(up, newTestLB(t), ConnectRequest{App: "live", Stream: "test"}, sink)
	ig.ReconnectWait = time.Millisecond

	require.NoError(t, ig.OnClientPlay(context.Background()))
	require.Eventually(t, func() bool {
		return ig.State() == StateIngestConnected
	}, time.Second, time.Millisecond)
	require.EqualValues(t, 1, up.connectCount.Load())

	up.messages <- &CommonMessage{Type: MessageTypeCommand}

	// pump ends on the UnpublishNotify command, the outer loop
	// reconnects after ReconnectWait and reaches IngestConnected again.
	require.Eventually(t, func() bool {
		return up.connectCount.Load() >= 2 && ig.State() == StateIngestConnected
	}, time.Second, time.Millisecond)

	ig.OnAllClientStop()
	require.Equal(t, StateInit, ig.State())
}

func TestIngesterNonUnpublishCommandDoesNotEndPump(t *testing.T) {
	up := newFakeUpstream()
	sink := newFakeSink()
	ig := New(up, newTestLB(t), ConnectRequest{App: "live", Stream: "test"}, sink)
	ig.ReconnectWait = time.Millisecond

	require.NoError(t, ig.OnClientPlay(context.Background()))
	require.Eventually(t, func() bool {
		return ig.State() == StateIngestConnected
	}, time.Second, time.Millisecond)

	up.messages <- &CommonMessage{Type: MessageTypeCommand}
	select {
	case <-sink.received:
	case <-time.After(time.Second):
		t.Fatal("non-matching command should still be forwarded to sink")
	}
	require.EqualValues(t, 1, up.connectCount.Load())

	ig.OnAllClientStop()
	require.Equal(t, StateInit, ig.State())
}
