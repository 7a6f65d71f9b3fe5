package edgepull

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestListener(t *testing.T) (net.Listener, Origin) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return ln, Origin{Host: host, Port: port}
}

func acceptOnce(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()
}

func TestRTMPUpstreamConnectsToLBOrigin(t *testing.T) {
	ln, origin := newTestListener(t)
	acceptOnce(t, ln)

	lb, err := NewRoundRobinLB([]Origin{origin})
	require.NoError(t, err)

	up := &RTMPUpstream{ConnectTimeout: time.Second}
	require.NoError(t, up.Connect(context.Background(), ConnectRequest{App: "live", Stream: "test"}, lb))
	defer up.Close()

	selected, ok := up.Selected()
	require.True(t, ok)
	require.Equal(t, origin, selected)
}

func TestRTMPUpstreamRedirectOverridesLBPick(t *testing.T) {
	ln, realOrigin := newTestListener(t)
	acceptOnce(t, ln)

	// the LB only knows about a bogus, unreachable origin; SetRedirect
	// must override its pick on the next Connect.
	lb, err := NewRoundRobinLB([]Origin{{Host: "127.0.0.1", Port: 1}})
	require.NoError(t, err)

	up := &RTMPUpstream{ConnectTimeout: time.Second}
	up.SetRedirect(realOrigin)
	require.NoError(t, up.Connect(context.Background(), ConnectRequest{App: "live", Stream: "test"}, lb))
	defer up.Close()

	selected, ok := up.Selected()
	require.True(t, ok)
	require.Equal(t, realOrigin, selected)

	// the redirect is consumed: a second Connect falls back to the LB's
	// (unreachable) pick and fails.
	err = up.Connect(context.Background(), ConnectRequest{App: "live", Stream: "test"}, lb)
	require.Error(t, err)
}

func TestRTMPUpstreamConnectFailsOnUnreachableOrigin(t *testing.T) {
	lb, err := NewRoundRobinLB([]Origin{{Host: "127.0.0.1", Port: 1}})
	require.NoError(t, err)

	up := &RTMPUpstream{ConnectTimeout: 100 * time.Millisecond}
	err = up.Connect(context.Background(), ConnectRequest{App: "live", Stream: "test"}, lb)
	require.Error(t, err)

	_, ok := up.Selected()
	require.False(t, ok)
}

func TestRTMPUpstreamRecvMessageRequiresConnection(t *testing.T) {
	up := &RTMPUpstream{}
	_, err := up.RecvMessage()
	require.Error(t, err)
}

func TestRTMPUpstreamDecodeMessageRejectsNonCommand(t *testing.T) {
	up := &RTMPUpstream{}
	_, err := up.DecodeMessage(&CommonMessage{Type: MessageTypeAudio})
	require.Error(t, err)

	cmd, err := up.DecodeMessage(&CommonMessage{Type: MessageTypeCommand, Payload: []byte("onStatus")})
	require.NoError(t, err)
	require.Equal(t, "onStatus", cmd.Name)
}

func TestDefaultPortFor(t *testing.T) {
	require.Equal(t, defaultRTMPPort, defaultPortFor("rtmp"))
	require.Equal(t, defaultHTTPFLVPort, defaultPortFor("http"))
}
