package edgepull

import (
	"context"
	"fmt"
	"net"
	"time"
)

const defaultRTMPPort = 1935

// RTMPUpstream is the RTMP EdgeUpstream. It dials the selected origin
// over TCP and owns the origin-selection, timeout and redirect policy.
// It performs no RTMP handshake, play negotiation or chunk-stream
// demux: RecvMessage always returns an error, and DecodeMessage takes
// the raw payload bytes as the command name without AMF0 decoding.
type RTMPUpstream struct {
	ConnectTimeout time.Duration
	StreamTimeout  time.Duration

	conn           net.Conn
	selected       Origin
	haveSelected   bool
	recvTimeout    time.Duration
	redirectOrigin *Origin
}

var _ EdgeUpstream = (*RTMPUpstream)(nil)

// Connect dials the next round-robin origin (or a redirect origin left
// over from a previous connect's response) over TCP and applies the
// receive timeout. It sends nothing on the connection: no RTMP
// handshake and no play request for req.Stream. With a nil lb and no
// redirect origin it returns an error.
func (u *RTMPUpstream) Connect(ctx context.Context, req ConnectRequest, lb *RoundRobinLB) error {
	if lb == nil && u.redirectOrigin == nil {
		return fmt.Errorf("rtmp upstream: no origin configured")
	}
	var origin Origin
	if lb != nil {
		origin = lb.Select()
	}
	if u.redirectOrigin != nil {
		origin = *u.redirectOrigin
		u.redirectOrigin = nil
	}

	dialer := &net.Dialer{Timeout: u.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", origin.String())
	if err != nil {
		return fmt.Errorf("rtmp upstream connect to %s: %w", origin, err)
	}

	u.conn = conn
	u.selected = origin
	u.haveSelected = true

	if u.recvTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(u.recvTimeout))
	}

	return nil
}

// RecvMessage returns an error on every call: "not connected" before
// Connect, "no message available" after it. It reads nothing from the
// connection.
func (u *RTMPUpstream) RecvMessage() (*CommonMessage, error) {
	if u.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	return nil, fmt.Errorf("no message available")
}

func (u *RTMPUpstream) DecodeMessage(msg *CommonMessage) (*Command, error) {
	if msg.Type != MessageTypeCommand {
		return nil, fmt.Errorf("message is not a command")
	}
	return &Command{Name: string(msg.Payload)}, nil
}

func (u *RTMPUpstream) SetRecvTimeout(d time.Duration) {
	u.recvTimeout = d
	if u.conn != nil && d > 0 {
		_ = u.conn.SetReadDeadline(time.Now().Add(d))
	}
}

func (u *RTMPUpstream) KbpsSample() float64 { return 0 }

func (u *RTMPUpstream) Selected() (Origin, bool) {
	return u.selected, u.haveSelected
}

// SetRedirect records an origin to use on the next Connect instead of
// the load balancer's pick, per a redirect response from the current
// origin.
func (u *RTMPUpstream) SetRedirect(o Origin) {
	u.redirectOrigin = &o
}

func (u *RTMPUpstream) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}

func defaultPortFor(scheme string) int {
	if scheme == "rtmp" {
		return defaultRTMPPort
	}
	return defaultHTTPFLVPort
}
