package edgepull

import (
	"context"
	"time"
)

// MessageType distinguishes the payload carried by a CommonMessage.
type MessageType int

const (
	MessageTypeAudio MessageType = iota
	MessageTypeVideo
	MessageTypeScript
	MessageTypeCommand
)

// CommonMessage is one demuxed unit from an upstream, in a form both
// the RTMP and HTTP-FLV upstreams produce uniformly: a type, a
// timestamp, and a raw payload ready for flv.OnAudio/flv.OnVideo.
type CommonMessage struct {
	Type      MessageType
	Timestamp uint32
	StreamID  uint32
	Payload   []byte
}

// Command is a decoded AMF0 command extracted from a CommonMessage of
// type MessageTypeCommand (e.g. an onStatus notification).
type Command struct {
	Name   string
	Params map[string]any
}

// ConnectRequest names the stream being pulled.
type ConnectRequest struct {
	App    string
	Stream string
	Params string
}

// EdgeUpstream is an abstract reader over one of {RTMP, HTTP-FLV}.
type EdgeUpstream interface {
	// Connect dials the origin chosen by lb and negotiates playback of
	// req's stream.
	Connect(ctx context.Context, req ConnectRequest, lb *RoundRobinLB) error
	// RecvMessage blocks until the next demuxed message arrives or the
	// read timeout elapses.
	RecvMessage() (*CommonMessage, error)
	// DecodeMessage extracts an AMF0 command from a command message.
	DecodeMessage(msg *CommonMessage) (*Command, error)
	SetRecvTimeout(d time.Duration)
	// KbpsSample reports the recent receive bitrate, for diagnostics.
	KbpsSample() float64
	// Selected returns the origin this upstream is currently connected
	// to.
	Selected() (Origin, bool)
	Close() error
}
