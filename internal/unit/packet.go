// Package unit implements the data model shared by CodecFormat, the RTP
// packetizer and the WebRTC session: MediaPacket (the on-wire FLV/RTMP
// frame), ParsedPacket (the demuxed access unit) and the per-stream codec
// configuration structs.
package unit

import (
	"github.com/docterling/corerelay/internal/sharedbuf"
)

// Kind tags the type of a MediaPacket.
type Kind int

// MediaPacket kinds.
const (
	KindAudio Kind = iota
	KindVideo
	KindScript
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindScript:
		return "script"
	default:
		return "forbidden"
	}
}

// MediaPacket is a timestamped, type-tagged byte block on the RTMP/FLV
// side. Its payload is immutable once wrapped; any mutation requires a
// deep copy. It is shared across readers through reference counting and
// released when the last reader drops it.
type MediaPacket struct {
	Timestamp int64 // milliseconds
	StreamID  int32
	Kind      Kind
	Payload   *sharedbuf.Buffer
}

// Retain returns a MediaPacket sharing the same underlying payload with an
// incremented reference count. Release the returned packet independently.
func (p *MediaPacket) Retain() *MediaPacket {
	return &MediaPacket{
		Timestamp: p.Timestamp,
		StreamID:  p.StreamID,
		Kind:      p.Kind,
		Payload:   p.Payload.Retain(),
	}
}

// Release drops this packet's reference to the shared payload.
func (p *MediaPacket) Release() {
	p.Payload.Release()
}
