package unit

// MaxSamples bounds the NALU sample descriptor array of a ParsedPacket.
// A real access unit rarely carries more than a handful of NALUs;
// AppendSample stops accepting samples at this bound and reports false
// rather than growing unbounded, matching the "bounded array" invariant
// from the data model (spec.md §3). Nothing is logged here.
const MaxSamples = 256

// NALUSample is a non-owning view into the MediaPacket that produced it:
// (bytes, size) pointing at a slice of the original payload. It must not
// outlive the owning MediaPacket.
type NALUSample struct {
	Bytes []byte
	Size  int
}

// AudioPacketType distinguishes an AAC sequence header from a raw frame.
type AudioPacketType int

// Audio packet types.
const (
	AudioPacketSequenceHeader AudioPacketType = iota
	AudioPacketRaw
)

// VideoFrameType classifies a video access unit.
type VideoFrameType int

// Video frame types.
const (
	VideoFrameKey VideoFrameType = iota + 1
	VideoFrameInter
	VideoFrameDisposable
	VideoFrameInfo
)

// VideoPacketType distinguishes sequence headers, NALU payloads and
// end-of-sequence markers.
type VideoPacketType int

// Video packet types.
const (
	VideoPacketSequenceHeader VideoPacketType = iota
	VideoPacketNALU
	VideoPacketEndOfSequence
)

// ParsedPacket is the result of a CodecFormat demux: a bounded set of NALU
// sample descriptors plus per-type metadata. CodecConfig is a non-owning
// reference to the stream's AudioCodecConfig or VideoCodecConfig.
type ParsedPacket struct {
	CodecConfig interface{} // *AudioCodecConfig or *VideoCodecConfig
	DTS         int64
	CTS         int64
	Samples     []NALUSample

	// audio metadata
	AudioPacketType AudioPacketType

	// video metadata
	VideoFrameType  VideoFrameType
	VideoPacketType VideoPacketType
	HasIDR          bool
	HasSPSPPS       bool
	HasAUD          bool
	FirstNALUType   int

	// B-frame classification (spec.md §4.1 "B-frame detection")
	IsBFrame bool
}

// PTS is dts + cts, per the data model invariant.
func (p *ParsedPacket) PTS() int64 {
	return p.DTS + p.CTS
}

// TotalSampleSize sums sample.Size across all samples. The universal
// invariant from spec.md §8 requires this never to exceed the raw payload
// length the samples were carved out of.
func (p *ParsedPacket) TotalSampleSize() int {
	total := 0
	for _, s := range p.Samples {
		total += s.Size
	}
	return total
}

// AppendSample appends a sample descriptor, silently dropping it once
// MaxSamples is reached (the caller is expected to log a warning).
func (p *ParsedPacket) AppendSample(b []byte) bool {
	if len(p.Samples) >= MaxSamples {
		return false
	}
	p.Samples = append(p.Samples, NALUSample{Bytes: b, Size: len(b)})
	return true
}
