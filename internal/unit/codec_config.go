package unit

// VideoCodecID identifies the video codec carried by a stream.
type VideoCodecID int

// Video codec ids.
const (
	VideoCodecUnknown VideoCodecID = iota
	VideoCodecAVC
	VideoCodecHEVC
	VideoCodecAV1
)

// PayloadFormat is the in-band NALU framing preference.
type PayloadFormat int

// Payload formats.
const (
	PayloadFormatUnknown PayloadFormat = iota
	PayloadFormatAnnexB
	PayloadFormatLengthPrefixed
)

// SPSInfo holds the fields decoded out of a SPS that downstream components
// need without re-parsing: resolution, profile and level.
type SPSInfo struct {
	ProfileIDC uint8
	LevelIDC   uint8
	Width      int
	Height     int
}

// VideoCodecConfig is per-stream codec state: codec id, profile/level,
// resolution, NALU length size, payload-format preference and the parsed
// parameter-set tables. It is mutated by sequence headers and lives with
// the stream source.
type VideoCodecConfig struct {
	CodecID VideoCodecID

	Profile uint8
	Level   uint8
	Width   int
	Height  int

	// NALULengthSize is 1, 2 or 4 for length-prefixed (IBMF) framing.
	NALULengthSize int

	PayloadFormat PayloadFormat

	// ConfigRecord is the raw AVCDecoderConfigurationRecord or
	// HEVCDecoderConfigurationRecord blob, kept for re-transmission to new
	// subscribers.
	ConfigRecord []byte

	// parameter sets, indexed by id within each table
	SPS map[int][]byte
	PPS map[int][]byte
	VPS map[int][]byte // HEVC only

	// decoded SPS fields, indexed by SPS id
	SPSInfo map[int]SPSInfo
}

// NewVideoCodecConfig allocates an empty VideoCodecConfig for the given codec.
func NewVideoCodecConfig(id VideoCodecID) *VideoCodecConfig {
	return &VideoCodecConfig{
		CodecID: id,
		SPS:     make(map[int][]byte),
		PPS:     make(map[int][]byte),
		VPS:     make(map[int][]byte),
		SPSInfo: make(map[int]SPSInfo),
	}
}

// FirstSPS returns an arbitrary-but-stable SPS from the table, or nil.
func (c *VideoCodecConfig) FirstSPS() []byte {
	return firstByID(c.SPS)
}

// FirstPPS returns an arbitrary-but-stable PPS from the table, or nil.
func (c *VideoCodecConfig) FirstPPS() []byte {
	return firstByID(c.PPS)
}

// FirstVPS returns an arbitrary-but-stable VPS from the table, or nil.
func (c *VideoCodecConfig) FirstVPS() []byte {
	return firstByID(c.VPS)
}

func firstByID(m map[int][]byte) []byte {
	best := -1
	var out []byte
	for id, v := range m {
		if best == -1 || id < best {
			best = id
			out = v
		}
	}
	return out
}

// AudioCodecID identifies the audio codec carried by a stream.
type AudioCodecID int

// Audio codec ids.
const (
	AudioCodecUnknown AudioCodecID = iota
	AudioCodecAAC
	AudioCodecMP3
	AudioCodecOpus
)

// AudioCodecConfig is per-stream audio codec state. An AAC sequence header
// must precede any AAC raw frame; raw frames received before it are
// dropped with a warning (spec.md §3 invariant).
type AudioCodecConfig struct {
	CodecID AudioCodecID

	SoundRate    uint8
	SoundSize    uint8
	SoundChannel uint8

	// AAC-specific
	AACObjectType       uint8
	AACSampleRateIndex  uint8
	AACSampleRate       int
	AACChannelCount     uint8
	AudioSpecificConfig []byte

	SequenceHeaderSeen bool
}
