package webrtcsession

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// MediaSection is one parsed media description reduced to what a
// session needs to wire a track to it: its kind and the SSRC the
// offering peer advertised for it.
type MediaSection struct {
	Kind TrackKind
	SSRC uint32
}

// AnalyzeMediaSections validates an offer/answer's media sections
// against this package's single-publisher-pair model (one video, one
// audio section, each carrying a resolvable SSRC) and returns one
// MediaSection per entry in medias, in order. More than one section of
// the same kind, an unsupported media type, or a section with no
// `a=ssrc:` attribute is rejected.
func AnalyzeMediaSections(medias []*sdp.MediaDescription) ([]MediaSection, error) {
	sawVideo := false
	sawAudio := false
	out := make([]MediaSection, 0, len(medias))

	for _, media := range medias {
		kind, err := KindOf(media)
		if err != nil {
			return nil, err
		}

		switch kind {
		case TrackKindVideo:
			if sawVideo {
				return nil, fmt.Errorf("only a single video track is supported")
			}
			sawVideo = true
		case TrackKindAudio:
			if sawAudio {
				return nil, fmt.Errorf("only a single audio track is supported")
			}
			sawAudio = true
		}

		ssrc, ok := ExtractSSRC(media)
		if !ok {
			return nil, fmt.Errorf("media section '%s' has no ssrc attribute", media.MediaName.Media)
		}

		out = append(out, MediaSection{Kind: kind, SSRC: ssrc})
	}

	return out, nil
}

// TrackCount reports how many media sections an offer/answer carries.
// It is a thin projection of AnalyzeMediaSections for callers that only
// need the count, not the per-section SSRC/kind detail.
func TrackCount(medias []*sdp.MediaDescription) (int, error) {
	sections, err := AnalyzeMediaSections(medias)
	if err != nil {
		return 0, err
	}
	return len(sections), nil
}

// ExtractSSRC reads the `a=ssrc:<id> ...` attribute from a media
// description, as advertised by a WebRTC offer for each track it
// carries.
func ExtractSSRC(media *sdp.MediaDescription) (uint32, bool) {
	for _, attr := range media.Attributes {
		if attr.Key != "ssrc" {
			continue
		}
		fields := strings.Fields(attr.Value)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		return uint32(v), true
	}
	return 0, false
}

// KindOf maps a media section's media type to a TrackKind.
func KindOf(media *sdp.MediaDescription) (TrackKind, error) {
	switch media.MediaName.Media {
	case "video":
		return TrackKindVideo, nil
	case "audio":
		return TrackKindAudio, nil
	default:
		return 0, fmt.Errorf("unsupported media '%s'", media.MediaName.Media)
	}
}

// Canonicalize parses raw SDP text and re-marshals it through
// pion/sdp's own attribute ordering, producing the canonical byte form
// this package treats offers and answers as equivalent under. Parsing
// the canonical output again and re-marshaling it must reproduce the
// same bytes (the round-trip law encode ∘ parse is idempotent on
// well-formed SDP).
func Canonicalize(raw []byte) ([]byte, *sdp.SessionDescription, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal(raw); err != nil {
		return nil, nil, fmt.Errorf("parse SDP: %w", err)
	}

	out, err := desc.Marshal()
	if err != nil {
		return nil, nil, fmt.Errorf("encode SDP: %w", err)
	}

	return out, &desc, nil
}
