package webrtcsession

import (
	"testing"

	"github.com/pion/sdp/v3"
	"github.com/stretchr/testify/require"
)

const testOfferSDP = "v=0\r\n" +
	"o=- 1 1 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=ssrc:11111 cname:x\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=ssrc:22222 cname:x\r\n"

func TestCanonicalizeRoundTripIsIdempotent(t *testing.T) {
	once, _, err := Canonicalize([]byte(testOfferSDP))
	require.NoError(t, err)

	twice, _, err := Canonicalize(once)
	require.NoError(t, err)

	require.Equal(t, once, twice)
}

func TestCanonicalizeRejectsMalformedSDP(t *testing.T) {
	_, _, err := Canonicalize([]byte("not sdp at all"))
	require.Error(t, err)
}

func TestAnalyzeMediaSectionsExtractsKindAndSSRC(t *testing.T) {
	_, desc, err := Canonicalize([]byte(testOfferSDP))
	require.NoError(t, err)

	sections, err := AnalyzeMediaSections(desc.MediaDescriptions)
	require.NoError(t, err)
	require.Equal(t, []MediaSection{
		{Kind: TrackKindVideo, SSRC: 11111},
		{Kind: TrackKindAudio, SSRC: 22222},
	}, sections)
}

func TestAnalyzeMediaSectionsRejectsMissingSSRC(t *testing.T) {
	media := &sdp.MediaDescription{MediaName: sdp.MediaName{Media: "video"}}
	_, err := AnalyzeMediaSections([]*sdp.MediaDescription{media})
	require.Error(t, err)
}

func TestAnalyzeMediaSectionsRejectsDuplicateVideo(t *testing.T) {
	v1 := &sdp.MediaDescription{
		MediaName:  sdp.MediaName{Media: "video"},
		Attributes: []sdp.Attribute{{Key: "ssrc", Value: "1 cname:x"}},
	}
	v2 := &sdp.MediaDescription{
		MediaName:  sdp.MediaName{Media: "video"},
		Attributes: []sdp.Attribute{{Key: "ssrc", Value: "2 cname:x"}},
	}
	_, err := AnalyzeMediaSections([]*sdp.MediaDescription{v1, v2})
	require.Error(t, err)
}

func TestTrackCountMatchesAnalyzeMediaSections(t *testing.T) {
	_, desc, err := Canonicalize([]byte(testOfferSDP))
	require.NoError(t, err)

	n, err := TrackCount(desc.MediaDescriptions)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestKindOfUnsupportedMedia(t *testing.T) {
	media := &sdp.MediaDescription{MediaName: sdp.MediaName{Media: "application"}}
	_, err := KindOf(media)
	require.Error(t, err)
}
