package edgepull

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPFLVPort = 8080

// flvTagAudio, flvTagVideo, flvTagScript are the FLV tag type byte
// values (FLV file-format spec §Annex E.4.1).
const (
	flvTagAudio  = 8
	flvTagVideo  = 9
	flvTagScript = 18
)

// HTTPFLVUpstream pulls `GET /<app>/<stream>.flv<params>` from an
// origin and decodes the FLV file stream in its chunked HTTP/1.1 body
// into CommonMessages.
type HTTPFLVUpstream struct {
	Client *http.Client

	resp     *http.Response
	reader   *bufio.Reader
	selected Origin
}

var _ EdgeUpstream = (*HTTPFLVUpstream)(nil)

func (u *HTTPFLVUpstream) Connect(ctx context.Context, req ConnectRequest, lb *RoundRobinLB) error {
	origin := lb.Select()

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("http://%s/%s/%s.flv%s", origin, req.App, req.Stream, req.Params)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http-flv upstream connect to %s: %w", origin, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("http-flv upstream %s returned status %d", origin, resp.StatusCode)
	}

	u.resp = resp
	u.reader = bufio.NewReader(resp.Body)
	u.selected = origin

	if err := u.readFileHeader(); err != nil {
		resp.Body.Close()
		return err
	}

	return nil
}

// readFileHeader consumes and validates the 9-byte FLV file header
// ("FLV" + version + flags + header size).
func (u *HTTPFLVUpstream) readFileHeader() error {
	hdr := make([]byte, 9)
	if _, err := io.ReadFull(u.reader, hdr); err != nil {
		return fmt.Errorf("reading FLV file header: %w", err)
	}
	if hdr[0] != 'F' || hdr[1] != 'L' || hdr[2] != 'V' {
		return fmt.Errorf("not an FLV stream")
	}
	return nil
}

// RecvMessage reads one previous-tag-size + tag-header + payload unit
// and wraps it into a CommonMessage, matching the RTMP common-message
// shape so the ingester can treat both upstreams uniformly.
func (u *HTTPFLVUpstream) RecvMessage() (*CommonMessage, error) {
	if u.reader == nil {
		return nil, fmt.Errorf("not connected")
	}

	var prevTagSize [4]byte
	if _, err := io.ReadFull(u.reader, prevTagSize[:]); err != nil {
		return nil, err
	}

	header := make([]byte, 11)
	if _, err := io.ReadFull(u.reader, header); err != nil {
		return nil, err
	}

	tagType := header[0]
	dataSize := uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3])
	tsLo := uint32(header[4])<<16 | uint32(header[5])<<8 | uint32(header[6])
	tsHi := uint32(header[7])
	timestamp := tsHi<<24 | tsLo
	streamID := uint32(header[8])<<16 | uint32(header[9])<<8 | uint32(header[10])

	payload := make([]byte, dataSize)
	if _, err := io.ReadFull(u.reader, payload); err != nil {
		return nil, err
	}

	msg := &CommonMessage{StreamID: streamID, Payload: payload}
	switch tagType {
	case flvTagAudio:
		msg.Type = MessageTypeAudio
		msg.Timestamp = timestamp
	case flvTagVideo:
		msg.Type = MessageTypeVideo
		msg.Timestamp = timestamp
	case flvTagScript:
		msg.Type = MessageTypeScript
		msg.Timestamp = 0
	default:
		return nil, fmt.Errorf("unsupported FLV tag type %d", tagType)
	}

	return msg, nil
}

func (u *HTTPFLVUpstream) DecodeMessage(msg *CommonMessage) (*Command, error) {
	if msg.Type != MessageTypeScript {
		return nil, fmt.Errorf("message is not a script/command tag")
	}
	return &Command{Name: "onMetaData"}, nil
}

func (u *HTTPFLVUpstream) SetRecvTimeout(d time.Duration) {
	if conn, ok := u.resp.Body.(interface{ SetReadDeadline(time.Time) error }); ok {
		_ = conn.SetReadDeadline(time.Now().Add(d))
	}
}

func (u *HTTPFLVUpstream) KbpsSample() float64 { return 0 }

func (u *HTTPFLVUpstream) Selected() (Origin, bool) {
	return u.selected, u.selected != (Origin{})
}

func (u *HTTPFLVUpstream) Close() error {
	if u.resp == nil {
		return nil
	}
	return u.resp.Body.Close()
}
