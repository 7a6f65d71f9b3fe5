package flv

import (
	"fmt"

	"github.com/docterling/corerelay/internal/codecs/h264"
	"github.com/docterling/corerelay/internal/codecs/h265"
)

func sign24(hi, mid, lo byte) int32 {
	v := int32(hi)<<16 | int32(mid)<<8 | int32(lo)
	if v&0x800000 != 0 {
		v |= ^int32(0xFFFFFF)
	}
	return v
}

// OnVideo demuxes one FLV video tag, classic or enhanced-RTMP.
// AvcParseSPS enables eager SPS parsing on sequence headers, per
// avc_parse_sps.
func OnVideo(cfg *VideoCodecConfig, avcParseSPS bool, timestamp int64, bytes []byte, size int) (*ParsedPacket, error) {
	if size < 1 || len(bytes) < 1 {
		return nil, fmt.Errorf("video tag too short")
	}

	var frameType VideoFrameType
	var packetType VideoPacketType
	var codecID CodecID
	var cts int32
	var payload []byte

	extHeader := bytes[0]&0x80 != 0

	if extHeader {
		packetType = VideoPacketType(bytes[0] & 0x0F)
		frameType = VideoFrameType((bytes[0] >> 4) & 0x07)

		if len(bytes) < 5 {
			return nil, fmt.Errorf("enhanced video tag too short")
		}
		fourCC := string(bytes[1:5])

		switch fourCC {
		case "avc1":
			codecID = CodecIDAVC
		case fourCCHEVC:
			codecID = CodecIDHEVC
		default:
			return nil, fmt.Errorf("unsupported fourCC: %q", fourCC)
		}

		pos := 5
		switch packetType {
		case VideoPacketTypeCodedFrames:
			if len(bytes) < 8 {
				return nil, fmt.Errorf("enhanced video tag too short for composition time")
			}
			cts = sign24(bytes[5], bytes[6], bytes[7])
			pos = 8
		case VideoPacketTypeCodedFramesX:
			// composition time omitted; CTS stays 0
		}
		payload = bytes[pos:]
	} else {
		codecID = CodecID(bytes[0] & 0x0F)
		frameType = VideoFrameType((bytes[0] >> 4) & 0x0F)

		if len(bytes) < 5 {
			return nil, fmt.Errorf("video tag too short")
		}
		packetType = VideoPacketType(bytes[1])
		cts = sign24(bytes[2], bytes[3], bytes[4])
		payload = bytes[5:]
	}

	if frameType == VideoFrameTypeInfo {
		cfg.warn("dropping info frame")
		return nil, nil
	}

	switch codecID {
	case CodecIDAVC, CodecIDHEVC:
	default:
		return nil, fmt.Errorf("unsupported video codec: %d", codecID)
	}

	p := &ParsedPacket{
		DTS:             timestamp,
		CTS:             int64(cts),
		VideoFrameType:  frameType,
		VideoPacketType: packetType,
	}

	switch packetType {
	case VideoPacketTypeSequenceStart:
		if codecID == CodecIDAVC {
			if err := demuxAVCSequenceHeader(cfg, payload, avcParseSPS); err != nil {
				return nil, err
			}
		} else {
			if err := demuxHVCCSequenceHeader(cfg, payload); err != nil {
				return nil, err
			}
		}
		p.HasSPSPPS = true
		return p, nil

	case VideoPacketTypeSequenceEnd:
		return p, nil

	case VideoPacketTypeCodedFrames, VideoPacketTypeCodedFramesX:
		if err := videoNALUDemux(cfg, codecID, payload, p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported video packet type: %d", packetType)
	}
}

// videoNALUDemux implements NALU demux selection: HEVC always uses the
// length-prefixed IBMF path; AVC remembers the session's last-seen
// format, trying Annex-B first when unknown and rewinding to IBMF on
// failure.
func videoNALUDemux(cfg *VideoCodecConfig, codecID CodecID, payload []byte, p *ParsedPacket) error {
	lengthSize := cfg.NALULengthSize
	if lengthSize == 0 {
		lengthSize = 4
	}

	var nalus [][]byte

	if codecID == CodecIDHEVC {
		decoded, err := h264.DecodeLengthPrefixed(payload, lengthSize)
		if err != nil {
			return fmt.Errorf("IBMF demux: %w", err)
		}
		nalus = decoded
	} else {
		switch cfg.format {
		case payloadFormatAnnexB:
			decoded, err := h264.DecodeAnnexB(payload)
			if err != nil {
				return fmt.Errorf("Annex-B demux: %w", err)
			}
			nalus = decoded

		case payloadFormatIBMF:
			decoded, err := h264.DecodeLengthPrefixed(payload, lengthSize)
			if err != nil {
				return fmt.Errorf("IBMF demux: %w", err)
			}
			nalus = decoded

		default:
			if h264.IsAnnexB(payload) {
				decoded, err := h264.DecodeAnnexB(payload)
				if err == nil {
					cfg.format = payloadFormatAnnexB
					nalus = decoded
					break
				}
			}

			decoded, err := h264.DecodeLengthPrefixed(payload, lengthSize)
			if err != nil {
				return fmt.Errorf("NALU demux: neither Annex-B nor IBMF framing recognized: %w", err)
			}
			cfg.format = payloadFormatIBMF
			nalus = decoded
		}
	}

	for i, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		if !p.addSample(NALUSample(nalu)) {
			break
		}

		if i == 0 {
			if codecID == CodecIDAVC {
				p.FirstNALType = int(h264.NALUTypeOf(nalu[0]))
			} else {
				p.FirstNALType = int(h265.NALUTypeOf(nalu[0]))
			}
		}

		if codecID == CodecIDAVC {
			switch h264.NALUTypeOf(nalu[0]) {
			case h264.NALUTypeIDR:
				p.HasIDR = true
			case h264.NALUTypeSPS, h264.NALUTypePPS:
				p.HasSPSPPS = true
			case h264.NALUTypeAccessUnitDelimiter:
				p.HasAUD = true
			}
		} else {
			t := h265.NALUTypeOf(nalu[0])
			if t >= h265.NALUTypeBLAWLP && t <= h265.NALUTypeCRANUT {
				p.HasIDR = true
			}
			switch t {
			case h265.NALUTypeVPS, h265.NALUTypeSPS, h265.NALUTypePPS:
				p.HasSPSPPS = true
			case h265.NALUTypeAUD:
				p.HasAUD = true
			}
		}
	}

	return nil
}
