package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/docterling/corerelay/internal/edgepull"
)

// OriginProtocol selects the default port applied to an origin entry
// that omits one.
type OriginProtocol int

const (
	OriginProtocolRTMP OriginProtocol = iota
	OriginProtocolHTTPFLV
)

func defaultPort(p OriginProtocol) int {
	if p == OriginProtocolHTTPFLV {
		return 8080
	}
	return 1935
}

// OriginList is a round-robin origin list, unmarshaled from the
// `origin` directive: a comma-separated list of `host[:port]` entries.
// A missing port defaults to 1935 for RTMP, 8080 for HTTP-FLV.
type OriginList []edgepull.Origin

// UnmarshalYAML implements yaml.Unmarshaler. The protocol used to pick
// a default port is fixed at RTMP here; HTTP-FLV configs parse the
// same string list via ParseOriginList directly, since the port
// default depends on which upstream the directive configures.
func (o *OriginList) UnmarshalYAML(unmarshal func(any) error) error {
	var in string
	if err := unmarshal(&in); err != nil {
		return err
	}
	origins, err := ParseOriginList(in, OriginProtocolRTMP)
	if err != nil {
		return err
	}
	*o = origins
	return nil
}

// ParseOriginList parses a comma-separated `host[:port]` list.
func ParseOriginList(in string, proto OriginProtocol) (OriginList, error) {
	if strings.TrimSpace(in) == "" {
		return nil, fmt.Errorf("origin list must not be empty")
	}

	var out OriginList
	for _, entry := range strings.Split(in, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(entry)
		if err != nil {
			host = entry
			portStr = ""
		}

		port := defaultPort(proto)
		if portStr != "" {
			port, err = strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid port in origin %q: %w", entry, err)
			}
		}

		out = append(out, edgepull.Origin{Host: host, Port: port})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("origin list must not be empty")
	}

	return out, nil
}
