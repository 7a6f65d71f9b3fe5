// Package edgepull implements the edge-pull ingester: on the first
// local subscriber to a stream with no local publisher, it pulls the
// stream from an upstream RTMP or HTTP-FLV origin, chosen round-robin
// from a configured origin list, and forwards demuxed messages into
// the local live source.
package edgepull

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

// Origin is one upstream host:port this package can pull from.
type Origin struct {
	Host string
	Port int
}

func (o Origin) String() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// RoundRobinLB selects origins from a fixed list in round-robin order.
// Safe for concurrent use: each call to Select returns a distinct,
// monotonically advancing index even under concurrent callers.
type RoundRobinLB struct {
	origins []Origin
	next    atomic.Uint64

	lastMu sync.RWMutex
	last   Origin
}

// NewRoundRobinLB builds a load balancer over origins, in the order
// given. At least one origin is required.
func NewRoundRobinLB(origins []Origin) (*RoundRobinLB, error) {
	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one origin is required")
	}
	lb := &RoundRobinLB{origins: append([]Origin{}, origins...)}
	return lb, nil
}

// Select advances the round-robin counter and returns the next origin.
func (lb *RoundRobinLB) Select() Origin {
	idx := lb.next.Add(1) - 1
	o := lb.origins[idx%uint64(len(lb.origins))]

	lb.lastMu.Lock()
	lb.last = o
	lb.lastMu.Unlock()

	return o
}

// Selected returns the most recently selected origin and whether one
// has been selected yet.
func (lb *RoundRobinLB) Selected() (Origin, bool) {
	lb.lastMu.RLock()
	defer lb.lastMu.RUnlock()
	if lb.last == (Origin{}) {
		return Origin{}, false
	}
	return lb.last, true
}
