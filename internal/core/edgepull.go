package core

import (
	"sync"

	"github.com/docterling/corerelay/internal/edgepull"
)

// discardSink drops every message; it stands in until a local publish
// path exists to re-publish ingested edge-pull messages into.
type discardSink struct{}

func (discardSink) OnIngestMessage(msg *edgepull.CommonMessage) {}
func (discardSink) OnIngestStopped()                            {}

// IngestManager lazily creates one Ingester per stream key, sharing the
// process-wide configured origin list and its round-robin balancer.
type IngestManager struct {
	lb *edgepull.RoundRobinLB

	mu    sync.Mutex
	byKey map[string]*edgepull.Ingester
}

// NewIngestManager builds a manager over lb; lb is nil-safe — callers
// with no configured origin list simply never get a working ingester,
// matching the teacher's "edge-pull is only active if an origin is
// configured" behavior.
func NewIngestManager(lb *edgepull.RoundRobinLB) *IngestManager {
	return &IngestManager{lb: lb, byKey: map[string]*edgepull.Ingester{}}
}

// Get returns the Ingester for key, creating it on first use.
func (m *IngestManager) Get(key string, req edgepull.ConnectRequest) *edgepull.Ingester {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ig, ok := m.byKey[key]; ok {
		return ig
	}

	ig := edgepull.New(&edgepull.RTMPUpstream{}, m.lb, req, discardSink{})
	m.byKey[key] = ig
	return ig
}
