// Package conf is the process-wide configuration singleton: load once
// at startup before any component is constructed, then broadcast
// reload notifications to subscribers assembled from it.
package conf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/docterling/corerelay/internal/logger"
)

// Conf is the top-level configuration.
type Conf struct {
	// LogLevel, LogDestinations, LogFile configure the process-wide
	// logger built from this Conf at startup.
	LogLevel        logger.Level         `yaml:"log_level"`
	LogDestinations []logger.Destination `yaml:"log_destinations"`
	LogFile         string               `yaml:"log_file"`

	// Origin is the round-robin upstream list for EdgePull.
	Origin OriginList `yaml:"origin"`

	// AVCParseSPS toggles SPS parsing on AVC sequence headers to
	// recover width/height; when false, demuxing still extracts NALUs
	// and takes profile/level from the configuration record, but leaves
	// width/height zero.
	AVCParseSPS bool `yaml:"avc_parse_sps"`

	// SessionTimeout is how long a WebRtcSession may go without
	// activity before it is expired.
	SessionTimeout Duration `yaml:"session_timeout"`

	// TWCCInterval is the tick period for building TWCC feedback.
	TWCCInterval Duration `yaml:"twcc_interval"`

	// NackCheckInterval is the tick period for re-evaluating the NACK
	// missing set and emitting retransmit requests.
	NackCheckInterval Duration `yaml:"nack_check_interval"`

	// ForwarderQueueBound is the wall-clock age bound for the edge
	// Forwarder's backpressure queue.
	ForwarderQueueBound Duration `yaml:"forwarder_queue_bound"`
}

func (c *Conf) setDefaults() {
	c.LogLevel = logger.Info
	c.LogDestinations = []logger.Destination{logger.DestinationStdout}
	c.LogFile = "corerelay.log"
	c.AVCParseSPS = true
	c.SessionTimeout = Duration(10 * time.Second)
	c.TWCCInterval = Duration(20 * time.Millisecond)
	c.NackCheckInterval = Duration(100 * time.Millisecond)
	c.ForwarderQueueBound = Duration(2 * time.Second)
}

// Validate rejects a configuration whose session timeout, TWCC or NACK
// tick interval, or forwarder queue bound is not positive. An empty
// origin list is accepted: a config with no edge-pull configured is
// valid.
func (c *Conf) Validate() error {
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}
	if c.TWCCInterval <= 0 {
		return fmt.Errorf("twcc_interval must be positive")
	}
	if c.NackCheckInterval <= 0 {
		return fmt.Errorf("nack_check_interval must be positive")
	}
	if c.ForwarderQueueBound <= 0 {
		return fmt.Errorf("forwarder_queue_bound must be positive")
	}
	return nil
}

// Load reads and decodes fpath, applying defaults first so a partial
// file only overrides what it names. An empty fpath returns defaults
// only.
func Load(fpath string) (*Conf, error) {
	c := &Conf{}
	c.setDefaults()

	if fpath != "" {
		data, err := os.ReadFile(fpath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Manager owns the process-wide Conf and its reload subscribers. It
// must be initialized before any component that reads Conf is
// constructed, and components must unsubscribe during their own
// teardown; reload handlers must only run on the main goroutine.
type Manager struct {
	mu          sync.RWMutex
	current     *Conf
	subscribers map[int]chan *Conf
	nextID      int
}

// NewManager wraps an already-loaded Conf.
func NewManager(initial *Conf) *Manager {
	return &Manager{current: initial, subscribers: map[int]chan *Conf{}}
}

// Current returns the active configuration.
func (m *Manager) Current() *Conf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers a reload channel and returns an ID to later
// Unsubscribe with. The channel receives the new Conf on every Reload.
func (m *Manager) Subscribe() (id int, ch <-chan *Conf) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := make(chan *Conf, 1)
	m.subscribers[m.nextID] = c
	return m.nextID, c
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.subscribers[id]; ok {
		close(c)
		delete(m.subscribers, id)
	}
}

// Reload replaces the active Conf and notifies every subscriber. Must
// be called from the main coroutine only.
func (m *Manager) Reload(next *Conf) {
	m.mu.Lock()
	m.current = next
	subs := make([]chan *Conf, 0, len(m.subscribers))
	for _, c := range m.subscribers {
		subs = append(subs, c)
	}
	m.mu.Unlock()

	for _, c := range subs {
		select {
		case c <- next:
		default:
		}
	}
}
