package edgepull

import (
	"sync"
	"time"

	"github.com/docterling/corerelay/internal/flv"
)

const minIntervalBetweenDropWarnings = time.Second

// ForwarderSink drains messages queued by a Forwarder, typically a
// SimpleRtmpClient connected to the origin.
type ForwarderSink interface {
	Forward(msg *CommonMessage) error
}

type queuedMessage struct {
	msg      *CommonMessage
	enqueued time.Time
}

// Forwarder is the publish-edge symmetric path: when a local edge node
// receives a publish connection destined for an origin, it enqueues
// messages here and drains them into the origin via Sink. The queue is
// bounded by wall-clock age rather than item count; when the oldest
// queued item would exceed Bound, the forwarder drops the oldest audio
// message first, then the oldest non-keyframe video message, to make
// room rather than blocking the publisher.
type Forwarder struct {
	Sink  ForwarderSink
	Bound time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []queuedMessage
	closed bool

	warnMu       sync.Mutex
	lastWarnedAt time.Time
	onDropWarn   func(kind string)
}

// NewForwarder creates a Forwarder draining into sink with the given
// wall-clock bound.
func NewForwarder(sink ForwarderSink, bound time.Duration) *Forwarder {
	f := &Forwarder{Sink: sink, Bound: bound}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Start begins draining the queue into Sink in a background goroutine.
func (f *Forwarder) Start() {
	go f.run()
}

// Stop closes the queue and wakes the drain goroutine, which forwards
// what is still queued and then exits. Stop does not wait for it.
func (f *Forwarder) Stop() {
	f.mu.Lock()
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Enqueue adds msg to the tail of the queue, evicting the oldest
// audio (preferred) or oldest non-keyframe video message if the
// queue's age span would otherwise exceed Bound.
func (f *Forwarder) Enqueue(msg *CommonMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	f.queue = append(f.queue, queuedMessage{msg: msg, enqueued: now})

	if len(f.queue) > 1 && now.Sub(f.queue[0].enqueued) > f.Bound {
		f.evictOne()
	}

	f.cond.Signal()
}

// evictOne drops one message per the oldest-audio-then-non-keyframe-
// video policy; returns false if nothing eligible remains (the queue
// holds only keyframes/script tags, in which case growth continues
// rather than discarding a keyframe).
func (f *Forwarder) evictOne() bool {
	for i, q := range f.queue {
		if q.msg.Type == MessageTypeAudio {
			f.remove(i)
			f.warnDrop("audio")
			return true
		}
	}
	for i, q := range f.queue {
		if q.msg.Type == MessageTypeVideo && !isKeyframe(q.msg) {
			f.remove(i)
			f.warnDrop("video")
			return true
		}
	}
	return false
}

func (f *Forwarder) remove(i int) {
	f.queue = append(f.queue[:i], f.queue[i+1:]...)
}

func (f *Forwarder) warnDrop(kind string) {
	if f.onDropWarn == nil {
		return
	}
	f.warnMu.Lock()
	defer f.warnMu.Unlock()
	now := time.Now()
	if now.Sub(f.lastWarnedAt) >= minIntervalBetweenDropWarnings {
		f.lastWarnedAt = now
		f.onDropWarn(kind)
	}
}

func (f *Forwarder) run() {
	for {
		f.mu.Lock()
		for len(f.queue) == 0 && !f.closed {
			f.cond.Wait()
		}
		if len(f.queue) == 0 && f.closed {
			f.mu.Unlock()
			return
		}
		item := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		_ = f.Sink.Forward(item.msg)
	}
}

// isKeyframe inspects a video CommonMessage's FLV tag byte to decide
// whether it carries a keyframe, without running it through the full
// flv demuxer.
func isKeyframe(msg *CommonMessage) bool {
	if len(msg.Payload) == 0 {
		return false
	}
	b := msg.Payload[0]
	if b&0x80 != 0 {
		return flv.VideoFrameType((b>>4)&0x07) == flv.VideoFrameTypeKey
	}
	return flv.VideoFrameType((b>>4)&0x0F) == flv.VideoFrameTypeKey
}
