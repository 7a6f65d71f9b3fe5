package edgepull

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	forwarded []*CommonMessage
}

func (s *recordingSink) Forward(msg *CommonMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwarded = append(s.forwarded, msg)
	return nil
}

func (s *recordingSink) all() []*CommonMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CommonMessage{}, s.forwarded...)
}

func TestForwarderDropsOldestAudioBeforeVideo(t *testing.T) {
	sink := &recordingSink{}
	f := NewForwarder(sink, 0) // bound of 0: every enqueue past the first can trigger eviction once age > 0

	f.mu.Lock()
	f.queue = []queuedMessage{
		{msg: &CommonMessage{Type: MessageTypeAudio, Payload: []byte{0x01}}, enqueued: time.Now().Add(-time.Hour)},
		{msg: &CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x20}}, enqueued: time.Now().Add(-time.Hour)}, // inter frame, not key
	}
	f.mu.Unlock()

	f.Enqueue(&CommonMessage{Type: MessageTypeAudio, Payload: []byte{0x02}})

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.queue, 2)
	// the pre-seeded audio message (oldest) must have been evicted first.
	for _, q := range f.queue {
		require.False(t, q.msg.Type == MessageTypeAudio && q.msg.Payload[0] == 0x01)
	}
}

func TestForwarderNeverDropsKeyframe(t *testing.T) {
	sink := &recordingSink{}
	f := NewForwarder(sink, 0)

	f.mu.Lock()
	f.queue = []queuedMessage{
		{msg: &CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x17}}, enqueued: time.Now().Add(-time.Hour)}, // keyframe
	}
	f.mu.Unlock()

	f.Enqueue(&CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x17}})

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.queue, 2)
}

func TestForwarderDrainsInOrder(t *testing.T) {
	sink := &recordingSink{}
	f := NewForwarder(sink, time.Hour)
	f.Start()
	defer f.Stop()

	for i := 0; i < 5; i++ {
		f.Enqueue(&CommonMessage{Type: MessageTypeAudio, Timestamp: uint32(i)})
	}

	require.Eventually(t, func() bool {
		return len(sink.all()) == 5
	}, time.Second, time.Millisecond)

	got := sink.all()
	for i, msg := range got {
		require.Equal(t, uint32(i), msg.Timestamp)
	}
}

func TestIsKeyframeClassicAndEnhanced(t *testing.T) {
	require.True(t, isKeyframe(&CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x17}}))  // classic AVC key
	require.False(t, isKeyframe(&CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x27}})) // classic AVC inter
	require.True(t, isKeyframe(&CommonMessage{Type: MessageTypeVideo, Payload: []byte{0x90 | 0x01}}))
}
