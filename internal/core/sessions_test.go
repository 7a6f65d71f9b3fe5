package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docterling/corerelay/internal/webrtcsession"
)

func TestSessionRegistryExpireAllRemovesStaleSessions(t *testing.T) {
	reg := NewSessionRegistry()
	s := webrtcsession.New(reg, "rtmp://x/live/test", time.Millisecond)
	reg.Add(s)
	require.Equal(t, 1, reg.Len())

	time.Sleep(5 * time.Millisecond)
	reg.ExpireAll()

	require.Equal(t, 0, reg.Len())
	_, ok := reg.Get(s.ID)
	require.False(t, ok)
}

func TestSessionRegistryKeepsAliveSessions(t *testing.T) {
	reg := NewSessionRegistry()
	s := webrtcsession.New(reg, "rtmp://x/live/test", time.Minute)
	reg.Add(s)

	reg.ExpireAll()
	require.Equal(t, 1, reg.Len())
}
