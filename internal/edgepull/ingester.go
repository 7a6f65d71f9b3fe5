package edgepull

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// IngestState is the ingester's position in the Init→Play→IngestConnected
// finite-state-machine (spec.md §4.4).
type IngestState int

const (
	StateInit IngestState = iota
	StatePlay
	StateIngestConnected
)

func (s IngestState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePlay:
		return "play"
	case StateIngestConnected:
		return "ingest-connected"
	default:
		return "unknown"
	}
}

// Sink receives demuxed upstream messages and is told through
// OnIngestStopped when ingest stops, so it can (re)publish into the
// local live source. It gets no call when ingest connects.
type Sink interface {
	OnIngestMessage(msg *CommonMessage)
	OnIngestStopped()
}

// Ingester drives one EdgeUpstream through the Init→Play→IngestConnected
// FSM: started on the first local player subscribing, stopped when the
// last one leaves.
type Ingester struct {
	Upstream      EdgeUpstream
	LB            *RoundRobinLB
	Request       ConnectRequest
	Sink          Sink
	ReconnectWait time.Duration

	mu    sync.Mutex
	state IngestState
	stop  chan struct{}
	done  chan struct{}
}

func New(upstream EdgeUpstream, lb *RoundRobinLB, req ConnectRequest, sink Sink) *Ingester {
	return &Ingester{
		Upstream:      upstream,
		LB:            lb,
		Request:       req,
		Sink:          sink,
		ReconnectWait: time.Second,
		state:         StateInit,
	}
}

func (ig *Ingester) State() IngestState {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	return ig.state
}

// OnClientPlay is the Init→Play transition: the first local subscriber
// triggers ingester.start().
func (ig *Ingester) OnClientPlay(ctx context.Context) error {
	ig.mu.Lock()
	if ig.state != StateInit {
		ig.mu.Unlock()
		return nil
	}
	ig.state = StatePlay
	ig.stop = make(chan struct{})
	ig.done = make(chan struct{})
	ig.mu.Unlock()

	go ig.run(ctx)
	return nil
}

// OnIngestPlay is Play→IngestConnected. Calling it again while already
// IngestConnected is idempotent and succeeds.
func (ig *Ingester) OnIngestPlay() error {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	switch ig.state {
	case StatePlay:
		ig.state = StateIngestConnected
		return nil
	case StateIngestConnected:
		return nil
	default:
		return fmt.Errorf("on_ingest_play called outside Play/IngestConnected (state=%s)", ig.state)
	}
}

// OnAllClientStop is Any→Init: the last local player leaving stops the
// ingester.
func (ig *Ingester) OnAllClientStop() {
	ig.mu.Lock()
	if ig.state == StateInit {
		ig.mu.Unlock()
		return
	}
	stop := ig.stop
	done := ig.done
	ig.mu.Unlock()

	close(stop)
	<-done

	ig.mu.Lock()
	ig.state = StateInit
	ig.mu.Unlock()
}

func (ig *Ingester) run(ctx context.Context) {
	defer close(ig.done)
	defer ig.Sink.OnIngestStopped()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ig.stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			return
		default:
		}

		if err := ig.Upstream.Connect(runCtx, ig.Request, ig.LB); err != nil {
			if ig.waitOrStop(runCtx) {
				return
			}
			continue
		}

		if err := ig.OnIngestPlay(); err != nil {
			ig.Upstream.Close()
			if ig.waitOrStop(runCtx) {
				return
			}
			continue
		}

		ig.pump(runCtx)

		ig.mu.Lock()
		if ig.state == StateIngestConnected {
			ig.state = StatePlay
		}
		ig.mu.Unlock()

		if ig.waitOrStop(runCtx) {
			return
		}
	}
}

// pump reads messages until the upstream errors (connection drop,
// receive timeout) or an onStatus NetStream.Play.UnpublishNotify is
// observed, then returns so the outer loop reconnects. The receive
// loop runs on its own goroutine so a blocking RecvMessage call (e.g.
// one bounded only by the upstream's own read deadline) cannot prevent
// pump from returning promptly once ctx is cancelled.
func (ig *Ingester) pump(ctx context.Context) {
	defer ig.Upstream.Close()

	msgCh := make(chan *CommonMessage)
	errCh := make(chan error, 1)

	go func() {
		for {
			msg, err := ig.Upstream.RecvMessage()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case msgCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-errCh:
			return

		case msg := <-msgCh:
			if msg.Type == MessageTypeCommand {
				cmd, err := ig.Upstream.DecodeMessage(msg)
				if err == nil && isUnpublishNotify(cmd) {
					return
				}
			}
			ig.Sink.OnIngestMessage(msg)
		}
	}
}

func isUnpublishNotify(cmd *Command) bool {
	if cmd.Name != "onStatus" {
		return false
	}
	code, _ := cmd.Params["code"].(string)
	return code == "NetStream.Play.UnpublishNotify"
}

func (ig *Ingester) waitOrStop(ctx context.Context) (stopped bool) {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(ig.ReconnectWait):
		return false
	}
}
