package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

type emitted struct {
	channelID string
	event     string
	payload   any
}

// recordingNotifier captures every emitted event
type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *recordingNotifier) Emit(channelID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{channelID: channelID, event: event, payload: payload})
}

func (n *recordingNotifier) forChannel(channelID string) []emitted {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []emitted
	for _, e := range n.events {
		if e.channelID == channelID {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) named(channelID, event string) []emitted {
	var out []emitted
	for _, e := range n.forChannel(channelID) {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// gatedSuggester blocks each call until its payload is released
type gatedSuggester struct {
	mu     sync.Mutex
	gates  map[string]chan struct{}
	calls  []string
	active atomic.Int32
	peak   atomic.Int32
}

func newGatedSuggester() *gatedSuggester {
	return &gatedSuggester{gates: make(map[string]chan struct{})}
}

func (s *gatedSuggester) gate(payload string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[payload]
	if !ok {
		g = make(chan struct{})
		s.gates[payload] = g
	}
	return g
}

func (s *gatedSuggester) release(payload string) {
	close(s.gate(payload))
}

func (s *gatedSuggester) called() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *gatedSuggester) GetSuggestion(ctx context.Context, code string) (*suggest.Suggestion, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, code)
	s.mu.Unlock()

	select {
	case <-s.gate(code):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &suggest.Suggestion{Text: "suggestion for " + code, Attempts: 1}, nil
}

// suggesterFunc adapts a function to the Suggester interface
type suggesterFunc func(ctx context.Context, code string) (*suggest.Suggestion, error)

func (f suggesterFunc) GetSuggestion(ctx context.Context, code string) (*suggest.Suggestion, error) {
	return f(ctx, code)
}

var errStub = errors.New("stub failure")

func testQueueConfig() Config {
	return Config{
		SecondsPerItem:  3,
		RedispatchDelay: time.Millisecond,
	}
}
