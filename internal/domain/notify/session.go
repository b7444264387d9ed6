package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

// ErrSessionClosed is returned by Start after Close.
var ErrSessionClosed = errors.New("notification session closed")

// Session binds one gate to one feed subscription.
type Session struct {
	feed sensor.Feed
	gate *Gate

	mu     sync.Mutex
	sub    sensor.Subscription
	closed bool
}

// NewSession pairs a gate with the feed it should consume.
func NewSession(feed sensor.Feed, gate *Gate) *Session {
	return &Session{feed: feed, gate: gate}
}

// Start subscribes the gate. Calling it twice keeps the first subscription.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.sub != nil {
		return nil
	}
	sub, err := s.feed.Subscribe(func(ctx context.Context, reading sensor.Reading) {
		s.gate.Handle(ctx, reading)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// Close unsubscribes; the gate state is dropped with the session. A closed
// session cannot be started again.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.closed = true
	s.mu.Unlock()
	if sub != nil {
		s.feed.Unsubscribe(sub)
	}
}

// Gate exposes the session's gate for status reads.
func (s *Session) Gate() *Gate {
	return s.gate
}
