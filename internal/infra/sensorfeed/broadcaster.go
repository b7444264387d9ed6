package sensorfeed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/pkg/metrics"
)

// ErrClosed is returned when subscribing to or publishing on a closed feed.
var ErrClosed = errors.New("sensor feed closed")

// Broadcaster is an in-process feed. Every subscription has its own delivery
// goroutine, so handlers run serially per subscriber and readings arrive in
// publish order.
type Broadcaster struct {
	logger *slog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	subs   map[string]*subscriber
	latest *sensor.Reading
	closed bool
}

// NewBroadcaster constructs an empty feed.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broadcaster{
		logger: logger.With("component", "sensorfeed.broadcaster"),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]*subscriber),
	}
}

// Subscribe registers handler. The current reading, if any, is delivered first.
func (b *Broadcaster) Subscribe(handler sensor.Handler) (sensor.Subscription, error) {
	if handler == nil {
		return nil, errors.New("sensor handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := newSubscriber(uuid.NewString(), handler)
	if b.latest != nil {
		sub.enqueue(*b.latest)
	}
	b.subs[sub.id] = sub
	go sub.run(b.ctx)
	return sub, nil
}

// Unsubscribe stops delivery. A handler already running is allowed to finish.
func (b *Broadcaster) Unsubscribe(s sensor.Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	sub, ok := b.subs[s.ID()]
	delete(b.subs, s.ID())
	b.mu.Unlock()
	if ok {
		sub.stop()
	}
}

// Publish replaces the latest reading and fans it out.
func (b *Broadcaster) Publish(_ context.Context, reading sensor.Reading) error {
	if reading.ReceivedAt.IsZero() {
		reading.ReceivedAt = b.now().UTC()
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	latest := reading
	b.latest = &latest
	for _, sub := range b.subs {
		sub.enqueue(reading)
	}
	subscribers := len(b.subs)
	b.mu.Unlock()

	source := reading.Source
	if source == "" {
		source = "unknown"
	}
	metrics.SensorReadingsTotal.WithLabelValues(source).Inc()
	b.logger.Debug("sensor reading published", "source", source, "subscribers", subscribers)
	return nil
}

// Latest returns the most recent reading.
func (b *Broadcaster) Latest(_ context.Context) (sensor.Reading, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.latest == nil {
		return sensor.Reading{}, false, nil
	}
	return *b.latest, true, nil
}

// Subscribers reports the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops every subscription and cancels in-flight handler contexts.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[string]*subscriber)
	b.mu.Unlock()

	b.cancel()
	for _, sub := range subs {
		sub.stop()
	}
}

type subscriber struct {
	id      string
	handler sensor.Handler

	mu      sync.Mutex
	pending []sensor.Reading
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(id string, handler sensor.Handler) *subscriber {
	return &subscriber{
		id:      id,
		handler: handler,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *subscriber) ID() string { return s.id }

func (s *subscriber) enqueue(reading sensor.Reading) {
	s.mu.Lock()
	s.pending = append(s.pending, reading)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.handler(ctx, next)
		}
	}
}
