package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// Handler receives an event delivered by a Bus.
type Handler func(ctx context.Context, topic string, event any)

type busSub struct {
	id      uint64
	pattern string
	handler Handler
}

// Bus is an in-process Publisher. Handlers run synchronously on the
// publishing goroutine, in registration order. A Bus may forward every event
// to another Publisher (NATS) after local delivery.
type Bus struct {
	mu      sync.RWMutex
	subs    []busSub
	nextID  uint64
	closed  bool
	forward Publisher
	logger  *slog.Logger
}

// NewBus creates a Bus. forward may be nil.
func NewBus(forward Publisher, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{forward: forward, logger: logger}
}

// Subscribe registers h for topics matching pattern ("*" matches one
// segment, ">" the remainder, "" everything). The returned function
// unsubscribes; calling it more than once is harmless.
func (b *Bus) Subscribe(pattern string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, busSub{id: id, pattern: pattern, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every matching handler, then forwards it.
// A forwarding failure is logged and returned; local delivery has already
// happened.
func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := b.subs
	forward := b.forward
	b.mu.RUnlock()

	for _, s := range subs {
		if s.pattern == "" || MatchTopic(s.pattern, topic) {
			s.handler(ctx, topic, event)
		}
	}
	if forward != nil {
		if err := forward.Publish(ctx, topic, event); err != nil {
			b.logger.Warn("forwarding event failed", "topic", topic, "err", err)
			return err
		}
	}
	return nil
}

// Close drops all handlers and closes the forward publisher.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subs = nil
	forward := b.forward
	b.mu.Unlock()
	if forward != nil {
		return forward.Close()
	}
	return nil
}

// Listen subscribes a typed handler. Events whose payload is not a T (or *T)
// are skipped.
func Listen[T any](b *Bus, pattern string, fn func(ctx context.Context, topic string, event T)) func() {
	return b.Subscribe(pattern, func(ctx context.Context, topic string, event any) {
		switch ev := event.(type) {
		case T:
			fn(ctx, topic, ev)
		case *T:
			if ev != nil {
				fn(ctx, topic, *ev)
			}
		}
	})
}

// Fanout publishes every event to each publisher in order.
type Fanout []Publisher

// Publish sends event to all publishers and joins their errors.
func (f Fanout) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all publishers and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MatchTopic matches a dot-separated topic against a pattern.
// Supports "*" as a single-segment wildcard and ">" as a multi-segment
// suffix wildcard (NATS-style).
func MatchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			// ">" matches one or more remaining segments.
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}

	return len(patParts) == len(topParts)
}
