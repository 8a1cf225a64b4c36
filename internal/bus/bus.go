package bus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cskr/pubsub"
)

const defaultCapacity = 128

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus fans snapshots, modem status and AT traffic out to subscribers.
// Publishing after Close is dropped.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger
	quiet  map[string]struct{}

	mu     sync.RWMutex
	closed bool
}

// Option tunes a PubSubBus.
type Option func(*PubSubBus)

// WithQuietTopics skips debug logging for high-volume topics.
func WithQuietTopics(topics ...string) Option {
	return func(b *PubSubBus) {
		for _, topic := range topics {
			b.quiet[topic] = struct{}{}
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}
	b := &PubSubBus{
		ps:     pubsub.New(defaultCapacity),
		logger: logger,
		quiet:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	if _, quiet := b.quiet[topic]; !quiet {
		b.logger.Debug("publish", "topic", topic, "payload_type", payloadType(msg))
	}
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topic string) Subscription {
	ch := b.ps.Sub(topic)
	b.logger.Debug("subscribe", "topic", topic)

	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")

		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

// Close shuts the bus down and closes every subscription. It is safe to call twice.
func (b *PubSubBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%T", v)
}
