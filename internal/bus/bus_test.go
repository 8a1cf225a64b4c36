package bus

import (
	"testing"
	"time"

	"github.com/detekto/cellwatch/internal/logging"
)

func newTestBus(opts ...Option) *PubSubBus {
	return New(logging.Discard(), opts...)
}

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	snapshots := b.Subscribe("signal.snapshot")
	status := b.Subscribe("modem.status")
	b.Publish("signal.snapshot", 42)

	select {
	case got := <-snapshots:
		if got != 42 {
			t.Fatalf("expected 42, got %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
	select {
	case got := <-status:
		t.Fatalf("expected no message on other topic, got %#v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseIsIdempotentAndDropsLatePublishes(t *testing.T) {
	b := newTestBus(WithQuietTopics("at.raw.in"))
	sub := b.Subscribe("at.raw.in")

	b.Close()
	b.Close()
	b.Publish("at.raw.in", "OK")
	b.Unsubscribe(sub)

	select {
	case _, ok := <-sub:
		if ok {
			t.Fatalf("expected subscription closed without messages")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected subscription to be closed by shutdown")
	}
}

func TestPayloadType(t *testing.T) {
	if got := payloadType(nil); got != "<nil>" {
		t.Fatalf("unexpected nil payload type %q", got)
	}
	if got := payloadType("x"); got != "string" {
		t.Fatalf("unexpected payload type %q", got)
	}
}
