package ws

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	failSend bool
	closed   bool
}

func (s *recordingSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("send failed")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *recordingSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSubscriber) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func (s *recordingSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestHubBroadcastByTopic(t *testing.T) {
	hub := NewHub(0)
	firehose := &recordingSubscriber{}
	aliceOnly := &recordingSubscriber{}
	hub.Register(TopicAll, firehose)
	hub.Register("alice", aliceOnly)

	hub.Broadcast(TopicAll, []byte("event-1"))
	hub.Broadcast("alice", []byte("event-2"))
	hub.Broadcast("bob", []byte("event-3"))

	waitFor(t, func() bool { return firehose.received() == 1 && aliceOnly.received() == 1 })
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub(0)
	failing := &recordingSubscriber{failSend: true}
	healthy := &recordingSubscriber{}
	hub.Register(TopicAll, failing)
	hub.Register(TopicAll, healthy)

	hub.Broadcast(TopicAll, []byte("event"))
	waitFor(t, func() bool { return failing.isClosed() && healthy.received() == 1 })

	hub.Broadcast(TopicAll, []byte("again"))
	waitFor(t, func() bool { return healthy.received() == 2 })
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(0)
	sub := &recordingSubscriber{}
	hub.Register(TopicAll, sub)
	hub.Unregister(TopicAll, sub)

	hub.Broadcast(TopicAll, []byte("event"))
	time.Sleep(20 * time.Millisecond)
	if sub.received() != 0 {
		t.Fatalf("unregistered subscriber received %d payloads", sub.received())
	}
}

func TestHubBroadcastBuffer(t *testing.T) {
	hub := NewHub(8)
	if got := cap(hub.broadcast); got != 8 {
		t.Fatalf("expected broadcast capacity 8, got %d", got)
	}

	hub = NewHub(-1)
	if got := cap(hub.broadcast); got != 0 {
		t.Fatalf("expected unbuffered channel for negative size, got %d", got)
	}
}
