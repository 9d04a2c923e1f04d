package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaPublisherFlushesOnClose(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, 8)
	p.Start()

	for i := 0; i < 3; i++ {
		env, err := NewEnvelope("market-api", OrderCreated, "12", OrderCreatedPayload{OrderID: 12})
		if err != nil {
			t.Fatalf("envelope: %v", err)
		}
		p.Publish(context.Background(), "12", env)
	}
	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 3 || !w.closed {
		t.Fatalf("msgs=%d closed=%v", len(w.msgs), w.closed)
	}
	var env Envelope
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.EventType != OrderCreated || env.EventVersion != 1 || string(w.msgs[0].Key) != "12" {
		t.Fatalf("env=%+v key=%s", env, w.msgs[0].Key)
	}
	var payload OrderCreatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.OrderID != 12 {
		t.Fatalf("payload=%+v err=%v", payload, err)
	}
}

func TestPublishDropsWhenInboxFull(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{}, 1)
	env, _ := NewEnvelope("market-api", PaymentCompleted, "1", PaymentCompletedPayload{})
	p.Publish(context.Background(), "1", env)
	p.Publish(context.Background(), "1", env)
	if len(p.inbox) != 1 {
		t.Fatalf("inbox=%d", len(p.inbox))
	}
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, 8)
	p.Start()
	p.Close()
	p.WaitClosed()

	env, _ := NewEnvelope("market-api", OrderStatusChanged, "3", OrderStatusChangedPayload{OrderID: 3})
	p.Publish(context.Background(), "3", env)
	p.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 0 || !w.closed {
		t.Fatalf("msgs=%d closed=%v", len(w.msgs), w.closed)
	}
}
