package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher emits domain events. Publishing never reports failure to the caller.
type Publisher interface {
	Publish(ctx context.Context, key string, env Envelope)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues messages on a buffered channel drained by one goroutine.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf)
}

func newKafkaPublisher(w messageWriter, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *KafkaPublisher) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				log.Printf("[events] write failed key=%s err=%v", m.Key, err)
			}
		}
		if err := p.w.Close(); err != nil {
			log.Printf("[events] writer close err=%v", err)
		}
	}()
}

func (p *KafkaPublisher) Publish(_ context.Context, key string, env Envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		log.Printf("[events] marshal failed type=%s err=%v", env.EventType, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		log.Printf("[events] publisher closed, dropping type=%s key=%s", env.EventType, key)
		return
	}
	select {
	case p.inbox <- msg:
	default:
		log.Printf("[events] inbox full, dropping type=%s key=%s", env.EventType, key)
	}
}

// Close stops accepting messages; the loop flushes what is queued and exits.
// Later calls to Publish drop their event.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the queued messages are flushed.
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }

// Noop drops every event; used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, Envelope) {}
