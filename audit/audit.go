// Package audit publishes admin actions as domain events.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/metrics"
)

const (
	NGOVerified    = "ngo.verified"
	NGORejected    = "ngo.rejected"
	EventCreated   = "event.created"
	EventDeleted   = "event.deleted"
	AccountDeleted = "account.deleted"
	AccountUpdated = "account.updated"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Actor      string         `json:"actor"`
	Subject    string         `json:"subject"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// New fills in the id and timestamp of an event.
func New(typ, actor, subject string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Actor:      actor,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Kafka writes events to a topic, keyed by subject so events about one
// record stay ordered.
type Kafka struct {
	writer *kafkago.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &Kafka{writer: w}
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.Subject),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Emit publishes ev and logs a failure instead of returning it. The admin
// action that produced the event has already been committed.
func Emit(ctx context.Context, p Publisher, log *zap.SugaredLogger, ev Event) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err := p.Publish(ctx, ev); err != nil {
		outcome = "error"
		log.Warnw("audit publish failed", "type", ev.Type, "subject", ev.Subject, "error", err)
	}
	metrics.AuditPublished.WithLabelValues(ev.Type, outcome).Inc()
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
