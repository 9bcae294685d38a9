package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"curriculum-rag-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber listens for events on the curriculum stream.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe consumes events of eventType until ctx is done. An empty
// durableName creates an ephemeral consumer that only sees new events.
func (s *Subscriber) Subscribe(ctx context.Context, eventType, durableName string, handler EventHandler) error {
	cfg := jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subjectFor(eventType),
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durableName == "" {
		cfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := decodeEvent(msg.Subject(), msg.Data())
		if err != nil {
			log.Printf("Error unmarshalling event data: %v", err)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	<-ctx.Done()
	consumeCtx.Stop()
	return nil
}

func decodeEvent(subject string, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, err
	}

	occurredAt := time.Now()
	if raw, ok := payload["occurred_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			occurredAt = t
		}
	}

	return events.BaseEvent{
		Type:       strings.TrimPrefix(subject, SubjectPrefix+"."),
		Data:       payload,
		OccurredAt: occurredAt,
	}, nil
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
