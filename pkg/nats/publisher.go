package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"curriculum-rag-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	HeaderEventType  = "Event-Type"
	HeaderOccurredAt = "Occurred-At"
)

// Publisher sends events to the CURRICULUM JetStream stream.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewPublisher(url string) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, js: js}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := nats.NewMsg(subjectFor(event.EventType()))
	msg.Data = data
	msg.Header.Set(HeaderEventType, event.EventType())
	msg.Header.Set(HeaderOccurredAt, event.Timestamp().UTC().Format(time.RFC3339Nano))

	// A retried publish of the same run is dropped by the stream's
	// duplicate window.
	var opts []jetstream.PublishOpt
	if runID, ok := payload["run_id"].(string); ok && runID != "" {
		opts = append(opts, jetstream.WithMsgID(event.EventType()+":"+runID))
	}

	if _, err := p.js.PublishMsg(ctx, msg, opts...); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", msg.Subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
