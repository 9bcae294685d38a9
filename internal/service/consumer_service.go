package service

import (
	"context"
	"encoding/json"
	"time"

	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IIngestTrigger queues an ingestion run for the background consumer.
type IIngestTrigger interface {
	Request(ctx context.Context) (string, error)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type ingestTrigger struct {
	publisher message.Publisher
	topicName string
}

func NewIngestTrigger(publisher message.Publisher, topicName string) IIngestTrigger {
	return &ingestTrigger{publisher: publisher, topicName: topicName}
}

func (t *ingestTrigger) Request(ctx context.Context) (string, error) {
	payload := dto.IngestRequestedMessage{
		RequestId:   uuid.NewString(),
		RequestedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	msg := message.NewMessage(payload.RequestId, data)
	msg.SetContext(ctx)
	if err := t.publisher.Publish(t.topicName, msg); err != nil {
		return "", err
	}
	return payload.RequestId, nil
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	ingestion  IIngestionService
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, ingestion IIngestionService, log logger.ILogger) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		ingestion:  ingestion,
		logger:     log,
	}
}

// Consume starts handling ingestion requests in the background, one run at
// a time, until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestRequestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(ingestModule, "Invalid ingestion request message", map[string]interface{}{"error": err.Error()})
		// Ack so a malformed message is not redelivered forever.
		msg.Ack()
		return
	}

	cs.logger.Info(ingestModule, "Async ingestion started", map[string]interface{}{"request_id": payload.RequestId})

	// A run is never retried automatically; its outcome is recorded in
	// the run history either way.
	run, err := cs.ingestion.IngestAll(ctx)
	details := map[string]interface{}{"request_id": payload.RequestId}
	if run != nil {
		details["documents"] = len(run.Documents)
	}
	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error(ingestModule, "Async ingestion aborted", details)
	} else {
		cs.logger.Info(ingestModule, "Async ingestion finished", details)
	}
	msg.Ack()
}
