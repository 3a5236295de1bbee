package publisher

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	r "github.com/vhasckel/kata-cart/internal/repository"
)

// EventSource is the slice of the repository the poller consumes.
type EventSource interface {
	UnprocessedEvents(ctx context.Context, limit int) ([]*r.CartEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains cart_events rows written inside the cart mutations'
// transactions and publishes them to Kafka. At-least-once: a row is marked
// processed only after the publish succeeded.
type OutboxPoller struct {
	eventTick time.Duration
	batchSize int
	source    EventSource
	writer    messageWriter
}

func NewOutboxPoller(source EventSource, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "cart-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		eventTick: time.Second,
		batchSize: 100,
		source:    source,
		writer:    w,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.eventTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.source.UnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publishToKafka(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.source.MarkEventProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.CartEvent) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.CartID, 10)), // cart_id for ordering
		Value: event.Payload,                               // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
