package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
)

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

func (p *Publisher) PublishPlaced(ctx context.Context, c order.Confirmation) error {
	return p.publish(ctx, placedEvent(uuid.NewString(), c, p.now()))
}

func (p *Publisher) PublishCancelled(ctx context.Context, orderID, reason string) error {
	return p.publish(ctx, PlacedEvent{
		EventID:    uuid.NewString(),
		Type:       EventOrderCancelled,
		OrderID:    orderID,
		Status:     order.StatusCancelled,
		Reason:     reason,
		OccurredAt: p.now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, evt PlacedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("fulfillment: encode %s for %q: %w", evt.Type, evt.OrderID, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if id := interceptors.RequestIDFromContext(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: interceptors.HeaderXRequestId, Value: []byte(id)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("fulfillment: publish %s for %q: %w", evt.Type, evt.OrderID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
