package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
)

var ErrBadPayload = errors.New("bad status payload")

// StatusUpdater applies status changes; orderstore.Repository satisfies it.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, next order.Status, source, note string) (order.Confirmation, error)
}

// Invalidator drops stale tracking cache entries.
type Invalidator interface {
	Invalidate(ctx context.Context, orderID string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader        messageReader
	orders        StatusUpdater
	cache         Invalidator
	backoff       time.Duration
	retryInterval time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, orders StatusUpdater, cache Invalidator) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}), orders, cache)
}

func newConsumer(r messageReader, orders StatusUpdater, cache Invalidator) *Consumer {
	return &Consumer{
		reader:        r,
		orders:        orders,
		cache:         cache,
		backoff:       2 * time.Second,
		retryInterval: 250 * time.Millisecond,
	}
}

// Run consumes until ctx is cancelled. Messages are handled in order: a
// store failure is retried on the same message until it is applied or
// rejected for good, and only then is the message committed. A message left
// uncommitted by cancellation is redelivered to the group.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.ErrorContext(ctx, "kafka fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.apply(ctx, msg); err != nil && ctx.Err() != nil {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "kafka commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// apply handles msg, backing off between attempts while the failure is
// transient. It gives up only on a permanent error or cancellation.
func (c *Consumer) apply(ctx context.Context, msg kafka.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = c.backoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := c.Handle(ctx, msg.Value); err != nil {
			if isPermanent(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.ErrorContext(ctx, "status event not applied, retrying",
				"partition", msg.Partition, "offset", msg.Offset, "wait", wait, "error", err)
		}),
	)
	return err
}

// Handle applies one status event payload.
func (c *Consumer) Handle(ctx context.Context, payload []byte) error {
	var evt StatusEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		slog.WarnContext(ctx, "skipping undecodable status event", "error", err)
		return fmt.Errorf("fulfillment: decode: %w: %v", ErrBadPayload, err)
	}
	if evt.OrderID == "" {
		slog.WarnContext(ctx, "skipping status event without order id")
		return fmt.Errorf("fulfillment: missing order id: %w", ErrBadPayload)
	}
	status, err := order.ParseStatus(evt.Status)
	if err != nil {
		slog.WarnContext(ctx, "skipping status event with unknown status", "order_id", evt.OrderID, "status", evt.Status)
		return fmt.Errorf("fulfillment: %w: %v", ErrBadPayload, err)
	}

	updated, err := c.orders.UpdateStatus(ctx, evt.OrderID, status, orderstore.SourceFulfillment, evt.Note)
	if err != nil {
		if isPermanent(err) {
			slog.WarnContext(ctx, "status event rejected", "order_id", evt.OrderID, "status", status, "error", err)
		}
		return err
	}
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, evt.OrderID); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "order_id", evt.OrderID, "error", err)
		}
	}
	slog.InfoContext(ctx, "order status updated by fulfillment", "order_id", updated.OrderID, "status", updated.Status)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// isPermanent reports errors that redelivery cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, ErrBadPayload) ||
		errors.Is(err, orderstore.ErrOrderNotFound) ||
		errors.Is(err, order.ErrIllegalTransit)
}
