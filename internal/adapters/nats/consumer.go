package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// Consumer implements ports.JobConsumer using a durable JetStream pull of
// the job stream.
type Consumer struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewConsumer creates a consumer with its own NATS connection.
func NewConsumer(url string) (*Consumer, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Consumer{conn: conn, js: js}, nil
}

// ConsumeJobs delivers queued render jobs to handler. A render spends most
// of its time in rate-limited Overpass fetches, so the ack window is wide
// enough for a cold-cache city before redelivery kicks in.
func (c *Consumer) ConsumeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error {
	sub, err := c.js.Subscribe(jobSubjectAll, func(msg *nats.Msg) {
		var job domain.RenderJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &job); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("poster-worker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.AckWait(10*time.Minute),
	)
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (c *Consumer) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	_ = c.conn.Drain()
}
