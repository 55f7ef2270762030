// Package nats dispatches deliveries through a JetStream work queue so that
// hook handling and webhook I/O can live in separate processes.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Kondo2021/redmine-messenger/internal/adapter/webhook"
	"github.com/Kondo2021/redmine-messenger/internal/port/dispatch"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

const (
	streamName     = "MESSENGER"
	subjectPrefix  = "deliveries"
	deliverSubject = "deliveries.webhook"
	consumerName   = "webhook-worker"
	publishTimeout = 5 * time.Second
)

// Dispatcher publishes wire requests to JetStream.
type Dispatcher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)

// Connect dials the broker and ensures the delivery stream exists.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Dispatcher, error) {
	conn, err := nats.Connect(url, nats.Name("messenger"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &Dispatcher{conn: conn, js: js, logger: logger}, nil
}

// Submit publishes the request and returns immediately. Publish failures
// are logged and swallowed, matching the fire-and-forget delivery contract.
func (d *Dispatcher) Submit(req wire.Request) {
	data, err := json.Marshal(req)
	if err != nil {
		d.logger.Error("delivery marshal failed", "url", req.URL, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := d.js.Publish(ctx, deliverSubject, data); err != nil {
		d.logger.Error("delivery publish failed", "url", req.URL, "error", err)
	}
}

// StartWorker consumes the delivery stream and posts each request with the
// transport. Messages are acked regardless of delivery outcome; a broken
// webhook target must not wedge the queue.
func (d *Dispatcher) StartWorker(ctx context.Context, transport *webhook.Transport) (jetstream.ConsumeContext, error) {
	cons, err := d.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		FilterSubject: deliverSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		var req wire.Request
		if err := json.Unmarshal(msg.Data(), &req); err != nil {
			d.logger.Error("delivery decode failed", "error", err)
			_ = msg.Ack()
			return
		}
		transport.Deliver(context.Background(), req)
		_ = msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return cc, nil
}

// Close drains the connection.
func (d *Dispatcher) Close() {
	if err := d.conn.Drain(); err != nil {
		d.logger.Warn("nats drain failed", "error", err)
	}
}
