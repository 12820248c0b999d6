package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/richxcame/ride-loyalty/pkg/logger"
)

// HandlerFunc processes one decoded event. Returning nil acknowledges the
// message; a permanent error terminates it; any other error triggers the
// single redelivery allowed by the consumer's MaxDeliver setting.
type HandlerFunc func(ctx context.Context, event *Event) error

// Options tunes the bus connection and its consumers
type Options struct {
	StreamName     string
	MaxDeliver     int
	AckWait        time.Duration
	HandlerTimeout time.Duration
}

// Bus is a NATS JetStream connection with the retry-once-then-drop
// consumption policy applied to every subscription.
type Bus struct {
	nc   *nats.Conn
	js   nats.JetStreamContext
	opts Options
	subs []*nats.Subscription
}

// New connects to NATS and makes sure the stream exists
func New(url string, opts Options) (*Bus, error) {
	if opts.MaxDeliver <= 0 {
		opts.MaxDeliver = 2
	}
	if opts.AckWait <= 0 {
		opts.AckWait = 30 * time.Second
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}

	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(opts.StreamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("look up stream %s: %w", opts.StreamName, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      opts.StreamName,
			Subjects:  []string{"rider.>", "ride.>"},
			Retention: nats.WorkQueuePolicy,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create stream %s: %w", opts.StreamName, err)
		}
	}

	return &Bus{nc: nc, js: js, opts: opts}, nil
}

// Conn exposes the underlying connection for health checks
func (b *Bus) Conn() *nats.Conn {
	return b.nc
}

// Publish wraps data into an event envelope and publishes it on subject
func (b *Bus) Publish(ctx context.Context, subject, source string, data interface{}) error {
	event, err := NewEvent(subject, source, data)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = b.js.Publish(subject, raw, nats.MsgId(event.ID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a durable queue consumer for subject. Consumers of the
// same durable name share the work; each message is delivered at most
// MaxDeliver times.
func (b *Bus) Subscribe(ctx context.Context, subject, durable string, handler HandlerFunc) error {
	sub, err := b.js.QueueSubscribe(subject, durable, b.dispatch(subject, handler),
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(b.opts.MaxDeliver),
		nats.AckWait(b.opts.AckWait),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	b.subs = append(b.subs, sub)
	return nil
}

func (b *Bus) dispatch(subject string, handler HandlerFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("eventbus: terminating undecodable message",
				zap.String("subject", subject),
				zap.Error(err),
			)
			eventsTotal.WithLabelValues(subject, resultTerminated).Inc()
			_ = msg.Term()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.opts.HandlerTimeout)
		defer cancel()

		err := handler(ctx, &event)
		if err == nil {
			eventsTotal.WithLabelValues(subject, resultOK).Inc()
			_ = msg.Ack()
			return
		}

		if IsPermanent(err) {
			logger.Warn("eventbus: terminating message after permanent failure",
				zap.String("subject", subject),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			eventsTotal.WithLabelValues(subject, resultTerminated).Inc()
			_ = msg.Term()
			return
		}

		meta, metaErr := msg.Metadata()
		if metaErr == nil && meta.NumDelivered >= uint64(b.opts.MaxDeliver) {
			logger.Error("eventbus: dropping message after final delivery attempt",
				zap.String("subject", subject),
				zap.String("event_id", event.ID),
				zap.Uint64("deliveries", meta.NumDelivered),
				zap.Error(err),
			)
			eventsTotal.WithLabelValues(subject, resultDropped).Inc()
			_ = msg.Term()
			return
		}

		logger.Warn("eventbus: scheduling one redelivery after transient failure",
			zap.String("subject", subject),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		eventsTotal.WithLabelValues(subject, resultRetried).Inc()
		_ = msg.Nak()
	}
}

// Close drains all subscriptions and closes the connection
func (b *Bus) Close() {
	for _, sub := range b.subs {
		_ = sub.Drain()
	}
	_ = b.nc.Drain()
}
