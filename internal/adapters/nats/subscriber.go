package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeOfferChanges calls handler for every offer touched by a claim,
// removal or sweep. Each process gets its own ephemeral consumer so every
// API instance sees every event.
func (s *Subscriber) SubscribeOfferChanges(ctx context.Context, handler func(ctx context.Context, offerID int64) error) error {
	cb := func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.WarnContext(ctx, "drop malformed event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		for _, id := range ev.OfferIDs() {
			if err := handler(ctx, id); err != nil {
				_ = msg.Nak()
				return
			}
		}
		_ = msg.Ack()
	}

	for _, subject := range []string{SubjectOfferClaimed, SubjectOfferRemoved, SubjectSweepPrefix + "offers"} {
		sub, err := s.js.Subscribe(subject, cb,
			nats.DeliverNew(),
			nats.ManualAck(),
			nats.MaxDeliver(3),
		)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
