package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	now  func() time.Time
}

// NewPublisher connects to NATS and ensures the DROPS stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js, now: time.Now}, nil
}

func (p *Publisher) PublishOfferCreated(ctx context.Context, offer *domain.Offer) error {
	return p.publish(ctx, SubjectOfferCreated, "offer-created-"+strconv.FormatInt(offer.ID, 10), Event{
		Type:  "offer.created",
		Offer: offer,
	})
}

// PublishOfferClaimed also emits drops.offer.removed when the last unit went.
func (p *Publisher) PublishOfferClaimed(ctx context.Context, r domain.ClaimResult) error {
	remaining := r.RemainingQuantity
	if err := p.publish(ctx, SubjectOfferClaimed, "", Event{
		Type:      "offer.claimed",
		OfferID:   r.OfferID,
		Remaining: &remaining,
	}); err != nil {
		return err
	}
	if !r.Removed() {
		return nil
	}
	return p.publish(ctx, SubjectOfferRemoved, "offer-removed-"+strconv.FormatInt(r.OfferID, 10), Event{
		Type:    "offer.removed",
		OfferID: r.OfferID,
	})
}

func (p *Publisher) PublishNoteCreated(ctx context.Context, note *domain.Note) error {
	return p.publish(ctx, SubjectNoteCreated, "note-created-"+strconv.FormatInt(note.ID, 10), Event{
		Type: "note.created",
		Note: note,
	})
}

func (p *Publisher) PublishSweep(ctx context.Context, kind string, removed []int64) error {
	return p.publish(ctx, SubjectSweepPrefix+kind, "", Event{
		Type:    "sweep",
		Kind:    kind,
		Removed: removed,
	})
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, ev Event) error {
	ev.At = p.now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	if _, err := p.js.Publish(subject, data, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", strings.TrimPrefix(subject, "drops."), err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("geodrop"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
