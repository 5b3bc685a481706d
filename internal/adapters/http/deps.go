package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geodrop/internal/core/usecases"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Offers *usecases.OfferService
	Notes  *usecases.NoteService
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger
}
