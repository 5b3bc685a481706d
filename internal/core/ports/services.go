package ports

import (
	"context"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishOfferCreated(ctx context.Context, offer *domain.Offer) error
	PublishOfferClaimed(ctx context.Context, result domain.ClaimResult) error
	PublishNoteCreated(ctx context.Context, note *domain.Note) error
	PublishSweep(ctx context.Context, kind string, removed []int64) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeOfferChanges(ctx context.Context, handler func(ctx context.Context, offerID int64) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
