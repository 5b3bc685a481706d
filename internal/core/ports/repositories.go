package ports

import (
	"context"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// Expirer hard-deletes records whose expiration is strictly before now and
// returns the removed ids.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]int64, error)
}

// OfferRepository persists offers. Implementations own the isolation that
// makes Claim race-free.
type OfferRepository interface {
	Expirer

	// Create inserts the offer in a single transaction.
	Create(ctx context.Context, offer *domain.Offer) error

	// Claim decrements the quantity by one, or deletes the offer when the
	// last unit is taken, and returns the quantity left. Unknown ids yield
	// domain.ErrNotFound; a stored quantity below one yields domain.ErrExhausted.
	Claim(ctx context.Context, id int64) (int, error)

	// Update replaces the mutable fields. Nil photo/logo handles keep the
	// stored ones. Returns the stored offer after the update.
	Update(ctx context.Context, id int64, update domain.OfferUpdate) (*domain.Offer, error)

	GetByID(ctx context.Context, id int64) (*domain.Offer, error)

	// FindNearby returns offers within radiusMeters of center whose
	// expiration is not before now.
	FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Offer, error)
}

// NoteRepository persists notes.
type NoteRepository interface {
	Expirer

	Create(ctx context.Context, note *domain.Note) error
	FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Note, error)
}

// IDGenerator hands out unique 64-bit identifiers.
type IDGenerator interface {
	NextID() int64
}
