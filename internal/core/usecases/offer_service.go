package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geodrop/internal/core/domain"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/pkg/metrics"
)

// OfferService handles the offer lifecycle: publish, claim, update, lookup
// and proximity search.
type OfferService struct {
	offers  ports.OfferRepository
	sweeper *Sweeper
	cache   ports.CacheService
	events  ports.EventPublisher
	opts    options
}

// NewOfferService creates a new OfferService and registers the offer store
// with sweeper. cache and events may be nil.
func NewOfferService(offers ports.OfferRepository, sweeper *Sweeper, cache ports.CacheService, events ports.EventPublisher, opts ...Option) *OfferService {
	s := &OfferService{
		offers:  offers,
		sweeper: sweeper,
		cache:   cache,
		events:  events,
		opts:    buildOptions(opts),
	}
	sweeper.Register(KindOffers, offers, func(ctx context.Context, ids []int64) {
		for _, id := range ids {
			s.Invalidate(ctx, id)
		}
	})
	return s
}

// Policy returns the expiry policy in effect.
func (s *OfferService) Policy() domain.ExpiryPolicy { return s.opts.policy }

// Create validates the draft, derives price and expiration, and persists it.
func (s *OfferService) Create(ctx context.Context, draft domain.OfferDraft) (*domain.Offer, error) {
	offer, err := domain.NewOffer(draft, s.opts.policy, s.opts.timestamp())
	if err != nil {
		return nil, err
	}
	offer.ID = s.opts.ids.NextID()

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	metrics.DropsCreated.WithLabelValues(KindOffers).Inc()

	if s.events != nil {
		publish(ctx, "offer.created", func() error { return s.events.PublishOfferCreated(ctx, offer) })
	}
	return offer, nil
}

// Claim takes one unit of an offer. The last unit removes the offer and
// reports RemainingQuantity 0. Unknown or already exhausted offers return an
// error matching domain.ErrNotFound.
func (s *OfferService) Claim(ctx context.Context, id int64) (domain.ClaimResult, error) {
	ctx, span := tracer.Start(ctx, "OfferService.Claim", trace.WithAttributes(attribute.Int64("offer.id", id)))
	defer span.End()

	if id <= 0 {
		metrics.OfferClaims.WithLabelValues("not_found").Inc()
		return domain.ClaimResult{}, fmt.Errorf("claim offer %d: %w", id, domain.ErrNotFound)
	}

	remaining, err := s.offers.Claim(ctx, id)
	if err != nil {
		metrics.OfferClaims.WithLabelValues(claimOutcome(err)).Inc()
		if !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "claim failed")
		}
		return domain.ClaimResult{}, fmt.Errorf("claim offer %d: %w", id, err)
	}

	result := domain.ClaimResult{OfferID: id, RemainingQuantity: remaining}
	span.SetAttributes(attribute.Int("offer.remaining", remaining))
	if result.Removed() {
		metrics.OfferClaims.WithLabelValues("removed").Inc()
	} else {
		metrics.OfferClaims.WithLabelValues("claimed").Inc()
	}

	s.Invalidate(ctx, id)
	if s.events != nil {
		publish(ctx, "offer.claimed", func() error { return s.events.PublishOfferClaimed(ctx, result) })
	}
	return result, nil
}

func claimOutcome(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return "error"
}

// Update replaces the mutable fields of an offer and recomputes its price.
// Photo and logo handles are only replaced when supplied.
func (s *OfferService) Update(ctx context.Context, id int64, update domain.OfferUpdate) (*domain.Offer, error) {
	if err := update.Validate(s.opts.policy); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("update offer %d: %w", id, domain.ErrNotFound)
	}

	offer, err := s.offers.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update offer %d: %w", id, err)
	}
	s.Invalidate(ctx, id)
	return offer, nil
}

// GetByID returns a single offer. It does not sweep, so an offer that expired
// since the last sweep can still be returned.
func (s *OfferService) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("get offer %d: %w", id, domain.ErrNotFound)
	}

	cacheKey := offerCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var offer domain.Offer
			if err := json.Unmarshal(data, &offer); err == nil {
				metrics.CacheHits.WithLabelValues("offer_by_id").Inc()
				return &offer, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("offer_by_id").Inc()
	}

	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer %d: %w", id, err)
	}

	if s.cache != nil && s.opts.cacheTTL > 0 {
		if data, err := json.Marshal(offer); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.opts.cacheTTL); err != nil {
				slog.WarnContext(ctx, "offer cache write failed", "offer_id", id, "error", err)
			}
		}
	}
	return offer, nil
}

// FindNearby validates the center and radius, sweeps expired offers and
// returns every live offer within radiusMeters. Order is not guaranteed.
func (s *OfferService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Offer, error) {
	center, err := domain.NewGeoPoint(lat, lon)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateOfferRadius(radiusMeters); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "OfferService.FindNearby", trace.WithAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
		attribute.Float64("geo.radius_m", radiusMeters),
	))
	defer span.End()

	now := s.opts.timestamp()
	if _, err := s.sweeper.Sweep(ctx, KindOffers, now); err != nil {
		span.RecordError(err)
		return nil, err
	}

	offers, err := s.offers.FindNearby(ctx, center, radiusMeters, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find nearby offers: %w", err)
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	metrics.NearbyResults.WithLabelValues(KindOffers).Observe(float64(len(offers)))
	return offers, nil
}

// Invalidate drops the cached copy of an offer.
func (s *OfferService) Invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, offerCacheKey(id)); err != nil {
		slog.WarnContext(ctx, "offer cache invalidation failed", "offer_id", id, "error", err)
	}
}

func offerCacheKey(id int64) string {
	return "offers:id:" + strconv.FormatInt(id, 10)
}
