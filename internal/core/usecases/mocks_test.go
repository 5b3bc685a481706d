package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// --- In-memory OfferRepository ---

type memOfferRepo struct {
	mu     sync.Mutex
	offers map[int64]domain.Offer

	deleteExpiredErr error
}

func newMemOfferRepo() *memOfferRepo {
	return &memOfferRepo{offers: make(map[int64]domain.Offer)}
}

func (r *memOfferRepo) Create(ctx context.Context, offer *domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[offer.ID] = *offer
	return nil
}

func (r *memOfferRepo) Claim(ctx context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if o.Quantity < 1 {
		return 0, domain.ErrExhausted
	}
	if o.Quantity == 1 {
		delete(r.offers, id)
		return 0, nil
	}
	o.Quantity--
	r.offers[id] = o
	return o.Quantity, nil
}

func (r *memOfferRepo) Update(ctx context.Context, id int64, update domain.OfferUpdate) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	update.ApplyTo(&o)
	r.offers[id] = o
	return &o, nil
}

func (r *memOfferRepo) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *memOfferRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, now time.Time) ([]domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Offer
	for _, o := range r.offers {
		if domain.Expired(o.ExpiresAt, now) {
			continue
		}
		d := center.DistanceTo(o.Location)
		if d <= radius {
			o.Distance = &d
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOfferRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	if r.deleteExpiredErr != nil {
		return nil, r.deleteExpiredErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, o := range r.offers {
		if domain.Expired(o.ExpiresAt, now) {
			delete(r.offers, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memOfferRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.offers)
}

// --- In-memory NoteRepository ---

type memNoteRepo struct {
	mu    sync.Mutex
	notes map[int64]domain.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[int64]domain.Note)}
}

func (r *memNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = *note
	return nil
}

func (r *memNoteRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, now time.Time) ([]domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Note
	for _, n := range r.notes {
		if domain.Expired(n.ExpiresAt, now) {
			continue
		}
		d := center.DistanceTo(n.Location)
		if d <= radius {
			n.Distance = &d
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNoteRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, n := range r.notes {
		if domain.Expired(n.ExpiresAt, now) {
			delete(r.notes, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// --- Mock OfferRepository ---

type mockOfferRepo struct {
	createFn        func(ctx context.Context, offer *domain.Offer) error
	claimFn         func(ctx context.Context, id int64) (int, error)
	updateFn        func(ctx context.Context, id int64, u domain.OfferUpdate) (*domain.Offer, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.Offer, error)
	findNearbyFn    func(ctx context.Context, center domain.GeoPoint, radius float64, now time.Time) ([]domain.Offer, error)
	deleteExpiredFn func(ctx context.Context, now time.Time) ([]int64, error)
}

func (m *mockOfferRepo) Create(ctx context.Context, offer *domain.Offer) error {
	if m.createFn != nil {
		return m.createFn(ctx, offer)
	}
	return nil
}

func (m *mockOfferRepo) Claim(ctx context.Context, id int64) (int, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, id)
	}
	return 0, domain.ErrNotFound
}

func (m *mockOfferRepo) Update(ctx context.Context, id int64, u domain.OfferUpdate) (*domain.Offer, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, u)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOfferRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, now time.Time) ([]domain.Offer, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, radius, now)
	}
	return nil, nil
}

func (m *mockOfferRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return nil, nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
	setErr  error
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu      sync.Mutex
	created []int64
	claimed []domain.ClaimResult
	notes   []int64
	sweeps  map[string][]int64
	err     error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{sweeps: make(map[string][]int64)}
}

func (p *recordingPublisher) PublishOfferCreated(ctx context.Context, offer *domain.Offer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, offer.ID)
	return p.err
}

func (p *recordingPublisher) PublishOfferClaimed(ctx context.Context, r domain.ClaimResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimed = append(p.claimed, r)
	return p.err
}

func (p *recordingPublisher) PublishNoteCreated(ctx context.Context, note *domain.Note) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, note.ID)
	return p.err
}

func (p *recordingPublisher) PublishSweep(ctx context.Context, kind string, removed []int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweeps[kind] = append(p.sweeps[kind], removed...)
	return p.err
}

// --- Helpers ---

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

// manualClock is a settable clock for expiry tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(t time.Time) *manualClock { return &manualClock{now: t} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var berlin = domain.GeoPoint{Lat: 52.5200, Lon: 13.4050}

func sampleDraft() domain.OfferDraft {
	return domain.OfferDraft{OfferFields: domain.OfferFields{
		Category:        "food",
		Product:         "pizza",
		Description:     "two slices",
		Price:           10,
		Discount:        50,
		Quantity:        3,
		ValidityMinutes: 60,
		Location:        berlin,
	}}
}
