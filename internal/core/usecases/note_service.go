package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/geodrop/internal/core/domain"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/pkg/metrics"
)

// NoteService handles note publishing and proximity lookup. Notes are
// immutable and disappear only through expiry sweeps.
type NoteService struct {
	notes   ports.NoteRepository
	sweeper *Sweeper
	events  ports.EventPublisher
	opts    options
}

// NewNoteService creates a new NoteService and registers the note store
// with sweeper. events may be nil.
func NewNoteService(notes ports.NoteRepository, sweeper *Sweeper, events ports.EventPublisher, opts ...Option) *NoteService {
	sweeper.Register(KindNotes, notes, nil)
	return &NoteService{
		notes:   notes,
		sweeper: sweeper,
		events:  events,
		opts:    buildOptions(opts),
	}
}

// Create publishes a note that expires 15 minutes from now.
func (s *NoteService) Create(ctx context.Context, content string, lat, lon float64) (*domain.Note, error) {
	loc, err := domain.NewGeoPoint(lat, lon)
	if err != nil {
		return nil, err
	}
	note, err := domain.NewNote(content, loc, s.opts.policy, s.opts.timestamp())
	if err != nil {
		return nil, err
	}
	note.ID = s.opts.ids.NextID()

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	metrics.DropsCreated.WithLabelValues(KindNotes).Inc()

	if s.events != nil {
		publish(ctx, "note.created", func() error { return s.events.PublishNoteCreated(ctx, note) })
	}
	return note, nil
}

// FindNearby sweeps expired notes and returns the live ones within
// domain.NoteRadius of the point.
func (s *NoteService) FindNearby(ctx context.Context, lat, lon float64) ([]domain.Note, error) {
	center, err := domain.NewGeoPoint(lat, lon)
	if err != nil {
		return nil, err
	}

	now := s.opts.timestamp()
	if _, err := s.sweeper.Sweep(ctx, KindNotes, now); err != nil {
		return nil, err
	}

	notes, err := s.notes.FindNearby(ctx, center, domain.NoteRadius, now)
	if err != nil {
		return nil, fmt.Errorf("find nearby notes: %w", err)
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	metrics.NearbyResults.WithLabelValues(KindNotes).Observe(float64(len(notes)))
	return notes, nil
}
