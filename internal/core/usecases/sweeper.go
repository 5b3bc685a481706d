package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/pkg/metrics"
)

// Store kinds known to the sweeper.
const (
	KindOffers = "offers"
	KindNotes  = "notes"
)

type sweepTarget struct {
	repo      ports.Expirer
	onRemoved func(ctx context.Context, ids []int64)
}

// Sweeper purges expired records. Stores call it synchronously before every
// proximity read; the background scheduler calls SweepAll.
type Sweeper struct {
	mu      sync.RWMutex
	targets map[string]sweepTarget
	events  ports.EventPublisher
}

// NewSweeper creates a Sweeper. events may be nil.
func NewSweeper(events ports.EventPublisher) *Sweeper {
	return &Sweeper{targets: make(map[string]sweepTarget), events: events}
}

// Register attaches a store kind. onRemoved runs after every sweep that
// deleted at least one record; it may be nil.
func (s *Sweeper) Register(kind string, repo ports.Expirer, onRemoved func(ctx context.Context, ids []int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[kind] = sweepTarget{repo: repo, onRemoved: onRemoved}
}

// Kinds lists registered store kinds in stable order.
func (s *Sweeper) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]string, 0, len(s.targets))
	for k := range s.targets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Sweep hard-deletes every record of kind whose expiration is strictly
// before now and returns how many were removed. Repeated calls with nothing
// newly expired return 0.
func (s *Sweeper) Sweep(ctx context.Context, kind string, now time.Time) (int, error) {
	s.mu.RLock()
	target, ok := s.targets[kind]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("sweep: unknown store kind %q", kind)
	}

	start := time.Now()
	ids, err := target.repo.DeleteExpired(ctx, now)
	metrics.SweepDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", kind, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	metrics.SweptRecords.WithLabelValues(kind).Add(float64(len(ids)))
	if target.onRemoved != nil {
		target.onRemoved(ctx, ids)
	}
	if s.events != nil {
		if err := s.events.PublishSweep(ctx, kind, ids); err != nil {
			slog.WarnContext(ctx, "publish sweep event failed", "kind", kind, "error", err)
		}
	}
	slog.DebugContext(ctx, "expired records swept", "kind", kind, "removed", len(ids))
	return len(ids), nil
}

// SweepAll sweeps every registered kind. It keeps going after a failure and
// returns the first error.
func (s *Sweeper) SweepAll(ctx context.Context, now time.Time) (map[string]int, error) {
	removed := make(map[string]int)
	var firstErr error
	for _, kind := range s.Kinds() {
		n, err := s.Sweep(ctx, kind, now)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		removed[kind] = n
	}
	return removed, firstErr
}
