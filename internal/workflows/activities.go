package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/geodrop/internal/core/usecases"
)

// SweepActivities runs expiry sweeps against the configured stores.
type SweepActivities struct {
	Sweeper *usecases.Sweeper
	Now     func() time.Time // defaults to time.Now
}

func (a *SweepActivities) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// SweepOffers removes expired offers and returns how many were deleted.
func (a *SweepActivities) SweepOffers(ctx context.Context) (int, error) {
	return a.sweep(ctx, usecases.KindOffers)
}

// SweepNotes removes expired notes and returns how many were deleted.
func (a *SweepActivities) SweepNotes(ctx context.Context) (int, error) {
	return a.sweep(ctx, usecases.KindNotes)
}

func (a *SweepActivities) sweep(ctx context.Context, kind string) (int, error) {
	n, err := a.Sweeper.Sweep(ctx, kind, a.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", kind, err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired records removed", "kind", kind, "removed", n)
	}
	return n, nil
}
