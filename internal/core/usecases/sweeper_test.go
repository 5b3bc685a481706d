package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
	"github.com/samirrijal/geodrop/internal/core/usecases"
)

func TestSweeper_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemOfferRepo()
	pub := newRecordingPublisher()
	sw := usecases.NewSweeper(pub)
	sw.Register(usecases.KindOffers, repo, nil)

	_ = repo.Create(ctx, &domain.Offer{ID: 1, ExpiresAt: t0.Add(-time.Minute)})
	_ = repo.Create(ctx, &domain.Offer{ID: 2, ExpiresAt: t0.Add(time.Minute)})

	n, err := sw.Sweep(ctx, usecases.KindOffers, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}

	n, err = sw.Sweep(ctx, usecases.KindOffers, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected second sweep to remove nothing, got %d", n)
	}
	if got := pub.sweeps[usecases.KindOffers]; len(got) != 1 || got[0] != 1 {
		t.Errorf("expected one sweep event for id 1, got %v", got)
	}
}

func TestSweeper_UnknownKind(t *testing.T) {
	sw := usecases.NewSweeper(nil)
	if _, err := sw.Sweep(context.Background(), "parcels", t0); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSweeper_OnRemovedHook(t *testing.T) {
	ctx := context.Background()
	repo := newMemNoteRepo()
	var seen []int64
	sw := usecases.NewSweeper(nil)
	sw.Register(usecases.KindNotes, repo, func(ctx context.Context, ids []int64) {
		seen = append(seen, ids...)
	})

	_ = repo.Create(ctx, &domain.Note{ID: 7, ExpiresAt: t0.Add(-time.Second)})
	if _, err := sw.Sweep(ctx, usecases.KindNotes, t0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != 7 {
		t.Errorf("expected hook with id 7, got %v", seen)
	}
}

func TestSweeper_SweepAll_ContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	offers := newMemOfferRepo()
	offers.deleteExpiredErr = errors.New("boom")
	notes := newMemNoteRepo()
	_ = notes.Create(ctx, &domain.Note{ID: 1, ExpiresAt: t0.Add(-time.Second)})

	sw := usecases.NewSweeper(nil)
	sw.Register(usecases.KindOffers, offers, nil)
	sw.Register(usecases.KindNotes, notes, nil)

	if kinds := sw.Kinds(); len(kinds) != 2 || kinds[0] != "notes" || kinds[1] != "offers" {
		t.Errorf("expected sorted kinds, got %v", kinds)
	}

	removed, err := sw.SweepAll(ctx, t0)
	if err == nil {
		t.Error("expected the offers failure to be reported")
	}
	if removed[usecases.KindNotes] != 1 {
		t.Errorf("expected notes swept despite offers failure, got %v", removed)
	}
}
