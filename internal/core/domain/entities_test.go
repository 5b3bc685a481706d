package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

func validDraft() domain.OfferDraft {
	return domain.OfferDraft{OfferFields: domain.OfferFields{
		Category:        "bakery",
		Product:         "Croissant",
		Description:     "Fresh from the oven",
		Price:           10,
		Discount:        50,
		Quantity:        2,
		ValidityMinutes: 60,
		Location:        domain.GeoPoint{Lat: 52.52, Lon: 13.405},
	}}
}

func TestNewOffer_ComputesPriceAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o, err := domain.NewOffer(validDraft(), domain.DefaultExpiryPolicy(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.NewPrice != 5.0 {
		t.Errorf("expected new price 5.0, got %v", o.NewPrice)
	}
	if !o.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expected expiry now+24h, got %v", o.ExpiresAt)
	}
	if o.ValidityMinutes != 60 {
		t.Errorf("validity must be kept as metadata, got %d", o.ValidityMinutes)
	}
	if !o.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, o.CreatedAt)
	}
}

func TestNewOffer_Validation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(d *domain.OfferDraft)
	}{
		{"empty category", "category", func(d *domain.OfferDraft) { d.Category = "  " }},
		{"empty product", "product", func(d *domain.OfferDraft) { d.Product = "" }},
		{"negative price", "price", func(d *domain.OfferDraft) { d.Price = -0.01 }},
		{"discount above 100", "discount", func(d *domain.OfferDraft) { d.Discount = 100.5 }},
		{"negative discount", "discount", func(d *domain.OfferDraft) { d.Discount = -1 }},
		{"zero quantity", "quantity", func(d *domain.OfferDraft) { d.Quantity = 0 }},
		{"short validity", "validity_minutes", func(d *domain.OfferDraft) { d.ValidityMinutes = 29 }},
		{"bad latitude", "latitude", func(d *domain.OfferDraft) { d.Location.Lat = 91 }},
		{"bad longitude", "longitude", func(d *domain.OfferDraft) { d.Location.Lon = -181 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			_, err := domain.NewOffer(d, domain.DefaultExpiryPolicy(), time.Now())
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestNewOffer_EdgeValuesAccepted(t *testing.T) {
	d := validDraft()
	d.Price = 0
	d.Discount = 100
	d.Quantity = 1
	d.ValidityMinutes = 30

	o, err := domain.NewOffer(d, domain.DefaultExpiryPolicy(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.NewPrice != 0 {
		t.Errorf("expected free offer, got %v", o.NewPrice)
	}
}

func TestNewOffer_BlankHandlesDropped(t *testing.T) {
	blank := " "
	d := validDraft()
	d.PhotoRef = &blank

	o, err := domain.NewOffer(d, domain.DefaultExpiryPolicy(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.PhotoRef != nil {
		t.Errorf("expected blank photo handle to be dropped, got %q", *o.PhotoRef)
	}
}

func TestOfferUpdate_ApplyToKeepsHandlesAndExpiry(t *testing.T) {
	now := time.Now()
	photo, logo := "uploads/photo-1.jpg", "uploads/logo-1.png"
	d := validDraft()
	d.PhotoRef, d.LogoRef = &photo, &logo
	o, err := domain.NewOffer(d, domain.DefaultExpiryPolicy(), now)
	if err != nil {
		t.Fatal(err)
	}
	expires := o.ExpiresAt

	newLogo := "uploads/logo-2.png"
	u := domain.OfferUpdate{OfferFields: validDraft().OfferFields}
	u.Price = 20
	u.Discount = 25
	u.LogoRef = &newLogo
	u.ApplyTo(o)

	if o.NewPrice != 15 {
		t.Errorf("expected recomputed price 15, got %v", o.NewPrice)
	}
	if o.PhotoRef == nil || *o.PhotoRef != photo {
		t.Errorf("photo handle must be preserved, got %v", o.PhotoRef)
	}
	if o.LogoRef == nil || *o.LogoRef != newLogo {
		t.Errorf("logo handle must be replaced, got %v", o.LogoRef)
	}
	if !o.ExpiresAt.Equal(expires) {
		t.Errorf("expiry must not be recomputed on update")
	}
}

func TestNewNote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loc := domain.GeoPoint{Lat: 48.137, Lon: 11.575}

	n, err := domain.NewNote("  coffee meetup at the fountain ", loc, domain.DefaultExpiryPolicy(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Content != "coffee meetup at the fountain" {
		t.Errorf("expected trimmed content, got %q", n.Content)
	}
	if !n.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expected expiry now+15m, got %v", n.ExpiresAt)
	}

	if _, err := domain.NewNote("   ", loc, domain.DefaultExpiryPolicy(), now); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for empty content, got %v", err)
	}
	if _, err := domain.NewNote("hi", domain.GeoPoint{Lat: -91}, domain.DefaultExpiryPolicy(), now); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for bad location, got %v", err)
	}
}

func TestExpired_StrictBoundary(t *testing.T) {
	now := time.Now()
	if !domain.Expired(now.Add(-time.Millisecond), now) {
		t.Error("record expiring 1ms ago must be expired")
	}
	if domain.Expired(now, now) {
		t.Error("record expiring exactly now must survive")
	}
	if domain.Expired(now.Add(time.Millisecond), now) {
		t.Error("record expiring in 1ms must survive")
	}
}

func TestExpiryPolicy_ValidityIsAdvisory(t *testing.T) {
	p := domain.DefaultExpiryPolicy()
	now := time.Now()

	short, long := validDraft(), validDraft()
	short.ValidityMinutes, long.ValidityMinutes = 30, 600
	a, err := domain.NewOffer(short, p, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := domain.NewOffer(long, p, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.ExpiresAt.Equal(b.ExpiresAt) {
		t.Error("validity minutes must not change the authoritative expiry")
	}
	if b.ValidityMinutes != 600 {
		t.Errorf("expected validity kept as metadata, got %d", b.ValidityMinutes)
	}

	p.OfferTTL = 2 * time.Hour
	if got := p.OfferExpiry(now); !got.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("expected configured TTL, got %v", got.Sub(now))
	}
}

func TestErrExhausted_IsNotFound(t *testing.T) {
	if !errors.Is(domain.ErrExhausted, domain.ErrNotFound) {
		t.Error("ErrExhausted must match ErrNotFound")
	}
	err := domain.StorageError("claim offer", errors.New("conn reset"))
	if !errors.Is(err, domain.ErrStorage) {
		t.Error("StorageError must match ErrStorage")
	}
	if domain.StorageError("noop", nil) != nil {
		t.Error("StorageError(nil) must be nil")
	}
}
