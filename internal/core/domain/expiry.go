package domain

import "time"

const (
	// DefaultOfferTTL is the authoritative lifetime of an offer.
	DefaultOfferTTL = 24 * time.Hour

	// NoteTTL is the fixed lifetime of a note.
	NoteTTL = 15 * time.Minute

	// DefaultMinValidityMinutes is the lowest validity an offer may declare.
	DefaultMinValidityMinutes = 30
)

// ExpiryPolicy derives absolute expiration instants at creation time.
type ExpiryPolicy struct {
	OfferTTL           time.Duration
	MinValidityMinutes int
}

// DefaultExpiryPolicy returns the 24h offer window with a 30 minute validity floor.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		OfferTTL:           DefaultOfferTTL,
		MinValidityMinutes: DefaultMinValidityMinutes,
	}
}

// OfferExpiry returns createdAt + OfferTTL. An offer's ValidityMinutes is
// advisory metadata and does not move the expiration.
func (p ExpiryPolicy) OfferExpiry(createdAt time.Time) time.Time {
	ttl := p.OfferTTL
	if ttl <= 0 {
		ttl = DefaultOfferTTL
	}
	return createdAt.Add(ttl)
}

// NoteExpiry returns createdAt + 15 minutes.
func (p ExpiryPolicy) NoteExpiry(createdAt time.Time) time.Time {
	return createdAt.Add(NoteTTL)
}

// Expired reports whether a record expiring at expiresAt is purged at now.
// A record expiring exactly at now survives.
func Expired(expiresAt, now time.Time) bool {
	return expiresAt.Before(now)
}
