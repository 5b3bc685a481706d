package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Offer is a location-anchored coupon with a finite claimable quantity.
type Offer struct {
	ID              int64     `json:"id"`
	Location        GeoPoint  `json:"location"`
	Quantity        int       `json:"quantity"`
	Price           float64   `json:"price"`
	Discount        float64   `json:"discount"`
	NewPrice        float64   `json:"new_price"`
	Category        string    `json:"category"`
	Product         string    `json:"product"`
	Description     string    `json:"description"`
	Creator         string    `json:"creator,omitempty"`
	PhotoRef        *string   `json:"photo_ref,omitempty"`
	LogoRef         *string   `json:"logo_ref,omitempty"`
	ValidityMinutes int       `json:"validity_minutes"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	Distance        *float64  `json:"distance,omitempty"` // computed field
}

// Note is a location-anchored, short-lived text message.
type Note struct {
	ID        int64     `json:"id"`
	Location  GeoPoint  `json:"location"`
	Content   string    `json:"content"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Distance  *float64  `json:"distance,omitempty"` // computed field
}

// ClaimResult reports the quantity left after a successful claim.
// Zero means the offer has been removed.
type ClaimResult struct {
	OfferID           int64 `json:"offer_id"`
	RemainingQuantity int   `json:"remaining_quantity"`
}

// Removed reports whether the claim took the last unit.
func (r ClaimResult) Removed() bool { return r.RemainingQuantity == 0 }

// DiscountedPrice returns price × (1 − discount/100).
func DiscountedPrice(price, discount float64) float64 {
	return price * (1 - discount/100)
}

// OfferFields holds the caller-editable attributes shared by create and update.
type OfferFields struct {
	Category        string   `json:"category"`
	Product         string   `json:"product"`
	Description     string   `json:"description"`
	Creator         string   `json:"creator,omitempty"`
	Price           float64  `json:"price"`
	Discount        float64  `json:"discount"`
	Quantity        int      `json:"quantity"`
	ValidityMinutes int      `json:"validity_minutes"`
	Location        GeoPoint `json:"location"`
	PhotoRef        *string  `json:"photo_ref,omitempty"`
	LogoRef         *string  `json:"logo_ref,omitempty"`
}

// Validate checks every field against policy. It returns the first
// violation found.
func (f *OfferFields) Validate(policy ExpiryPolicy) error {
	f.Category = strings.TrimSpace(f.Category)
	f.Product = strings.TrimSpace(f.Product)

	switch {
	case f.Category == "":
		return invalid("category", "must not be empty")
	case f.Product == "":
		return invalid("product", "must not be empty")
	case math.IsNaN(f.Price) || math.IsInf(f.Price, 0) || f.Price < 0:
		return invalid("price", "must be a number greater than or equal to 0")
	case math.IsNaN(f.Discount) || f.Discount < 0 || f.Discount > 100:
		return invalid("discount", "must be between 0 and 100")
	case f.Quantity < 1:
		return invalid("quantity", "must be an integer greater than or equal to 1")
	case f.ValidityMinutes < policy.MinValidityMinutes:
		return invalid("validity_minutes", fmt.Sprintf("must be at least %d minutes", policy.MinValidityMinutes))
	}
	if err := f.Location.Validate(); err != nil {
		return err
	}
	if f.PhotoRef != nil && strings.TrimSpace(*f.PhotoRef) == "" {
		f.PhotoRef = nil
	}
	if f.LogoRef != nil && strings.TrimSpace(*f.LogoRef) == "" {
		f.LogoRef = nil
	}
	return nil
}

// OfferDraft is the typed input of a publish request.
type OfferDraft struct {
	OfferFields
}

// NewOffer validates the draft and builds the offer to persist. The id is
// assigned by the caller.
func NewOffer(d OfferDraft, policy ExpiryPolicy, now time.Time) (*Offer, error) {
	if err := d.Validate(policy); err != nil {
		return nil, err
	}
	o := &Offer{CreatedAt: now}
	o.apply(d.OfferFields)
	o.PhotoRef, o.LogoRef = d.PhotoRef, d.LogoRef
	o.ExpiresAt = policy.OfferExpiry(now)
	return o, nil
}

// OfferUpdate replaces the mutable fields of an existing offer. Nil
// PhotoRef/LogoRef keep the stored handles.
type OfferUpdate struct {
	OfferFields
}

// ApplyTo overwrites o with the update. ExpiresAt and CreatedAt are kept.
func (u OfferUpdate) ApplyTo(o *Offer) {
	o.apply(u.OfferFields)
	if u.PhotoRef != nil {
		o.PhotoRef = u.PhotoRef
	}
	if u.LogoRef != nil {
		o.LogoRef = u.LogoRef
	}
}

func (o *Offer) apply(f OfferFields) {
	o.Category = f.Category
	o.Product = f.Product
	o.Description = f.Description
	o.Creator = f.Creator
	o.Price = f.Price
	o.Discount = f.Discount
	o.NewPrice = DiscountedPrice(f.Price, f.Discount)
	o.Quantity = f.Quantity
	o.ValidityMinutes = f.ValidityMinutes
	o.Location = f.Location
}

// NewNote validates content and location and stamps the 15 minute expiry.
func NewNote(content string, location GeoPoint, policy ExpiryPolicy, now time.Time) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "must not be empty")
	}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	return &Note{
		Location:  location,
		Content:   content,
		CreatedAt: now,
		ExpiresAt: policy.NoteExpiry(now),
	}, nil
}
