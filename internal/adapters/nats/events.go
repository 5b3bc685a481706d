package natsadapter

import (
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// Stream and subject names.
const (
	StreamName = "DROPS"

	SubjectAll          = "drops.>"
	SubjectOfferCreated = "drops.offer.created"
	SubjectOfferClaimed = "drops.offer.claimed"
	SubjectOfferRemoved = "drops.offer.removed"
	SubjectOfferAll     = "drops.offer.>"
	SubjectNoteCreated  = "drops.note.created"
	SubjectSweepPrefix  = "drops.sweep."
)

// Event is the JSON envelope carried on every drops.* subject.
type Event struct {
	Type      string        `json:"type"`
	OfferID   int64         `json:"offer_id,omitempty"`
	Remaining *int          `json:"remaining_quantity,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Removed   []int64       `json:"removed,omitempty"`
	Offer     *domain.Offer `json:"offer,omitempty"`
	Note      *domain.Note  `json:"note,omitempty"`
	At        time.Time     `json:"at"`
}

// OfferIDs lists the offers whose cached state the event invalidates.
func (e Event) OfferIDs() []int64 {
	switch {
	case e.OfferID != 0:
		return []int64{e.OfferID}
	case e.Offer != nil:
		return []int64{e.Offer.ID}
	case e.Kind == "offers":
		return e.Removed
	}
	return nil
}
