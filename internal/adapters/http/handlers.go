package http

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// offerRequest is the JSON body of POST and PUT /v1/offers.
type offerRequest struct {
	Category        string   `json:"category"`
	Product         string   `json:"product"`
	Description     string   `json:"description"`
	Creator         string   `json:"creator"`
	Price           *float64 `json:"price"`
	Discount        *float64 `json:"discount"`
	Quantity        *int     `json:"quantity"`
	ValidityMinutes *int     `json:"validity_minutes"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	PhotoRef        *string  `json:"photo_ref"`
	LogoRef         *string  `json:"logo_ref"`
}

// fields rejects missing numeric fields; range checks happen in the domain.
func (r offerRequest) fields() (domain.OfferFields, string) {
	switch {
	case r.Price == nil:
		return domain.OfferFields{}, "price"
	case r.Discount == nil:
		return domain.OfferFields{}, "discount"
	case r.Quantity == nil:
		return domain.OfferFields{}, "quantity"
	case r.ValidityMinutes == nil:
		return domain.OfferFields{}, "validity_minutes"
	case r.Latitude == nil:
		return domain.OfferFields{}, "latitude"
	case r.Longitude == nil:
		return domain.OfferFields{}, "longitude"
	}
	return domain.OfferFields{
		Category:        r.Category,
		Product:         r.Product,
		Description:     r.Description,
		Creator:         r.Creator,
		Price:           *r.Price,
		Discount:        *r.Discount,
		Quantity:        *r.Quantity,
		ValidityMinutes: *r.ValidityMinutes,
		Location:        domain.GeoPoint{Lat: *r.Latitude, Lon: *r.Longitude},
		PhotoRef:        r.PhotoRef,
		LogoRef:         r.LogoRef,
	}, ""
}

// noteRequest is the JSON body of POST /v1/notes.
type noteRequest struct {
	Content   string   `json:"content"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func parseOfferBody(c *fiber.Ctx) (domain.OfferFields, *APIError) {
	var req offerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return domain.OfferFields{}, badRequest("invalid JSON body")
	}
	f, missing := req.fields()
	if missing != "" {
		return domain.OfferFields{}, &APIError{
			Status:  fiber.StatusBadRequest,
			Code:    "validation_error",
			Message: missing + " is required",
			Field:   missing,
		}
	}
	return f, nil
}

// parseID reads the :id path parameter and tags the access log with it.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	annotate(c, slog.Int64("offer_id", id))
	return id, true
}

// queryFloat parses a required float query parameter. Zero is a valid
// coordinate, so absence is detected on the raw string.
func queryFloat(c *fiber.Ctx, name string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryLatLon(c *fiber.Ctx) (lat, lon float64, apiErr *APIError) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return 0, 0, badRequest("lat is required and must be a number")
	}
	lon, ok = queryFloat(c, "lon")
	if !ok {
		return 0, 0, badRequest("lon is required and must be a number")
	}
	return lat, lon, nil
}

// CreateOfferHandler publishes a new offer.
func CreateOfferHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, apiErr := parseOfferBody(c)
		if apiErr != nil {
			return writeAPIError(c, *apiErr)
		}

		offer, err := deps.Offers.Create(c.UserContext(), domain.OfferDraft{OfferFields: f})
		if err != nil {
			return writeDomainError(c, err, "offer not found")
		}
		annotate(c, slog.Int64("offer_id", offer.ID))
		c.Location("/v1/offers/" + strconv.FormatInt(offer.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(offer)
	}
}

// ClaimOfferHandler takes one unit of an offer.
func ClaimOfferHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errBadRequest(c, "id must be an integer")
		}

		result, err := deps.Offers.Claim(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err, "offer not found or already claimed")
		}
		annotate(c, slog.Int("remaining", result.RemainingQuantity))
		return c.JSON(result)
	}
}

// UpdateOfferHandler replaces an offer's mutable fields.
func UpdateOfferHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errBadRequest(c, "id must be an integer")
		}
		f, apiErr := parseOfferBody(c)
		if apiErr != nil {
			return writeAPIError(c, *apiErr)
		}

		offer, err := deps.Offers.Update(c.UserContext(), id, domain.OfferUpdate{OfferFields: f})
		if err != nil {
			return writeDomainError(c, err, "offer not found")
		}
		return c.JSON(fiber.Map{
			"message": "offer " + strconv.FormatInt(id, 10) + " updated",
			"offer":   offer,
		})
	}
}

// GetOfferHandler returns a single offer.
func GetOfferHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errBadRequest(c, "id must be an integer")
		}

		offer, err := deps.Offers.GetByID(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err, "offer not found")
		}
		return c.JSON(offer)
	}
}

// NearbyOffersHandler returns live offers within radius meters of a point.
func NearbyOffersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, apiErr := queryLatLon(c)
		if apiErr != nil {
			return writeAPIError(c, *apiErr)
		}
		radius := domain.DefaultOfferRadius
		if c.Query("radius") != "" {
			r, ok := queryFloat(c, "radius")
			if !ok {
				return errBadRequest(c, "radius must be a number")
			}
			radius = r
		}

		offers, err := deps.Offers.FindNearby(c.UserContext(), lat, lon, radius)
		if err != nil {
			return writeDomainError(c, err, "")
		}
		return c.JSON(offers)
	}
}

// CreateNoteHandler publishes a note that expires after 15 minutes.
func CreateNoteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req noteRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		note, err := deps.Notes.Create(c.UserContext(), req.Content, *req.Latitude, *req.Longitude)
		if err != nil {
			return writeDomainError(c, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(note)
	}
}

// NearbyNotesHandler returns live notes within 500 m of a point.
func NearbyNotesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, apiErr := queryLatLon(c)
		if apiErr != nil {
			return writeAPIError(c, *apiErr)
		}

		notes, err := deps.Notes.FindNearby(c.UserContext(), lat, lon)
		if err != nil {
			return writeDomainError(c, err, "")
		}
		return c.JSON(notes)
	}
}
