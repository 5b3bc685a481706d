package domain

import (
	"fmt"
	"math"

	"github.com/samirrijal/geodrop/internal/pkg/geospatial"
)

// Coordinate bounds (WGS 84, inclusive).
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// GeoPoint represents a geographic coordinate (WGS 84).
// Build it with NewGeoPoint so the bounds are always checked.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint validates lat/lon and returns the point. Out-of-range values
// are rejected, never clamped.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return GeoPoint{}, &ValidationError{
			Field:  "latitude",
			Reason: fmt.Sprintf("must be between %.0f and %.0f, got %v", MinLatitude, MaxLatitude, lat),
		}
	}
	if math.IsNaN(lon) || lon < MinLongitude || lon > MaxLongitude {
		return GeoPoint{}, &ValidationError{
			Field:  "longitude",
			Reason: fmt.Sprintf("must be between %.0f and %.0f, got %v", MinLongitude, MaxLongitude, lon),
		}
	}
	return GeoPoint{Lat: lat, Lon: lon}, nil
}

// Validate re-checks a point that was built without NewGeoPoint
// (decoded from JSON or scanned from storage).
func (p GeoPoint) Validate() error {
	_, err := NewGeoPoint(p.Lat, p.Lon)
	return err
}

// DistanceTo returns the great-circle distance in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return geospatial.Haversine(p.Lat, p.Lon, other.Lat, other.Lon)
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsAround returns the box enclosing a circle of radiusMeters around p.
func BoundsAround(p GeoPoint, radiusMeters float64) Bounds {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(p.Lat, p.Lon, radiusMeters)
	return Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Search radius limits for offers, in meters (inclusive).
const (
	MinOfferRadius     = 50.0
	MaxOfferRadius     = 5000.0
	DefaultOfferRadius = 500.0

	// NoteRadius is applied to every note search; callers cannot change it.
	NoteRadius = 500.0
)

// ValidateOfferRadius checks a caller-supplied offer search radius.
func ValidateOfferRadius(radiusMeters float64) error {
	if math.IsNaN(radiusMeters) || radiusMeters < MinOfferRadius || radiusMeters > MaxOfferRadius {
		return &ValidationError{
			Field:  "radius",
			Reason: fmt.Sprintf("must be between %.0f and %.0f meters, got %v", MinOfferRadius, MaxOfferRadius, radiusMeters),
		}
	}
	return nil
}
