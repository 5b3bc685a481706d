package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Berlin to Munich is roughly 504 km.
	d := Haversine(52.5200, 13.4050, 48.1370, 11.5750)
	assert.InDelta(t, 504_000, d, 2_000)
	assert.Zero(t, Haversine(10, 20, 10, 20))
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	tests := []struct {
		name             string
		lat, lon, radius float64
		targetLat        float64
		targetLon        float64
	}{
		{"just inside 5000m due north", 52.52, 13.405, 5000, 52.52 + 0.04495, 13.405},
		{"just inside 500m due north", 52.52, 13.405, 500, 52.52 + 0.004496, 13.405},
		{"just inside 500m due south", 52.52, 13.405, 500, 52.52 - 0.004496, 13.405},
		{"high latitude widest longitude", 89.9, 0, 5000, 89.9, 25.8},
		{"equator due east", 0, 0, 5000, 0, 0.04496},
		{"southern high latitude", -85, 100, 5000, -85, 100.51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Haversine(tt.lat, tt.lon, tt.targetLat, tt.targetLon)
			assert.LessOrEqual(t, d, tt.radius, "target must be inside the circle")

			minLat, minLon, maxLat, maxLon := BoundingBox(tt.lat, tt.lon, tt.radius)
			assert.True(t, tt.targetLat >= minLat && tt.targetLat <= maxLat, "lat %v not in [%v, %v]", tt.targetLat, minLat, maxLat)
			assert.True(t, tt.targetLon >= minLon && tt.targetLon <= maxLon, "lon %v not in [%v, %v]", tt.targetLon, minLon, maxLon)
		})
	}
}

func TestBoundingBoxNearPoleSpansAllLongitudes(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(89.99, 10, 5000)
	assert.Equal(t, 90.0, maxLat)
	assert.Less(t, minLat, 89.99)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}

func TestBoundingBoxStaysTight(t *testing.T) {
	minLat, _, maxLat, _ := BoundingBox(52.52, 13.405, 500)
	// 500 m is about 0.0045 degrees of latitude.
	assert.InDelta(t, 0.0045, maxLat-52.52, 0.0001)
	assert.InDelta(t, 0.0045, 52.52-minLat, 0.0001)
}
