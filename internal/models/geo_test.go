package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		point   GeoPoint
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid coordinates - NYC",
			point:   GeoPoint{Lat: 40.7128, Lng: -74.0060},
			wantErr: false,
		},
		{
			name:    "Valid coordinates - Equator",
			point:   GeoPoint{Lat: 0.0, Lng: 0.0},
			wantErr: false,
		},
		{
			name:    "Valid coordinates - Poles",
			point:   GeoPoint{Lat: 90.0, Lng: 0.0},
			wantErr: false,
		},
		{
			name:    "Valid coordinates - Date line",
			point:   GeoPoint{Lat: 0.0, Lng: -180.0},
			wantErr: false,
		},
		{
			name:    "Invalid latitude - too high",
			point:   GeoPoint{Lat: 91.0, Lng: 0.0},
			wantErr: true,
			errMsg:  "invalid latitude",
		},
		{
			name:    "Invalid latitude - too low",
			point:   GeoPoint{Lat: -91.0, Lng: 0.0},
			wantErr: true,
			errMsg:  "invalid latitude",
		},
		{
			name:    "Invalid longitude - too high",
			point:   GeoPoint{Lat: 0.0, Lng: 181.0},
			wantErr: true,
			errMsg:  "invalid longitude",
		},
		{
			name:    "Invalid longitude - too low",
			point:   GeoPoint{Lat: 0.0, Lng: -181.0},
			wantErr: true,
			errMsg:  "invalid longitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	tests := []struct {
		name      string
		point1    GeoPoint
		point2    GeoPoint
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same point",
			point1:    GeoPoint{Lat: 40.7, Lng: -74.0},
			point2:    GeoPoint{Lat: 40.7, Lng: -74.0},
			expected:  0.0,
			tolerance: 0.1,
		},
		{
			name:      "1 degree latitude difference",
			point1:    GeoPoint{Lat: 40.0, Lng: -74.0},
			point2:    GeoPoint{Lat: 41.0, Lng: -74.0},
			expected:  111.0, // ~111km
			tolerance: 5.0,
		},
		{
			name:      "1 degree longitude difference at equator",
			point1:    GeoPoint{Lat: 0.0, Lng: 0.0},
			point2:    GeoPoint{Lat: 0.0, Lng: 1.0},
			expected:  111.0,
			tolerance: 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance := tt.point1.DistanceTo(tt.point2)
			assert.InDelta(t, tt.expected, distance, tt.tolerance)
		})
	}
}

func TestGeoPoint_Geohash(t *testing.T) {
	p := GeoPoint{Lat: 40.7128, Lng: -74.0060}

	hash := p.Geohash(5)
	assert.Len(t, hash, 5)

	// Соседние точки попадают в одну ячейку на грубой точности
	nearby := GeoPoint{Lat: 40.7129, Lng: -74.0061}
	assert.Equal(t, hash, nearby.Geohash(5))
}

func TestBoundsOf(t *testing.T) {
	points := []GeoPoint{
		{Lat: 40.72, Lng: -73.991},
		{Lat: 40.7232, Lng: -73.991},
		{Lat: 40.7232, Lng: -73.9876},
		{Lat: 40.72, Lng: -73.9876},
	}

	box := BoundsOf(points)

	assert.Equal(t, 40.72, box.MinLat)
	assert.Equal(t, 40.7232, box.MaxLat)
	assert.Equal(t, -73.991, box.MinLng)
	assert.Equal(t, -73.9876, box.MaxLng)

	// Границы включительны
	assert.True(t, box.Contains(GeoPoint{Lat: 40.72, Lng: -73.991}))
	assert.True(t, box.Contains(GeoPoint{Lat: 40.7232, Lng: -73.9876}))
	assert.True(t, box.Contains(GeoPoint{Lat: 40.7216, Lng: -73.9893}))
	assert.False(t, box.Contains(GeoPoint{Lat: 40.73, Lng: -73.9893}))
}

func TestBoundsOf_Empty(t *testing.T) {
	box := BoundsOf(nil)
	assert.Equal(t, BoundingBox{}, box)
}

func TestCentroid(t *testing.T) {
	points := []GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 2, Lng: 0},
		{Lat: 2, Lng: 2},
		{Lat: 0, Lng: 2},
	}

	center := Centroid(points)

	assert.InDelta(t, 1.0, center.Lat, 1e-9)
	assert.InDelta(t, 1.0, center.Lng, 1e-9)
}
