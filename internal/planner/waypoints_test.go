package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/survey-backend/internal/models"
)

func squareBounds() []models.GeoPoint {
	return []models.GeoPoint{
		{Lat: 40.70, Lng: -74.01},
		{Lat: 40.72, Lng: -74.01},
		{Lat: 40.72, Lng: -73.99},
		{Lat: 40.70, Lng: -73.99},
	}
}

func TestPerimeter(t *testing.T) {
	bounds := squareBounds()

	waypoints, err := Perimeter(bounds, 120)
	require.NoError(t, err)

	// 1:1 соответствие вершинам в исходном порядке
	require.Len(t, waypoints, len(bounds))
	for i, wp := range waypoints {
		assert.Equal(t, bounds[i].Lat, wp.Lat)
		assert.Equal(t, bounds[i].Lng, wp.Lng)
		assert.Equal(t, 120.0, wp.Altitude)
		assert.Equal(t, models.ActionCapture, wp.Action)
	}
}

func TestPerimeter_InsufficientBounds(t *testing.T) {
	_, err := Perimeter(squareBounds()[:2], 120)
	assert.ErrorIs(t, err, ErrInsufficientBounds)

	_, err = Perimeter(nil, 120)
	assert.ErrorIs(t, err, ErrInsufficientBounds)
}

func TestCrosshatchComb(t *testing.T) {
	bounds := squareBounds()
	divisions := 5

	waypoints, err := CrosshatchComb(bounds, divisions, 100)
	require.NoError(t, err)

	// 2*(N+1) пар по широте + 2*(N+1) пар по долготе
	assert.Len(t, waypoints, 4*(divisions+1))

	box := models.BoundsOf(bounds)
	for _, wp := range waypoints {
		assert.True(t, box.Contains(models.GeoPoint{Lat: wp.Lat, Lng: wp.Lng}),
			"waypoint %+v outside bounding box", wp)
		assert.Equal(t, 100.0, wp.Altitude)
	}

	// Первая пара лежит на нижней кромке, между minLng и maxLng
	assert.Equal(t, box.MinLat, waypoints[0].Lat)
	assert.Equal(t, box.MinLng, waypoints[0].Lng)
	assert.Equal(t, box.MinLat, waypoints[1].Lat)
	assert.Equal(t, box.MaxLng, waypoints[1].Lng)
}

func TestCrosshatchGrid(t *testing.T) {
	bounds := squareBounds()
	divisions := 3

	waypoints, err := CrosshatchGrid(bounds, divisions, 100)
	require.NoError(t, err)

	// Полная сетка (N+1)^2, построчно
	assert.Len(t, waypoints, (divisions+1)*(divisions+1))

	box := models.BoundsOf(bounds)
	for _, wp := range waypoints {
		assert.True(t, box.Contains(models.GeoPoint{Lat: wp.Lat, Lng: wp.Lng}))
	}

	// Построчный порядок: первая строка на minLat, долгота возрастает
	assert.Equal(t, box.MinLat, waypoints[0].Lat)
	assert.Equal(t, box.MinLng, waypoints[0].Lng)
	assert.Equal(t, box.MinLat, waypoints[divisions].Lat)
	assert.Equal(t, box.MaxLng, waypoints[divisions].Lng)
	assert.Equal(t, box.MaxLat, waypoints[len(waypoints)-1].Lat)
	assert.Equal(t, box.MaxLng, waypoints[len(waypoints)-1].Lng)
}

func TestCrosshatch_StaysWithinBox(t *testing.T) {
	// Диапазоны, где min + divisions*step накапливает ошибку float64
	// и без явной фиксации последнего шага вылезает за max на ULP
	bounds := []models.GeoPoint{
		{Lat: 40.0, Lng: -74.1},
		{Lat: 40.1, Lng: -74.1},
		{Lat: 40.1, Lng: -74.0},
		{Lat: 40.0, Lng: -74.0},
	}
	box := models.BoundsOf(bounds)

	for _, divisions := range []int{3, 7, 11} {
		comb, err := CrosshatchComb(bounds, divisions, 100)
		require.NoError(t, err)
		grid, err := CrosshatchGrid(bounds, divisions, 100)
		require.NoError(t, err)

		for _, wp := range append(comb, grid...) {
			assert.LessOrEqual(t, wp.Lat, box.MaxLat)
			assert.GreaterOrEqual(t, wp.Lat, box.MinLat)
			assert.LessOrEqual(t, wp.Lng, box.MaxLng)
			assert.GreaterOrEqual(t, wp.Lng, box.MinLng)
		}
	}
}

func TestCrosshatch_InsufficientBounds(t *testing.T) {
	_, err := CrosshatchComb(squareBounds()[:1], 5, 100)
	assert.ErrorIs(t, err, ErrInsufficientBounds)

	_, err = CrosshatchGrid(squareBounds()[:2], 3, 100)
	assert.ErrorIs(t, err, ErrInsufficientBounds)
}

func TestGeneratePreview(t *testing.T) {
	bounds := squareBounds()

	t.Run("Perimeter", func(t *testing.T) {
		waypoints, err := GeneratePreview(models.PatternPerimeter, bounds, 5, 120)
		require.NoError(t, err)
		assert.Len(t, waypoints, len(bounds))
	})

	t.Run("Crosshatch uses comb", func(t *testing.T) {
		waypoints, err := GeneratePreview(models.PatternCrosshatch, bounds, 5, 120)
		require.NoError(t, err)
		assert.Len(t, waypoints, 4*(5+1))
	})

	t.Run("Custom generates nothing", func(t *testing.T) {
		waypoints, err := GeneratePreview(models.PatternCustom, bounds, 5, 120)
		require.NoError(t, err)
		assert.Empty(t, waypoints)
	})

	t.Run("Unknown pattern", func(t *testing.T) {
		_, err := GeneratePreview("spiral", bounds, 5, 120)
		assert.Error(t, err)
	})
}

func TestGenerateFallback(t *testing.T) {
	bounds := squareBounds()

	t.Run("Crosshatch uses grid", func(t *testing.T) {
		waypoints, err := GenerateFallback(models.PatternCrosshatch, bounds, 3, 120)
		require.NoError(t, err)
		assert.Len(t, waypoints, (3+1)*(3+1))
	})

	t.Run("Custom falls back to perimeter", func(t *testing.T) {
		waypoints, err := GenerateFallback(models.PatternCustom, bounds, 3, 120)
		require.NoError(t, err)
		assert.Len(t, waypoints, len(bounds))
	})

	t.Run("Perimeter", func(t *testing.T) {
		waypoints, err := GenerateFallback(models.PatternPerimeter, bounds, 3, 120)
		require.NoError(t, err)
		assert.Len(t, waypoints, len(bounds))
	})
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		speed    float64
		expected int
	}{
		{"Exact division", 10, 10, 60},       // ceil(10*60/10)
		{"Rounds up", 4, 7, 35},              // ceil(240/7) = ceil(34.28)
		{"Single waypoint", 1, 12, 5},        // ceil(60/12)
		{"Zero speed", 10, 0, 0},
		{"Negative speed", 10, -5, 0},
		{"Zero waypoints", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateDuration(tt.count, tt.speed))
		})
	}
}
