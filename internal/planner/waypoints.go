// Package planner генерирует маршруты полета по границам зоны съемки.
// Все функции чистые: вход — полигон границы и параметры полета,
// выход — упорядоченная последовательность путевых точек.
package planner

import (
	"errors"
	"math"

	"github.com/flybeeper/survey-backend/internal/metrics"
	"github.com/flybeeper/survey-backend/internal/models"
)

// ErrInsufficientBounds граница зоны съемки содержит менее 3 вершин
var ErrInsufficientBounds = errors.New("survey area bounds must contain at least 3 vertices")

// Perimeter генерирует точки 1:1 по вершинам границы в исходном порядке.
// Каждая точка получает высоту миссии и действие capture.
func Perimeter(bounds []models.GeoPoint, altitude float64) ([]models.Waypoint, error) {
	if len(bounds) < 3 {
		return nil, ErrInsufficientBounds
	}

	waypoints := make([]models.Waypoint, 0, len(bounds))
	for _, p := range bounds {
		waypoints = append(waypoints, models.Waypoint{
			Lat:      p.Lat,
			Lng:      p.Lng,
			Altitude: altitude,
			Action:   models.ActionCapture,
		})
	}

	metrics.WaypointsGenerated.WithLabelValues(string(models.PatternPerimeter)).Add(float64(len(waypoints)))
	return waypoints, nil
}

// CrosshatchComb генерирует "гребенку" по ограничивающему прямоугольнику:
// для каждого из (divisions+1) шагов широты — пара точек на minLng и maxLng,
// затем для каждого шага долготы — пара точек на minLat и maxLat.
// Итого 2*(divisions+1) + 2*(divisions+1) точек.
func CrosshatchComb(bounds []models.GeoPoint, divisions int, altitude float64) ([]models.Waypoint, error) {
	box, err := boundingBox(bounds)
	if err != nil {
		return nil, err
	}

	waypoints := make([]models.Waypoint, 0, 4*(divisions+1))

	for i := 0; i <= divisions; i++ {
		lat := gridCoord(box.MinLat, box.MaxLat, i, divisions)
		waypoints = append(waypoints,
			models.Waypoint{Lat: lat, Lng: box.MinLng, Altitude: altitude, Action: models.ActionCapture},
			models.Waypoint{Lat: lat, Lng: box.MaxLng, Altitude: altitude, Action: models.ActionCapture},
		)
	}

	for i := 0; i <= divisions; i++ {
		lng := gridCoord(box.MinLng, box.MaxLng, i, divisions)
		waypoints = append(waypoints,
			models.Waypoint{Lat: box.MinLat, Lng: lng, Altitude: altitude, Action: models.ActionCapture},
			models.Waypoint{Lat: box.MaxLat, Lng: lng, Altitude: altitude, Action: models.ActionCapture},
		)
	}

	metrics.WaypointsGenerated.WithLabelValues(string(models.PatternCrosshatch)).Add(float64(len(waypoints)))
	return waypoints, nil
}

// CrosshatchGrid генерирует полную сетку (divisions+1)x(divisions+1)
// точек по ограничивающему прямоугольнику, построчно.
func CrosshatchGrid(bounds []models.GeoPoint, divisions int, altitude float64) ([]models.Waypoint, error) {
	box, err := boundingBox(bounds)
	if err != nil {
		return nil, err
	}

	waypoints := make([]models.Waypoint, 0, (divisions+1)*(divisions+1))

	for i := 0; i <= divisions; i++ {
		lat := gridCoord(box.MinLat, box.MaxLat, i, divisions)
		for j := 0; j <= divisions; j++ {
			waypoints = append(waypoints, models.Waypoint{
				Lat:      lat,
				Lng:      gridCoord(box.MinLng, box.MaxLng, j, divisions),
				Altitude: altitude,
				Action:   models.ActionCapture,
			})
		}
	}

	metrics.WaypointsGenerated.WithLabelValues(string(models.PatternCrosshatch)).Add(float64(len(waypoints)))
	return waypoints, nil
}

// GeneratePreview генерирует точки для интерактивного предпросмотра.
// Для crosshatch используется гребенка, для custom точки не генерируются.
func GeneratePreview(pattern models.FlightPattern, bounds []models.GeoPoint, divisions int, altitude float64) ([]models.Waypoint, error) {
	switch pattern {
	case models.PatternPerimeter:
		return Perimeter(bounds, altitude)
	case models.PatternCrosshatch:
		return CrosshatchComb(bounds, divisions, altitude)
	case models.PatternCustom:
		if len(bounds) < 3 {
			return nil, ErrInsufficientBounds
		}
		return []models.Waypoint{}, nil
	default:
		return nil, errors.New("unknown flight pattern: " + string(pattern))
	}
}

// GenerateFallback генерирует точки при создании миссии без маршрута.
// Для crosshatch используется сетка, custom сводится к периметру.
func GenerateFallback(pattern models.FlightPattern, bounds []models.GeoPoint, divisions int, altitude float64) ([]models.Waypoint, error) {
	switch pattern {
	case models.PatternCrosshatch:
		return CrosshatchGrid(bounds, divisions, altitude)
	case models.PatternPerimeter, models.PatternCustom:
		return Perimeter(bounds, altitude)
	default:
		return nil, errors.New("unknown flight pattern: " + string(pattern))
	}
}

// EstimateDuration оценивает длительность миссии в минутах по грубой
// эвристике: 60 условных единиц пути на перелет между точками.
// Не является расчетом реальной длины маршрута.
func EstimateDuration(waypointCount int, speed float64) int {
	if speed <= 0 || waypointCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(waypointCount) * 60 / speed))
}

// gridCoord i-я координата равномерной сетки [min, max] из divisions
// шагов. Последний шаг возвращает max точно: накопленная ошибка
// float64-сложения не должна выводить точку за границу прямоугольника.
func gridCoord(min, max float64, i, divisions int) float64 {
	if i == divisions {
		return max
	}
	return min + float64(i)*(max-min)/float64(divisions)
}

func boundingBox(bounds []models.GeoPoint) (models.BoundingBox, error) {
	if len(bounds) < 3 {
		return models.BoundingBox{}, ErrInsufficientBounds
	}
	return models.BoundsOf(bounds), nil
}
