// Package stats агрегирует сводную статистику по коллекциям миссий и дронов.
package stats

import (
	"time"

	"github.com/flybeeper/survey-backend/internal/models"
)

// Фиксированные оценки на одну завершенную миссию. Реальная длина маршрута
// и покрытая площадь не вычисляются, значения сохраняются для совместимости
// с историческими данными.
const (
	distancePerMission = 1250 // Метры
	areaPerMission     = 625  // Кв. метры
)

// Aggregate строит сводную статистику по полным коллекциям.
// mostActiveDrone — имя первого дрона в коллекции, а не результат подсчета
// миссий по дронам (известное упрощение, сохраняемое сознательно).
func Aggregate(missions []models.Mission, drones []models.Drone) models.OrganizationStats {
	stats := models.OrganizationStats{
		TotalMissions:   len(missions),
		MostActiveDrone: "N/A",
		LastUpdated:     time.Now(),
	}

	completed := 0
	for _, m := range missions {
		if m.Status != models.MissionStatusCompleted {
			continue
		}
		completed++
		if m.StartTime != nil && m.EndTime != nil {
			stats.TotalFlightTime += m.EndTime.Sub(*m.StartTime).Minutes()
		}
	}

	stats.TotalDistance = float64(completed) * distancePerMission
	stats.TotalAreaCovered = float64(completed) * areaPerMission

	if completed > 0 {
		stats.AverageMissionDuration = stats.TotalFlightTime / float64(completed)
	}
	if len(missions) > 0 {
		stats.MissionSuccessRate = float64(completed) / float64(len(missions)) * 100
	}
	if len(drones) > 0 {
		stats.MostActiveDrone = drones[0].Name
	}

	return stats
}
