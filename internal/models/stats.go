package models

import "time"

// OrganizationStats сводная статистика по парку и миссиям.
// totalDistance и totalAreaCovered вычисляются по фиксированным константам
// на завершенную миссию, mostActiveDrone берется первым из коллекции:
// это осознанные приближения-заглушки, сохраняемые для совместимости.
type OrganizationStats struct {
	TotalMissions          int       `json:"totalMissions"`
	TotalFlightTime        float64   `json:"totalFlightTime"`        // Минуты
	TotalDistance          float64   `json:"totalDistance"`          // Оценка, метры
	TotalAreaCovered       float64   `json:"totalAreaCovered"`       // Оценка, кв. метры
	AverageMissionDuration float64   `json:"averageMissionDuration"` // Минуты
	MostActiveDrone        string    `json:"mostActiveDrone"`
	MissionSuccessRate     float64   `json:"missionSuccessRate"` // Проценты
	LastUpdated            time.Time `json:"lastUpdated"`
}
