package models

import (
	"fmt"
	"time"
)

// MissionStatus статус миссии
type MissionStatus string

const (
	MissionStatusPlanned    MissionStatus = "planned"
	MissionStatusStarting   MissionStatus = "starting"
	MissionStatusInProgress MissionStatus = "in-progress"
	MissionStatusPaused     MissionStatus = "paused"
	MissionStatusCompleted  MissionStatus = "completed"
	MissionStatusAborted    MissionStatus = "aborted"
)

// Valid проверяет, входит ли статус в допустимый словарь
func (s MissionStatus) Valid() bool {
	switch s {
	case MissionStatusPlanned, MissionStatusStarting, MissionStatusInProgress,
		MissionStatusPaused, MissionStatusCompleted, MissionStatusAborted:
		return true
	}
	return false
}

// IsActive статусы, попадающие в выборку активных миссий
func (s MissionStatus) IsActive() bool {
	switch s {
	case MissionStatusStarting, MissionStatusInProgress, MissionStatusPaused:
		return true
	}
	return false
}

// IsTerminal терминальные статусы
func (s MissionStatus) IsTerminal() bool {
	return s == MissionStatusCompleted || s == MissionStatusAborted
}

// ValidTransition проверяет легальность перехода по линейному жизненному циклу
// planned -> starting -> in-progress -> paused/completed/aborted.
// Репозиторий переходы НЕ валидирует и принимает любой статус через update;
// функция носит справочный характер для внешних потребителей API.
func ValidTransition(from, to MissionStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case MissionStatusPlanned:
		return to == MissionStatusStarting || to == MissionStatusAborted
	case MissionStatusStarting:
		return to == MissionStatusInProgress || to == MissionStatusAborted
	case MissionStatusInProgress:
		return to == MissionStatusPaused || to == MissionStatusCompleted || to == MissionStatusAborted
	case MissionStatusPaused:
		return to == MissionStatusInProgress || to == MissionStatusCompleted || to == MissionStatusAborted
	}
	return false
}

// FlightPattern алгоритм генерации маршрута по зоне съемки
type FlightPattern string

const (
	PatternCrosshatch FlightPattern = "crosshatch"
	PatternPerimeter  FlightPattern = "perimeter"
	PatternCustom     FlightPattern = "custom"
)

// Valid проверяет корректность паттерна
func (p FlightPattern) Valid() bool {
	switch p {
	case PatternCrosshatch, PatternPerimeter, PatternCustom:
		return true
	}
	return false
}

// WaypointAction действие дрона в путевой точке
type WaypointAction string

const (
	ActionCapture WaypointAction = "capture"
	ActionHover   WaypointAction = "hover"
	ActionTurn    WaypointAction = "turn"
)

// Waypoint путевая точка маршрута полета
type Waypoint struct {
	Lat      float64        `json:"lat"`
	Lng      float64        `json:"lng"`
	Altitude float64        `json:"altitude"`
	Action   WaypointAction `json:"action,omitempty"`
}

// SurveyArea зона съемки миссии
type SurveyArea struct {
	Center GeoPoint   `json:"center"` // Центроид границ
	Bounds []GeoPoint `json:"bounds"` // Упорядоченные вершины полигона, минимум 3
}

// FlightPath материализованный маршрут полета
type FlightPath struct {
	Waypoints []Waypoint    `json:"waypoints"`
	Pattern   FlightPattern `json:"pattern"`
}

// MissionParameters параметры полета
type MissionParameters struct {
	Altitude                float64  `json:"altitude"`                // Высота съемки (м)
	Speed                   float64  `json:"speed"`                   // Скорость (м/с)
	OverlapPercentage       float64  `json:"overlapPercentage"`       // Перекрытие снимков (%)
	DataCollectionFrequency float64  `json:"dataCollectionFrequency"` // Частота сбора данных (Гц)
	Sensors                 []string `json:"sensors"`
}

// MissionProgress прогресс выполнения миссии
type MissionProgress struct {
	Percentage             float64 `json:"percentage"`
	CurrentWaypoint        int     `json:"currentWaypoint"`
	EstimatedTimeRemaining int     `json:"estimatedTimeRemaining"` // Минуты
}

// Mission представляет съемочную миссию.
// Миссии никогда не удаляются, только переводятся по статусам.
type Mission struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	DroneID string        `json:"droneId"` // Ссылка ровно на один дрон
	Status  MissionStatus `json:"status"`

	SurveyArea SurveyArea        `json:"surveyArea"`
	FlightPath FlightPath        `json:"flightPath"`
	Parameters MissionParameters `json:"parameters"`
	Progress   MissionProgress   `json:"progress"`

	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Validate проверяет корректность данных миссии
func (m *Mission) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("mission name is required")
	}
	if m.DroneID == "" {
		return fmt.Errorf("droneId is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("invalid mission status: %q", m.Status)
	}
	if !m.FlightPath.Pattern.Valid() {
		return fmt.Errorf("invalid flight pattern: %q", m.FlightPath.Pattern)
	}
	if len(m.SurveyArea.Bounds) < 3 {
		return fmt.Errorf("survey area requires at least 3 boundary points, got %d", len(m.SurveyArea.Bounds))
	}
	for i, p := range m.SurveyArea.Bounds {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("bounds[%d]: %w", i, err)
		}
	}

	// Инвариант: у perimeter паттерна путевых точек не меньше, чем вершин границы
	if m.FlightPath.Pattern == PatternPerimeter && len(m.FlightPath.Waypoints) < len(m.SurveyArea.Bounds) {
		return fmt.Errorf("perimeter flight path has %d waypoints for %d boundary points",
			len(m.FlightPath.Waypoints), len(m.SurveyArea.Bounds))
	}

	return nil
}

// MissionPatch частичное обновление полей миссии.
// updatedAt не входит: репозиторий проставляет его принудительно при каждом merge.
type MissionPatch struct {
	Name       *string            `json:"name,omitempty"`
	DroneID    *string            `json:"droneId,omitempty"`
	Status     *MissionStatus     `json:"status,omitempty"`
	SurveyArea *SurveyArea        `json:"surveyArea,omitempty"`
	FlightPath *FlightPath        `json:"flightPath,omitempty"`
	Parameters *MissionParameters `json:"parameters,omitempty"`
	Progress   *MissionProgress   `json:"progress,omitempty"`
	StartTime  *time.Time         `json:"startTime,omitempty"`
	EndTime    *time.Time         `json:"endTime,omitempty"`
}

// Apply применяет patch к миссии, идентичность сохраняется
func (m *Mission) Apply(p MissionPatch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.DroneID != nil {
		m.DroneID = *p.DroneID
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.SurveyArea != nil {
		m.SurveyArea = *p.SurveyArea
	}
	if p.FlightPath != nil {
		m.FlightPath = *p.FlightPath
	}
	if p.Parameters != nil {
		m.Parameters = *p.Parameters
	}
	if p.Progress != nil {
		m.Progress = *p.Progress
	}
	if p.StartTime != nil {
		m.StartTime = p.StartTime
	}
	if p.EndTime != nil {
		m.EndTime = p.EndTime
	}
}
