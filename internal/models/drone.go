package models

import (
	"fmt"
	"time"
)

// DroneStatus статус дрона в парке
type DroneStatus string

const (
	DroneStatusAvailable   DroneStatus = "available"   // Доступен для назначения
	DroneStatusInMission   DroneStatus = "in-mission"  // Выполняет миссию
	DroneStatusIdle        DroneStatus = "idle"        // Простаивает
	DroneStatusMaintenance DroneStatus = "maintenance" // На обслуживании
)

// Valid проверяет, входит ли статус в допустимый словарь
func (s DroneStatus) Valid() bool {
	switch s {
	case DroneStatusAvailable, DroneStatusInMission, DroneStatusIdle, DroneStatusMaintenance:
		return true
	}
	return false
}

// DroneSpecifications технические характеристики дрона.
// После создания на практике не изменяются.
type DroneSpecifications struct {
	MaxAltitude   float64  `json:"maxAltitude"`   // Максимальная высота (м)
	MaxSpeed      float64  `json:"maxSpeed"`      // Максимальная скорость (м/с)
	MaxFlightTime float64  `json:"maxFlightTime"` // Максимальное время полета (мин)
	Sensors       []string `json:"sensors"`       // Установленные сенсоры
}

// Drone представляет съемочный дрон парка
type Drone struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Model  string      `json:"model"`
	Status DroneStatus `json:"status"`

	// Телеметрия
	BatteryLevel int      `json:"batteryLevel"` // Заряд батареи (0-100)
	Location     GeoPoint `json:"location"`     // Текущие координаты
	GPSSignal    int      `json:"gpsSignal"`    // Качество GPS сигнала (0-100)
	Temperature  float64  `json:"temperature"`  // Температура (°C)

	// Обслуживание и назначение
	LastMaintenance  time.Time `json:"lastMaintenance"`
	CurrentMissionID string    `json:"currentMissionId,omitempty"` // Валиден только при status = in-mission

	Specifications DroneSpecifications `json:"specifications"`
}

// Validate проверяет корректность данных дрона
func (d *Drone) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("drone name is required")
	}
	if !d.Status.Valid() {
		return fmt.Errorf("invalid drone status: %q", d.Status)
	}
	if d.BatteryLevel < 0 || d.BatteryLevel > 100 {
		return fmt.Errorf("invalid battery level: %d", d.BatteryLevel)
	}
	if d.GPSSignal < 0 || d.GPSSignal > 100 {
		return fmt.Errorf("invalid gps signal: %d", d.GPSSignal)
	}
	if err := d.Location.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}

	// Инвариант: currentMissionId установлен тогда и только тогда, когда дрон в миссии
	if d.CurrentMissionID != "" && d.Status != DroneStatusInMission {
		return fmt.Errorf("currentMissionId set while status is %q", d.Status)
	}
	if d.CurrentMissionID == "" && d.Status == DroneStatusInMission {
		return fmt.Errorf("status is in-mission without currentMissionId")
	}

	return nil
}

// DronePatch частичное обновление полей дрона.
// nil-поля не затрагиваются при merge.
type DronePatch struct {
	Name             *string              `json:"name,omitempty"`
	Model            *string              `json:"model,omitempty"`
	Status           *DroneStatus         `json:"status,omitempty"`
	BatteryLevel     *int                 `json:"batteryLevel,omitempty"`
	Location         *GeoPoint            `json:"location,omitempty"`
	GPSSignal        *int                 `json:"gpsSignal,omitempty"`
	Temperature      *float64             `json:"temperature,omitempty"`
	LastMaintenance  *time.Time           `json:"lastMaintenance,omitempty"`
	CurrentMissionID *string              `json:"currentMissionId,omitempty"`
	Specifications   *DroneSpecifications `json:"specifications,omitempty"`
}

// Apply применяет patch к дрону, идентичность сохраняется
func (d *Drone) Apply(p DronePatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Model != nil {
		d.Model = *p.Model
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.BatteryLevel != nil {
		d.BatteryLevel = *p.BatteryLevel
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.GPSSignal != nil {
		d.GPSSignal = *p.GPSSignal
	}
	if p.Temperature != nil {
		d.Temperature = *p.Temperature
	}
	if p.LastMaintenance != nil {
		d.LastMaintenance = *p.LastMaintenance
	}
	if p.CurrentMissionID != nil {
		d.CurrentMissionID = *p.CurrentMissionID
	}
	if p.Specifications != nil {
		d.Specifications = *p.Specifications
	}
}
