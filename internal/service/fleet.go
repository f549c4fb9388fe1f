// Package service бизнес-операции над парком дронов и миссиями.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/repository"
)

// Ошибки уровня бизнес-логики, различаемые HTTP-слоем
var (
	ErrDroneNotFound   = errors.New("drone not found")
	ErrMissionNotFound = errors.New("mission not found")
	ErrDroneBusy       = errors.New("drone is not available for maintenance toggle")
)

// Умолчания для нового дрона: свежая батарея, базовая точка парка,
// уверенный GPS и комнатная температура
const (
	defaultBatteryLevel = 100
	defaultGPSSignal    = 95
	defaultTemperature  = 25.0
	defaultBaseLat      = 40.7128
	defaultBaseLng      = -74.0060
)

// FleetService операции над парком дронов
type FleetService struct {
	drones repository.DroneRepository
	logger *logrus.Entry
}

// NewFleetService создает сервис парка
func NewFleetService(drones repository.DroneRepository, logger *logrus.Entry) *FleetService {
	return &FleetService{
		drones: drones,
		logger: logger,
	}
}

// DroneInput параметры регистрации нового дрона
type DroneInput struct {
	Name           string                      `json:"name" binding:"required"`
	Model          string                      `json:"model"`
	Location       *models.GeoPoint            `json:"location,omitempty"`
	Specifications *models.DroneSpecifications `json:"specifications,omitempty"`
}

// CreateDrone регистрирует нового дрона с умолчаниями телеметрии:
// полный заряд, базовая точка, статус available
func (s *FleetService) CreateDrone(ctx context.Context, in DroneInput) (*models.Drone, error) {
	d := models.Drone{
		Name:            in.Name,
		Model:           in.Model,
		Status:          models.DroneStatusAvailable,
		BatteryLevel:    defaultBatteryLevel,
		Location:        models.GeoPoint{Lat: defaultBaseLat, Lng: defaultBaseLng},
		GPSSignal:       defaultGPSSignal,
		Temperature:     defaultTemperature,
		LastMaintenance: time.Now(),
	}

	if in.Location != nil {
		d.Location = *in.Location
	}
	if in.Specifications != nil {
		d.Specifications = *in.Specifications
	}

	id, err := s.drones.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	return s.drones.Get(ctx, id)
}

// ToggleMaintenance переключает дрона между available и maintenance.
// Перевод в обслуживание проставляет lastMaintenance. Дрон в миссии
// или в статусе idle переключению не подлежит.
func (s *FleetService) ToggleMaintenance(ctx context.Context, id string) (*models.Drone, error) {
	d, err := s.drones.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDroneNotFound
	}

	var target models.DroneStatus
	switch d.Status {
	case models.DroneStatusAvailable:
		target = models.DroneStatusMaintenance
	case models.DroneStatusMaintenance:
		target = models.DroneStatusAvailable
	default:
		return nil, fmt.Errorf("%w: status %q", ErrDroneBusy, d.Status)
	}

	patch := models.DronePatch{Status: &target}
	if target == models.DroneStatusMaintenance {
		now := time.Now()
		patch.LastMaintenance = &now
	}

	if err := s.drones.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"drone_id": id,
		"status":   target,
	}).Info("Toggled drone maintenance")

	return s.drones.Get(ctx, id)
}
