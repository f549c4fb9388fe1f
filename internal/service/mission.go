package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/planner"
	"github.com/flybeeper/survey-backend/internal/repository"
)

// MissionService планирование и сопровождение жизненного цикла миссий
type MissionService struct {
	missions repository.MissionRepository
	drones   repository.DroneRepository
	archive  *ArchiveWriter // nil когда архив не сконфигурирован
	config   *config.SurveyConfig
	logger   *logrus.Entry
}

// NewMissionService создает сервис миссий
func NewMissionService(missions repository.MissionRepository, drones repository.DroneRepository, archive *ArchiveWriter, cfg *config.SurveyConfig, logger *logrus.Entry) *MissionService {
	return &MissionService{
		missions: missions,
		drones:   drones,
		archive:  archive,
		config:   cfg,
		logger:   logger,
	}
}

// MissionInput параметры планирования миссии
type MissionInput struct {
	Name       string                   `json:"name" binding:"required"`
	DroneID    string                   `json:"droneId" binding:"required"`
	Pattern    models.FlightPattern     `json:"pattern" binding:"required"`
	Bounds     []models.GeoPoint        `json:"bounds" binding:"required"`
	Waypoints  []models.Waypoint        `json:"waypoints,omitempty"`
	Parameters models.MissionParameters `json:"parameters"`
}

// PlanMission планирует новую миссию: проверяет параметры полета, при
// отсутствии маршрута генерирует его по паттерну, назначает дрона и
// помечает его занятым.
func (s *MissionService) PlanMission(ctx context.Context, in MissionInput) (*models.Mission, error) {
	if len(in.Bounds) < 3 {
		return nil, planner.ErrInsufficientBounds
	}
	if !in.Pattern.Valid() {
		return nil, fmt.Errorf("invalid flight pattern: %q", in.Pattern)
	}
	if in.Parameters.Altitude < s.config.MinAltitude || in.Parameters.Altitude > s.config.MaxAltitude {
		return nil, fmt.Errorf("altitude %.1f outside allowed range [%.0f, %.0f]",
			in.Parameters.Altitude, s.config.MinAltitude, s.config.MaxAltitude)
	}
	if in.Parameters.Speed < s.config.MinSpeed || in.Parameters.Speed > s.config.MaxSpeed {
		return nil, fmt.Errorf("speed %.1f outside allowed range [%.0f, %.0f]",
			in.Parameters.Speed, s.config.MinSpeed, s.config.MaxSpeed)
	}

	drone, err := s.drones.Get(ctx, in.DroneID)
	if err != nil {
		return nil, err
	}
	if drone == nil {
		return nil, ErrDroneNotFound
	}

	waypoints := in.Waypoints
	if len(waypoints) == 0 {
		waypoints, err = planner.GenerateFallback(in.Pattern, in.Bounds, s.config.FallbackDivisions, in.Parameters.Altitude)
		if err != nil {
			return nil, err
		}
	}
	// Высота миссии перекрывает высоты отдельных точек маршрута
	for i := range waypoints {
		waypoints[i].Altitude = in.Parameters.Altitude
	}

	now := time.Now()
	m := models.Mission{
		Name:    in.Name,
		DroneID: in.DroneID,
		Status:  models.MissionStatusPlanned,
		SurveyArea: models.SurveyArea{
			Center: models.Centroid(in.Bounds),
			Bounds: in.Bounds,
		},
		FlightPath: models.FlightPath{
			Waypoints: waypoints,
			Pattern:   in.Pattern,
		},
		Parameters: in.Parameters,
		Progress: models.MissionProgress{
			EstimatedTimeRemaining: planner.EstimateDuration(len(waypoints), in.Parameters.Speed),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.missions.Create(ctx, m)
	if err != nil {
		return nil, err
	}

	// Назначение помечает дрона занятым
	busy := models.DroneStatusInMission
	if err := s.drones.Update(ctx, in.DroneID, models.DronePatch{
		Status:           &busy,
		CurrentMissionID: &id,
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"mission_id": id,
		"drone_id":   in.DroneID,
		"pattern":    in.Pattern,
		"waypoints":  len(waypoints),
	}).Info("Planned mission")

	return s.missions.Get(ctx, id)
}

// UpdateMission применяет частичное обновление к миссии. Переход в
// completed ставит миссию в очередь архивации; дрон при этом НЕ
// освобождается автоматически, освобождение остается на вызывающей
// стороне (поведение исходной системы).
func (s *MissionService) UpdateMission(ctx context.Context, id string, patch models.MissionPatch) (*models.Mission, error) {
	updated, err := s.missions.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMissionNotFound
	}

	if s.archive != nil && patch.Status != nil && updated.Status.IsTerminal() {
		if err := s.archive.QueueMission(updated); err != nil {
			s.logger.WithError(err).WithField("mission_id", id).Warn("Failed to queue mission for archival")
		}
	}

	return updated, nil
}

// PreviewFlightPath генерирует маршрут для интерактивного предпросмотра
// без создания миссии
func (s *MissionService) PreviewFlightPath(pattern models.FlightPattern, bounds []models.GeoPoint, altitude float64) ([]models.Waypoint, error) {
	return planner.GeneratePreview(pattern, bounds, s.config.PreviewDivisions, altitude)
}
