package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/repository"
	"github.com/flybeeper/survey-backend/internal/store"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func testSurveyConfig() *config.SurveyConfig {
	return &config.SurveyConfig{
		PreviewDivisions:  5,
		FallbackDivisions: 3,
		GeohashPrecision:  5,
		MinAltitude:       10,
		MaxAltitude:       400,
		MinSpeed:          1,
		MaxSpeed:          25,
	}
}

func newServices(t *testing.T) (*FleetService, *MissionService) {
	t.Helper()

	cfg := &config.StorageConfig{
		DronesKey:   "survey:drones",
		MissionsKey: "survey:missions",
		SeedPath:    "/nonexistent/seed.json",
	}
	s := store.New(cfg, store.NewMemoryBlobStore(), testLogger())
	require.NoError(t, s.Load(context.Background()))

	droneRepo := repository.NewDroneRepository(s, testLogger())
	missionRepo := repository.NewMissionRepository(s, testLogger())

	fleet := NewFleetService(droneRepo, testLogger())
	missions := NewMissionService(missionRepo, droneRepo, nil, testSurveyConfig(), testLogger())
	return fleet, missions
}

func squareBounds() []models.GeoPoint {
	return []models.GeoPoint{
		{Lat: 40.70, Lng: -74.01},
		{Lat: 40.72, Lng: -74.01},
		{Lat: 40.72, Lng: -73.99},
		{Lat: 40.70, Lng: -73.99},
	}
}

func TestFleetService_CreateDrone_Defaults(t *testing.T) {
	ctx := context.Background()
	fleet, _ := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha", Model: "DJI Matrice 350 RTK"})
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, models.DroneStatusAvailable, d.Status)
	assert.Equal(t, 100, d.BatteryLevel)
	assert.Equal(t, 95, d.GPSSignal)
	assert.Equal(t, 25.0, d.Temperature)
	assert.InDelta(t, 40.7128, d.Location.Lat, 1e-9)
	assert.InDelta(t, -74.0060, d.Location.Lng, 1e-9)
	assert.False(t, d.LastMaintenance.IsZero())
}

func TestFleetService_CreateDrone_ExplicitLocation(t *testing.T) {
	ctx := context.Background()
	fleet, _ := newServices(t)

	loc := models.GeoPoint{Lat: 51.5074, Lng: -0.1278}
	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Beta", Location: &loc})
	require.NoError(t, err)

	assert.Equal(t, loc, d.Location)
}

func TestFleetService_ToggleMaintenance(t *testing.T) {
	ctx := context.Background()
	fleet, _ := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)
	created := d.LastMaintenance

	// available -> maintenance проставляет lastMaintenance
	d, err = fleet.ToggleMaintenance(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DroneStatusMaintenance, d.Status)
	assert.False(t, d.LastMaintenance.Before(created))

	// maintenance -> available
	d, err = fleet.ToggleMaintenance(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DroneStatusAvailable, d.Status)
}

func TestFleetService_ToggleMaintenance_Errors(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	_, err := fleet.ToggleMaintenance(ctx, "missing")
	assert.ErrorIs(t, err, ErrDroneNotFound)

	// Дрон в миссии переключению не подлежит
	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	_, err = missions.PlanMission(ctx, MissionInput{
		Name:       "Harbor Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternPerimeter,
		Bounds:     squareBounds(),
		Parameters: models.MissionParameters{Altitude: 120, Speed: 10},
	})
	require.NoError(t, err)

	_, err = fleet.ToggleMaintenance(ctx, d.ID)
	assert.ErrorIs(t, err, ErrDroneBusy)
}

func TestMissionService_PlanMission(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	m, err := missions.PlanMission(ctx, MissionInput{
		Name:       "Harbor Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternPerimeter,
		Bounds:     squareBounds(),
		Parameters: models.MissionParameters{Altitude: 120, Speed: 10},
	})
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, models.MissionStatusPlanned, m.Status)

	// Периметр: маршрут 1:1 по вершинам, центр — среднее арифметическое
	assert.Len(t, m.FlightPath.Waypoints, 4)
	assert.InDelta(t, 40.71, m.SurveyArea.Center.Lat, 1e-9)
	assert.InDelta(t, -74.0, m.SurveyArea.Center.Lng, 1e-9)

	// ceil(4*60/10) = 24 минуты
	assert.Equal(t, 24, m.Progress.EstimatedTimeRemaining)

	// Назначение пометило дрона занятым
	updated, err := fleet.drones.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DroneStatusInMission, updated.Status)
	assert.Equal(t, m.ID, updated.CurrentMissionID)
}

func TestMissionService_PlanMission_CrosshatchFallback(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	m, err := missions.PlanMission(ctx, MissionInput{
		Name:       "Grid Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternCrosshatch,
		Bounds:     squareBounds(),
		Parameters: models.MissionParameters{Altitude: 100, Speed: 12},
	})
	require.NoError(t, err)

	// Fallback-генерация: сетка (3+1)^2
	assert.Len(t, m.FlightPath.Waypoints, 16)
	assert.Equal(t, models.PatternCrosshatch, m.FlightPath.Pattern)
}

func TestMissionService_PlanMission_ExplicitWaypoints(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	// Собственные высоты точек игнорируются: маршрут летит на высоте миссии
	custom := []models.Waypoint{
		{Lat: 40.705, Lng: -74.005, Altitude: 50, Action: models.ActionCapture},
		{Lat: 40.715, Lng: -74.005, Altitude: 50, Action: models.ActionHover},
		{Lat: 40.715, Lng: -73.995, Altitude: 50, Action: models.ActionCapture},
		{Lat: 40.705, Lng: -73.995, Altitude: 50, Action: models.ActionTurn},
	}
	m, err := missions.PlanMission(ctx, MissionInput{
		Name:       "Custom Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternCustom,
		Bounds:     squareBounds(),
		Waypoints:  custom,
		Parameters: models.MissionParameters{Altitude: 120, Speed: 8},
	})
	require.NoError(t, err)

	require.Len(t, m.FlightPath.Waypoints, 4)
	for i, wp := range m.FlightPath.Waypoints {
		assert.Equal(t, custom[i].Lat, wp.Lat)
		assert.Equal(t, custom[i].Lng, wp.Lng)
		assert.Equal(t, custom[i].Action, wp.Action)
		assert.Equal(t, 120.0, wp.Altitude)
	}
}

func TestMissionService_PlanMission_Validation(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	base := MissionInput{
		Name:       "Harbor Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternPerimeter,
		Bounds:     squareBounds(),
		Parameters: models.MissionParameters{Altitude: 120, Speed: 10},
	}

	t.Run("Insufficient bounds", func(t *testing.T) {
		in := base
		in.Bounds = in.Bounds[:2]
		_, err := missions.PlanMission(ctx, in)
		assert.Error(t, err)
	})

	t.Run("Unknown drone", func(t *testing.T) {
		in := base
		in.DroneID = "missing"
		_, err := missions.PlanMission(ctx, in)
		assert.ErrorIs(t, err, ErrDroneNotFound)
	})

	t.Run("Altitude out of range", func(t *testing.T) {
		in := base
		in.Parameters.Altitude = 500
		_, err := missions.PlanMission(ctx, in)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "altitude")
	})

	t.Run("Speed out of range", func(t *testing.T) {
		in := base
		in.Parameters.Speed = 0.5
		_, err := missions.PlanMission(ctx, in)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "speed")
	})
}

func TestMissionService_UpdateMission(t *testing.T) {
	ctx := context.Background()
	fleet, missions := newServices(t)

	d, err := fleet.CreateDrone(ctx, DroneInput{Name: "Surveyor Alpha"})
	require.NoError(t, err)

	m, err := missions.PlanMission(ctx, MissionInput{
		Name:       "Harbor Survey",
		DroneID:    d.ID,
		Pattern:    models.PatternPerimeter,
		Bounds:     squareBounds(),
		Parameters: models.MissionParameters{Altitude: 120, Speed: 10},
	})
	require.NoError(t, err)

	status := models.MissionStatusCompleted
	updated, err := missions.UpdateMission(ctx, m.ID, models.MissionPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.MissionStatusCompleted, updated.Status)

	// Завершение миссии НЕ освобождает дрона: он остается in-mission
	// до явного обновления вызывающей стороной
	stale, err := fleet.drones.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DroneStatusInMission, stale.Status)
	assert.Equal(t, m.ID, stale.CurrentMissionID)
}

func TestMissionService_UpdateMission_Missing(t *testing.T) {
	ctx := context.Background()
	_, missions := newServices(t)

	_, err := missions.UpdateMission(ctx, "missing", models.MissionPatch{})
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestMissionService_PreviewFlightPath(t *testing.T) {
	_, missions := newServices(t)

	// Превью crosshatch использует гребенку с PreviewDivisions=5
	waypoints, err := missions.PreviewFlightPath(models.PatternCrosshatch, squareBounds(), 100)
	require.NoError(t, err)
	assert.Len(t, waypoints, 4*(5+1))

	waypoints, err = missions.PreviewFlightPath(models.PatternCustom, squareBounds(), 100)
	require.NoError(t, err)
	assert.Empty(t, waypoints)
}
