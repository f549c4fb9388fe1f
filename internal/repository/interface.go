package repository

import (
	"context"
	"time"

	"github.com/flybeeper/survey-backend/internal/models"
)

// DroneRepository CRUD-операции над коллекцией дронов.
// Все операции завершаются немедленно, но сигнатуры асинхронны
// (context + error), чтобы сетевой бекенд мог встать на их место
// без изменения вызывающего кода.
type DroneRepository interface {
	// List возвращает снимок всех дронов
	List(ctx context.Context) ([]models.Drone, error)
	// Get возвращает дрона или (nil, nil) если не найден
	Get(ctx context.Context, id string) (*models.Drone, error)
	// Create назначает свежий id, добавляет дрона и возвращает id
	Create(ctx context.Context, d models.Drone) (string, error)
	// Update делает field-level merge; отсутствующий id — молчаливый no-op
	Update(ctx context.Context, id string, patch models.DronePatch) error
	// Delete удаляет дрона если он существует
	Delete(ctx context.Context, id string) error
}

// MissionRepository CRUD-операции над коллекцией миссий.
// Delete отсутствует: миссии никогда не удаляются, только переводятся
// по статусам. Update принудительно продвигает updatedAt и принимает
// любой статус без валидации переходов.
type MissionRepository interface {
	List(ctx context.Context) ([]models.Mission, error)
	Get(ctx context.Context, id string) (*models.Mission, error)
	Create(ctx context.Context, m models.Mission) (string, error)
	Update(ctx context.Context, id string, patch models.MissionPatch) (*models.Mission, error)
	// ListActive возвращает миссии со статусом starting/in-progress/paused
	ListActive(ctx context.Context) ([]models.Mission, error)
}

// HistoryRepository архив завершенных миссий (долговременное хранение)
type HistoryRepository interface {
	Ping(ctx context.Context) error
	Close() error

	SaveMissionsBatch(ctx context.Context, records []ArchivedMission) error
	LoadRecentMissions(ctx context.Context, limit int) ([]ArchivedMission, error)
	CleanupOldMissions(ctx context.Context, olderThan time.Duration) error
}

var _ DroneRepository = (*StoreDroneRepository)(nil)
var _ MissionRepository = (*StoreMissionRepository)(nil)
var _ HistoryRepository = (*MySQLRepository)(nil)
