package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/store"
)

// StoreMissionRepository репозиторий миссий поверх entity store
type StoreMissionRepository struct {
	store  *store.Store
	logger *logrus.Entry
}

// NewMissionRepository создает репозиторий миссий
func NewMissionRepository(s *store.Store, logger *logrus.Entry) *StoreMissionRepository {
	return &StoreMissionRepository{
		store:  s,
		logger: logger,
	}
}

// List возвращает снимок всех миссий
func (r *StoreMissionRepository) List(ctx context.Context) ([]models.Mission, error) {
	return r.store.Missions(ctx), nil
}

// Get возвращает миссию или (nil, nil) если не найдена
func (r *StoreMissionRepository) Get(ctx context.Context, id string) (*models.Mission, error) {
	m, ok := r.store.MissionByID(ctx, id)
	if !ok {
		return nil, nil
	}
	return m, nil
}

// Create добавляет миссию; store атомарно назначает свежий id вида
// mission<unix-millis>
func (r *StoreMissionRepository) Create(ctx context.Context, m models.Mission) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("invalid mission: %w", err)
	}

	m.ID = ""
	id, err := r.store.AppendMission(ctx, m)
	if err != nil {
		return "", err
	}

	r.logger.WithFields(logrus.Fields{
		"mission_id": id,
		"drone_id":   m.DroneID,
		"pattern":    m.FlightPath.Pattern,
		"waypoints":  len(m.FlightPath.Waypoints),
	}).Info("Created mission")

	return id, nil
}

// Update делает field-level merge и принудительно продвигает updatedAt.
// Легальность статусных переходов не проверяется: update принимает
// любой статус. Отсутствующий id — молчаливый no-op, (nil, nil).
func (r *StoreMissionRepository) Update(ctx context.Context, id string, patch models.MissionPatch) (*models.Mission, error) {
	return r.store.UpdateMission(ctx, id, patch)
}

// ListActive возвращает миссии со статусом starting/in-progress/paused
func (r *StoreMissionRepository) ListActive(ctx context.Context) ([]models.Mission, error) {
	all := r.store.Missions(ctx)

	active := make([]models.Mission, 0, len(all))
	for _, m := range all {
		if m.Status.IsActive() {
			active = append(active, m)
		}
	}

	return active, nil
}
