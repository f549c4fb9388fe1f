package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/store"
)

// StoreDroneRepository репозиторий дронов поверх entity store
type StoreDroneRepository struct {
	store  *store.Store
	logger *logrus.Entry
}

// NewDroneRepository создает репозиторий дронов
func NewDroneRepository(s *store.Store, logger *logrus.Entry) *StoreDroneRepository {
	return &StoreDroneRepository{
		store:  s,
		logger: logger,
	}
}

// List возвращает снимок всех дронов
func (r *StoreDroneRepository) List(ctx context.Context) ([]models.Drone, error) {
	return r.store.Drones(ctx), nil
}

// Get возвращает дрона или (nil, nil) если не найден
func (r *StoreDroneRepository) Get(ctx context.Context, id string) (*models.Drone, error) {
	d, ok := r.store.DroneByID(ctx, id)
	if !ok {
		return nil, nil
	}
	return d, nil
}

// Create добавляет дрона; store атомарно назначает свежий id вида
// drone<unix-millis>
func (r *StoreDroneRepository) Create(ctx context.Context, d models.Drone) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("invalid drone: %w", err)
	}

	d.ID = ""
	id, err := r.store.AppendDrone(ctx, d)
	if err != nil {
		return "", err
	}

	r.logger.WithFields(logrus.Fields{
		"drone_id": id,
		"name":     d.Name,
	}).Info("Created drone")

	return id, nil
}

// Update делает field-level merge; отсутствующий id — молчаливый no-op
func (r *StoreDroneRepository) Update(ctx context.Context, id string, patch models.DronePatch) error {
	return r.store.UpdateDrone(ctx, id, patch)
}

// Delete удаляет дрона если он существует
func (r *StoreDroneRepository) Delete(ctx context.Context, id string) error {
	return r.store.RemoveDrone(ctx, id)
}
