package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/metrics"
	"github.com/flybeeper/survey-backend/internal/models"
)

// Store entity store: единственное разделяемое изменяемое состояние.
// Держит коллекции дронов и миссий в памяти; после каждой мутации
// коллекция целиком сериализуется и отдается в BlobStore. Ошибки
// персистентности логируются и не прерывают операцию: blob-хранилище
// выступает зеркалом, источником истины остается память процесса.
type Store struct {
	mu       sync.RWMutex
	drones   []models.Drone
	missions []models.Mission

	blobs  BlobStore
	config *config.StorageConfig
	logger *logrus.Entry
}

// New создает entity store поверх blob-хранилища
func New(cfg *config.StorageConfig, blobs BlobStore, logger *logrus.Entry) *Store {
	return &Store{
		drones:   []models.Drone{},
		missions: []models.Mission{},
		blobs:    blobs,
		config:   cfg,
		logger:   logger,
	}
}

// Load восстанавливает коллекции из blob-хранилища.
// Отсутствующий или поврежденный блоб молча (с логом) замещается
// seed-датасетом; ошибка чтения состояния никогда не фатальна.
func (s *Store) Load(ctx context.Context) error {
	seed, err := LoadSeed(s.config.SeedPath)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load seed dataset, starting empty")
		seed = &SeedData{Drones: []models.Drone{}, Missions: []models.Mission{}}
	}

	drones, ok := loadCollection[models.Drone](ctx, s.blobs, s.config.DronesKey, s.logger)
	if !ok {
		drones = seed.Drones
		s.logger.WithField("count", len(drones)).Info("Seeded drone collection")
	}

	missions, ok := loadCollection[models.Mission](ctx, s.blobs, s.config.MissionsKey, s.logger)
	if !ok {
		missions = seed.Missions
		s.logger.WithField("count", len(missions)).Info("Seeded mission collection")
	}

	s.mu.Lock()
	s.drones = drones
	s.missions = missions
	s.mu.Unlock()

	s.updateGauges()

	s.logger.WithFields(logrus.Fields{
		"drones":   len(drones),
		"missions": len(missions),
	}).Info("Entity store loaded")

	return nil
}

// Reset замещает коллекции seed-датасетом и персистит обе
func (s *Store) Reset(ctx context.Context) error {
	seed, err := LoadSeed(s.config.SeedPath)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	s.mu.Lock()
	s.drones = seed.Drones
	s.missions = seed.Missions
	s.mu.Unlock()

	s.persistDrones(ctx)
	s.persistMissions(ctx)
	s.updateGauges()

	return nil
}

// ReplaceAll замещает обе коллекции целиком (POST /api/data)
func (s *Store) ReplaceAll(ctx context.Context, drones []models.Drone, missions []models.Mission) error {
	s.mu.Lock()
	s.drones = append([]models.Drone{}, drones...)
	s.missions = append([]models.Mission{}, missions...)
	s.mu.Unlock()

	s.persistDrones(ctx)
	s.persistMissions(ctx)
	s.updateGauges()

	return nil
}

// Drones возвращает снимок коллекции дронов
func (s *Store) Drones(_ context.Context) []models.Drone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Drone{}, s.drones...)
}

// DroneByID возвращает дрона по идентификатору
func (s *Store) DroneByID(_ context.Context, id string) (*models.Drone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.drones {
		if s.drones[i].ID == id {
			d := s.drones[i]
			return &d, true
		}
	}
	return nil, false
}

// AppendDrone добавляет дрона в коллекцию и персистит её.
// Пустой id замещается свежим атомарно под write lock: проверка
// уникальности и вставка неразделимы.
func (s *Store) AppendDrone(ctx context.Context, d models.Drone) (string, error) {
	s.mu.Lock()
	if d.ID == "" {
		d.ID = nextID("drone", func(id string) bool {
			for i := range s.drones {
				if s.drones[i].ID == id {
					return true
				}
			}
			return false
		})
	}
	s.drones = append(s.drones, d)
	s.mu.Unlock()

	s.persistDrones(ctx)
	s.updateGauges()
	return d.ID, nil
}

// UpdateDrone применяет частичное обновление к дрону.
// Отсутствующий id — молчаливый no-op.
func (s *Store) UpdateDrone(ctx context.Context, id string, patch models.DronePatch) error {
	s.mu.Lock()
	found := false
	for i := range s.drones {
		if s.drones[i].ID == id {
			s.drones[i].Apply(patch)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return nil
	}

	s.persistDrones(ctx)
	s.updateGauges()
	return nil
}

// RemoveDrone удаляет дрона из коллекции
func (s *Store) RemoveDrone(ctx context.Context, id string) error {
	s.mu.Lock()
	filtered := s.drones[:0]
	removed := false
	for _, d := range s.drones {
		if d.ID == id {
			removed = true
			continue
		}
		filtered = append(filtered, d)
	}
	s.drones = filtered
	s.mu.Unlock()

	if !removed {
		return nil
	}

	s.persistDrones(ctx)
	s.updateGauges()
	return nil
}

// Missions возвращает снимок коллекции миссий
func (s *Store) Missions(_ context.Context) []models.Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Mission{}, s.missions...)
}

// MissionByID возвращает миссию по идентификатору
func (s *Store) MissionByID(_ context.Context, id string) (*models.Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.missions {
		if s.missions[i].ID == id {
			m := s.missions[i]
			return &m, true
		}
	}
	return nil, false
}

// AppendMission добавляет миссию в коллекцию и персистит её.
// Пустой id замещается свежим атомарно под write lock.
func (s *Store) AppendMission(ctx context.Context, m models.Mission) (string, error) {
	s.mu.Lock()
	if m.ID == "" {
		m.ID = nextID("mission", func(id string) bool {
			for i := range s.missions {
				if s.missions[i].ID == id {
					return true
				}
			}
			return false
		})
	}
	s.missions = append(s.missions, m)
	s.mu.Unlock()

	s.persistMissions(ctx)
	s.updateGauges()
	return m.ID, nil
}

// UpdateMission применяет частичное обновление к миссии.
// updatedAt продвигается при каждом merge независимо от содержимого patch.
// Отсутствующий id — молчаливый no-op.
func (s *Store) UpdateMission(ctx context.Context, id string, patch models.MissionPatch) (*models.Mission, error) {
	var updated *models.Mission

	s.mu.Lock()
	for i := range s.missions {
		if s.missions[i].ID == id {
			s.missions[i].Apply(patch)
			s.missions[i].UpdatedAt = time.Now()
			m := s.missions[i]
			updated = &m
			break
		}
	}
	s.mu.Unlock()

	if updated == nil {
		return nil, nil
	}

	s.persistMissions(ctx)
	s.updateGauges()
	return updated, nil
}

// persistDrones сериализует и сохраняет коллекцию дронов
func (s *Store) persistDrones(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.drones)
	s.mu.RUnlock()

	s.persist(ctx, s.config.DronesKey, "drones", data, err)
}

// persistMissions сериализует и сохраняет коллекцию миссий
func (s *Store) persistMissions(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.missions)
	s.mu.RUnlock()

	s.persist(ctx, s.config.MissionsKey, "missions", data, err)
}

func (s *Store) persist(ctx context.Context, key, collection string, data []byte, marshalErr error) {
	start := time.Now()

	if marshalErr != nil {
		metrics.StorePersistErrors.WithLabelValues(collection).Inc()
		s.logger.WithError(marshalErr).WithField("collection", collection).Error("Failed to marshal collection")
		return
	}

	if err := s.blobs.Save(ctx, key, data); err != nil {
		metrics.StorePersistErrors.WithLabelValues(collection).Inc()
		s.logger.WithError(err).WithField("collection", collection).Error("Failed to persist collection")
		return
	}

	metrics.StorePersistDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
}

// updateGauges обновляет gauge-метрики парка
func (s *Store) updateGauges() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[models.DroneStatus]int{}
	for _, d := range s.drones {
		counts[d.Status]++
	}
	for _, status := range []models.DroneStatus{
		models.DroneStatusAvailable, models.DroneStatusInMission,
		models.DroneStatusIdle, models.DroneStatusMaintenance,
	} {
		metrics.DronesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}

	active := 0
	for _, m := range s.missions {
		if m.Status.IsActive() {
			active++
		}
	}
	metrics.ActiveMissions.Set(float64(active))

	metrics.StoreEntities.WithLabelValues("drones").Set(float64(len(s.drones)))
	metrics.StoreEntities.WithLabelValues("missions").Set(float64(len(s.missions)))
}

// nextID генерирует id вида <prefix><unix-millis>; при коллизии в
// пределах одной миллисекунды метка доращивается до уникальной.
// Вызывается под write lock.
func nextID(prefix string, exists func(string) bool) string {
	ms := time.Now().UnixMilli()
	id := fmt.Sprintf("%s%d", prefix, ms)
	for exists(id) {
		ms++
		id = fmt.Sprintf("%s%d", prefix, ms)
	}
	return id
}

// loadCollection читает и парсит коллекцию из blob-хранилища.
// false означает "использовать seed": ключ отсутствует, блоб поврежден
// или хранилище недоступно.
func loadCollection[T any](ctx context.Context, blobs BlobStore, key string, logger *logrus.Entry) ([]T, bool) {
	data, err := blobs.Load(ctx, key)
	if err != nil {
		logger.WithError(err).WithField("key", key).Warn("Failed to load collection blob, falling back to seed")
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.WithError(err).WithField("key", key).Warn("Corrupt collection blob, falling back to seed")
		return nil, false
	}

	return items, true
}
