package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flybeeper/survey-backend/internal/models"
)

// SeedData seed-датасет в формате {drones, missions}
type SeedData struct {
	Drones   []models.Drone   `json:"drones"`
	Missions []models.Mission `json:"missions"`
}

// LoadSeed читает seed-датасет из файла.
// Отсутствующий файл не является ошибкой: возвращаются пустые коллекции.
func LoadSeed(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SeedData{
				Drones:   []models.Drone{},
				Missions: []models.Mission{},
			}, nil
		}
		return nil, fmt.Errorf("failed to read seed file %q: %w", path, err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %q: %w", path, err)
	}

	if seed.Drones == nil {
		seed.Drones = []models.Drone{}
	}
	if seed.Missions == nil {
		seed.Missions = []models.Mission{}
	}

	return &seed, nil
}
