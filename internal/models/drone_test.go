package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDrone() Drone {
	return Drone{
		ID:              "drone1726000000001",
		Name:            "Surveyor Alpha",
		Model:           "DJI Matrice 350 RTK",
		Status:          DroneStatusAvailable,
		BatteryLevel:    100,
		Location:        GeoPoint{Lat: 40.7128, Lng: -74.0060},
		GPSSignal:       98,
		Temperature:     24.5,
		LastMaintenance: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		Specifications: DroneSpecifications{
			MaxAltitude:   400,
			MaxSpeed:      23,
			MaxFlightTime: 55,
			Sensors:       []string{"rgb", "thermal"},
		},
	}
}

func TestDrone_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Drone)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid drone",
			mutate:  func(*Drone) {},
			wantErr: false,
		},
		{
			name:    "Missing name",
			mutate:  func(d *Drone) { d.Name = "" },
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "Unknown status",
			mutate:  func(d *Drone) { d.Status = "flying" },
			wantErr: true,
			errMsg:  "invalid drone status",
		},
		{
			name:    "Battery over 100",
			mutate:  func(d *Drone) { d.BatteryLevel = 101 },
			wantErr: true,
			errMsg:  "invalid battery level",
		},
		{
			name:    "Negative GPS signal",
			mutate:  func(d *Drone) { d.GPSSignal = -1 },
			wantErr: true,
			errMsg:  "invalid gps signal",
		},
		{
			name:    "Invalid location",
			mutate:  func(d *Drone) { d.Location.Lat = 120 },
			wantErr: true,
			errMsg:  "location",
		},
		{
			name: "Mission id without in-mission status",
			mutate: func(d *Drone) {
				d.CurrentMissionID = "mission123"
			},
			wantErr: true,
			errMsg:  "currentMissionId set",
		},
		{
			name: "In-mission status without mission id",
			mutate: func(d *Drone) {
				d.Status = DroneStatusInMission
			},
			wantErr: true,
			errMsg:  "without currentMissionId",
		},
		{
			name: "In-mission with mission id",
			mutate: func(d *Drone) {
				d.Status = DroneStatusInMission
				d.CurrentMissionID = "mission123"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDrone()
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDrone_Apply(t *testing.T) {
	d := validDrone()

	battery := 55
	status := DroneStatusInMission
	missionID := "mission42"
	d.Apply(DronePatch{
		BatteryLevel:     &battery,
		Status:           &status,
		CurrentMissionID: &missionID,
	})

	assert.Equal(t, 55, d.BatteryLevel)
	assert.Equal(t, DroneStatusInMission, d.Status)
	assert.Equal(t, "mission42", d.CurrentMissionID)

	// Незатронутые поля не меняются
	assert.Equal(t, "Surveyor Alpha", d.Name)
	assert.Equal(t, 98, d.GPSSignal)
}

func TestDrone_JSONRoundTrip(t *testing.T) {
	d := validDrone()

	data, err := json.Marshal(d)
	require.NoError(t, err)

	// Wire-формат использует camelCase и ISO-8601 даты
	assert.Contains(t, string(data), `"batteryLevel":100`)
	assert.Contains(t, string(data), `"gpsSignal":98`)
	assert.Contains(t, string(data), `"lastMaintenance":"2026-08-10T09:00:00Z"`)
	assert.NotContains(t, string(data), "currentMissionId")

	var restored Drone
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, d.ID, restored.ID)
	assert.True(t, d.LastMaintenance.Equal(restored.LastMaintenance))
	assert.Equal(t, d.Specifications, restored.Specifications)
}
