package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/planner"
	"github.com/flybeeper/survey-backend/internal/repository"
	"github.com/flybeeper/survey-backend/internal/service"
	"github.com/flybeeper/survey-backend/internal/stats"
	"github.com/flybeeper/survey-backend/internal/store"
)

// RESTHandler обработчик REST API endpoints
type RESTHandler struct {
	drones     repository.DroneRepository
	missions   repository.MissionRepository
	fleet      *service.FleetService
	missionSvc *service.MissionService
	store      *store.Store
	history    repository.HistoryRepository // nil когда архив не сконфигурирован
	logger     *logrus.Entry
	timeout    time.Duration
}

// NewRESTHandler создает новый REST handler
func NewRESTHandler(drones repository.DroneRepository, missions repository.MissionRepository, fleet *service.FleetService, missionSvc *service.MissionService, st *store.Store, history repository.HistoryRepository, logger *logrus.Entry) *RESTHandler {
	return &RESTHandler{
		drones:     drones,
		missions:   missions,
		fleet:      fleet,
		missionSvc: missionSvc,
		store:      st,
		history:    history,
		logger:     logger,
		timeout:    30 * time.Second,
	}
}

// GetData возвращает обе коллекции целиком
// GET /api/data -> { "drones": [...], "missions": [...] }
func (h *RESTHandler) GetData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	drones, err := h.drones.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve drones")
		return
	}

	missions, err := h.missions.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve missions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drones":   drones,
		"missions": missions,
	})
}

// PostData замещает обе коллекции целиком
// POST /api/data с телом { "drones": [...], "missions": [...] }
// Оба поля обязаны быть массивами, иначе 400.
func (h *RESTHandler) PostData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var body struct {
		Drones   json.RawMessage `json:"drones"`
		Missions json.RawMessage `json:"missions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": "Request body must be valid JSON",
		})
		return
	}

	// json.Unmarshal принимает null в слайс, поэтому отсутствие поля и
	// явный null отсекаем до разбора
	var drones []models.Drone
	if isJSONNull(body.Drones) || json.Unmarshal(body.Drones, &drones) != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_drones",
			"message": "Field 'drones' must be an array of drone records",
		})
		return
	}

	var missions []models.Mission
	if isJSONNull(body.Missions) || json.Unmarshal(body.Missions, &missions) != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_missions",
			"message": "Field 'missions' must be an array of mission records",
		})
		return
	}

	if err := h.store.ReplaceAll(ctx, drones, missions); err != nil {
		h.internalError(c, err, "Failed to replace collections")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"drones":   len(drones),
		"missions": len(missions),
	}).Info("Replaced collections wholesale")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListDrones возвращает весь парк
// GET /api/v1/drones
func (h *RESTHandler) ListDrones(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	drones, err := h.drones.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve drones")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drones": drones,
		"count":  len(drones),
	})
}

// GetDrone возвращает дрона по id
// GET /api/v1/drones/:id
func (h *RESTHandler) GetDrone(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	d, err := h.drones.Get(ctx, c.Param("id"))
	if err != nil {
		h.internalError(c, err, "Failed to retrieve drone")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "drone_not_found",
			"message": "Drone not found",
		})
		return
	}

	c.JSON(http.StatusOK, d)
}

// CreateDrone регистрирует нового дрона
// POST /api/v1/drones
func (h *RESTHandler) CreateDrone(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var in service.DroneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": err.Error(),
		})
		return
	}

	d, err := h.fleet.CreateDrone(ctx, in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_drone",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, d)
}

// UpdateDrone частичное обновление дрона
// PATCH /api/v1/drones/:id
func (h *RESTHandler) UpdateDrone(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	id := c.Param("id")

	var patch models.DronePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": err.Error(),
		})
		return
	}

	if err := h.drones.Update(ctx, id, patch); err != nil {
		h.internalError(c, err, "Failed to update drone")
		return
	}

	d, err := h.drones.Get(ctx, id)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve drone")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "drone_not_found",
			"message": "Drone not found",
		})
		return
	}

	c.JSON(http.StatusOK, d)
}

// DeleteDrone удаляет дрона из парка
// DELETE /api/v1/drones/:id
func (h *RESTHandler) DeleteDrone(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.drones.Delete(ctx, c.Param("id")); err != nil {
		h.internalError(c, err, "Failed to delete drone")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleMaintenance переключает режим обслуживания дрона
// POST /api/v1/drones/:id/maintenance
func (h *RESTHandler) ToggleMaintenance(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	d, err := h.fleet.ToggleMaintenance(ctx, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDroneNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "drone_not_found",
				"message": "Drone not found",
			})
		case errors.Is(err, service.ErrDroneBusy):
			c.JSON(http.StatusConflict, gin.H{
				"code":    "drone_busy",
				"message": err.Error(),
			})
		default:
			h.internalError(c, err, "Failed to toggle maintenance")
		}
		return
	}

	c.JSON(http.StatusOK, d)
}

// ListMissions возвращает все миссии
// GET /api/v1/missions
func (h *RESTHandler) ListMissions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	missions, err := h.missions.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve missions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"missions": missions,
		"count":    len(missions),
	})
}

// ListActiveMissions возвращает миссии в статусах starting/in-progress/paused
// GET /api/v1/missions/active
func (h *RESTHandler) ListActiveMissions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	missions, err := h.missions.ListActive(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve active missions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"missions": missions,
		"count":    len(missions),
	})
}

// MissionHistory возвращает последние записи архива миссий
// GET /api/v1/missions/history?limit=50
func (h *RESTHandler) MissionHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "archive_unavailable",
			"message": "Mission archive is not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_limit",
			"message": "Parameter 'limit' must be between 1 and 500",
		})
		return
	}

	records, err := h.history.LoadRecentMissions(ctx, limit)
	if err != nil {
		h.internalError(c, err, "Failed to load mission history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"missions": records,
		"count":    len(records),
	})
}

// GetMission возвращает миссию по id
// GET /api/v1/missions/:id
func (h *RESTHandler) GetMission(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	m, err := h.missions.Get(ctx, c.Param("id"))
	if err != nil {
		h.internalError(c, err, "Failed to retrieve mission")
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "mission_not_found",
			"message": "Mission not found",
		})
		return
	}

	c.JSON(http.StatusOK, m)
}

// CreateMission планирует новую миссию
// POST /api/v1/missions
func (h *RESTHandler) CreateMission(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var in service.MissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": err.Error(),
		})
		return
	}

	m, err := h.missionSvc.PlanMission(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrInsufficientBounds):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "insufficient_bounds",
				"message": "Survey area requires at least 3 boundary points",
			})
		case errors.Is(err, service.ErrDroneNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "drone_not_found",
				"message": "Drone not found",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "invalid_mission",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, m)
}

// UpdateMission частичное обновление миссии
// PATCH /api/v1/missions/:id
func (h *RESTHandler) UpdateMission(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var patch models.MissionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": err.Error(),
		})
		return
	}

	m, err := h.missionSvc.UpdateMission(ctx, c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, service.ErrMissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "mission_not_found",
				"message": "Mission not found",
			})
			return
		}
		h.internalError(c, err, "Failed to update mission")
		return
	}

	c.JSON(http.StatusOK, m)
}

// PreviewFlightPath генерирует маршрут для предпросмотра без создания миссии
// POST /api/v1/flightpath/preview
func (h *RESTHandler) PreviewFlightPath(c *gin.Context) {
	var req struct {
		Pattern  models.FlightPattern `json:"pattern" binding:"required"`
		Bounds   []models.GeoPoint    `json:"bounds" binding:"required"`
		Altitude float64              `json:"altitude"`
		Speed    float64              `json:"speed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_body",
			"message": err.Error(),
		})
		return
	}

	waypoints, err := h.missionSvc.PreviewFlightPath(req.Pattern, req.Bounds, req.Altitude)
	if err != nil {
		if errors.Is(err, planner.ErrInsufficientBounds) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "insufficient_bounds",
				"message": "Survey area requires at least 3 boundary points",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_pattern",
			"message": err.Error(),
		})
		return
	}

	resp := gin.H{
		"waypoints": waypoints,
		"count":     len(waypoints),
	}
	if req.Speed > 0 {
		resp["estimatedDuration"] = planner.EstimateDuration(len(waypoints), req.Speed)
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats возвращает сводную статистику организации
// GET /api/v1/stats
func (h *RESTHandler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	missions, err := h.missions.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve missions")
		return
	}

	drones, err := h.drones.List(ctx)
	if err != nil {
		h.internalError(c, err, "Failed to retrieve drones")
		return
	}

	c.JSON(http.StatusOK, stats.Aggregate(missions, drones))
}

// Reset замещает коллекции seed-датасетом
// POST /api/v1/reset
func (h *RESTHandler) Reset(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.store.Reset(ctx); err != nil {
		h.internalError(c, err, "Failed to reset collections")
		return
	}

	h.logger.Info("Collections reset to seed dataset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// isJSONNull true для отсутствующего поля и литерала null
func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func (h *RESTHandler) internalError(c *gin.Context, err error, msg string) {
	h.logger.WithField("error", err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": msg,
	})
}
