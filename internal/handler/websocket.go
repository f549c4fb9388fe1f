package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/metrics"
	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/repository"
)

// MonitorHandler рассылает подключенным клиентам периодические снимки
// парка и активных миссий. Пуш заменяет клиентский polling: снимок парка
// уходит каждые FleetInterval, снимок миссий каждые MissionInterval.
type MonitorHandler struct {
	upgrader websocket.Upgrader
	drones   repository.DroneRepository
	missions repository.MissionRepository
	config   *config.Config
	logger   *logrus.Entry

	clients   map[*monitorClient]struct{}
	clientsMu sync.RWMutex
}

// monitorClient одно WebSocket соединение
type monitorClient struct {
	conn    *websocket.Conn
	send    chan []byte
	handler *MonitorHandler
}

// fleetFrame снимок парка
type fleetFrame struct {
	Type      string       `json:"type"` // "fleet"
	Timestamp time.Time    `json:"timestamp"`
	Drones    []droneFrame `json:"drones"`
}

type droneFrame struct {
	models.Drone
	Region string `json:"region"` // Geohash текущих координат
}

// missionFrame снимок миссий в работе; planned миссии включаются,
// чтобы монитор видел очередь еще не стартовавших полетов
type missionFrame struct {
	Type      string              `json:"type"` // "missions"
	Timestamp time.Time           `json:"timestamp"`
	Missions  []missionFrameEntry `json:"missions"`
}

type missionFrameEntry struct {
	models.Mission
	Region string `json:"region"` // Geohash центра зоны съемки
}

// NewMonitorHandler создает WebSocket handler мониторинга
func NewMonitorHandler(drones repository.DroneRepository, missions repository.MissionRepository, cfg *config.Config, logger *logrus.Entry) *MonitorHandler {
	return &MonitorHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Добавить проверку Origin для production
				return true
			},
		},
		drones:   drones,
		missions: missions,
		config:   cfg,
		logger:   logger,
		clients:  map[*monitorClient]struct{}{},
	}
}

// HandleWebSocket обрабатывает подключение монитора
// GET /ws/v1/monitor
func (h *MonitorHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithField("error", err).Error("Failed to upgrade to WebSocket")
		return
	}

	client := &monitorClient{
		conn:    conn,
		send:    make(chan []byte, 16),
		handler: h,
	}

	h.clientsMu.Lock()
	h.clients[client] = struct{}{}
	h.clientsMu.Unlock()

	metrics.WebSocketConnections.Inc()
	h.logger.WithField("client_ip", c.ClientIP()).Info("Monitor client connected")

	// Новый клиент сразу получает оба снимка, не дожидаясь тикеров.
	// Очередь наполняется до старта pump'ов: после readPump отключение
	// клиента закрывает send, и enqueue сюда уже не попадет.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if frame, err := h.buildFleetFrame(ctx); err == nil {
		client.enqueue(frame, "fleet")
	}
	if frame, err := h.buildMissionFrame(ctx); err == nil {
		client.enqueue(frame, "missions")
	}

	go client.writePump()
	go client.readPump()
}

// Run рассылает снимки по тикерам до отмены контекста
func (h *MonitorHandler) Run(ctx context.Context) {
	fleetTicker := time.NewTicker(h.config.Monitor.FleetInterval)
	missionTicker := time.NewTicker(h.config.Monitor.MissionInterval)
	defer fleetTicker.Stop()
	defer missionTicker.Stop()

	h.logger.WithFields(logrus.Fields{
		"fleet_interval":   h.config.Monitor.FleetInterval,
		"mission_interval": h.config.Monitor.MissionInterval,
	}).Info("Monitor broadcaster started")

	for {
		select {
		case <-fleetTicker.C:
			if h.clientCount() == 0 {
				continue
			}
			frame, err := h.buildFleetFrame(ctx)
			if err != nil {
				h.logger.WithField("error", err).Error("Failed to build fleet frame")
				continue
			}
			h.broadcast(frame, "fleet")

		case <-missionTicker.C:
			if h.clientCount() == 0 {
				continue
			}
			frame, err := h.buildMissionFrame(ctx)
			if err != nil {
				h.logger.WithField("error", err).Error("Failed to build mission frame")
				continue
			}
			h.broadcast(frame, "missions")

		case <-ctx.Done():
			h.logger.Info("Monitor broadcaster stopped")
			return
		}
	}
}

// buildFleetFrame собирает снимок парка с geohash регионами
func (h *MonitorHandler) buildFleetFrame(ctx context.Context) ([]byte, error) {
	drones, err := h.drones.List(ctx)
	if err != nil {
		return nil, err
	}

	precision := h.config.Survey.GeohashPrecision
	frame := fleetFrame{
		Type:      "fleet",
		Timestamp: time.Now(),
		Drones:    make([]droneFrame, 0, len(drones)),
	}
	for _, d := range drones {
		frame.Drones = append(frame.Drones, droneFrame{
			Drone:  d,
			Region: d.Location.Geohash(precision),
		})
	}

	return json.Marshal(frame)
}

// buildMissionFrame собирает снимок активных и запланированных миссий
func (h *MonitorHandler) buildMissionFrame(ctx context.Context) ([]byte, error) {
	all, err := h.missions.List(ctx)
	if err != nil {
		return nil, err
	}

	precision := h.config.Survey.GeohashPrecision
	frame := missionFrame{
		Type:      "missions",
		Timestamp: time.Now(),
		Missions:  []missionFrameEntry{},
	}
	for _, m := range all {
		if !m.Status.IsActive() && m.Status != models.MissionStatusPlanned {
			continue
		}
		frame.Missions = append(frame.Missions, missionFrameEntry{
			Mission: m,
			Region:  m.SurveyArea.Center.Geohash(precision),
		})
	}

	return json.Marshal(frame)
}

// broadcast отправляет кадр всем клиентам
func (h *MonitorHandler) broadcast(frame []byte, frameType string) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients {
		client.enqueue(frame, frameType)
	}
}

func (h *MonitorHandler) clientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// unregister удаляет клиента из рассылки
func (h *MonitorHandler) unregister(client *monitorClient) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()
}

// enqueue ставит кадр в очередь клиента; медленный клиент теряет кадр,
// а не тормозит рассылку
func (c *monitorClient) enqueue(frame []byte, frameType string) {
	select {
	case c.send <- frame:
		metrics.WebSocketMessagesOut.WithLabelValues(frameType).Inc()
	default:
		metrics.WebSocketErrors.Inc()
	}
}

// readPump вычитывает входящие сообщения ради обработки close и pong
func (c *monitorClient) readPump() {
	defer func() {
		c.handler.unregister(c)
		c.conn.Close()
		metrics.WebSocketConnections.Dec()
		c.handler.logger.Debug("Monitor client disconnected")
	}()

	pongTimeout := c.handler.config.Monitor.PongTimeout
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.handler.logger.WithField("error", err).Error("WebSocket read error")
			}
			return
		}
	}
}

// writePump отправляет кадры и пинги клиенту
func (c *monitorClient) writePump() {
	ticker := time.NewTicker(c.handler.config.Monitor.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.WebSocketErrors.Inc()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketErrors.Inc()
				return
			}
			metrics.WebSocketMessagesOut.WithLabelValues("ping").Inc()
		}
	}
}
