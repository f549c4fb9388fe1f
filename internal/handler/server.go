package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/metrics"
)

// Server HTTP сервер панели управления парком
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *logrus.Entry
	config     *config.Config
	rest       *RESTHandler
	monitor    *MonitorHandler
}

// NewServer создает новый HTTP сервер
func NewServer(cfg *config.Config, rest *RESTHandler, monitor *MonitorHandler, logger *logrus.Entry) *Server {
	// Production mode для Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RateLimitMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(SecurityHeadersMiddleware())

	server := &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		rest:    rest,
		monitor: monitor,
	}

	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Совместимый фасад чтения/записи полного состояния
	s.router.GET("/api/data", s.rest.GetData)
	s.router.POST("/api/data", s.rest.PostData)

	// API v1 группа
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/drones", s.rest.ListDrones)
		v1.GET("/drones/:id", s.rest.GetDrone)
		v1.POST("/drones", s.rest.CreateDrone)
		v1.PATCH("/drones/:id", s.rest.UpdateDrone)
		v1.DELETE("/drones/:id", s.rest.DeleteDrone)
		v1.POST("/drones/:id/maintenance", s.rest.ToggleMaintenance)

		v1.GET("/missions", s.rest.ListMissions)
		v1.GET("/missions/active", s.rest.ListActiveMissions)
		v1.GET("/missions/history", s.rest.MissionHistory)
		v1.GET("/missions/:id", s.rest.GetMission)
		v1.POST("/missions", s.rest.CreateMission)
		v1.PATCH("/missions/:id", s.rest.UpdateMission)

		v1.POST("/flightpath/preview", s.rest.PreviewFlightPath)
		v1.GET("/stats", s.rest.GetStats)
		v1.POST("/reset", s.rest.Reset)
	}

	// WebSocket для real-time мониторинга
	s.router.GET("/ws/v1/monitor", s.monitor.HandleWebSocket)

	// Метрики Prometheus
	if s.config.Monitoring.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address": s.config.Server.Address,
		"mode":    gin.Mode(),
	}).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Shutdown корректное завершение сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router возвращает роутер (для тестов)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	})
}

// ==================== Middleware ====================

// LoggerMiddleware логирование запросов
func LoggerMiddleware(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("HTTP request completed")
	}
}

// CORSMiddleware настройка CORS
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // В production указать конкретные домены
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RateLimitMiddleware ограничение частоты запросов
func RateLimitMiddleware() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(100), 200) // 100 req/sec, burst 200

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limit_exceeded",
				"message": "Too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// MetricsMiddleware считает HTTP метрики по зарегистрированному маршруту
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
	}
}

// SecurityHeadersMiddleware заголовки безопасности
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
