package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/handler"
	"github.com/flybeeper/survey-backend/internal/metrics"
	"github.com/flybeeper/survey-backend/internal/repository"
	"github.com/flybeeper/survey-backend/internal/service"
	"github.com/flybeeper/survey-backend/internal/store"
	"github.com/flybeeper/survey-backend/pkg/utils"
)

var (
	// Version будет установлен при сборке через ldflags
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализируем логирование
	logger := utils.NewLogger(config.LogLevel(), config.LogFormat())
	logger.WithField("version", Version).Info("Starting Survey Backend")
	metrics.SetAppInfo(Version, Commit, BuildTime)

	// Создаем контекст приложения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Blob-хранилище коллекций: Redis, при недоступности — память процесса.
	// Недоступный Redis не фатален: состояние живет в памяти, зеркало
	// подключится после рестарта.
	var blobs store.BlobStore
	redisBlobs, err := store.NewRedisBlobStore(&cfg.Redis, utils.Component(logger, "redis"))
	if err != nil {
		logger.WithField("error", err).Warn("Failed to initialize Redis blob store, using in-memory store")
		blobs = store.NewMemoryBlobStore()
	} else if err := redisBlobs.Ping(ctx); err != nil {
		logger.WithField("error", err).Warn("Redis unavailable, using in-memory store")
		redisBlobs.Close()
		blobs = store.NewMemoryBlobStore()
	} else {
		logger.Info("Connected to Redis")
		blobs = redisBlobs
	}
	defer blobs.Close()

	// Entity store с восстановлением состояния или seed-датасетом
	entityStore := store.New(&cfg.Storage, blobs, utils.Component(logger, "store"))
	if err := entityStore.Load(ctx); err != nil {
		logger.WithField("error", err).Fatal("Failed to load entity store")
	}

	// Репозитории
	droneRepo := repository.NewDroneRepository(entityStore, utils.Component(logger, "drones"))
	missionRepo := repository.NewMissionRepository(entityStore, utils.Component(logger, "missions"))

	// MySQL архив истории миссий (опционально)
	var archive *service.ArchiveWriter
	var history repository.HistoryRepository
	if cfg.MySQL.DSN != "" {
		historyRepo, err := repository.NewMySQLRepository(&cfg.MySQL, utils.Component(logger, "mysql"))
		if err != nil {
			logger.WithField("error", err).Warn("Failed to initialize MySQL repository")
		} else {
			defer historyRepo.Close()
			if err := historyRepo.Ping(ctx); err != nil {
				logger.WithField("error", err).Warn("Failed to connect to MySQL, mission archive disabled")
			} else {
				logger.Info("Connected to MySQL")
				history = historyRepo
				archive = service.NewArchiveWriter(historyRepo, cfg, utils.Component(logger, "archive"))
				defer archive.Stop()
			}
		}
	}

	// Сервисы
	fleetSvc := service.NewFleetService(droneRepo, utils.Component(logger, "fleet"))
	missionSvc := service.NewMissionService(missionRepo, droneRepo, archive, &cfg.Survey, utils.Component(logger, "planner"))

	// HTTP сервер и WebSocket монитор
	monitor := handler.NewMonitorHandler(droneRepo, missionRepo, cfg, utils.Component(logger, "monitor"))
	rest := handler.NewRESTHandler(droneRepo, missionRepo, fleetSvc, missionSvc, entityStore, history, utils.Component(logger, "rest"))
	server := handler.NewServer(cfg, rest, monitor, utils.Component(logger, "http"))

	// Запускаем рассылку снимков монитора
	go monitor.Run(ctx)

	// Запускаем HTTP сервер в горутине
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithField("error", err).Fatal("Failed to start HTTP server")
		}
	}()

	// Ждем сигнала остановки
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err).Error("HTTP server shutdown error")
	}

	logger.Info("Server stopped gracefully")
}
