package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит конфигурацию приложения
type Config struct {
	Environment string
	Server      ServerConfig
	Redis       RedisConfig
	MySQL       MySQLConfig
	Storage     StorageConfig
	Survey      SurveyConfig
	Monitor     MonitorConfig
	Monitoring  MonitoringConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Address      string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig конфигурация Redis (внешнее blob-хранилище коллекций)
type RedisConfig struct {
	URL          string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// MySQLConfig конфигурация MySQL (архив истории миссий, опционально)
type MySQLConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	BatchSize       int
	FlushInterval   time.Duration
	Retention       time.Duration
	CleanupInterval time.Duration
}

// StorageConfig ключи blob-хранилища и путь к seed-датасету
type StorageConfig struct {
	DronesKey   string
	MissionsKey string
	SeedPath    string
}

// SurveyConfig параметры генерации маршрутов.
// Исходная реализация использовала 5 делений при интерактивном превью
// и 3 при авто-генерации на создании миссии; константы разнесены явно.
type SurveyConfig struct {
	PreviewDivisions  int
	FallbackDivisions int
	GeohashPrecision  int
	MinAltitude       float64
	MaxAltitude       float64
	MinSpeed          float64
	MaxSpeed          float64
}

// MonitorConfig интервалы рассылки снимков парка и активных миссий
type MonitorConfig struct {
	FleetInterval   time.Duration
	MissionInterval time.Duration
	PingInterval    time.Duration
	PongTimeout     time.Duration
}

// MonitoringConfig конфигурация мониторинга
type MonitoringConfig struct {
	MetricsEnabled bool
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Address:      getEnv("SERVER_ADDRESS", ":8090"),
			Port:         getEnv("SERVER_PORT", "8090"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getInt("REDIS_DB", 0),
			PoolSize:     getInt("REDIS_POOL_SIZE", 20),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		MySQL: MySQLConfig{
			DSN:             getEnv("MYSQL_DSN", ""),
			MaxIdleConns:    getInt("MYSQL_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("MYSQL_MAX_OPEN_CONNS", 50),
			BatchSize:       getInt("MYSQL_BATCH_SIZE", 100),
			FlushInterval:   getDuration("MYSQL_FLUSH_INTERVAL", 5*time.Second),
			Retention:       getDuration("MYSQL_RETENTION", 90*24*time.Hour),
			CleanupInterval: getDuration("MYSQL_CLEANUP_INTERVAL", 24*time.Hour),
		},
		Storage: StorageConfig{
			DronesKey:   getEnv("STORAGE_DRONES_KEY", "survey:drones"),
			MissionsKey: getEnv("STORAGE_MISSIONS_KEY", "survey:missions"),
			SeedPath:    getEnv("STORAGE_SEED_PATH", "data/seed.json"),
		},
		Survey: SurveyConfig{
			PreviewDivisions:  getInt("SURVEY_PREVIEW_DIVISIONS", 5),
			FallbackDivisions: getInt("SURVEY_FALLBACK_DIVISIONS", 3),
			GeohashPrecision:  getInt("SURVEY_GEOHASH_PRECISION", 5),
			MinAltitude:       getFloat("SURVEY_MIN_ALTITUDE", 10),
			MaxAltitude:       getFloat("SURVEY_MAX_ALTITUDE", 400),
			MinSpeed:          getFloat("SURVEY_MIN_SPEED", 1),
			MaxSpeed:          getFloat("SURVEY_MAX_SPEED", 25),
		},
		Monitor: MonitorConfig{
			FleetInterval:   getDuration("MONITOR_FLEET_INTERVAL", 5*time.Second),
			MissionInterval: getDuration("MONITOR_MISSION_INTERVAL", 3*time.Second),
			PingInterval:    getDuration("MONITOR_PING_INTERVAL", 30*time.Second),
			PongTimeout:     getDuration("MONITOR_PONG_TIMEOUT", 60*time.Second),
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: getBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Storage.DronesKey == "" || c.Storage.MissionsKey == "" {
		return fmt.Errorf("storage keys are required")
	}

	if c.Survey.PreviewDivisions <= 0 || c.Survey.FallbackDivisions <= 0 {
		return fmt.Errorf("survey divisions must be positive")
	}

	if c.Survey.GeohashPrecision < 1 || c.Survey.GeohashPrecision > 12 {
		return fmt.Errorf("SURVEY_GEOHASH_PRECISION must be between 1 and 12")
	}

	if c.Survey.MinAltitude >= c.Survey.MaxAltitude {
		return fmt.Errorf("SURVEY_MIN_ALTITUDE must be less than SURVEY_MAX_ALTITUDE")
	}

	if c.Survey.MinSpeed <= 0 || c.Survey.MinSpeed >= c.Survey.MaxSpeed {
		return fmt.Errorf("invalid survey speed limits")
	}

	if c.Monitor.FleetInterval <= 0 || c.Monitor.MissionInterval <= 0 {
		return fmt.Errorf("monitor intervals must be positive")
	}

	if c.MySQL.DSN != "" && c.MySQL.BatchSize <= 0 {
		return fmt.Errorf("MYSQL_BATCH_SIZE must be positive")
	}

	return nil
}

// Helper функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// LogLevel возвращает уровень логирования
func LogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

// LogFormat возвращает формат логирования
func LogFormat() string {
	return getEnv("LOG_FORMAT", "text")
}
