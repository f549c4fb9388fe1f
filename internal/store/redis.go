package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
)

// RedisBlobStore blob-хранилище поверх Redis.
// Коллекции не истекают: TTL не устанавливается.
type RedisBlobStore struct {
	client *redis.Client
	logger *logrus.Entry
	config *config.RedisConfig
}

// NewRedisBlobStore создает новое Redis blob-хранилище
func NewRedisBlobStore(cfg *config.RedisConfig, logger *logrus.Entry) (*RedisBlobStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.Password = cfg.Password
	opt.DB = cfg.DB
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.ConnMaxIdleTime = 30 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	return &RedisBlobStore{
		client: redis.NewClient(opt),
		logger: logger,
		config: cfg,
	}, nil
}

// Ping проверяет соединение с Redis
func (r *RedisBlobStore) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisBlobStore) Close() error {
	return r.client.Close()
}

// Load возвращает блоб по ключу; (nil, nil) если ключ отсутствует
func (r *RedisBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %q: %w", key, err)
	}

	r.logger.WithFields(logrus.Fields{
		"key":   key,
		"bytes": len(data),
	}).Debug("Loaded blob from Redis")

	return data, nil
}

// Save сохраняет блоб под ключом
func (r *RedisBlobStore) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save blob %q: %w", key, err)
	}
	return nil
}

var _ BlobStore = (*RedisBlobStore)(nil)
