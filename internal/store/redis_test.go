package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/flybeeper/survey-backend/internal/config"
)

// RedisBlobTestSuite интеграционные тесты Redis blob-хранилища.
// Требует запущенный Redis, иначе пропускается.
type RedisBlobTestSuite struct {
	suite.Suite
	blobs *RedisBlobStore
	ctx   context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (suite *RedisBlobTestSuite) SetupSuite() {
	suite.ctx = context.Background()

	cfg := &config.RedisConfig{
		URL:          "redis://localhost:6379",
		DB:           15, // Используем DB 15 для тестов
		PoolSize:     10,
		MinIdleConns: 2,
	}

	var err error
	suite.blobs, err = NewRedisBlobStore(cfg, testLogger())
	require.NoError(suite.T(), err)

	if err := suite.blobs.Ping(suite.ctx); err != nil {
		suite.T().Skip("Redis not available for testing: " + err.Error())
	}
}

// SetupTest запускается перед каждым тестом
func (suite *RedisBlobTestSuite) SetupTest() {
	require.NoError(suite.T(), suite.blobs.client.FlushDB(suite.ctx).Err())
}

// TearDownSuite запускается один раз после всех тестов
func (suite *RedisBlobTestSuite) TearDownSuite() {
	if suite.blobs != nil {
		suite.blobs.client.FlushDB(suite.ctx)
		suite.blobs.Close()
	}
}

func (suite *RedisBlobTestSuite) TestSaveAndLoad() {
	payload := []byte(`[{"id":"drone1"}]`)

	err := suite.blobs.Save(suite.ctx, "survey:drones", payload)
	require.NoError(suite.T(), err)

	data, err := suite.blobs.Load(suite.ctx, "survey:drones")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), payload, data)
}

func (suite *RedisBlobTestSuite) TestLoadMissingKey() {
	data, err := suite.blobs.Load(suite.ctx, "survey:missing")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), data)
}

func (suite *RedisBlobTestSuite) TestSaveOverwrites() {
	require.NoError(suite.T(), suite.blobs.Save(suite.ctx, "survey:drones", []byte(`[]`)))
	require.NoError(suite.T(), suite.blobs.Save(suite.ctx, "survey:drones", []byte(`[{"id":"drone2"}]`)))

	data, err := suite.blobs.Load(suite.ctx, "survey:drones")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []byte(`[{"id":"drone2"}]`), data)
}

func TestRedisBlobTestSuite(t *testing.T) {
	suite.Run(t, new(RedisBlobTestSuite))
}
