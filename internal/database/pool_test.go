package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"insight-flow/backend/internal/config"
	"insight-flow/backend/internal/models"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()

	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
	assert.Equal(t, logger.Warn, cfg.LogLevel)
}

func TestPoolConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   "flow.db",
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		Log: config.LogConfig{Level: "debug"},
	}
	pc := PoolConfigFrom(cfg)
	assert.Equal(t, DriverSQLite, pc.Driver)
	assert.Equal(t, "flow.db", pc.DSN)
	assert.Equal(t, 4, pc.MaxOpenConns)
	assert.Equal(t, logger.Info, pc.LogLevel)
}

func TestNewDatabasePool_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  *PoolConfig
	}{
		{"nil config", nil},
		{"empty dsn", &PoolConfig{Driver: DriverSQLite}},
		{"negative limits", &PoolConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: -1}},
		{"negative lifetime", &PoolConfig{Driver: DriverSQLite, DSN: ":memory:", ConnMaxLifetime: -time.Hour}},
		{"unknown driver", &PoolConfig{Driver: "mysql", DSN: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatabasePool(tt.cfg)
			require.Error(t, err)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestNewDatabasePool_SQLiteMemory(t *testing.T) {
	pool, err := NewDatabasePool(&PoolConfig{
		Driver:       DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 10,
		LogLevel:     logger.Silent,
	})
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pool.Health())
	stats := pool.Stats()
	assert.Equal(t, 1, stats["max_open_connections"])

	require.NoError(t, Migrate(pool.DB))
	assert.True(t, pool.DB.Migrator().HasTable(&models.ProjectMember{}))
	assert.True(t, pool.DB.Migrator().HasTable(&models.Notification{}))
}

func TestDatabasePool_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{}

	assert.NotPanics(t, func() {
		stats := pool.Stats()
		assert.Contains(t, stats, "error")
	})
	assert.Error(t, pool.Health())
	assert.NoError(t, pool.Close())
}
