package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return Load(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "insight_flow", cfg.Database.Name)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "6379", cfg.Redis.Port)

	assert.Equal(t, defaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BCryptCost)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMin)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_CustomEnvironment(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"HOST":                 "0.0.0.0",
		"PORT":                 "9000",
		"DB_DRIVER":            "sqlite",
		"DB_SQLITE_PATH":       "/tmp/flow.db",
		"REDIS_ENABLED":        "true",
		"REDIS_HOST":           "cache",
		"ACCESS_TOKEN_TTL":     "45m",
		"RATE_LIMIT_RPM":       "600",
		"CORS_ALLOWED_ORIGINS": "http://a.test,http://b.test",
		"TRUSTED_PROXIES":      "10.0.0.0/8",
		"LOG_PRETTY":           "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddr())
	assert.Equal(t, "/tmp/flow.db", cfg.GetDatabaseDSN())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
	assert.Equal(t, 45*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerMin)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DRIVER": "mysql"},
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "production without db password",
			env:     map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s3cr3t"},
			wantErr: "database password is required",
		},
		{
			name:    "production with default secret",
			env:     map[string]string{"ENVIRONMENT": "production", "DB_PASSWORD": "pw"},
			wantErr: "JWT secret must be set",
		},
		{
			name:    "non-positive ttl",
			env:     map[string]string{"ACCESS_TOKEN_TTL": "0s"},
			wantErr: "ACCESS_TOKEN_TTL",
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"READ_TIMEOUT": "soon"},
			wantErr: "load config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionSQLiteNeedsNoPassword(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_DRIVER":   "sqlite",
		"JWT_SECRET":  "s3cr3t",
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     "5432",
		User:     "flow",
		Password: "pw",
		Name:     "insight_flow",
		SSLMode:  "require",
	}}
	assert.Equal(t, "host=db port=5432 user=flow password=pw dbname=insight_flow sslmode=require", cfg.GetDatabaseDSN())
}

func TestConfig_IsProduction(t *testing.T) {
	for env, want := range map[string]bool{"production": true, "development": false, "staging": false} {
		cfg := &Config{Server: ServerConfig{Environment: env}}
		assert.Equal(t, want, cfg.IsProduction(), env)
	}
}
