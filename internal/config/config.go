package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string        `env:"HOST, default=localhost"`
	Port           string        `env:"PORT, default=8080"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT, default=60s"`
	Environment    string        `env:"ENVIRONMENT, default=development"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS, default=*"`
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []string      `env:"TRUSTED_PROXIES"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER, default=postgres"`
	SQLitePath      string        `env:"DB_SQLITE_PATH, default=insight_flow.db"`
	Host            string        `env:"DB_HOST, default=localhost"`
	Port            string        `env:"DB_PORT, default=5432"`
	User            string        `env:"DB_USER, default=postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME, default=insight_flow"`
	SSLMode         string        `env:"DB_SSL_MODE, default=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME, default=30m"`
}

type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED, default=false"`
	Host         string        `env:"REDIS_HOST, default=localhost"`
	Port         string        `env:"REDIS_PORT, default=6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB, default=0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE, default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS, default=5"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES, default=3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT, default=3s"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET, default=your-secret-key"`
	Issuer    string `env:"JWT_ISSUER, default=insight-flow"`
	// AccessTokenTTL is used by login and refresh. Tokens issued without an
	// explicit ttl fall back to auth.DefaultTokenTTL instead.
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL, default=30m"`
	BCryptCost     int           `env:"BCRYPT_COST, default=10"`
}

type RateLimitConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED, default=true"`
	RequestsPerMin  int           `env:"RATE_LIMIT_RPM, default=100"`
	BurstSize       int           `env:"RATE_LIMIT_BURST, default=10"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP, default=10m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return Load(context.Background(), envconfig.OsLookuper())
}

// Load resolves the configuration from lookuper and validates it.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.IsProduction() {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
		if c.Auth.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT secret must be set in production")
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
