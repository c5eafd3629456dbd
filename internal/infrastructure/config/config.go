package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvTest = "test"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port      string `env:"PORT,      default=5000"`
	Env       string `env:"APP_ENV,   default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	// Store selects the persistence backend: mongo or memory.
	Store string `env:"STORE, default=mongo"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTExpire time.Duration `env:"JWT_EXPIRE, default=168h"`
	// AllowAdminSignup lets callers pick role=admin at registration.
	AllowAdminSignup bool `env:"ALLOW_ADMIN_SIGNUP, default=true"`
	BcryptCost       int  `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI,      default=mongodb://localhost:27017"`
	TestURI  string `env:"MONGODB_TEST_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,         default=sweetshop"`
}

type RedisConfig struct {
	// Addr empty disables Redis; rate limiting then falls back to memory.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type HTTPConfig struct {
	CORSOrigin string `env:"CORS_ORIGIN, default=http://localhost:3000"`
	BodyLimit  string `env:"BODY_LIMIT,  default=1M"`
}

type RateLimitConfig struct {
	Window      time.Duration `env:"RATE_LIMIT_WINDOW,       default=15m"`
	MaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS, default=100"`
}

// MongoURI returns the connection string for the current environment.
func (c *Config) MongoURI() string {
	if c.Env == EnvTest {
		return c.Mongo.TestURI
	}
	return c.Mongo.URI
}

// Load reads configuration from the process environment, or from lookuper
// when one is given.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	ec := &envconfig.Config{Target: &cfg}
	if lookuper != nil {
		ec.Lookuper = lookuper
	}
	if err := envconfig.ProcessWith(ctx, ec); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.Store {
	case StoreMongo, StoreMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE %q", cfg.Store)
	}
	return &cfg, nil
}
