package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT          JWTConfig
	Registration RegistrationConfig
	Reaper       ReaperConfig

	Mongo MongoConfig
	Redis RedisConfig
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,  default=15m"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL, default=168h"`
}

type RegistrationConfig struct {
	LockoutThreshold       int           `env:"LOCKOUT_THRESHOLD,        default=5"`
	PendingTTL             time.Duration `env:"PENDING_REGISTRATION_TTL, default=5m"`
	VerificationCodeLength int           `env:"VERIFICATION_CODE_LENGTH, default=6"`
	ResendWindow           time.Duration `env:"RESEND_WINDOW,            default=1m"`
}

type ReaperConfig struct {
	Interval time.Duration `env:"REAPER_INTERVAL, default=1m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity_service"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
