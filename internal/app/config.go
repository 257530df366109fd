package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every variable the service reads. It is loaded once at startup.
type Config struct {
	Port       string `env:"PORT" envDefault:"3001"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	LogMode    string `env:"LOG_MODE"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"file:trilhas.db?_foreign_keys=on"`
	SeedFile string `env:"SEED_FILE"`

	JWTSecretKey        string        `env:"JWT_SECRET_KEY" envDefault:"defaultsecret"`
	AccessTokenTTL      time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"15m"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"trilhas-events"`

	SendgridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendgridFromEmail string `env:"SENDGRID_FROM_EMAIL" envDefault:"no-reply@trilhas.local"`
	SendgridFromName  string `env:"SENDGRID_FROM_NAME" envDefault:"Trilhas"`

	ActivationSweepInterval time.Duration `env:"ACTIVATION_SWEEP_INTERVAL" envDefault:"0"`
	MetricsEnabled          bool          `env:"METRICS_ENABLED" envDefault:"true"`
	CollectorInterval       time.Duration `env:"METRICS_COLLECTOR_INTERVAL" envDefault:"15s"`

	OtelEnabled     bool    `env:"OTEL_ENABLED"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"trilhas-backend"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`
}

// LoadConfig reads .env files (missing ones are ignored) and then the process
// environment, which wins over file values.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "development"
		if cfg.Production() {
			cfg.LogMode = "production"
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaultJWTSecret is the development fallback for JWT_SECRET_KEY.
const defaultJWTSecret = "defaultsecret"

// Validate rejects settings that are only acceptable outside production.
func (c Config) Validate() error {
	if !c.Production() {
		return nil
	}
	if secret := strings.TrimSpace(c.JWTSecretKey); secret == "" || secret == defaultJWTSecret {
		return errors.New("JWT_SECRET_KEY must be set to a non-default value in production")
	}
	return nil
}

func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Origins splits CORS_ORIGIN on commas.
func (c Config) Origins() []string {
	return strings.Split(c.CORSOrigin, ",")
}
