package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	Environment string
	ServiceName string

	Database DatabaseConfig

	JWTSecret string

	Push PushConfig

	ReminderInterval time.Duration
	// Optional. Without it reminder sweeps are serialized per process only.
	RedisURL string

	LokiURL      string
	OTLPEndpoint string
	MetricsPort  string

	AdminUsername string
	AdminPassword string

	RateLimitEnabled bool
	CacheEnabled     bool
	EnforceHTTPS     bool
}

type DatabaseConfig struct {
	Driver         string
	Path           string
	URL            string
	MigrationsPath string
	LogLevel       string
}

type PushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Port:        "8080",
		Environment: "development",
		ServiceName: "todotracker",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "database.db",
		},
		Push: PushConfig{
			Subject: "mailto:admin@example.com",
		},
		ReminderInterval: 30 * time.Second,
		MetricsPort:      "9091",
		RateLimitEnabled: true,
		CacheEnabled:     true,
		EnforceHTTPS:     false,
	}
}

// Load reads the environment on top of the defaults. Outside production a
// .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	env := os.Getenv("GO_ENV")

	if env == "" || env == "development" {
		_ = godotenv.Load()
	}

	cfg := GetDefaultConfig()

	if env != "" {
		cfg.Environment = env
	}

	setString(&cfg.Port, "PORT")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.Path, "DATABASE_PATH")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.MigrationsPath, "MIGRATIONS_PATH")
	setString(&cfg.Database.LogLevel, "SQL_LOG_LEVEL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Push.PublicKey, "VAPID_PUBLIC_KEY")
	setString(&cfg.Push.PrivateKey, "VAPID_PRIVATE_KEY")
	setString(&cfg.Push.Subject, "VAPID_SUBJECT")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.LokiURL, "LOKI_URL")
	setString(&cfg.OTLPEndpoint, "OTLP_ENDPOINT")
	setString(&cfg.MetricsPort, "METRICS_PORT")
	setString(&cfg.AdminUsername, "ADMIN_USERNAME")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")

	if value := os.Getenv("REMINDER_INTERVAL"); value != "" {
		interval, err := time.ParseDuration(value)

		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("invalid REMINDER_INTERVAL %q", value)
		}

		cfg.ReminderInterval = interval
	}

	for key, target := range map[string]*bool{
		"ENFORCE_HTTPS":      &cfg.EnforceHTTPS,
		"RATE_LIMIT_ENABLED": &cfg.RateLimitEnabled,
		"CACHE_ENABLED":      &cfg.CacheEnabled,
	} {
		if err := setBool(target, key); err != nil {
			return nil, err
		}
	}

	if os.Getenv("GIN_MODE") == "release" {
		cfg.EnforceHTTPS = true
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for postgres")
	}

	return cfg, nil
}

func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func setBool(target *bool, key string) error {
	value := os.Getenv(key)

	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(value)

	if err != nil {
		return fmt.Errorf("invalid %s %q", key, value)
	}

	*target = parsed
	return nil
}
